// Package iqdb resolves thumbnails to full-size images through a reverse image
// search aggregator.
//
// The aggregator answers with an HTML page of result links. Results end at the
// first "#" anchor and start after a self link; the result pages are then
// fetched one by one and their media links pooled into a single candidate list
// for the download engine.
package iqdb
