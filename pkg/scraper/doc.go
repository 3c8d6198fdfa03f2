// Package scraper drives a thread from its URL to files on disk.
//
// For each thread the Scraper fetches the page, derives the directory name
// from the thread id and title, classifies the anchor links and hands every
// image to the storage engine in page order. In reverse-search mode the
// thumbnails are first resolved through the aggregator. Download records the
// thread in the registry; Update walks the registry and drops threads that no
// longer exist.
//
// Everything runs sequentially: one request in flight and one image at a time,
// so status lines and their numbering follow the page.
package scraper
