// Package registry persists the watch-list of threads used by the update command.
//
// The file holds one "<thread url>;<name>" line per thread. It is read once at
// the start of a run and rewritten in full at the end; there is no incremental
// append and no merging with concurrent edits.
package registry
