// Package classifier sorts the anchor links of a page into full-size images,
// thumbnails and everything else, and derives filenames from them. Every
// function is pure.
package classifier
