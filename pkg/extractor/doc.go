// Package extractor reads anchor links and the thread title out of HTML pages.
package extractor
