package classifier

import (
	"net/url"
	"path"
	"strings"
)

// MediaExtensions are the file suffixes treated as downloadable images
var MediaExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webm"}

// redirectMarker appears in aggregator redirect links, which are never direct media
const redirectMarker = "url="

var thumbnailMarkers = []string{"/thumb/", "/thumbs/"}

// Kind is the classification of one href
type Kind int

const (
	Irrelevant Kind = iota
	FullImage
	Thumbnail
)

func (k Kind) String() string {
	switch k {
	case FullImage:
		return "full_image"
	case Thumbnail:
		return "thumbnail"
	default:
		return "irrelevant"
	}
}

// Classify tags href. Thumbnails are recognised by path marker alone; they need
// not carry a media extension because the seed is recovered from the embedded URL.
func Classify(href string) Kind {
	if IsThumbnail(href) {
		return Thumbnail
	}
	if IsMedia(href) {
		return FullImage
	}
	return Irrelevant
}

// IsMedia reports whether href ends in a supported extension and is not an
// aggregator redirect
func IsMedia(href string) bool {
	if strings.Contains(href, redirectMarker) {
		return false
	}
	for _, ext := range MediaExtensions {
		if strings.HasSuffix(href, ext) {
			return true
		}
	}
	return false
}

// IsThumbnail reports whether href points into a thumbnail directory
func IsThumbnail(href string) bool {
	for _, marker := range thumbnailMarkers {
		if strings.Contains(href, marker) {
			return true
		}
	}
	return false
}

// Normalize rewrites scheme-relative links to https and leaves everything else alone
func Normalize(href string) string {
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

// Absolute normalizes href and, if it is still relative, resolves it against base.
// A nil base leaves relative links as they are.
func Absolute(base *url.URL, href string) string {
	href = Normalize(href)
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil || ref.IsAbs() {
		return href
	}
	return base.ResolveReference(ref).String()
}

// Dedup removes repeated links, keeping the first occurrence of each
func Dedup(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))
	for _, link := range links {
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		out = append(out, link)
	}
	return out
}

// DirectLinks returns the full-size media links of a thread page
func DirectLinks(base *url.URL, hrefs []string) []string {
	var links []string
	for _, href := range hrefs {
		if Classify(href) == FullImage {
			links = append(links, Absolute(base, href))
		}
	}
	return Dedup(links)
}

// MediaLinks returns every media link of a page, thumbnails included
func MediaLinks(base *url.URL, hrefs []string) []string {
	var links []string
	for _, href := range hrefs {
		if IsMedia(href) {
			links = append(links, Absolute(base, href))
		}
	}
	return Dedup(links)
}

// Seed recovers the image URL embedded in a thumbnail link: everything from the
// last "http" on. ok is false when the link holds no such URL.
func Seed(link string) (seed string, ok bool) {
	idx := strings.LastIndex(link, "http")
	if idx < 0 {
		return "", false
	}
	return link[idx:], true
}

// SeedLinks returns the reverse-search seeds of a thread page, one per distinct
// thumbnail link. Hrefs are only normalized, never resolved against the page:
// a thumbnail without an embedded http URL yields no seed.
func SeedLinks(hrefs []string) []string {
	var thumbs []string
	for _, href := range hrefs {
		if Classify(href) == Thumbnail {
			thumbs = append(thumbs, Normalize(href))
		}
	}

	var seeds []string
	for _, thumb := range Dedup(thumbs) {
		if seed, ok := Seed(thumb); ok {
			seeds = append(seeds, seed)
		}
	}
	return Dedup(seeds)
}

// Basename returns the last non-empty path segment of link, without query or fragment
func Basename(link string) string {
	p := link
	if u, err := url.Parse(link); err == nil && u.Path != "" {
		p = u.Path
	}
	segments := strings.Split(p, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}

// Extension returns the final dot-segment of the link's path, including the dot
func Extension(link string) string {
	return path.Ext(Basename(link))
}

// StripThumbnailMarker removes every 's' from a thumbnail filename, which turns
// "1700000000001s.jpg" into the full-size name "1700000000001.jpg"
func StripThumbnailMarker(name string) string {
	return strings.ReplaceAll(name, "s", "")
}
