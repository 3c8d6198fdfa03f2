package scraper

import (
	"net/url"
	"strings"

	"golang.org/x/text/width"
)

// threadMarkers precede the thread id in a thread URL path
var threadMarkers = map[string]bool{"thread": true, "res": true}

// ThreadID extracts the thread id from a thread URL: the segment following
// "thread" (or "res"), else the last all-digit segment, else the last segment.
func ThreadID(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "#?"); i >= 0 {
		p = p[:i]
	}

	var segments []string
	for _, seg := range strings.Split(p, "/") {
		seg = strings.TrimSuffix(seg, ".html")
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return ""
	}

	for i := 0; i < len(segments)-1; i++ {
		if threadMarkers[segments[i]] {
			return segments[i+1]
		}
	}
	for i := len(segments) - 1; i >= 0; i-- {
		if isDigits(segments[i]) {
			return segments[i]
		}
	}
	return segments[len(segments)-1]
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// DirectoryName picks the directory for a thread: the explicit override, else
// "<name> - <id>" when a display name is given, else "<id> - <title>".
func DirectoryName(override, name, id, title string) string {
	if override != "" {
		return override
	}
	if name != "" {
		return SanitizeName(name) + " - " + id
	}
	return id + " - " + SanitizeName(title)
}

// unsafeRunes cannot appear in a single path element on at least one platform
const unsafeRunes = `/\:*?"<>|`

// SanitizeName replaces characters that are unsafe in a directory name with
// their full-width forms, which look the same but are ordinary characters.
func SanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r < 0x20 {
			return -1
		}
		return r
	}, name)

	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(unsafeRunes, r) {
			b.WriteString(width.Widen.String(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
