package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// digit run, allowing thousand separators (space, no-break space,
	// narrow no-break space) inside
	countPattern = regexp.MustCompile(`\d[\d\s\x{00a0}\x{202f}]*`)

	// 4-digit year, 19xx or 20xx
	yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

	// detail-page path: /ad/<category>/<numeric id>
	adPathPattern = regexp.MustCompile(`/ad/[^/]+/\d+`)

	whitespaceRun = regexp.MustCompile(`\s+`)
)

// ParseCount extracts the first digit run from the text, ignoring
// thousand separators, and returns it as an integer. ok is false when the
// text contains no digits.
func ParseCount(text string) (n int, ok bool) {
	m := countPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	var digits strings.Builder
	for _, r := range m {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseYear extracts the first 4-digit 19xx/20xx year from the text
func ParseYear(text string) (int, bool) {
	m := yearPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return y, true
}

// AbsoluteURL resolves an href to its canonical absolute form. Hrefs that
// already carry a scheme are returned unchanged, protocol-relative hrefs
// are given https, anything else is resolved against the site origin.
func AbsoluteURL(href, origin string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	origin = strings.TrimRight(origin, "/")
	if strings.HasPrefix(href, "/") {
		return origin + href
	}
	return origin + "/" + href
}

// LooksLikeAdURL reports whether the URL points at a listing detail page.
// In-page anchors used by the site chrome are rejected.
func LooksLikeAdURL(url string) bool {
	if url == "" {
		return false
	}
	if strings.Contains(url, "#footer") || strings.Contains(url, "#mainContent") {
		return false
	}
	return adPathPattern.MatchString(url)
}

// CollapseWhitespace collapses internal whitespace runs to single spaces
// and trims the result.
func CollapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
