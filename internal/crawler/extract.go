package crawler

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	mapset "github.com/deckarep/golang-set/v2"
)

// Extractor pulls resource URLs out of a parsed HTML document.
// It is a pure function over (document, base URL): no I/O, no state
// mutation, and running it twice on the same input yields the same set.
//
// Design decision: We use goquery rather than walking the x/net/html tree
// by hand because the extraction surfaces are naturally expressed as
// selectors (img[src], a[href], [style]) and goquery tolerates the broken
// HTML found in the wild.
type Extractor struct {
	// ext is the target file extension including the leading dot,
	// stored lowercase.
	ext string
}

// backgroundImageRe matches url(...) values inside inline style
// attributes. Quotes around the URL are optional.
var backgroundImageRe = regexp.MustCompile(`(?i)url\(\s*['"]?([^'")]+?)['"]?\s*\)`)

// NewExtractor creates an Extractor for the given file extension.
// The extension is matched case-insensitively against the URL path with
// the query string stripped. An empty extension defaults to ".gif".
func NewExtractor(ext string) *Extractor {
	if ext == "" {
		ext = ".gif"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Extractor{ext: strings.ToLower(ext)}
}

// Extension returns the target extension including the leading dot.
func (e *Extractor) Extension() string {
	return e.ext
}

// Extract returns the sorted set of absolute resource URLs in doc that
// match the target extension. Three surfaces are scanned: image sources,
// anchor targets, and inline-style background images. Candidates that
// fail URL resolution are silently skipped; malformed URLs are not
// errors, just excluded.
func (e *Extractor) Extract(doc *goquery.Document, base *url.URL) []string {
	found := mapset.NewSet[string]()

	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		e.collect(found, s.AttrOr("src", ""), base)
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		e.collect(found, s.AttrOr("href", ""), base)
	})

	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		for _, m := range backgroundImageRe.FindAllStringSubmatch(s.AttrOr("style", ""), -1) {
			e.collect(found, m[1], base)
		}
	})

	urls := found.ToSlice()
	sort.Strings(urls)
	return urls
}

// Links returns the resolved absolute anchor targets of doc in document
// order, deduplicated. No extension filtering: these are traversal
// candidates, and the scope policy decides what gets followed.
func (e *Extractor) Links(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]bool)
	links := make([]string, 0)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		resolved, ok := resolveCandidate(s.AttrOr("href", ""), base)
		if !ok {
			return
		}
		link := resolved.String()
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	})

	return links
}

// Title returns the trimmed document title, or empty string.
func (e *Extractor) Title(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// collect resolves one candidate and adds it to the set if it matches
// the target extension.
func (e *Extractor) collect(set mapset.Set[string], raw string, base *url.URL) {
	resolved, ok := resolveCandidate(raw, base)
	if !ok {
		return
	}
	if !e.matches(resolved) {
		return
	}
	set.Add(resolved.String())
}

// matches reports whether the URL path, with the query string already
// excluded by url.Parse, ends in the target extension. The query is kept
// in returned URLs; only matching ignores it.
func (e *Extractor) matches(u *url.URL) bool {
	return strings.HasSuffix(strings.ToLower(u.Path), e.ext)
}

// resolveCandidate resolves a raw attribute value against the base URL.
// It returns false for empty values, in-document fragment references,
// unparsable URLs, and anything that does not resolve to an HTTP(S) URL
// with a host.
func resolveCandidate(raw string, base *url.URL) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return nil, false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}

	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil, false
	}
	if resolved.Host == "" {
		return nil, false
	}

	return resolved, true
}
