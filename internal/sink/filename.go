package sink

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// unsafeChars matches characters that are unsafe or annoying in filenames
// across common filesystems.
var unsafeChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]+`)

// Filename derives a filesystem-safe file name from a resource URL.
// The last path segment is used; query strings and fragments never leak
// into the name. URLs whose path carries no usable segment fall back to
// a name built from the host.
func Filename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Sanitize(rawURL)
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		name = u.Hostname() + ".gif"
	}

	return Sanitize(name)
}

// Sanitize replaces filesystem-unsafe characters with underscores and
// trims leading dots so the result never hides as a dotfile.
func Sanitize(name string) string {
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = "resource"
	}
	return name
}

// Uniquify appends a numeric suffix before the extension until the name
// no longer collides with the taken set, then records it as taken.
func Uniquify(name string, taken map[string]bool) string {
	if !taken[name] {
		taken[name] = true
		return name
	}

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if !taken[candidate] {
			taken[candidate] = true
			return candidate
		}
	}
}
