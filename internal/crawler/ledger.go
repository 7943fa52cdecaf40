package crawler

import (
	"net/url"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Ledger tracks which normalized page URLs have been visited during one
// crawl, guaranteeing each page is fetched at most once. It grows
// monotonically and is discarded with the session at crawl end.
type Ledger struct {
	seen mapset.Set[string]
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{seen: mapset.NewSet[string]()}
}

// Normalize canonicalizes a page URL for deduplication.
//
// Design decision: We normalize because the same page can have several
// URL representations:
//  1. Fragments (#anchor) never change the fetched content
//  2. Scheme and host are case-insensitive
//  3. An empty path and "/" are equivalent
func Normalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

// MarkIfNew normalizes the URL and records it. It returns true when the
// URL was unseen, false when it was already recorded. Used as the gate
// before fetching a page.
func (l *Ledger) MarkIfNew(raw string) bool {
	return l.seen.Add(l.key(raw))
}

// Seen reports whether the URL has already been recorded, without
// recording it.
func (l *Ledger) Seen(raw string) bool {
	return l.seen.Contains(l.key(raw))
}

// Size returns the number of distinct pages recorded.
func (l *Ledger) Size() int {
	return l.seen.Cardinality()
}

// key returns the normalized form, falling back to the raw string when
// normalization fails. An unparsable URL can never match a parsable one,
// so the fallback is harmless for dedup purposes.
func (l *Ledger) key(raw string) string {
	key, err := Normalize(raw)
	if err != nil {
		return raw
	}
	return key
}
