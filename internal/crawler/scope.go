package crawler

import (
	"net/url"
	"strings"
)

// Scope decides whether a candidate URL is eligible for traversal.
// By default only the exact start origin (scheme + host + port) is in
// scope. With subdomains enabled, any host under the start URL's base
// registrable domain also qualifies.
//
// The base domain is approximated as the last two dot-separated labels of
// the start hostname. This is wrong for multi-part public suffixes such
// as .co.uk; fixing it would require a public-suffix list, which is a
// documented non-goal.
type Scope struct {
	// scheme is the start URL scheme, lowercased.
	scheme string

	// host is the start URL host including any port, lowercased.
	host string

	// baseDomain is the last two labels of the start hostname.
	baseDomain string

	// includeSubdomains widens the scope to the base domain.
	includeSubdomains bool
}

// NewScope creates a Scope anchored at the given start URL.
func NewScope(start *url.URL, includeSubdomains bool) *Scope {
	hostname := strings.ToLower(start.Hostname())

	baseDomain := hostname
	if labels := strings.Split(hostname, "."); len(labels) >= 2 {
		baseDomain = strings.Join(labels[len(labels)-2:], ".")
	}

	return &Scope{
		scheme:            strings.ToLower(start.Scheme),
		host:              strings.ToLower(start.Host),
		baseDomain:        baseDomain,
		includeSubdomains: includeSubdomains,
	}
}

// Origin returns the crawl origin as "scheme://host".
func (s *Scope) Origin() string {
	return s.scheme + "://" + s.host
}

// BaseDomain returns the approximate base registrable domain.
func (s *Scope) BaseDomain() string {
	return s.baseDomain
}

// InScope reports whether the candidate URL may be traversed.
// Any parse failure yields false: the scope fails closed, never open.
func (s *Scope) InScope(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	// Only HTTP(S) pages are traversable at all.
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}

	// Exact origin match: scheme + host + port.
	if scheme == s.scheme && strings.EqualFold(u.Host, s.host) {
		return true
	}

	if !s.includeSubdomains {
		return false
	}

	hostname := strings.ToLower(u.Hostname())
	return hostname == s.baseDomain || strings.HasSuffix(hostname, "."+s.baseDomain)
}
