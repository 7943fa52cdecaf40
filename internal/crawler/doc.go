// Package crawler implements the bounded, scope-limited crawl engine at
// the heart of gifcrawl.
//
// # Architecture
//
// A crawl is driven by a Session, which owns all mutable crawl state for
// one invocation: concurrent crawls in the same process are safe by
// construction because nothing is shared between sessions.
//
//   - Extractor: pulls resource URLs (img src, anchor href, inline
//     background-image) out of a parsed page and filters them by file
//     extension
//   - Scope: decides whether a discovered link is eligible for traversal
//     (same origin, optionally same registrable domain)
//   - Ledger: deduplicates visited pages so each page is fetched at most
//     once per crawl
//   - Spider: the breadth-first frontier; an explicit FIFO queue of
//     (URL, depth) tasks bounded by the page and depth budgets
//   - Session: the orchestrator and sole entry point; seeds the spider
//     from the start page and aggregates the resource set
//
// # Fault tolerance
//
// Per-page fetch and parse failures are absorbed: the page contributes
// nothing and traversal continues. The only hard failures are invalid
// session options and context cancellation.
//
// # Politeness
//
// Pages are fetched strictly one at a time with a configurable delay
// between requests. Only the downstream download of discovered resources
// is ever parallelized, and that happens outside this package.
package crawler
