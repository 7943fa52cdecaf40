// Package model defines the core data structures shared across gifcrawl:
// fetched pages, traversal tasks, and crawl reports.
package model
