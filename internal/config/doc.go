// Package config provides configuration structures and utilities for
// gifcrawl. It defines the crawl budgets, politeness settings, sink
// options, and per-site overrides loaded from the .gifcrawl file.
package config
