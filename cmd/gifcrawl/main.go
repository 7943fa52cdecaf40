// Package main provides the entry point for the gifcrawl CLI.
//
// gifcrawl crawls a website within a bounded scope and collects the GIF
// resources it links to or embeds.
//
// Usage:
//
//	gifcrawl crawl <url>
//	gifcrawl crawl --depth 1 --max-pages 50 <url>
//
// See --help for all available options.
package main

// main is the entry point for gifcrawl.
func main() {
	Execute()
}
