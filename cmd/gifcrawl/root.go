// Package main provides the entry point for the gifcrawl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for gifcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gifcrawl",
		Short: "Bounded web crawler that collects GIF resources",
		Long: `gifcrawl crawls a website breadth-first within a bounded scope (same
origin by default, optionally sibling subdomains) and collects the .gif
resources referenced by image tags, anchor links, and inline styles.

Pages are fetched one at a time with a politeness delay; depth and page
budgets keep every crawl finite.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
