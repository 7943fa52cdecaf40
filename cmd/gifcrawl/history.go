package main

import (
	"fmt"
	"time"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/gifcrawl/gifcrawl/internal/config"
	"github.com/gifcrawl/gifcrawl/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Show past crawls from the history database",
		Long: `History lists crawls recorded in the local SQLite database.

Each crawl saved by the crawl command (unless --no-db was given) gets a
row with its start URL, date, page count, and how many resources were
found and downloaded.

Examples:
  # List all recorded crawls
  gifcrawl history

  # List crawls of a specific start URL
  gifcrawl history --url https://example.com

  # Show the resource URLs stored for crawl 42
  gifcrawl history --resources 42`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("url", "", "Filter crawls by start URL")
	cmd.Flags().Int64("resources", 0, "Show stored resource URLs for the given crawl ID")
	cmd.Flags().Int("limit", 0, "Maximum number of crawls to list (0 = all)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	startURL, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}
	if len(args) > 0 {
		startURL = args[0]
	}

	crawlID, err := cmd.Flags().GetInt64("resources")
	if err != nil {
		return err
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	// Opening without CreateIfNotExists keeps "never crawled anything"
	// from leaving an empty database behind.
	db, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no crawl history found (run a crawl first): %w", err)
	}
	defer db.Close()

	if crawlID > 0 {
		return showResources(cmd, db, crawlID)
	}

	return listHistory(cmd, db, startURL, limit)
}

// listHistory prints recorded crawls as a table, newest first.
func listHistory(cmd *cobra.Command, db *database.CrawlDB, startURL string, limit int) error {
	records, err := db.ListCrawls(cmd.Context(), startURL)
	if err != nil {
		return fmt.Errorf("failed to list crawls: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded crawls.")
		return nil
	}

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	tbl := table.New("ID", "Start URL", "Date", "Pages", "Resources", "Downloaded", "Status")
	tbl.WithWriter(cmd.OutOrStdout())

	for _, rec := range records {
		status := "complete"
		if rec.Error != "" {
			status = "interrupted"
		}
		tbl.AddRow(
			rec.ID,
			rec.StartURL,
			rec.StartedAt.Local().Format(time.DateTime),
			rec.PagesFetched,
			rec.ResourcesFound,
			rec.Downloaded,
			status,
		)
	}
	tbl.Print()

	return nil
}

// showResources prints the stored resource URLs for one crawl.
func showResources(cmd *cobra.Command, db *database.CrawlDB, crawlID int64) error {
	urls, err := db.ResourcesForCrawl(cmd.Context(), crawlID)
	if err != nil {
		return fmt.Errorf("failed to load resources for crawl %d: %w", crawlID, err)
	}

	if len(urls) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No resources recorded for crawl %d.\n", crawlID)
		return nil
	}

	for _, u := range urls {
		fmt.Fprintln(cmd.OutOrStdout(), u)
	}

	return nil
}
