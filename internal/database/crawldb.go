package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/gifcrawl/gifcrawl/internal/model"
)

// CrawlDB provides SQLite-based storage for crawl history.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all crawls rather
// than one file per start URL. This keeps history queries across sites
// trivial and simplifies backup/restore operations.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, "gifcrawl.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per completed crawl run
	CREATE TABLE IF NOT EXISTS crawls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_url TEXT NOT NULL,
		origin TEXT NOT NULL,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		depth INTEGER NOT NULL DEFAULT 0,
		max_pages INTEGER NOT NULL DEFAULT 0,
		pages_fetched INTEGER NOT NULL DEFAULT 0,
		resources_found INTEGER NOT NULL DEFAULT 0,
		downloaded INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_crawls_start_url ON crawls(start_url);
	CREATE INDEX IF NOT EXISTS idx_crawls_started_at ON crawls(started_at);

	-- Resource URLs discovered by each crawl
	CREATE TABLE IF NOT EXISTS resources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		crawl_id INTEGER NOT NULL REFERENCES crawls(id) ON DELETE CASCADE,
		url TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_resources_crawl ON resources(crawl_id);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// CrawlRecord is the stored summary of one crawl run.
type CrawlRecord struct {
	ID             int64
	StartURL       string
	Origin         string
	StartedAt      time.Time
	Duration       time.Duration
	Depth          int
	MaxPages       int
	PagesFetched   int
	ResourcesFound int
	Downloaded     int
	Error          string
}

// SaveReport stores a crawl report and its resource URLs atomically and
// returns the new crawl ID.
func (cdb *CrawlDB) SaveReport(ctx context.Context, report *model.CrawlReport) (int64, error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	query := `
	INSERT INTO crawls (start_url, origin, started_at, duration_ms, depth, max_pages, pages_fetched, resources_found, downloaded, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		report.StartURL,
		report.Origin,
		report.StartedAt.UTC().Format("2006-01-02 15:04:05"),
		report.Duration.Milliseconds(),
		report.Depth,
		report.MaxPages,
		report.PagesFetched,
		len(report.Resources),
		report.Downloaded,
		report.ErrorMessage,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert crawl record: %w", err)
	}

	crawlID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read crawl id: %w", err)
	}

	for _, resource := range report.Resources {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO resources (crawl_id, url) VALUES (?, ?)",
			crawlID, resource,
		); err != nil {
			return 0, fmt.Errorf("failed to insert resource: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit crawl record: %w", err)
	}

	return crawlID, nil
}

// ListCrawls returns crawl records newest first. A non-empty startURL
// filters to crawls of that exact start URL.
func (cdb *CrawlDB) ListCrawls(ctx context.Context, startURL string) ([]CrawlRecord, error) {
	query := `
	SELECT id, start_url, origin, started_at, duration_ms, depth, max_pages, pages_fetched, resources_found, downloaded, error
	FROM crawls
	`
	args := make([]interface{}, 0)

	if startURL != "" {
		query += " WHERE start_url = ?"
		args = append(args, startURL)
	}

	query += " ORDER BY started_at DESC, id DESC"

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawls: %w", err)
	}
	defer rows.Close()

	var results []CrawlRecord
	for rows.Next() {
		record, err := scanCrawlRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}

	return results, rows.Err()
}

// LatestCrawl returns the most recent crawl for a start URL, or nil when
// none has been recorded.
func (cdb *CrawlDB) LatestCrawl(ctx context.Context, startURL string) (*CrawlRecord, error) {
	records, err := cdb.ListCrawls(ctx, startURL)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// ResourcesForCrawl returns the resource URLs recorded for a crawl ID,
// in insertion order.
func (cdb *CrawlDB) ResourcesForCrawl(ctx context.Context, crawlID int64) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx,
		"SELECT url FROM resources WHERE crawl_id = ? ORDER BY id",
		crawlID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		urls = append(urls, u)
	}

	return urls, rows.Err()
}

// HasRecentCrawl reports whether the start URL was crawled within the
// specified duration.
func (cdb *CrawlDB) HasRecentCrawl(ctx context.Context, startURL string, duration time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM crawls
	WHERE start_url = ? AND started_at > datetime('now', ?)
	`

	modifier := fmt.Sprintf("-%d seconds", int(duration.Seconds()))

	var count int
	if err := cdb.db.QueryRowContext(ctx, query, startURL, modifier).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check recent crawl: %w", err)
	}

	return count > 0, nil
}

// scanCrawlRecord reads one crawls row.
func scanCrawlRecord(rows *sql.Rows) (CrawlRecord, error) {
	var record CrawlRecord
	var startedAt string
	var durationMs int64
	var errMsg sql.NullString

	err := rows.Scan(
		&record.ID,
		&record.StartURL,
		&record.Origin,
		&startedAt,
		&durationMs,
		&record.Depth,
		&record.MaxPages,
		&record.PagesFetched,
		&record.ResourcesFound,
		&record.Downloaded,
		&errMsg,
	)
	if err != nil {
		return CrawlRecord{}, fmt.Errorf("failed to scan crawl record: %w", err)
	}

	record.StartedAt = parseTimestamp(startedAt)
	record.Duration = time.Duration(durationMs) * time.Millisecond
	record.Error = errMsg.String

	return record, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
