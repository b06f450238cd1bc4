package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	smerrors "github.com/Aman-CERP/searchmark/internal/errors"
)

// ZeroMatchRetention is the number of zero-match queries kept on disk.
const ZeroMatchRetention = 100

// SQLiteMetricsStore implements MetricsStore using SQLite.
type SQLiteMetricsStore struct {
	db     *sql.DB
	ownsDB bool
}

// NewSQLiteMetricsStore wraps an existing connection whose schema has
// already been created with InitTelemetrySchema. Close leaves db open.
func NewSQLiteMetricsStore(db *sql.DB) (*SQLiteMetricsStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &SQLiteMetricsStore{db: db}, nil
}

// OpenSQLiteMetricsStore opens (or creates) the metrics database at path.
// Schema creation is serialized across processes with a lock file next to
// the database. Lock contention is reported as ErrCodeStorageBusy so
// callers can retry.
func OpenSQLiteMetricsStore(path string) (*SQLiteMetricsStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, smerrors.New(smerrors.ErrCodeFilePermission, "failed to create telemetry directory", err).
			WithDetail("path", filepath.Dir(path))
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, smerrors.StorageError("failed to open database", err).WithDetail("path", path)
	}

	// Single writer to prevent lock contention
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// DSN params may be ignored by modernc.org/sqlite
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, smerrors.New(smerrors.ErrCodeStorageBusy, "failed to set pragma", err).
				WithDetail("pragma", pragma)
		}
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil || !locked {
		_ = db.Close()
		return nil, smerrors.New(smerrors.ErrCodeStorageBusy, "telemetry schema is locked by another process", err).
			WithDetail("lock", lock.Path())
	}
	err = InitTelemetrySchema(db)
	_ = lock.Unlock()
	if err != nil {
		_ = db.Close()
		return nil, smerrors.New(smerrors.ErrCodeStorageWrite, "failed to create telemetry schema", err)
	}

	return &SQLiteMetricsStore{db: db, ownsDB: true}, nil
}

// InitTelemetrySchema creates the telemetry tables if they don't exist.
func InitTelemetrySchema(db *sql.DB) error {
	schema := `
	-- Query type frequency (aggregated daily)
	CREATE TABLE IF NOT EXISTS highlight_query_types (
		date TEXT NOT NULL,
		query_type TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, query_type)
	);

	-- Highlighted terms (lowercased, with frequency count)
	CREATE TABLE IF NOT EXISTS highlight_terms (
		term TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 1,
		last_seen TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_highlight_terms_count ON highlight_terms(count DESC);

	-- Queries whose terms matched nothing (trimmed to ZeroMatchRetention rows)
	CREATE TABLE IF NOT EXISTS zero_match_queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Latency histogram (buckets: <1ms, <5ms, <10ms, <50ms, >=50ms)
	CREATE TABLE IF NOT EXISTS highlight_latency (
		date TEXT NOT NULL,
		bucket TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, bucket)
	);

	-- Daily totals
	CREATE TABLE IF NOT EXISTS highlight_totals (
		date TEXT PRIMARY KEY,
		highlights INTEGER NOT NULL DEFAULT 0,
		zero_match INTEGER NOT NULL DEFAULT 0,
		truncated INTEGER NOT NULL DEFAULT 0
	);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create telemetry schema: %w", err)
	}
	return nil
}

// SaveDelta adds every count in d inside one transaction.
func (s *SQLiteMetricsStore) SaveDelta(date string, d Delta) error {
	return s.inTx(func(tx *sql.Tx) error {
		if err := saveQueryTypes(tx, date, d.QueryTypes); err != nil {
			return err
		}
		if err := upsertTerms(tx, d.Terms); err != nil {
			return err
		}
		if err := saveLatencies(tx, date, d.Latencies); err != nil {
			return err
		}
		if err := saveTotals(tx, date, d.Totals); err != nil {
			return err
		}
		for _, z := range d.ZeroMatch {
			if err := addZeroMatch(tx, z.Query, z.At); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveQueryTypeCounts adds daily query type counts.
func (s *SQLiteMetricsStore) SaveQueryTypeCounts(date string, counts map[string]int64) error {
	return s.inTx(func(tx *sql.Tx) error { return saveQueryTypes(tx, date, counts) })
}

func saveQueryTypes(tx *sql.Tx, date string, counts map[string]int64) error {
	return upsertDaily(tx, `
		INSERT INTO highlight_query_types (date, query_type, count)
		VALUES (?, ?, ?)
		ON CONFLICT(date, query_type) DO UPDATE SET count = count + excluded.count
	`, date, counts)
}

// GetQueryTypeCounts sums counts over [from, to].
func (s *SQLiteMetricsStore) GetQueryTypeCounts(from, to string) (map[string]int64, error) {
	return s.sumDaily(`
		SELECT query_type, SUM(count)
		FROM highlight_query_types
		WHERE date >= ? AND date <= ?
		GROUP BY query_type
	`, from, to)
}

// UpsertTermCounts adds term frequency counts.
func (s *SQLiteMetricsStore) UpsertTermCounts(terms map[string]int64) error {
	return s.inTx(func(tx *sql.Tx) error { return upsertTerms(tx, terms) })
}

func upsertTerms(tx *sql.Tx, terms map[string]int64) error {
	if len(terms) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(`
		INSERT INTO highlight_terms (term, count, last_seen)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(term) DO UPDATE SET
			count = count + excluded.count,
			last_seen = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for term, count := range terms {
		if _, err := stmt.Exec(term, count); err != nil {
			return fmt.Errorf("upsert term count: %w", err)
		}
	}
	return nil
}

// GetTopTerms returns the limit most frequent terms.
func (s *SQLiteMetricsStore) GetTopTerms(limit int) ([]TermCount, error) {
	rows, err := s.db.Query(`
		SELECT term, count
		FROM highlight_terms
		ORDER BY count DESC, term ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top terms: %w", err)
	}
	defer rows.Close()

	terms := []TermCount{}
	for rows.Next() {
		var tc TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		terms = append(terms, tc)
	}
	return terms, rows.Err()
}

// AddZeroMatchQuery records a zero-match query, keeping the newest
// ZeroMatchRetention rows.
func (s *SQLiteMetricsStore) AddZeroMatchQuery(query string, timestamp time.Time) error {
	return s.inTx(func(tx *sql.Tx) error { return addZeroMatch(tx, query, timestamp) })
}

func addZeroMatch(tx *sql.Tx, query string, timestamp time.Time) error {
	if _, err := tx.Exec(`
		INSERT INTO zero_match_queries (query, timestamp)
		VALUES (?, ?)
	`, query, timestamp); err != nil {
		return fmt.Errorf("insert zero-match query: %w", err)
	}

	if _, err := tx.Exec(`
		DELETE FROM zero_match_queries
		WHERE id NOT IN (
			SELECT id FROM zero_match_queries
			ORDER BY id DESC
			LIMIT ?
		)
	`, ZeroMatchRetention); err != nil {
		return fmt.Errorf("trim zero-match queries: %w", err)
	}
	return nil
}

// GetZeroMatchQueries returns recent zero-match queries, newest first.
func (s *SQLiteMetricsStore) GetZeroMatchQueries(limit int) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT query
		FROM zero_match_queries
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query zero-match queries: %w", err)
	}
	defer rows.Close()

	queries := []string{}
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

// SaveLatencyCounts adds daily latency histogram counts.
func (s *SQLiteMetricsStore) SaveLatencyCounts(date string, counts map[LatencyBucket]int64) error {
	return s.inTx(func(tx *sql.Tx) error { return saveLatencies(tx, date, counts) })
}

func saveLatencies(tx *sql.Tx, date string, counts map[LatencyBucket]int64) error {
	byName := make(map[string]int64, len(counts))
	for b, c := range counts {
		byName[string(b)] = c
	}
	return upsertDaily(tx, `
		INSERT INTO highlight_latency (date, bucket, count)
		VALUES (?, ?, ?)
		ON CONFLICT(date, bucket) DO UPDATE SET count = count + excluded.count
	`, date, byName)
}

// GetLatencyCounts sums the latency histogram over [from, to].
func (s *SQLiteMetricsStore) GetLatencyCounts(from, to string) (map[LatencyBucket]int64, error) {
	byName, err := s.sumDaily(`
		SELECT bucket, SUM(count)
		FROM highlight_latency
		WHERE date >= ? AND date <= ?
		GROUP BY bucket
	`, from, to)
	if err != nil {
		return nil, err
	}
	counts := make(map[LatencyBucket]int64, len(byName))
	for b, c := range byName {
		counts[LatencyBucket(b)] = c
	}
	return counts, nil
}

// SaveTotals adds daily totals.
func (s *SQLiteMetricsStore) SaveTotals(date string, totals Totals) error {
	return s.inTx(func(tx *sql.Tx) error { return saveTotals(tx, date, totals) })
}

func saveTotals(tx *sql.Tx, date string, totals Totals) error {
	_, err := tx.Exec(`
		INSERT INTO highlight_totals (date, highlights, zero_match, truncated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			highlights = highlights + excluded.highlights,
			zero_match = zero_match + excluded.zero_match,
			truncated = truncated + excluded.truncated
	`, date, totals.Highlights, totals.ZeroMatch, totals.Truncated)
	if err != nil {
		return fmt.Errorf("upsert totals: %w", err)
	}
	return nil
}

// GetTotals sums daily totals over [from, to].
func (s *SQLiteMetricsStore) GetTotals(from, to string) (Totals, error) {
	var t Totals
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(highlights), 0), COALESCE(SUM(zero_match), 0), COALESCE(SUM(truncated), 0)
		FROM highlight_totals
		WHERE date >= ? AND date <= ?
	`, from, to).Scan(&t.Highlights, &t.ZeroMatch, &t.Truncated)
	if err != nil {
		return Totals{}, fmt.Errorf("query totals: %w", err)
	}
	return t, nil
}

// Close releases the database if the store opened it.
func (s *SQLiteMetricsStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

// inTx runs fn in a transaction, committing only if fn succeeds.
func (s *SQLiteMetricsStore) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func upsertDaily(tx *sql.Tx, query, date string, counts map[string]int64) error {
	if len(counts) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for key, count := range counts {
		if _, err := stmt.Exec(date, key, count); err != nil {
			return fmt.Errorf("upsert daily count: %w", err)
		}
	}
	return nil
}

func (s *SQLiteMetricsStore) sumDaily(query, from, to string) (map[string]int64, error) {
	rows, err := s.db.Query(query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query daily counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		counts[key] = count
	}
	return counts, rows.Err()
}
