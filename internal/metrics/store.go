package metrics

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ca-srg/minisearch/internal/search"
)

const dateLayout = "2006-01-02"

// DailyCount is the number of searches with one outcome on one day.
type DailyCount struct {
	Date    string
	Outcome search.Outcome
	Count   int64
}

// Store manages SQLite persistence for search outcome counts.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens the database at dbPath, creating its directory and schema
// if they don't exist.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("stats database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY under concurrent searches.
	db.SetMaxOpenConns(1)

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS search_counts (
			outcome TEXT NOT NULL,
			date TEXT NOT NULL,
			count INTEGER DEFAULT 0,
			PRIMARY KEY (outcome, date)
		);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Increment increments the count for outcome on today's date.
func (s *Store) Increment(outcome search.Outcome) error {
	today := s.now().Format(dateLayout)

	upsertSQL := `
		INSERT INTO search_counts (outcome, date, count)
		VALUES (?, ?, 1)
		ON CONFLICT(outcome, date) DO UPDATE SET count = count + 1;
	`
	if _, err := s.db.Exec(upsertSQL, string(outcome), today); err != nil {
		return fmt.Errorf("failed to increment count: %w", err)
	}
	return nil
}

// GetTotalByOutcome returns the cumulative count for outcome across all dates.
func (s *Store) GetTotalByOutcome(outcome search.Outcome) (int64, error) {
	var total int64
	row := s.db.QueryRow(
		"SELECT COALESCE(SUM(count), 0) FROM search_counts WHERE outcome = ?",
		string(outcome),
	)
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to get total for outcome %s: %w", outcome, err)
	}
	return total, nil
}

// GetAllTotals returns cumulative counts for every known outcome.
// Outcomes that never occurred are reported as 0.
func (s *Store) GetAllTotals() (map[search.Outcome]int64, error) {
	result := make(map[search.Outcome]int64, len(search.AllOutcomes))
	for _, outcome := range search.AllOutcomes {
		result[outcome] = 0
	}

	rows, err := s.db.Query(
		"SELECT outcome, COALESCE(SUM(count), 0) FROM search_counts GROUP BY outcome",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var outcome string
		var total int64
		if err := rows.Scan(&outcome, &total); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result[search.Outcome(outcome)] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// GetCountByDate returns the count for outcome on date (YYYY-MM-DD).
func (s *Store) GetCountByDate(outcome search.Outcome, date string) (int64, error) {
	var count int64
	row := s.db.QueryRow(
		"SELECT COALESCE(count, 0) FROM search_counts WHERE outcome = ? AND date = ?",
		string(outcome), date,
	)
	if err := row.Scan(&count); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get count: %w", err)
	}
	return count, nil
}

// GetDailyCounts returns per-day counts for the last days days including today,
// newest first.
func (s *Store) GetDailyCounts(days int) ([]DailyCount, error) {
	if days <= 0 {
		days = 1
	}
	since := s.now().AddDate(0, 0, -(days - 1)).Format(dateLayout)

	rows, err := s.db.Query(
		"SELECT date, outcome, count FROM search_counts WHERE date >= ? ORDER BY date DESC, outcome ASC",
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily counts: %w", err)
	}
	defer rows.Close()

	var counts []DailyCount
	for rows.Next() {
		var dc DailyCount
		var outcome string
		if err := rows.Scan(&dc.Date, &outcome, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		dc.Outcome = search.Outcome(outcome)
		counts = append(counts, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return counts, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
