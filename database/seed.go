package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// DefaultSelectQuery is the template of the generic logs schema created by
// SeedLogs. Session ids match exactly.
const DefaultSelectQuery = `SELECT * FROM logs
WHERE app_name = :app_name
    AND event_time BETWEEN :start_time AND :end_time
    AND (:jsid IS NULL OR jsession_id = :jsid)
ORDER BY event_time DESC
LIMIT :limit`

// PatternSelectQuery is DefaultSelectQuery with substring session matching.
const PatternSelectQuery = `SELECT * FROM logs
WHERE app_name = :app_name
    AND event_time BETWEEN :start_time AND :end_time
    AND (:jsid IS NULL OR jsession_id LIKE :jsid)
ORDER BY event_time DESC
LIMIT :limit`

const seedSchema = `
CREATE TABLE IF NOT EXISTS logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	app_name TEXT,
	event_time TEXT,
	jsession_id TEXT,
	message TEXT,
	level TEXT
);
CREATE INDEX IF NOT EXISTS idx_logs_event_time ON logs(event_time DESC);
`

var (
	seedLevels   = []string{"INFO", "ERROR", "DEBUG", "WARNING", "CRITICAL", "SUCCESS"}
	seedMessages = []string{
		"User login successful", "User login failed", "Order placed", "Order failed",
		"Payment processed", "Payment failed", "Exception occurred", "Service started",
		"Service stopped", "API call succeeded", "API call failed", "Data synced",
		"Data sync failed", "Session expired", "Session started", "Resource created",
		"Resource deleted", "Resource updated", "Permission denied", "Timeout error",
	}
)

// SeedSpec describes a fixture dataset: perDay rows for each of days days,
// spaced ten minutes apart going back from Now.
type SeedSpec struct {
	AppName string
	Now     time.Time
	Days    int
	PerDay  int
}

// SeedTimestamp returns the event time of row i on day d.
func (s SeedSpec) SeedTimestamp(day, i int) time.Time {
	return s.Now.Add(-time.Duration(day)*24*time.Hour - time.Duration(i)*10*time.Minute)
}

// SeedSessionID returns the session id of row i on day d.
func SeedSessionID(day, i int) string {
	return fmt.Sprintf("jsid_%d_%d", day, i)
}

// SeedLogs replaces the contents of the logs table with the rows described by seed.
// Only SQLite stores are seeded.
func SeedLogs(ctx context.Context, db *sqlx.DB, seed SeedSpec) (int, error) {
	if _, err := db.ExecContext(ctx, seedSchema); err != nil {
		return 0, fmt.Errorf("failed to create logs table: %w", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM logs"); err != nil {
		return 0, fmt.Errorf("failed to clear logs: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO logs (app_name, event_time, jsession_id, message, level) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for day := 0; day < seed.Days; day++ {
		for i := 0; i < seed.PerDay; i++ {
			n := day*seed.PerDay + i
			message := fmt.Sprintf("%s - %s", strings.ToUpper(seed.AppName), seedMessages[n%len(seedMessages)])
			_, err := stmt.ExecContext(ctx,
				seed.AppName,
				FormatTimestamp(seed.SeedTimestamp(day, i)),
				SeedSessionID(day, i),
				message,
				seedLevels[n%len(seedLevels)],
			)
			if err != nil {
				return count, fmt.Errorf("failed to insert row %d: %w", n, err)
			}
			count++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seed: %w", err)
	}
	return count, nil
}

// SeedFile creates (or rewrites) a SQLite database file holding the rows described by seed.
func SeedFile(ctx context.Context, path string, seed SeedSpec) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlx.Open(driverSQLite, path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer db.Close()

	return SeedLogs(ctx, db, seed)
}
