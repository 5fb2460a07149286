package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed alert journal. Scan watermarks are
// deliberately not persisted here; they restart from scratch with the
// process.
type Store struct {
	db *sql.DB
}

// Open initializes the journal database and runs minimal schema setup.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := configure(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialized")
	}
	return s.db.PingContext(ctx)
}

func configure(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("set pragma %q: %w", p, err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	schema := `
CREATE TABLE IF NOT EXISTS alerts (
  txhash          TEXT NOT NULL,
  target_address  TEXT NOT NULL,
  target_name     TEXT NOT NULL,
  symbol          TEXT NOT NULL,
  amount          TEXT NOT NULL,
  created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY(txhash, target_address, symbol)
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Alert is a journaled alert record. Amount is kept as its decimal string
// to avoid float round-tripping.
type Alert struct {
	TxHash        string
	TargetAddress string
	TargetName    string
	Symbol        string
	Amount        string
	CreatedAt     time.Time
}

// InsertAlert journals an emitted alert. Re-inserting the same
// transfer is a no-op, so one transaction never produces two rows.
func (s *Store) InsertAlert(ctx context.Context, a Alert) error {
	if a.TxHash == "" || a.TargetAddress == "" {
		return errors.New("txhash and target_address required")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO alerts (txhash, target_address, target_name, symbol, amount, created_at)
VALUES (?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP));
`, a.TxHash, a.TargetAddress, a.TargetName, a.Symbol, a.Amount, nullTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// RecentAlerts returns the most recent journaled alerts, newest first.
func (s *Store) RecentAlerts(ctx context.Context, limit int) ([]Alert, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT txhash, target_address, target_name, symbol, amount, created_at
FROM alerts
ORDER BY created_at DESC, txhash DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.TxHash, &a.TargetAddress, &a.TargetName, &a.Symbol, &a.Amount, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return alerts, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
