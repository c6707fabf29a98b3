package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"grepbot/internal/model"
	"grepbot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if dsn == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// ListGreps returns every stored grep ordered by owner and creation.
func (s *SQLite) ListGreps(ctx context.Context) ([]model.Grep, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pattern, user_id FROM greps ORDER BY user_id, created_at, pattern`,
	)
	if err != nil {
		return nil, fmt.Errorf("query greps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var greps []model.Grep
	for rows.Next() {
		var g model.Grep
		if err := rows.Scan(&g.Pattern, &g.UserID); err != nil {
			return nil, fmt.Errorf("scan grep: %w", err)
		}
		greps = append(greps, g)
	}
	return greps, rows.Err()
}

// CreateGrep stores a grep. Storing an existing grep is a no-op.
func (s *SQLite) CreateGrep(ctx context.Context, g model.Grep) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO greps (user_id, pattern, created_at) VALUES (?, ?, ?)`,
		g.UserID, g.Pattern, now,
	)
	if err != nil {
		return fmt.Errorf("insert grep: %w", err)
	}
	return nil
}

// DeleteGrep removes the grep with exactly this owner and pattern.
func (s *SQLite) DeleteGrep(ctx context.Context, g model.Grep) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM greps WHERE user_id = ? AND pattern = ?`, g.UserID, g.Pattern,
	)
	if err != nil {
		return fmt.Errorf("delete grep: %w", err)
	}
	return nil
}

// ReplaceGreps atomically replaces all stored greps with the given set.
func (s *SQLite) ReplaceGreps(ctx context.Context, greps []model.Grep) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM greps`); err != nil {
		return fmt.Errorf("clear greps: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO greps (user_id, pattern, created_at) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format(timeLayout)
	for _, g := range greps {
		if _, err := stmt.ExecContext(ctx, g.UserID, g.Pattern, now); err != nil {
			return fmt.Errorf("insert grep: %w", err)
		}
	}
	return tx.Commit()
}
