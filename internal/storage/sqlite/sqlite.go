// Package sqlite provides a SQLite-backed implementation of the storage.AliasStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitcharge/internal/models"
	"github.com/mmynk/splitcharge/internal/storage"
)

// Ensure SQLiteStore implements storage.AliasStore
var _ storage.AliasStore = (*SQLiteStore)(nil)

// SQLiteStore implements storage.AliasStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// PutAlias inserts the alias, or updates the handle of an existing alias with the same name.
func (s *SQLiteStore) PutAlias(ctx context.Context, alias *models.Alias) error {
	if alias.Name == "" || alias.Handle == "" {
		return fmt.Errorf("alias name and handle are required")
	}
	if alias.ID == "" {
		alias.ID = uuid.New().String()
	}
	if alias.CreatedAt == 0 {
		alias.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO aliases (id, name, handle, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET handle = excluded.handle`,
		alias.ID, alias.Name, alias.Handle, alias.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert alias: %w", err)
	}

	// An existing row keeps its ID and creation time
	err = tx.QueryRowContext(ctx,
		"SELECT id, created_at FROM aliases WHERE name = ?",
		alias.Name,
	).Scan(&alias.ID, &alias.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to read back alias: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListAliases retrieves all aliases ordered by name.
func (s *SQLiteStore) ListAliases(ctx context.Context) ([]models.Alias, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, handle, created_at FROM aliases ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}
	defer rows.Close()

	var aliases []models.Alias
	for rows.Next() {
		var alias models.Alias
		if err := rows.Scan(&alias.ID, &alias.Name, &alias.Handle, &alias.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		aliases = append(aliases, alias)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aliases: %w", err)
	}

	return aliases, nil
}

// AliasTable returns all aliases as a name -> handle map.
func (s *SQLiteStore) AliasTable(ctx context.Context) (map[string]string, error) {
	aliases, err := s.ListAliases(ctx)
	if err != nil {
		return nil, err
	}

	table := make(map[string]string, len(aliases))
	for _, alias := range aliases {
		table[alias.Name] = alias.Handle
	}
	return table, nil
}

// DeleteAlias removes an alias by name.
func (s *SQLiteStore) DeleteAlias(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM aliases WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete alias: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrAliasNotFound, name)
	}

	return nil
}
