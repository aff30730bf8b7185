// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitcharge/internal/models"
)

// ErrAliasNotFound is returned when deleting an alias that does not exist.
var ErrAliasNotFound = errors.New("alias not found")

// AliasStore defines the interface for the alias book.
// This abstraction allows swapping storage backends without changing the
// CLI or the receipt loader.
type AliasStore interface {
	// PutAlias creates or replaces the alias with alias.Name.
	// alias.ID and alias.CreatedAt are populated by the store.
	PutAlias(ctx context.Context, alias *models.Alias) error

	// ListAliases returns every alias ordered by name.
	ListAliases(ctx context.Context) ([]models.Alias, error)

	// AliasTable returns the aliases as a name -> handle map, ready to be
	// merged under a receipt's own aliases.
	AliasTable(ctx context.Context) (map[string]string, error)

	// DeleteAlias removes the alias with the given name.
	DeleteAlias(ctx context.Context, name string) error

	// Close releases any resources held by the store.
	Close() error
}
