package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/splitcharge/internal/models"
	"github.com/mmynk/splitcharge/internal/storage"
)

// AliasService manages the alias book.
type AliasService struct {
	store storage.AliasStore
}

// NewAliasService creates a new AliasService with the given storage backend.
func NewAliasService(store storage.AliasStore) *AliasService {
	return &AliasService{store: store}
}

// SetAlias stores name -> handle, replacing any existing handle for name.
func (s *AliasService) SetAlias(ctx context.Context, name, handle string) (*models.Alias, error) {
	name = strings.TrimSpace(name)
	handle = strings.TrimSpace(handle)
	if name == "" {
		return nil, fmt.Errorf("alias name is required")
	}
	if handle == "" {
		return nil, fmt.Errorf("handle for alias %q is required", name)
	}

	alias := &models.Alias{Name: name, Handle: handle}
	if err := s.store.PutAlias(ctx, alias); err != nil {
		slog.Error("SetAlias failed", "name", name, "error", err)
		return nil, err
	}

	slog.Info("Alias stored", "name", name, "resolves_to", models.ResolveParticipant(nil, handle).String())
	return alias, nil
}

// ListAliases returns the alias book ordered by name.
func (s *AliasService) ListAliases(ctx context.Context) ([]models.Alias, error) {
	return s.store.ListAliases(ctx)
}

// RemoveAlias deletes an alias by name.
func (s *AliasService) RemoveAlias(ctx context.Context, name string) error {
	if err := s.store.DeleteAlias(ctx, name); err != nil {
		return err
	}
	slog.Info("Alias removed", "name", name)
	return nil
}
