// Package storage defines persistence for the startup corpus and user search history.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/foundermatch/internal/models"
)

// ErrNotFound is returned when a startup does not exist.
var ErrNotFound = errors.New("storage: not found")

// ErrConflict is returned when a startup with the same id already exists.
var ErrConflict = errors.New("storage: already exists")

// Storage defines startup and search history persistence operations.
type Storage interface {
	// Startup operations
	CreateStartup(ctx context.Context, s *models.Startup) error
	UpsertStartup(ctx context.Context, s *models.Startup) error
	GetStartup(ctx context.Context, id string) (*models.Startup, error)
	DeleteStartup(ctx context.Context, id string) error
	ListStartups(ctx context.Context, offset, limit int) ([]*models.Startup, error)
	// AllStartups returns every startup in insertion order.
	AllStartups(ctx context.Context) ([]*models.Startup, error)

	// Source operations; source is the corpus file a startup was imported from.
	ReplaceSource(ctx context.Context, source string, startups []*models.Startup) error
	DeleteStartupsBySource(ctx context.Context, source string) (int64, error)

	// Search history
	AppendSearchQuery(ctx context.Context, userID string, q models.SearchQuery) error
	// SearchHistory returns the user's most recent limit queries, oldest first.
	// limit <= 0 returns all of them.
	SearchHistory(ctx context.Context, userID string, limit int) (models.SearchHistory, error)

	// Stats
	CountStartups(ctx context.Context) (int64, error)
	CountSearchQueries(ctx context.Context) (int64, error)

	Close() error
}
