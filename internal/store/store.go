// Package store persists transactions and category patterns.
package store

import (
	"context"
	"errors"
	"time"

	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/taxonomy"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned by Create when a transaction with the same
	// identity already exists.
	ErrDuplicate = errors.New("duplicate transaction")
)

// Filter restricts List. Zero fields do not filter.
type Filter struct {
	From     time.Time
	To       time.Time
	Category *taxonomy.Pair
	Limit    int
}

func (f Filter) matches(t models.Transaction) bool {
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To) {
		return false
	}
	if f.Category != nil && t.Category() != *f.Category {
		return false
	}
	return true
}

// TransactionStore persists transactions.
type TransactionStore interface {
	// Create stores tx and returns it as persisted. ErrDuplicate when the
	// identity is already taken.
	Create(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	Get(ctx context.Context, id string) (models.Transaction, error)
	// FindByIdentity returns nil without error when nothing matches.
	FindByIdentity(ctx context.Context, key models.IdentityKey) (*models.Transaction, error)
	UpdateCategory(ctx context.Context, id string, pair taxonomy.Pair) (models.Transaction, error)
	// List returns transactions newest first.
	List(ctx context.Context, filter Filter) ([]models.Transaction, error)
}

// PatternStore persists keyword patterns.
type PatternStore interface {
	// UpsertPattern points pattern at pair. New patterns start with
	// confidence and a usage count of one; existing ones get the new pair
	// and one more use.
	UpsertPattern(ctx context.Context, pattern string, pair taxonomy.Pair, confidence float64) (models.CategoryPattern, error)
	// SeedPattern creates p unless its key exists. Existing patterns are
	// left untouched.
	SeedPattern(ctx context.Context, p models.CategoryPattern) (bool, error)
	// UpdatePatternStats adjusts confidence (clamped) and usage count.
	UpdatePatternStats(ctx context.Context, pattern string, confidenceDelta float64, usageDelta int) error
	// ListPatterns returns every pattern by usage count, highest first.
	ListPatterns(ctx context.Context) ([]models.CategoryPattern, error)
}

// Gateway is the full persistence surface.
type Gateway interface {
	TransactionStore
	PatternStore
	// Clear removes every transaction and pattern.
	Clear(ctx context.Context) error
	Close() error
}
