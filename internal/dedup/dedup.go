// Package dedup decides whether an incoming transaction is already stored.
package dedup

import (
	"context"
	"fmt"

	"fjacquet/bankflow/internal/logging"
	"fjacquet/bankflow/internal/models"
)

// Finder looks a transaction up by identity. It returns nil without error
// when nothing matches.
type Finder interface {
	FindByIdentity(ctx context.Context, key models.IdentityKey) (*models.Transaction, error)
}

// Guard checks candidates against stored transactions. Two transactions
// are the same when they share the calendar day, description, amount and
// direction. The guard never modifies the stored record.
type Guard struct {
	finder Finder
	logger logging.Logger
}

// NewGuard creates a guard over finder.
func NewGuard(finder Finder, logger logging.Logger) *Guard {
	return &Guard{finder: finder, logger: logging.OrDiscard(logger)}
}

// Check returns the stored transaction matching candidate, if any.
func (g *Guard) Check(ctx context.Context, candidate models.Transaction) (*models.Transaction, bool, error) {
	existing, err := g.finder.FindByIdentity(ctx, candidate.Identity())
	if err != nil {
		return nil, false, fmt.Errorf("duplicate lookup: %w", err)
	}
	if existing == nil {
		return nil, false, nil
	}

	g.logger.Debug("Duplicate transaction skipped",
		logging.F(logging.FieldTransactionID, existing.ID),
		logging.F(logging.FieldDescription, candidate.Description))
	return existing, true, nil
}

// IsDuplicate reports whether candidate is already stored.
func (g *Guard) IsDuplicate(ctx context.Context, candidate models.Transaction) (bool, error) {
	_, dup, err := g.Check(ctx, candidate)
	return dup, err
}
