// Package categorizer assigns a taxonomy pair to a transaction description.
//
// Classification runs through a cache, a deterministic rule tier and, for
// debits that no rule matched, a remote language model. It always ends with
// a valid pair.
package categorizer

import (
	"context"

	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/taxonomy"
)

// Strategy is one tier of classification.
type Strategy interface {
	// Categorize returns the pair and true when the strategy could decide,
	// false when the next tier should be tried. An error means the tier
	// failed; the classifier logs it and moves on.
	Categorize(ctx context.Context, description string, dir models.Direction) (taxonomy.Pair, bool, error)

	// Name identifies the strategy in logs.
	Name() string
}

// PatternSource provides persisted patterns ordered by usage count,
// highest first.
type PatternSource interface {
	ListPatterns(ctx context.Context) ([]models.CategoryPattern, error)
}

// FallbackFor returns the default pair for a direction.
func FallbackFor(dir models.Direction) taxonomy.Pair {
	if dir == models.Credit {
		return taxonomy.CreditFallback
	}
	return taxonomy.Fallback
}
