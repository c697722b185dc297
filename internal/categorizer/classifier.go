package categorizer

import (
	"context"

	"fjacquet/bankflow/internal/logging"
	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/parsererror"
	"fjacquet/bankflow/internal/taxonomy"
)

// Classifier runs the classification tiers in order and always yields a
// valid pair. It never writes to persistent storage.
type Classifier struct {
	strategies []Strategy
	cache      Cache
	logger     logging.Logger
}

// NewClassifier builds a classifier from a rule tier and an optional AI
// tier. A nil cache disables memoization.
func NewClassifier(rules Strategy, ai Strategy, cache Cache, logger logging.Logger) *Classifier {
	var strategies []Strategy
	if rules != nil {
		strategies = append(strategies, rules)
	}
	if ai != nil {
		strategies = append(strategies, ai)
	}
	return &Classifier{
		strategies: strategies,
		cache:      cache,
		logger:     logging.OrDiscard(logger),
	}
}

// Classify returns the pair for a description. Results, including
// fallbacks, are cached per description and direction.
func (c *Classifier) Classify(ctx context.Context, description string, dir models.Direction) taxonomy.Pair {
	key := CacheKey(description, dir)
	if c.cache != nil {
		if p, ok := c.cache.Get(key); ok {
			c.logger.Debug("Classification cache hit",
				logging.F(logging.FieldDescription, description),
				logging.F(logging.FieldCategory, p.String()))
			return p
		}
	}
	return c.classify(ctx, key, description, dir)
}

// Reclassify ignores any cached result and stores the fresh one.
func (c *Classifier) Reclassify(ctx context.Context, description string, dir models.Direction) taxonomy.Pair {
	return c.classify(ctx, CacheKey(description, dir), description, dir)
}

func (c *Classifier) classify(ctx context.Context, key, description string, dir models.Direction) taxonomy.Pair {
	pair := c.runStrategies(ctx, description, dir)
	// A cancelled caller must not leave a fallback in the cache.
	if c.cache != nil && ctx.Err() == nil {
		c.cache.Set(key, pair)
	}
	return pair
}

func (c *Classifier) runStrategies(ctx context.Context, description string, dir models.Direction) taxonomy.Pair {
	for _, s := range c.strategies {
		if ctx.Err() != nil {
			break
		}
		pair, ok, err := s.Categorize(ctx, description, dir)
		if err != nil {
			catErr := &parsererror.CategorizationError{
				Description: description,
				Strategy:    s.Name(),
				Err:         err,
			}
			c.logger.WithError(catErr).Warn("Categorization strategy failed",
				logging.F(logging.FieldStrategy, s.Name()))
			continue
		}
		if !ok {
			continue
		}
		if !pair.Valid() {
			c.logger.Warn("Strategy returned invalid category",
				logging.F(logging.FieldStrategy, s.Name()),
				logging.F(logging.FieldCategory, pair.String()))
			continue
		}
		c.logger.Debug("Transaction categorized",
			logging.F(logging.FieldStrategy, s.Name()),
			logging.F(logging.FieldDescription, description),
			logging.F(logging.FieldCategory, pair.String()))
		return pair
	}

	fallback := FallbackFor(dir)
	c.logger.Debug("Using fallback category",
		logging.F(logging.FieldDescription, description),
		logging.F(logging.FieldCategory, fallback.String()))
	return fallback
}
