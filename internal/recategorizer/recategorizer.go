// Package recategorizer revisits stored transactions: bulk
// reclassification of uncategorized ones and user corrections that feed
// back into pattern statistics.
package recategorizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fjacquet/bankflow/internal/dateutils"
	"fjacquet/bankflow/internal/logging"
	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/parsererror"
	"fjacquet/bankflow/internal/store"
	"fjacquet/bankflow/internal/taxonomy"

	"golang.org/x/sync/errgroup"
)

// Defaults for bulk reclassification.
const (
	DefaultBatchSize = 5
	DefaultDelay     = time.Second
)

// Reclassifier classifies a description without consulting the cache.
type Reclassifier interface {
	Reclassify(ctx context.Context, description string, dir models.Direction) taxonomy.Pair
}

// Store is the persistence the recategorizer needs.
type Store interface {
	Get(ctx context.Context, id string) (models.Transaction, error)
	List(ctx context.Context, filter store.Filter) ([]models.Transaction, error)
	UpdateCategory(ctx context.Context, id string, pair taxonomy.Pair) (models.Transaction, error)
	UpsertPattern(ctx context.Context, pattern string, pair taxonomy.Pair, confidence float64) (models.CategoryPattern, error)
	UpdatePatternStats(ctx context.Context, pattern string, confidenceDelta float64, usageDelta int) error
	ListPatterns(ctx context.Context) ([]models.CategoryPattern, error)
}

// Options tunes bulk reclassification.
type Options struct {
	BatchSize int
	Delay     time.Duration
}

// Change is the outcome for one reclassified transaction.
type Change struct {
	ID          string        `json:"id"`
	Description string        `json:"description"`
	From        taxonomy.Pair `json:"from"`
	To          taxonomy.Pair `json:"to"`
	Updated     bool          `json:"updated"`
	Error       string        `json:"error,omitempty"`
}

// Summary reports a Recategorize run.
type Summary struct {
	Processed int      `json:"processed"`
	Updated   int      `json:"updated"`
	Changes   []Change `json:"changes"`
	Errors    []string `json:"errors"`
}

// Service implements recategorization and corrections.
type Service struct {
	classifier Reclassifier
	store      Store
	opts       Options
	logger     logging.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// New creates a Service.
func New(classifier Reclassifier, s Store, opts Options, logger logging.Logger) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	return &Service{
		classifier: classifier,
		store:      s,
		opts:       opts,
		logger:     logging.OrDiscard(logger),
		sleep:      sleepContext,
	}
}

// Candidates returns the transactions still in the fallback category,
// restricted to month ("YYYY-MM") when it is not empty.
func (s *Service) Candidates(ctx context.Context, month string) ([]models.Transaction, error) {
	filter := store.Filter{Category: &taxonomy.Fallback}
	if month != "" {
		start, end, err := dateutils.ParseMonth(month)
		if err != nil {
			return nil, &parsererror.ValidationError{Field: "month", Reason: err.Error()}
		}
		filter.From, filter.To = start, end
	}
	return s.store.List(ctx, filter)
}

// Recategorize reclassifies every candidate in chunks. Calls inside a chunk
// run concurrently; chunks are separated by the configured delay. Changes
// are reported in candidate order.
func (s *Service) Recategorize(ctx context.Context, month string) (*Summary, error) {
	candidates, err := s.Candidates(ctx, month)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Recategorizing transactions",
		logging.F(logging.FieldCount, len(candidates)),
		logging.F(logging.FieldMonth, month))

	changes := make([]Change, len(candidates))
	for start := 0; start < len(candidates); start += s.opts.BatchSize {
		if start > 0 && s.opts.Delay > 0 {
			if err := s.sleep(ctx, s.opts.Delay); err != nil {
				return nil, err
			}
		}
		end := start + s.opts.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				changes[i] = s.recategorizeOne(gctx, candidates[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	summary := &Summary{Processed: len(candidates), Changes: changes, Errors: []string{}}
	for _, c := range changes {
		if c.Updated {
			summary.Updated++
		}
		if c.Error != "" {
			summary.Errors = append(summary.Errors, c.Error)
		}
	}
	return summary, nil
}

func (s *Service) recategorizeOne(ctx context.Context, tx models.Transaction) Change {
	change := Change{ID: tx.ID, Description: tx.Description, From: tx.Category()}
	pair := s.classifier.Reclassify(ctx, tx.Description, tx.Direction)
	change.To = pair

	if pair == tx.Category() {
		return change
	}

	if _, err := s.store.UpdateCategory(ctx, tx.ID, pair); err != nil {
		change.To = change.From
		change.Error = fmt.Sprintf("transaction %s: %v", tx.ID, err)
		return change
	}
	change.Updated = true

	if desc := models.NormalizePattern(tx.Description); desc != "" {
		if _, err := s.store.UpsertPattern(ctx, desc, pair, models.LearnedConfidence); err != nil {
			s.logger.WithError(err).Warn("Failed to record learned pattern",
				logging.F(logging.FieldTransactionID, tx.ID))
		}
	}

	s.logger.Debug("Transaction recategorized",
		logging.F(logging.FieldTransactionID, tx.ID),
		logging.F(logging.FieldCategory, pair.String()))
	return change
}

// Correct applies a user-chosen category given in display spelling. A pair
// whose subcategory does not belong to its main category is replaced by
// the fallback; corrected reports that substitution. Patterns found in the
// description lose confidence for the old category and gain it for the
// new one, and the description itself is learned as a pattern.
func (s *Service) Correct(ctx context.Context, id, displayMain, displaySub string) (tx models.Transaction, corrected bool, err error) {
	pair, corrected, err := taxonomy.ToStorage(displayMain, displaySub)
	if err != nil {
		return models.Transaction{}, false, &parsererror.ValidationError{Field: "category", Reason: err.Error()}
	}
	if corrected {
		s.logger.Warn("Subcategory does not belong to category, using fallback",
			logging.F(logging.FieldCategory, displayMain),
			logging.F(logging.FieldSubcategory, displaySub))
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Transaction{}, false, err
	}
	previous := current.Category()

	updated, err := s.store.UpdateCategory(ctx, id, pair)
	if err != nil {
		return models.Transaction{}, false, err
	}
	if previous == pair {
		return updated, corrected, nil
	}

	s.adjustPatterns(ctx, updated.Description, previous, pair)

	if desc := models.NormalizePattern(updated.Description); desc != "" {
		if _, err := s.store.UpsertPattern(ctx, desc, pair, models.LearnedConfidence); err != nil {
			s.logger.WithError(err).Warn("Failed to record learned pattern",
				logging.F(logging.FieldTransactionID, id))
		}
	}

	s.logger.Info("Transaction category corrected",
		logging.F(logging.FieldTransactionID, id),
		logging.F("from", previous.String()),
		logging.F("to", pair.String()))
	return updated, corrected, nil
}

func (s *Service) adjustPatterns(ctx context.Context, description string, from, to taxonomy.Pair) {
	patterns, err := s.store.ListPatterns(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load patterns for confidence update")
		return
	}

	for _, p := range patterns {
		if !p.MatchesDescription(description) {
			continue
		}
		var delta float64
		switch p.Category() {
		case from:
			delta = -models.ConfidenceStep
		case to:
			delta = models.ConfidenceStep
		default:
			continue
		}
		if err := s.store.UpdatePatternStats(ctx, p.Pattern, delta, 1); err != nil {
			s.logger.WithError(err).Warn("Failed to update pattern confidence",
				logging.F(logging.FieldPattern, p.Pattern))
		}
	}
}

// AddPattern stores an explicit user pattern for a display-spelled
// category. Mismatched pairs are rejected.
func (s *Service) AddPattern(ctx context.Context, pattern, displayMain, displaySub string) (models.CategoryPattern, error) {
	if strings.TrimSpace(pattern) == "" {
		return models.CategoryPattern{}, &parsererror.ValidationError{Field: "pattern", Reason: "must not be empty"}
	}
	pair, corrected, err := taxonomy.ToStorage(displayMain, displaySub)
	if err != nil {
		return models.CategoryPattern{}, &parsererror.ValidationError{Field: "category", Reason: err.Error()}
	}
	if corrected {
		return models.CategoryPattern{}, &parsererror.ValidationError{
			Field:  "category",
			Reason: fmt.Sprintf("%q is not a subcategory of %q", displaySub, displayMain),
		}
	}
	return s.store.UpsertPattern(ctx, pattern, pair, models.SeedConfidence)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
