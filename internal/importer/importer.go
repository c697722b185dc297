// Package importer drives a CSV batch through normalization,
// classification, duplicate detection and persistence.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"fjacquet/bankflow/internal/common"
	"fjacquet/bankflow/internal/logging"
	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/normalizer"
	"fjacquet/bankflow/internal/parsererror"
	"fjacquet/bankflow/internal/store"
	"fjacquet/bankflow/internal/taxonomy"
)

// DefaultMaxErrors stops a batch once this many row errors are collected.
const DefaultMaxErrors = 50

// Classifier assigns a category to a description.
type Classifier interface {
	Classify(ctx context.Context, description string, dir models.Direction) taxonomy.Pair
}

// DuplicateChecker finds an already stored copy of a candidate.
type DuplicateChecker interface {
	Check(ctx context.Context, candidate models.Transaction) (*models.Transaction, bool, error)
}

// Store is the persistence the orchestrator needs.
type Store interface {
	Create(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	ListPatterns(ctx context.Context) ([]models.CategoryPattern, error)
	UpdatePatternStats(ctx context.Context, pattern string, confidenceDelta float64, usageDelta int) error
}

// Options tunes an Orchestrator.
type Options struct {
	MaxErrors int
	Delimiter rune
}

// Result summarizes one batch.
type Result struct {
	Accepted   []models.Transaction `json:"accepted"`
	Errors     []string             `json:"errors"`
	Total      int                  `json:"total"`
	Processed  int                  `json:"processed"`
	Duplicates int                  `json:"duplicates"`
	// Stopped is set when the error cap ended the batch early.
	Stopped bool `json:"stopped"`
}

// AcceptedCount is the number of newly stored transactions.
func (r Result) AcceptedCount() int { return len(r.Accepted) }

// ErrorCount is the number of collected row errors.
func (r Result) ErrorCount() int { return len(r.Errors) }

// Orchestrator imports batches. Rows inside a batch are processed strictly
// in order so that a row sees every earlier insert of the same batch.
type Orchestrator struct {
	normalizer *normalizer.Normalizer
	classifier Classifier
	guard      DuplicateChecker
	store      Store
	opts       Options
	logger     logging.Logger
}

// NewOrchestrator wires an orchestrator.
func NewOrchestrator(n *normalizer.Normalizer, c Classifier, g DuplicateChecker, s Store, opts Options, logger logging.Logger) *Orchestrator {
	if n == nil {
		n = normalizer.New()
	}
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = DefaultMaxErrors
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = common.DefaultDelimiter
	}
	return &Orchestrator{
		normalizer: n,
		classifier: c,
		guard:      g,
		store:      s,
		opts:       opts,
		logger:     logging.OrDiscard(logger),
	}
}

// ImportCSV reads a CSV document and imports its rows.
func (o *Orchestrator) ImportCSV(ctx context.Context, r io.Reader) (*Result, error) {
	table, err := common.ReadRawCSV(r, o.opts.Delimiter, o.logger)
	if err != nil {
		return nil, err
	}
	return o.ImportBatch(ctx, table.Header, table.Rows)
}

// ImportBatch imports rows described by header. A header without the
// mandatory columns aborts the batch with a MissingColumnsError; a batch
// where every processed row failed returns a BatchError along with the
// result.
func (o *Orchestrator) ImportBatch(ctx context.Context, header []string, rows [][]string) (*Result, error) {
	cols, err := o.normalizer.ResolveColumns(header)
	if err != nil {
		o.logger.WithError(err).Error("Import aborted")
		return nil, err
	}

	res := &Result{Total: len(rows), Accepted: []models.Transaction{}, Errors: []string{}}
	patterns := o.loadPatterns(ctx)
	var firstErr error

	fail := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
		res.Errors = append(res.Errors, err.Error())
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if len(res.Errors) >= o.opts.MaxErrors {
			res.Stopped = true
			o.logger.Warn("Error limit reached, stopping import",
				logging.F(logging.FieldRow, i+1),
				logging.F(logging.FieldCount, len(res.Errors)))
			break
		}

		rowNum := i + 1
		res.Processed++
		nr, err := o.normalizer.Normalize(rowNum, row, cols)
		if err != nil {
			o.logger.Debug("Row rejected", logging.F(logging.FieldRow, rowNum), logging.F(logging.FieldError, err.Error()))
			fail(err)
			continue
		}

		tx := nr.Transaction()
		tx.ID = models.NewID()
		if tx.SetCategory(o.classifier.Classify(ctx, tx.Description, tx.Direction)) {
			o.logger.Warn("Classifier returned invalid category, using fallback",
				logging.F(logging.FieldRow, rowNum))
		}

		if _, dup, err := o.guard.Check(ctx, tx); err != nil {
			fail(&parsererror.RowError{Row: rowNum, Err: err})
			continue
		} else if dup {
			res.Duplicates++
			continue
		}

		created, err := o.store.Create(ctx, tx)
		if errors.Is(err, store.ErrDuplicate) {
			res.Duplicates++
			continue
		}
		if err != nil {
			fail(&parsererror.RowError{Row: rowNum, Err: fmt.Errorf("failed to save transaction: %w", err)})
			continue
		}

		res.Accepted = append(res.Accepted, created)
		o.bumpPatterns(ctx, patterns, created)
	}

	o.logger.Info("Import finished",
		logging.F("total", res.Total),
		logging.F("processed", res.Processed),
		logging.F("accepted", len(res.Accepted)),
		logging.F("duplicates", res.Duplicates),
		logging.F("errors", len(res.Errors)))

	if len(res.Errors) > 0 && len(res.Accepted) == 0 && res.Duplicates == 0 {
		return res, &parsererror.BatchError{
			Total:     res.Total,
			Processed: res.Processed,
			First:     firstErr,
			Errors:    res.Errors,
		}
	}
	return res, nil
}

func (o *Orchestrator) loadPatterns(ctx context.Context) []models.CategoryPattern {
	patterns, err := o.store.ListPatterns(ctx)
	if err != nil {
		o.logger.WithError(err).Warn("Failed to load patterns, usage counts will not be updated")
		return nil
	}
	return patterns
}

// bumpPatterns records a use for every stored pattern that occurs in the
// accepted transaction's description and points at its category.
func (o *Orchestrator) bumpPatterns(ctx context.Context, patterns []models.CategoryPattern, tx models.Transaction) {
	for _, p := range patterns {
		if p.Category() != tx.Category() || !p.MatchesDescription(tx.Description) {
			continue
		}
		if err := o.store.UpdatePatternStats(ctx, p.Pattern, 0, 1); err != nil {
			o.logger.WithError(err).Warn("Failed to update pattern usage",
				logging.F(logging.FieldPattern, p.Pattern))
		}
	}
}
