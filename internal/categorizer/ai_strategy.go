package categorizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fjacquet/bankflow/internal/logging"
	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/taxonomy"

	"github.com/avast/retry-go"
)

// AIOptions tunes the remote tier.
type AIOptions struct {
	// Timeout bounds a single attempt.
	Timeout time.Duration
	// MaxRetries is the number of attempts after the first.
	MaxRetries int
	// Backoff is the unit delay; retry n waits Backoff * 2^(n-1).
	Backoff time.Duration
}

// DefaultAIOptions mirrors the production settings.
func DefaultAIOptions() AIOptions {
	return AIOptions{
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		Backoff:    time.Second,
	}
}

// AIStrategy asks a language model for a pair. Only debits are sent; the
// rule tier always decides credits.
type AIStrategy struct {
	client   AIClient
	patterns PatternSource
	opts     AIOptions
	logger   logging.Logger
}

// NewAIStrategy creates an AI tier. patterns may be nil.
func NewAIStrategy(client AIClient, patterns PatternSource, opts AIOptions, logger logging.Logger) *AIStrategy {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultAIOptions().Timeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &AIStrategy{
		client:   client,
		patterns: patterns,
		opts:     opts,
		logger:   logging.OrDiscard(logger),
	}
}

func (s *AIStrategy) Name() string {
	return "AI"
}

// Categorize builds the prompt, calls the model with per-attempt timeout
// and retries, and validates the answer. Transport failures, timeouts and
// empty answers are retried; answers that fail validation are not.
func (s *AIStrategy) Categorize(ctx context.Context, description string, dir models.Direction) (taxonomy.Pair, bool, error) {
	if s.client == nil || dir != models.Debit {
		return taxonomy.Pair{}, false, nil
	}

	prompt := BuildPrompt(description, dir, s.loadPatterns(ctx))

	var result taxonomy.Pair
	err := retry.Do(
		func() error {
			attemptCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
			defer cancel()

			text, err := s.client.Generate(attemptCtx, prompt)
			if err != nil {
				return err
			}
			pair, err := ParseResponse(text)
			if err != nil {
				return err
			}
			result = pair
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(s.opts.MaxRetries+1)),
		retry.Delay(s.opts.Backoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var respErr *ResponseError
			return !errors.As(err, &respErr)
		}),
		retry.OnRetry(func(n uint, err error) {
			s.logger.WithError(err).Warn("Language model attempt failed",
				logging.F(logging.FieldStrategy, s.Name()),
				logging.F(logging.FieldAttempt, n+1),
				logging.F(logging.FieldDescription, description))
		}),
	)
	if err != nil {
		return taxonomy.Pair{}, false, fmt.Errorf("ai categorization: %w", err)
	}

	s.logger.Debug("Transaction categorized using AI",
		logging.F(logging.FieldStrategy, s.Name()),
		logging.F(logging.FieldDescription, description),
		logging.F(logging.FieldCategory, string(result.Main)),
		logging.F(logging.FieldSubcategory, string(result.Sub)))
	return result, true, nil
}

func (s *AIStrategy) loadPatterns(ctx context.Context) []models.CategoryPattern {
	if s.patterns == nil {
		return nil
	}
	patterns, err := s.patterns.ListPatterns(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load patterns for prompt",
			logging.F(logging.FieldStrategy, s.Name()))
		return nil
	}
	return patterns
}
