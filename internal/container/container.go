// Package container provides dependency injection for bankflow.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"io"

	"fjacquet/bankflow/internal/categorizer"
	"fjacquet/bankflow/internal/config"
	"fjacquet/bankflow/internal/dedup"
	"fjacquet/bankflow/internal/importer"
	"fjacquet/bankflow/internal/logging"
	"fjacquet/bankflow/internal/normalizer"
	"fjacquet/bankflow/internal/recategorizer"
	"fjacquet/bankflow/internal/store"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger        logging.Logger
	config        *config.Config
	store         store.Gateway
	aiClient      categorizer.AIClient
	classifier    *categorizer.Classifier
	guard         *dedup.Guard
	orchestrator  *importer.Orchestrator
	recategorizer *recategorizer.Service
}

// Option overrides a dependency NewContainer would otherwise build.
type Option func(*overrides)

type overrides struct {
	logger   logging.Logger
	store    store.Gateway
	aiClient categorizer.AIClient
	skipSeed bool
}

// WithLogger replaces the logger built from cfg.Log.
func WithLogger(l logging.Logger) Option {
	return func(o *overrides) { o.logger = l }
}

// WithStore replaces the store selected by cfg.Store.Driver.
func WithStore(s store.Gateway) Option {
	return func(o *overrides) { o.store = s }
}

// WithAIClient replaces the Gemini client. The AI tier is enabled whenever
// a client is supplied.
func WithAIClient(c categorizer.AIClient) Option {
	return func(o *overrides) { o.aiClient = c }
}

// WithoutSeeding skips loading the default pattern file.
func WithoutSeeding() Option {
	return func(o *overrides) { o.skipSeed = true }
}

// NewContainer creates and wires all application dependencies:
// config -> logger -> store -> AI client -> classifier -> guard ->
// orchestrator -> recategorizer.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	var o overrides
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	}

	gateway := o.store
	if gateway == nil {
		var err error
		gateway, err = openStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	if !o.skipSeed {
		if _, err := store.SeedFromFile(ctx, gateway, cfg.Store.PatternsFile, logger); err != nil {
			_ = gateway.Close()
			return nil, fmt.Errorf("failed to seed patterns: %w", err)
		}
	}

	aiClient := o.aiClient
	if aiClient == nil && cfg.AI.Enabled && cfg.AI.APIKey != "" {
		gemini, err := categorizer.NewGeminiClient(ctx, categorizer.GeminiOptions{
			APIKey:          cfg.AI.APIKey,
			Model:           cfg.AI.Model,
			Temperature:     float32(cfg.AI.Temperature),
			MaxOutputTokens: int32(cfg.AI.MaxOutputTokens),
		}, logger)
		if err != nil {
			_ = gateway.Close()
			return nil, err
		}
		aiClient = gemini
	}

	var aiTier categorizer.Strategy
	if aiClient != nil {
		aiTier = categorizer.NewAIStrategy(aiClient, gateway, categorizer.AIOptions{
			Timeout:    cfg.AITimeout(),
			MaxRetries: cfg.AI.MaxRetries,
			Backoff:    cfg.AIBackoff(),
		}, logger)
		logger.Info("AI categorization enabled", logging.F("model", cfg.AI.Model))
	} else {
		logger.Info("AI categorization disabled")
	}

	classifier := categorizer.NewClassifier(
		categorizer.NewRuleStrategy(nil, nil),
		aiTier,
		categorizer.NewMemoryCache(cfg.Cache.MaxEntries),
		logger,
	)

	guard := dedup.NewGuard(gateway, logger)

	delimiter := []rune(cfg.CSV.Delimiter)
	var delim rune
	if len(delimiter) > 0 {
		delim = delimiter[0]
	}

	orchestrator := importer.NewOrchestrator(
		normalizer.New(normalizer.WithDefaultAccount(cfg.Import.DefaultAccount)),
		classifier,
		guard,
		gateway,
		importer.Options{MaxErrors: cfg.Import.MaxErrors, Delimiter: delim},
		logger,
	)

	recat := recategorizer.New(classifier, gateway, recategorizer.Options{
		BatchSize: cfg.Recategorize.BatchSize,
		Delay:     cfg.RecategorizeDelay(),
	}, logger)

	logger.Info("Container initialized successfully",
		logging.F("store_driver", cfg.Store.Driver),
		logging.F("ai_enabled", aiClient != nil))

	return &Container{
		logger:        logger,
		config:        cfg,
		store:         gateway,
		aiClient:      aiClient,
		classifier:    classifier,
		guard:         guard,
		orchestrator:  orchestrator,
		recategorizer: recat,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (store.Gateway, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := store.NewPostgresStore(ctx, store.PostgresConfig{
			DSN:         cfg.Store.PostgresDSN,
			MaxPoolSize: cfg.Store.MaxPoolSize,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return pg, nil
	case config.DriverFile:
		fileStore, err := store.NewFileStore(cfg.Store.FilePath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		return fileStore, nil
	case config.DriverMemory, "":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the persistence gateway.
func (c *Container) GetStore() store.Gateway {
	return c.store
}

// GetAIClient returns the container's AI client instance.
// Returns nil if AI is not enabled.
func (c *Container) GetAIClient() categorizer.AIClient {
	return c.aiClient
}

// GetClassifier returns the two-tier classifier.
func (c *Container) GetClassifier() *categorizer.Classifier {
	return c.classifier
}

// GetGuard returns the duplicate guard.
func (c *Container) GetGuard() *dedup.Guard {
	return c.guard
}

// GetImporter returns the import orchestrator.
func (c *Container) GetImporter() *importer.Orchestrator {
	return c.orchestrator
}

// GetRecategorizer returns the recategorize/correct service.
func (c *Container) GetRecategorizer() *recategorizer.Service {
	return c.recategorizer
}

// Close releases the AI client and the store.
func (c *Container) Close() error {
	var firstErr error
	if closer, ok := c.aiClient.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			firstErr = err
		}
	}
	if err := c.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	c.logger.Info("Container closed")
	return firstErr
}
