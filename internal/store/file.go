package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fjacquet/bankflow/internal/logging"
	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/taxonomy"

	"gopkg.in/yaml.v3"
)

// fileData is the on-disk layout of a FileStore.
type fileData struct {
	Transactions []models.Transaction     `yaml:"transactions"`
	Patterns     []models.CategoryPattern `yaml:"patterns"`
}

// FileStore is a MemoryStore persisted to a YAML file. The file is read
// when the store opens and rewritten on Flush and Close whenever a
// mutation happened since the last write.
type FileStore struct {
	*MemoryStore

	path   string
	logger logging.Logger

	mu    sync.Mutex
	dirty bool
}

// NewFileStore opens the store at path. A missing file is an empty store;
// it is created on the first Flush.
func NewFileStore(path string, logger logging.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store file path is empty")
	}
	s := &FileStore{
		MemoryStore: NewMemoryStore(),
		path:        path,
		logger:      logging.OrDiscard(logger),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("Store file not found, starting empty", logging.F(logging.FieldFile, path))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file %s: %w", path, err)
	}

	var content fileData
	if err := yaml.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("failed to parse store file %s: %w", path, err)
	}
	if err := s.restore(content.Transactions, content.Patterns); err != nil {
		return nil, fmt.Errorf("failed to load store file %s: %w", path, err)
	}

	s.logger.Debug("Store file loaded",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(content.Transactions)))
	return s, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) markDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

func (s *FileStore) Create(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	created, err := s.MemoryStore.Create(ctx, tx)
	if err == nil {
		s.markDirty()
	}
	return created, err
}

func (s *FileStore) UpdateCategory(ctx context.Context, id string, pair taxonomy.Pair) (models.Transaction, error) {
	tx, err := s.MemoryStore.UpdateCategory(ctx, id, pair)
	if err == nil {
		s.markDirty()
	}
	return tx, err
}

func (s *FileStore) UpsertPattern(ctx context.Context, pattern string, pair taxonomy.Pair, confidence float64) (models.CategoryPattern, error) {
	p, err := s.MemoryStore.UpsertPattern(ctx, pattern, pair, confidence)
	if err == nil {
		s.markDirty()
	}
	return p, err
}

func (s *FileStore) SeedPattern(ctx context.Context, p models.CategoryPattern) (bool, error) {
	created, err := s.MemoryStore.SeedPattern(ctx, p)
	if created {
		s.markDirty()
	}
	return created, err
}

func (s *FileStore) UpdatePatternStats(ctx context.Context, pattern string, confidenceDelta float64, usageDelta int) error {
	err := s.MemoryStore.UpdatePatternStats(ctx, pattern, confidenceDelta, usageDelta)
	if err == nil {
		s.markDirty()
	}
	return err
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := s.MemoryStore.Clear(ctx); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

// Flush writes the store to disk if anything changed. The file is
// replaced atomically through a temporary file in the same directory.
func (s *FileStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	txs, patterns := s.MemoryStore.snapshot()
	data, err := yaml.Marshal(fileData{Transactions: txs, Patterns: patterns})
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return err
	}

	s.dirty = false
	s.logger.Debug("Store file written",
		logging.F(logging.FieldFile, s.path),
		logging.F(logging.FieldCount, len(txs)))
	return nil
}

// Close flushes pending changes.
func (s *FileStore) Close() error {
	return s.Flush()
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary store file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close store file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}
