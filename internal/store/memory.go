package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/taxonomy"
)

// MemoryStore is an in-process Gateway. The identity check and insert in
// Create happen under one lock, so concurrent imports cannot both insert
// the same transaction.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions map[string]models.Transaction
	identities   map[string]string
	patterns     map[string]models.CategoryPattern
	now          func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[string]models.Transaction),
		identities:   make(map[string]string),
		patterns:     make(map[string]models.CategoryPattern),
		now:          time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.ID == "" {
		tx.ID = models.NewID()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = s.now().UTC()
	}
	if err := tx.Validate(); err != nil {
		return models.Transaction{}, fmt.Errorf("invalid transaction: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := tx.Identity().String()
	if existing, ok := s.identities[key]; ok {
		return models.Transaction{}, fmt.Errorf("%w: matches %s", ErrDuplicate, existing)
	}
	if _, ok := s.transactions[tx.ID]; ok {
		return models.Transaction{}, fmt.Errorf("transaction id %s already used", tx.ID)
	}
	s.transactions[tx.ID] = tx
	s.identities[key] = tx.ID
	return tx, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return tx, nil
}

func (s *MemoryStore) FindByIdentity(_ context.Context, key models.IdentityKey) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key = models.NewIdentityKey(key.Day, key.Description, key.Amount, key.Direction)
	id, ok := s.identities[key.String()]
	if !ok {
		return nil, nil
	}
	found := s.transactions[id]
	return &found, nil
}

func (s *MemoryStore) UpdateCategory(_ context.Context, id string, pair taxonomy.Pair) (models.Transaction, error) {
	if !pair.Valid() {
		return models.Transaction{}, fmt.Errorf("%w: %s", taxonomy.ErrInvalidPair, pair)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	tx.SetCategory(pair)
	s.transactions[id] = tx
	return tx, nil
}

func (s *MemoryStore) List(_ context.Context, filter Filter) ([]models.Transaction, error) {
	s.mu.RLock()
	out := make([]models.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if filter.matches(tx) {
			out = append(out, tx)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) UpsertPattern(_ context.Context, pattern string, pair taxonomy.Pair, confidence float64) (models.CategoryPattern, error) {
	key := models.NormalizePattern(pattern)
	if key == "" {
		return models.CategoryPattern{}, fmt.Errorf("pattern is empty")
	}
	if !pair.Valid() {
		return models.CategoryPattern{}, fmt.Errorf("%w: %s", taxonomy.ErrInvalidPair, pair)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patterns[key]
	if ok {
		p.MainCategory, p.SubCategory = pair.Main, pair.Sub
		p.UsageCount++
	} else {
		p = models.CategoryPattern{
			Pattern:      key,
			MainCategory: pair.Main,
			SubCategory:  pair.Sub,
			Confidence:   models.ClampConfidence(confidence),
			UsageCount:   1,
		}
	}
	s.patterns[key] = p
	return p, nil
}

func (s *MemoryStore) SeedPattern(_ context.Context, p models.CategoryPattern) (bool, error) {
	p.Pattern = models.NormalizePattern(p.Pattern)
	if p.Pattern == "" {
		return false, fmt.Errorf("pattern is empty")
	}
	if !p.Category().Valid() {
		return false, fmt.Errorf("%w: %s", taxonomy.ErrInvalidPair, p.Category())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patterns[p.Pattern]; ok {
		return false, nil
	}
	p.Confidence = models.ClampConfidence(p.Confidence)
	s.patterns[p.Pattern] = p
	return true, nil
}

func (s *MemoryStore) UpdatePatternStats(_ context.Context, pattern string, confidenceDelta float64, usageDelta int) error {
	key := models.NormalizePattern(pattern)

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patterns[key]
	if !ok {
		return fmt.Errorf("pattern %q: %w", key, ErrNotFound)
	}
	p.Confidence = models.ClampConfidence(p.Confidence + confidenceDelta)
	p.UsageCount += usageDelta
	s.patterns[key] = p
	return nil
}

func (s *MemoryStore) ListPatterns(_ context.Context) ([]models.CategoryPattern, error) {
	s.mu.RLock()
	out := make([]models.CategoryPattern, 0, len(s.patterns))
	for _, p := range s.patterns {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sortPatterns(out)
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = make(map[string]models.Transaction)
	s.identities = make(map[string]string)
	s.patterns = make(map[string]models.CategoryPattern)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// restore loads previously persisted records, keeping their IDs and
// creation times. Records that collide on ID or identity are rejected.
func (s *MemoryStore) restore(txs []models.Transaction, patterns []models.CategoryPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("invalid stored transaction %s: %w", tx.ID, err)
		}
		key := tx.Identity().String()
		if _, ok := s.identities[key]; ok {
			return fmt.Errorf("stored transaction %s: %w", tx.ID, ErrDuplicate)
		}
		if _, ok := s.transactions[tx.ID]; ok {
			return fmt.Errorf("transaction id %s already used", tx.ID)
		}
		s.transactions[tx.ID] = tx
		s.identities[key] = tx.ID
	}
	for _, p := range patterns {
		p.Pattern = models.NormalizePattern(p.Pattern)
		if p.Pattern == "" || !p.Category().Valid() {
			return fmt.Errorf("invalid stored pattern %q", p.Pattern)
		}
		s.patterns[p.Pattern] = p
	}
	return nil
}

// snapshot returns every record, transactions oldest first and patterns
// in ListPatterns order.
func (s *MemoryStore) snapshot() ([]models.Transaction, []models.CategoryPattern) {
	s.mu.RLock()
	txs := make([]models.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		txs = append(txs, tx)
	}
	patterns := make([]models.CategoryPattern, 0, len(s.patterns))
	for _, p := range s.patterns {
		patterns = append(patterns, p)
	}
	s.mu.RUnlock()

	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
	sortPatterns(patterns)
	return txs, patterns
}

// sortPatterns orders by usage count descending, then by key.
func sortPatterns(ps []models.CategoryPattern) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].UsageCount != ps[j].UsageCount {
			return ps[i].UsageCount > ps[j].UsageCount
		}
		return ps[i].Pattern < ps[j].Pattern
	})
}
