package store

import (
	"context"

	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/taxonomy"
)

// MockStore wraps a MemoryStore and lets tests inject failures per
// operation. A nil error field means the call is delegated.
type MockStore struct {
	*MemoryStore

	CreateError         error
	FindByIdentityError error
	UpdateCategoryError error
	UpsertPatternError  error
	ListPatternsError   error

	// CreateHook runs before Create is delegated; a non-nil return fails
	// the call.
	CreateHook func(tx models.Transaction) error
}

// NewMockStore returns a MockStore over an empty MemoryStore.
func NewMockStore() *MockStore {
	return &MockStore{MemoryStore: NewMemoryStore()}
}

func (m *MockStore) Create(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if m.CreateError != nil {
		return models.Transaction{}, m.CreateError
	}
	if m.CreateHook != nil {
		if err := m.CreateHook(tx); err != nil {
			return models.Transaction{}, err
		}
	}
	return m.MemoryStore.Create(ctx, tx)
}

func (m *MockStore) FindByIdentity(ctx context.Context, key models.IdentityKey) (*models.Transaction, error) {
	if m.FindByIdentityError != nil {
		return nil, m.FindByIdentityError
	}
	return m.MemoryStore.FindByIdentity(ctx, key)
}

func (m *MockStore) UpdateCategory(ctx context.Context, id string, pair taxonomy.Pair) (models.Transaction, error) {
	if m.UpdateCategoryError != nil {
		return models.Transaction{}, m.UpdateCategoryError
	}
	return m.MemoryStore.UpdateCategory(ctx, id, pair)
}

func (m *MockStore) UpsertPattern(ctx context.Context, pattern string, pair taxonomy.Pair, confidence float64) (models.CategoryPattern, error) {
	if m.UpsertPatternError != nil {
		return models.CategoryPattern{}, m.UpsertPatternError
	}
	return m.MemoryStore.UpsertPattern(ctx, pattern, pair, confidence)
}

func (m *MockStore) ListPatterns(ctx context.Context) ([]models.CategoryPattern, error) {
	if m.ListPatternsError != nil {
		return nil, m.ListPatternsError
	}
	return m.MemoryStore.ListPatterns(ctx)
}
