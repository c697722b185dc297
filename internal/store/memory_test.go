package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/taxonomy"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTx(desc string, day int, amount string) models.Transaction {
	return models.Transaction{
		Date:         time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		Description:  desc,
		Amount:       decimal.RequireFromString(amount),
		Direction:    models.Debit,
		MainCategory: taxonomy.FoodAndGroceries,
		SubCategory:  taxonomy.Groceries,
		Account:      models.DefaultAccount,
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	created, err := s.Create(ctx, sampleTx("Albert Heijn", 1, "45.30"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CreateRejectsInvalid(t *testing.T) {
	tx := sampleTx("x", 1, "1")
	tx.SubCategory = taxonomy.Rent
	_, err := NewMemoryStore().Create(context.Background(), tx)
	assert.ErrorIs(t, err, taxonomy.ErrInvalidPair)
}

func TestMemoryStore_Duplicate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Create(ctx, sampleTx("Albert Heijn", 1, "45.30"))
	require.NoError(t, err)

	dup := sampleTx("Albert Heijn", 1, "45.3")
	dup.Date = dup.Date.Add(15 * time.Hour)
	_, err = s.Create(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = s.Create(ctx, sampleTx("Albert Heijn", 2, "45.30"))
	assert.NoError(t, err)
}

func TestMemoryStore_ConcurrentCreateSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Create(ctx, sampleTx("Jumbo", 5, "10.00")); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestMemoryStore_FindByIdentity(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	tx := sampleTx("Albert Heijn", 1, "45.30")
	tx.Date = tx.Date.Add(23*time.Hour + 59*time.Minute)
	created, err := s.Create(ctx, tx)
	require.NoError(t, err)

	found, err := s.FindByIdentity(ctx, sampleTx("Albert Heijn", 1, "45.3").Identity())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	other := sampleTx("Albert Heijn", 1, "45.30")
	other.Direction = models.Credit
	found, err = s.FindByIdentity(ctx, other.Identity())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestMemoryStore_FindByIdentity_KeyLookup(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for day := 1; day <= 28; day++ {
		_, err := s.Create(ctx, sampleTx("Jumbo", day, "12.00"))
		require.NoError(t, err)
	}
	created, err := s.Create(ctx, sampleTx("Albert Heijn", 15, "45.30"))
	require.NoError(t, err)
	_, err = s.UpdateCategory(ctx, created.ID, taxonomy.Pair{Main: taxonomy.Shopping, Sub: taxonomy.Clothing})
	require.NoError(t, err)

	key := models.IdentityKey{
		Day:         time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC),
		Description: "Albert Heijn",
		Amount:      decimal.RequireFromString("45.3"),
		Direction:   models.Debit,
	}
	found, err := s.FindByIdentity(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, taxonomy.Clothing, found.SubCategory)

	require.NoError(t, s.Clear(ctx))
	found, err = s.FindByIdentity(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestMemoryStore_UpdateCategory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	created, err := s.Create(ctx, sampleTx("Mystery", 1, "9.99"))
	require.NoError(t, err)

	updated, err := s.UpdateCategory(ctx, created.ID, taxonomy.Pair{Main: taxonomy.Shopping, Sub: taxonomy.Clothing})
	require.NoError(t, err)
	assert.Equal(t, taxonomy.Shopping, updated.MainCategory)

	_, err = s.UpdateCategory(ctx, "missing", taxonomy.Fallback)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.UpdateCategory(ctx, created.ID, taxonomy.Pair{Main: taxonomy.Shopping, Sub: taxonomy.Rent})
	assert.ErrorIs(t, err, taxonomy.ErrInvalidPair)
}

func TestMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for day := 1; day <= 5; day++ {
		_, err := s.Create(ctx, sampleTx("Shop", day, "1.00"))
		require.NoError(t, err)
	}

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, 5, all[0].Date.Day())

	ranged, err := s.List(ctx, Filter{
		From: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 3, 23, 59, 59, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	limited, err := s.List(ctx, Filter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, limited, 3)

	misc := taxonomy.Fallback
	none, err := s.List(ctx, Filter{Category: &misc})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore_Patterns(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	groceries := taxonomy.Pair{Main: taxonomy.FoodAndGroceries, Sub: taxonomy.Groceries}
	clothing := taxonomy.Pair{Main: taxonomy.Shopping, Sub: taxonomy.Clothing}

	p, err := s.UpsertPattern(ctx, "  Jumbo ", groceries, models.LearnedConfidence)
	require.NoError(t, err)
	assert.Equal(t, "jumbo", p.Pattern)
	assert.Equal(t, 1, p.UsageCount)
	assert.Equal(t, 0.9, p.Confidence)

	p, err = s.UpsertPattern(ctx, "jumbo", clothing, 0.5)
	require.NoError(t, err)
	assert.Equal(t, clothing, p.Category())
	assert.Equal(t, 2, p.UsageCount)
	assert.Equal(t, 0.9, p.Confidence)

	created, err := s.SeedPattern(ctx, models.CategoryPattern{Pattern: "jumbo", MainCategory: groceries.Main, SubCategory: groceries.Sub, Confidence: 1})
	require.NoError(t, err)
	assert.False(t, created)

	created, err = s.SeedPattern(ctx, models.CategoryPattern{Pattern: "lidl", MainCategory: groceries.Main, SubCategory: groceries.Sub, Confidence: 1})
	require.NoError(t, err)
	assert.True(t, created)

	require.NoError(t, s.UpdatePatternStats(ctx, "lidl", 0.1, 5))
	require.NoError(t, s.UpdatePatternStats(ctx, "jumbo", -0.9, 1))
	assert.ErrorIs(t, s.UpdatePatternStats(ctx, "missing", 0.1, 1), ErrNotFound)

	list, err := s.ListPatterns(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "lidl", list[0].Pattern)
	assert.Equal(t, 5, list[0].UsageCount)
	assert.Equal(t, 1.0, list[0].Confidence)
	assert.Equal(t, "jumbo", list[1].Pattern)
	assert.Equal(t, 0.1, list[1].Confidence)
}

func TestMemoryStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.Create(ctx, sampleTx("Shop", 1, "1.00"))
	require.NoError(t, err)
	_, err = s.UpsertPattern(ctx, "shop", taxonomy.Fallback, 0.9)
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx))

	all, _ := s.List(ctx, Filter{})
	patterns, _ := s.ListPatterns(ctx)
	assert.Empty(t, all)
	assert.Empty(t, patterns)

	_, err = s.Create(ctx, sampleTx("Shop", 1, "1.00"))
	assert.NoError(t, err)
}
