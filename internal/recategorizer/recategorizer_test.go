package recategorizer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fjacquet/bankflow/internal/logging"
	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/parsererror"
	"fjacquet/bankflow/internal/store"
	"fjacquet/bankflow/internal/taxonomy"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	groceries = taxonomy.Pair{Main: taxonomy.FoodAndGroceries, Sub: taxonomy.Groceries}
	clothing  = taxonomy.Pair{Main: taxonomy.Shopping, Sub: taxonomy.Clothing}
)

// mapClassifier answers from a description map and falls back otherwise.
type mapClassifier struct {
	mu      sync.Mutex
	answers map[string]taxonomy.Pair
	calls   []string
}

func (m *mapClassifier) Reclassify(_ context.Context, description string, _ models.Direction) taxonomy.Pair {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, description)
	if p, ok := m.answers[description]; ok {
		return p
	}
	return taxonomy.Fallback
}

func addTx(t *testing.T, s store.Gateway, desc string, date time.Time, pair taxonomy.Pair) models.Transaction {
	t.Helper()
	tx, err := s.Create(context.Background(), models.Transaction{
		Date:         date,
		Description:  desc,
		Amount:       decimal.RequireFromString("10.00"),
		Direction:    models.Debit,
		MainCategory: pair.Main,
		SubCategory:  pair.Sub,
		Account:      models.DefaultAccount,
	})
	require.NoError(t, err)
	return tx
}

func jan(day int) time.Time { return time.Date(2024, 1, day, 12, 0, 0, 0, time.UTC) }

func TestCandidates(t *testing.T) {
	s := store.NewMemoryStore()
	addTx(t, s, "A", jan(5), taxonomy.Fallback)
	addTx(t, s, "B", jan(6), groceries)
	addTx(t, s, "C", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), taxonomy.Fallback)

	svc := New(&mapClassifier{}, s, Options{}, nil)

	all, err := svc.Candidates(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	january, err := svc.Candidates(context.Background(), "2024-01")
	require.NoError(t, err)
	require.Len(t, january, 1)
	assert.Equal(t, "A", january[0].Description)

	_, err = svc.Candidates(context.Background(), "January")
	var verr *parsererror.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRecategorize(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	for i, desc := range []string{"Jumbo City", "Zeeman", "Unknown 1", "Unknown 2", "Unknown 3", "Unknown 4", "Unknown 5"} {
		addTx(t, s, desc, jan(i+1), taxonomy.Fallback)
	}
	cls := &mapClassifier{answers: map[string]taxonomy.Pair{
		"Jumbo City": groceries,
		"Zeeman":     clothing,
	}}

	var sleeps []time.Duration
	svc := New(cls, s, Options{BatchSize: 3, Delay: time.Second}, logging.NewMockLogger())
	svc.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	summary, err := svc.Recategorize(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 7, summary.Processed)
	assert.Equal(t, 2, summary.Updated)
	assert.Empty(t, summary.Errors)
	assert.Len(t, sleeps, 2)
	assert.Len(t, cls.calls, 7)

	candidates, err := svc.Candidates(ctx, "")
	require.NoError(t, err)
	for i, c := range summary.Changes {
		if c.Updated {
			assert.NotEqual(t, taxonomy.Fallback, c.To, "change %d", i)
		}
	}
	assert.Len(t, candidates, 5)

	patterns, err := s.ListPatterns(ctx)
	require.NoError(t, err)
	byKey := map[string]models.CategoryPattern{}
	for _, p := range patterns {
		byKey[p.Pattern] = p
	}
	require.Contains(t, byKey, "jumbo city")
	assert.Equal(t, groceries, byKey["jumbo city"].Category())
	assert.Equal(t, models.LearnedConfidence, byKey["jumbo city"].Confidence)
	assert.Equal(t, 1, byKey["jumbo city"].UsageCount)
}

func TestRecategorize_PreservesOrder(t *testing.T) {
	s := store.NewMemoryStore()
	var want []string
	for i := 1; i <= 12; i++ {
		tx := addTx(t, s, "Item", jan(i), taxonomy.Fallback)
		want = append([]string{tx.ID}, want...)
	}

	svc := New(&mapClassifier{}, s, Options{BatchSize: 5}, nil)
	summary, err := svc.Recategorize(context.Background(), "")
	require.NoError(t, err)

	var got []string
	for _, c := range summary.Changes {
		got = append(got, c.ID)
	}
	assert.Equal(t, want, got)
}

func TestRecategorize_UpdateErrorsCollected(t *testing.T) {
	s := store.NewMockStore()
	addTx(t, s, "Zeeman", jan(1), taxonomy.Fallback)
	s.UpdateCategoryError = errors.New("read-only")

	svc := New(&mapClassifier{answers: map[string]taxonomy.Pair{"Zeeman": clothing}}, s, Options{}, nil)
	summary, err := svc.Recategorize(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Updated)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "read-only")
}

func TestRecategorize_CancelledDuringDelay(t *testing.T) {
	s := store.NewMemoryStore()
	for i := 1; i <= 6; i++ {
		addTx(t, s, "Item", jan(i), taxonomy.Fallback)
	}
	ctx, cancel := context.WithCancel(context.Background())
	svc := New(&mapClassifier{}, s, Options{BatchSize: 5, Delay: time.Hour}, nil)
	svc.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := svc.Recategorize(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCorrect(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	tx := addTx(t, s, "Albert Heijn Zeeman", jan(1), groceries)

	_, err := s.SeedPattern(ctx, models.CategoryPattern{Pattern: "albert heijn", MainCategory: groceries.Main, SubCategory: groceries.Sub, Confidence: 1})
	require.NoError(t, err)
	_, err = s.SeedPattern(ctx, models.CategoryPattern{Pattern: "zeeman", MainCategory: clothing.Main, SubCategory: clothing.Sub, Confidence: 0.5})
	require.NoError(t, err)
	_, err = s.SeedPattern(ctx, models.CategoryPattern{Pattern: "lidl", MainCategory: groceries.Main, SubCategory: groceries.Sub, Confidence: 1})
	require.NoError(t, err)

	svc := New(&mapClassifier{}, s, Options{}, nil)
	updated, corrected, err := svc.Correct(ctx, tx.ID, "Shopping", "Clothing")
	require.NoError(t, err)
	assert.False(t, corrected)
	assert.Equal(t, clothing, updated.Category())

	patterns, err := s.ListPatterns(ctx)
	require.NoError(t, err)
	byKey := map[string]models.CategoryPattern{}
	for _, p := range patterns {
		byKey[p.Pattern] = p
	}
	assert.InDelta(t, 0.9, byKey["albert heijn"].Confidence, 1e-9)
	assert.Equal(t, 1, byKey["albert heijn"].UsageCount)
	assert.InDelta(t, 0.6, byKey["zeeman"].Confidence, 1e-9)
	assert.Equal(t, 1, byKey["zeeman"].UsageCount)
	assert.Equal(t, 1.0, byKey["lidl"].Confidence)
	assert.Equal(t, 0, byKey["lidl"].UsageCount)

	learned := byKey["albert heijn zeeman"]
	assert.Equal(t, clothing, learned.Category())
	assert.Equal(t, models.LearnedConfidence, learned.Confidence)
}

func TestCorrect_MismatchUsesFallback(t *testing.T) {
	s := store.NewMemoryStore()
	tx := addTx(t, s, "Something", jan(1), groceries)
	logger := logging.NewMockLogger()

	svc := New(&mapClassifier{}, s, Options{}, logger)
	updated, corrected, err := svc.Correct(context.Background(), tx.ID, "Housing", "Groceries")
	require.NoError(t, err)
	assert.True(t, corrected)
	assert.Equal(t, taxonomy.Fallback, updated.Category())
	assert.NotEmpty(t, logger.GetEntriesByLevel("WARN"))
}

func TestCorrect_Errors(t *testing.T) {
	s := store.NewMemoryStore()
	svc := New(&mapClassifier{}, s, Options{}, nil)

	_, _, err := svc.Correct(context.Background(), "id", "Pets", "Food")
	var verr *parsererror.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, _, err = svc.Correct(context.Background(), "missing", "Shopping", "Clothing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAddPattern(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := New(&mapClassifier{}, s, Options{}, nil)

	p, err := svc.AddPattern(ctx, "Zeeman", "Shopping", "Clothing")
	require.NoError(t, err)
	assert.Equal(t, "zeeman", p.Pattern)
	assert.Equal(t, models.SeedConfidence, p.Confidence)

	var verr *parsererror.ValidationError
	_, err = svc.AddPattern(ctx, " ", "Shopping", "Clothing")
	assert.ErrorAs(t, err, &verr)
	_, err = svc.AddPattern(ctx, "x", "Housing", "Clothing")
	assert.ErrorAs(t, err, &verr)
	_, err = svc.AddPattern(ctx, "x", "Nope", "Clothing")
	assert.ErrorAs(t, err, &verr)
}
