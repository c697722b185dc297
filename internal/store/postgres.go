package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"fjacquet/bankflow/internal/logging"
	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/taxonomy"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

//go:embed 001_create_schema.sql
var migrationSQL string

// PostgresConfig holds the PostgreSQL connection settings.
type PostgresConfig struct {
	DSN         string
	MaxPoolSize int
	// ConnectTimeout bounds the initial ping.
	ConnectTimeout time.Duration
}

// PostgresStore is a Gateway backed by PostgreSQL. Duplicate detection
// relies on the transactions_identity unique constraint.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

const transactionColumns = `id, date, description, amount::text, direction,
	main_category, sub_category, account, counterparty, notes, created_at`

const patternColumns = `pattern, main_category, sub_category, confidence, usage_count`

// NewPostgresStore connects, pings and runs the schema migration.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig, logger logging.Logger) (*PostgresStore, error) {
	logger = logging.OrDiscard(logger)
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 10
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &PostgresStore{pool: pool, logger: logger}
	if _, err := pool.Exec(ctx, migrationSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("Connected to PostgreSQL",
		logging.F(logging.FieldOperation, "postgres_connect"))
	return s, nil
}

func (s *PostgresStore) Create(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.ID == "" {
		tx.ID = models.NewID()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	if err := tx.Validate(); err != nil {
		return models.Transaction{}, fmt.Errorf("invalid transaction: %w", err)
	}

	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO transactions (
			id, date, day, description, amount, direction,
			main_category, sub_category, account, counterparty, notes, created_at
		) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT ON CONSTRAINT transactions_identity DO NOTHING
		RETURNING id
	`,
		tx.ID,
		tx.Date,
		models.StartOfDay(tx.Date),
		tx.Description,
		tx.Amount.String(),
		string(tx.Direction),
		string(tx.MainCategory),
		string(tx.SubCategory),
		tx.Account,
		tx.Counterparty,
		tx.Notes,
		tx.CreatedAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Transaction{}, fmt.Errorf("%w: %s", ErrDuplicate, tx.Identity())
	}
	if err != nil {
		return models.Transaction{}, fmt.Errorf("inserting transaction: %w", err)
	}
	return tx, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (models.Transaction, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return tx, err
}

func (s *PostgresStore) FindByIdentity(ctx context.Context, key models.IdentityKey) (*models.Transaction, error) {
	start, end := key.DayRange()
	row := s.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE date >= $1 AND date <= $2
		  AND description = $3 AND amount = $4::numeric AND direction = $5
		LIMIT 1
	`, start, end, key.Description, key.Amount.String(), string(key.Direction))

	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, id string, pair taxonomy.Pair) (models.Transaction, error) {
	if !pair.Valid() {
		return models.Transaction{}, fmt.Errorf("%w: %s", taxonomy.ErrInvalidPair, pair)
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE transactions SET main_category = $2, sub_category = $3
		WHERE id = $1
		RETURNING `+transactionColumns,
		id, string(pair.Main), string(pair.Sub))

	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return tx, err
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]models.Transaction, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if !filter.From.IsZero() {
		add("date >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("date <= $%d", filter.To)
	}
	if filter.Category != nil {
		add("main_category = $%d", string(filter.Category.Main))
		add("sub_category = $%d", string(filter.Category.Sub))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpsertPattern(ctx context.Context, pattern string, pair taxonomy.Pair, confidence float64) (models.CategoryPattern, error) {
	key := models.NormalizePattern(pattern)
	if key == "" {
		return models.CategoryPattern{}, fmt.Errorf("pattern is empty")
	}
	if !pair.Valid() {
		return models.CategoryPattern{}, fmt.Errorf("%w: %s", taxonomy.ErrInvalidPair, pair)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO category_patterns (pattern, main_category, sub_category, confidence, usage_count)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (pattern) DO UPDATE SET
			main_category = EXCLUDED.main_category,
			sub_category = EXCLUDED.sub_category,
			usage_count = category_patterns.usage_count + 1
		RETURNING `+patternColumns,
		key, string(pair.Main), string(pair.Sub), models.ClampConfidence(confidence))
	return scanPattern(row)
}

func (s *PostgresStore) SeedPattern(ctx context.Context, p models.CategoryPattern) (bool, error) {
	p.Pattern = models.NormalizePattern(p.Pattern)
	if p.Pattern == "" {
		return false, fmt.Errorf("pattern is empty")
	}
	if !p.Category().Valid() {
		return false, fmt.Errorf("%w: %s", taxonomy.ErrInvalidPair, p.Category())
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO category_patterns (pattern, main_category, sub_category, confidence, usage_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (pattern) DO NOTHING
	`, p.Pattern, string(p.MainCategory), string(p.SubCategory), models.ClampConfidence(p.Confidence), p.UsageCount)
	if err != nil {
		return false, fmt.Errorf("seeding pattern %q: %w", p.Pattern, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) UpdatePatternStats(ctx context.Context, pattern string, confidenceDelta float64, usageDelta int) error {
	key := models.NormalizePattern(pattern)
	tag, err := s.pool.Exec(ctx, `
		UPDATE category_patterns SET
			confidence = LEAST(GREATEST(ROUND((confidence + $2)::numeric, 2)::double precision, $4), $5),
			usage_count = usage_count + $3
		WHERE pattern = $1
	`, key, confidenceDelta, usageDelta, models.MinConfidence, models.MaxConfidence)
	if err != nil {
		return fmt.Errorf("updating pattern %q: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pattern %q: %w", key, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListPatterns(ctx context.Context) ([]models.CategoryPattern, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+patternColumns+` FROM category_patterns ORDER BY usage_count DESC, pattern ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing patterns: %w", err)
	}
	defer rows.Close()

	var out []models.CategoryPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing patterns: %w", err)
	}
	return out, nil
}

// Clear empties both tables in one transaction.
func (s *PostgresStore) Clear(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clearing transactions: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM category_patterns`); err != nil {
		return fmt.Errorf("clearing patterns: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	s.logger.Warn("Store cleared", logging.F(logging.FieldOperation, "clear"))
	return nil
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var (
		tx         models.Transaction
		amount     string
		direction  string
		main, sub  string
		date, crAt time.Time
	)
	err := row.Scan(&tx.ID, &date, &tx.Description, &amount, &direction,
		&main, &sub, &tx.Account, &tx.Counterparty, &tx.Notes, &crAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Transaction{}, err
		}
		return models.Transaction{}, fmt.Errorf("scanning transaction: %w", err)
	}

	tx.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("scanning amount %q: %w", amount, err)
	}
	tx.Date = date.UTC()
	tx.CreatedAt = crAt.UTC()
	tx.Direction = models.Direction(direction)
	tx.MainCategory = taxonomy.MainCategory(main)
	tx.SubCategory = taxonomy.SubCategory(sub)
	return tx, nil
}

func scanPattern(row pgx.Row) (models.CategoryPattern, error) {
	var (
		p         models.CategoryPattern
		main, sub string
	)
	if err := row.Scan(&p.Pattern, &main, &sub, &p.Confidence, &p.UsageCount); err != nil {
		return models.CategoryPattern{}, fmt.Errorf("scanning pattern: %w", err)
	}
	p.MainCategory = taxonomy.MainCategory(main)
	p.SubCategory = taxonomy.SubCategory(sub)
	return p, nil
}
