package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pysugar/code-converter/internal/db/models"
)

// PostgresStore keeps conversions in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id BIGSERIAL PRIMARY KEY,
			source_text TEXT NOT NULL,
			result TEXT NOT NULL,
			model TEXT NOT NULL DEFAULT '',
			tokens INTEGER,
			elapsed_ms BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_created_at ON conversions (created_at DESC, id DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, c *models.Conversion) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO conversions (source_text, result, model, tokens, elapsed_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		c.SourceText,
		c.Result,
		c.Model,
		c.Tokens,
		c.ElapsedMs,
		c.CreatedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("create conversion: %w", err)
	}
	c.ID = uint(id)
	return nil
}

func (s *PostgresStore) List(ctx context.Context, page, pageSize int) ([]models.Conversion, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM conversions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count conversions: %w", err)
	}

	offset, ok := pageOffset(page, pageSize, total)
	if !ok {
		return []models.Conversion{}, total, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, source_text, result, model, tokens, elapsed_ms, created_at
		 FROM conversions ORDER BY created_at DESC, id DESC OFFSET $1 LIMIT $2`,
		offset,
		pageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list conversions: %w", err)
	}
	defer rows.Close()

	items := make([]models.Conversion, 0, pageSize)
	for rows.Next() {
		c, err := scanConversion(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate conversion rows: %w", err)
	}
	return items, total, nil
}

func (s *PostgresStore) Get(ctx context.Context, id uint) (*models.Conversion, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, source_text, result, model, tokens, elapsed_ms, created_at
		 FROM conversions WHERE id = $1`,
		int64(id),
	)
	c, err := scanConversion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get conversion %d: %w", id, err)
	}
	return &c, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uint) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM conversions WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete conversion %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Aggregate(ctx context.Context, recent int) (models.ConversionStats, error) {
	var (
		total    int64
		tokenSum int64
		avg      float64
	)
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(tokens), 0)::BIGINT, COALESCE(AVG(elapsed_ms), 0)::DOUBLE PRECISION
		 FROM conversions`,
	).Scan(&total, &tokenSum, &avg)
	if err != nil {
		return models.ConversionStats{}, fmt.Errorf("aggregate conversions: %w", err)
	}

	stats := models.ConversionStats{
		TotalConversions: total,
		TotalTokens:      tokenSum,
		AverageLatency:   roundMillis(avg),
		LastConversions:  []models.ConversionSummary{},
	}
	if recent <= 0 {
		return stats, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, created_at, elapsed_ms, tokens
		 FROM conversions ORDER BY created_at DESC, id DESC LIMIT $1`,
		recent,
	)
	if err != nil {
		return models.ConversionStats{}, fmt.Errorf("recent conversions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      int64
			summary models.ConversionSummary
		)
		if err := rows.Scan(&id, &summary.CreatedAt, &summary.ElapsedMs, &summary.Tokens); err != nil {
			return models.ConversionStats{}, fmt.Errorf("scan recent row: %w", err)
		}
		summary.ID = uint(id)
		stats.LastConversions = append(stats.LastConversions, summary)
	}
	if err := rows.Err(); err != nil {
		return models.ConversionStats{}, fmt.Errorf("iterate recent rows: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.pool.Ping(ctx); err != nil {
		return time.Since(start), fmt.Errorf("ping postgres: %w", err)
	}
	return time.Since(start), nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanConversion(row pgx.Row) (models.Conversion, error) {
	var (
		c  models.Conversion
		id int64
	)
	if err := row.Scan(&id, &c.SourceText, &c.Result, &c.Model, &c.Tokens, &c.ElapsedMs, &c.CreatedAt); err != nil {
		return models.Conversion{}, err
	}
	c.ID = uint(id)
	return c, nil
}
