package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pysugar/code-converter/internal/db/models"
	"gorm.io/gorm"
)

// GormStore keeps conversions in a gorm database (SQLite by default).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an already migrated database handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, c *models.Conversion) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create conversion: %w", err)
	}
	return nil
}

// List returns one page of conversions, most recent first, plus the total count.
func (s *GormStore) List(ctx context.Context, page, pageSize int) ([]models.Conversion, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)

	var total int64
	query := s.db.WithContext(ctx).Model(&models.Conversion{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count conversions: %w", err)
	}

	conversions := make([]models.Conversion, 0, pageSize)
	offset, ok := pageOffset(page, pageSize, total)
	if !ok {
		return conversions, total, nil
	}
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(pageSize).
		Find(&conversions).Error; err != nil {
		return nil, 0, fmt.Errorf("list conversions: %w", err)
	}
	return conversions, total, nil
}

func (s *GormStore) Get(ctx context.Context, id uint) (*models.Conversion, error) {
	var c models.Conversion
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get conversion %d: %w", id, err)
	}
	return &c, nil
}

func (s *GormStore) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Conversion{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete conversion %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Aggregate computes count, token sum, rounded average latency and the
// most recent conversions. An empty table yields zeros.
func (s *GormStore) Aggregate(ctx context.Context, recent int) (models.ConversionStats, error) {
	var row struct {
		Total      int64
		TokenSum   int64
		AvgElapsed float64
	}
	if err := s.db.WithContext(ctx).Model(&models.Conversion{}).
		Select("COUNT(*) AS total, COALESCE(SUM(tokens), 0) AS token_sum, COALESCE(AVG(elapsed_ms), 0) AS avg_elapsed").
		Scan(&row).Error; err != nil {
		return models.ConversionStats{}, fmt.Errorf("aggregate conversions: %w", err)
	}

	stats := models.ConversionStats{
		TotalConversions: row.Total,
		TotalTokens:      row.TokenSum,
		AverageLatency:   roundMillis(row.AvgElapsed),
		LastConversions:  []models.ConversionSummary{},
	}
	if recent <= 0 {
		return stats, nil
	}

	var latest []models.Conversion
	if err := s.db.WithContext(ctx).
		Select("id", "created_at", "elapsed_ms", "tokens").
		Order("created_at DESC").Order("id DESC").
		Limit(recent).
		Find(&latest).Error; err != nil {
		return models.ConversionStats{}, fmt.Errorf("recent conversions: %w", err)
	}
	for _, c := range latest {
		stats.LastConversions = append(stats.LastConversions, c.Summary())
	}
	return stats, nil
}

// Ping runs a trivial query and reports how long it took.
func (s *GormStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	var one int
	if err := s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return time.Since(start), fmt.Errorf("ping database: %w", err)
	}
	return time.Since(start), nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
