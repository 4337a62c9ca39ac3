// Package history persists successful conversions and serves the read side
// (paginated history, single lookups, removal and aggregate statistics).
package history

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/pysugar/code-converter/internal/db/models"
)

// ErrNotFound is returned by Get and Delete when no record has the given id.
var ErrNotFound = errors.New("conversion not found")

const (
	// DefaultPageSize applies when a caller passes a non-positive page size.
	DefaultPageSize = 10
	// MaxPageSize caps a single history page.
	MaxPageSize = 100
	// RecentConversions is how many records the stats endpoint lists.
	RecentConversions = 5
	// MaxPage keeps (page-1)*MaxPageSize within an int32 offset.
	MaxPage = math.MaxInt32/MaxPageSize + 1
)

// Store is the persistence contract used by the handlers and the Recorder.
//
// A single Store is shared by every request handler. Implementations must be
// safe for concurrent use; both *gorm.DB and *pgxpool.Pool are, so the
// implementations below hold no locks of their own.
type Store interface {
	Create(ctx context.Context, c *models.Conversion) error
	List(ctx context.Context, page, pageSize int) ([]models.Conversion, int64, error)
	Get(ctx context.Context, id uint) (*models.Conversion, error)
	Delete(ctx context.Context, id uint) error
	Aggregate(ctx context.Context, recent int) (models.ConversionStats, error)
	Ping(ctx context.Context) (time.Duration, error)
	Close() error
}

// Pages returns how many pages of pageSize are needed for total records.
func Pages(total int64, pageSize int) int64 {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + int64(pageSize) - 1) / int64(pageSize)
}

// NormalizePage clamps page and pageSize into the accepted range.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// pageOffset is the number of records before page. ok is false when the
// page starts past the last of total records.
func pageOffset(page, pageSize int, total int64) (offset int, ok bool) {
	offset = (page - 1) * pageSize
	return offset, int64(offset) < total
}

// roundMillis rounds an average latency to whole milliseconds.
func roundMillis(avg float64) int64 {
	if avg <= 0 {
		return 0
	}
	return int64(avg + 0.5)
}
