package history

import (
	"context"
	"strings"

	"github.com/pysugar/code-converter/internal/db"
	"gorm.io/gorm/logger"
)

// Open returns a PostgreSQL-backed store for postgres:// URLs and a
// SQLite-backed store for everything else.
func Open(ctx context.Context, databaseURL string, logLevel logger.LogLevel) (Store, error) {
	if IsPostgresURL(databaseURL) {
		return NewPostgresStore(ctx, databaseURL)
	}
	database, err := db.InitDB(databaseURL, logLevel)
	if err != nil {
		return nil, err
	}
	return NewGormStore(database), nil
}

// IsPostgresURL reports whether databaseURL names a PostgreSQL server.
func IsPostgresURL(databaseURL string) bool {
	u := strings.ToLower(strings.TrimSpace(databaseURL))
	return strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://")
}
