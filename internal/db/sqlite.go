package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/pysugar/code-converter/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the SQLite database named by dsn and runs migrations.
// dsn may be a plain path ("converter.db") or carry the Prisma-style
// "file:" prefix ("file:./dev.db").
func InitDB(dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(NormalizeSQLiteDSN(dsn)), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the tables owned by this service.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Conversion{}); err != nil {
		return fmt.Errorf("migrate conversions: %w", err)
	}
	return nil
}

// NormalizeSQLiteDSN strips a "file:" prefix from plain file paths while
// keeping URI forms that carry query options (file:x?mode=memory).
func NormalizeSQLiteDSN(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "converter.db"
	}
	if strings.HasPrefix(dsn, "file:") && !strings.Contains(dsn, "?") {
		return strings.TrimPrefix(dsn, "file:")
	}
	return dsn
}
