package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"table-reservation-api/models"
)

// slotIndexes back the "one active booking per table slot" rule and
// survive on both sqlite and postgres (partial indexes).
var slotIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_slot
		ON bookings (table_number, date, time)
		WHERE table_number IS NOT NULL AND status IN ('pending', 'confirmed')`,
}

// gormWriter sends gorm's slow-query and error lines to zerolog.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...any) {
	log.Warn().Str("component", "gorm").Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// newGormLogger logs slow queries and errors. Misses are expected lookups
// and stay quiet.
func newGormLogger() gormlogger.Interface {
	return gormlogger.New(gormWriter{}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// OpenDB connects to postgres when the URL looks like a postgres DSN and to a
// sqlite file (or ":memory:") otherwise, then migrates the schema.
func OpenDB(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(dialectorFor(databaseURL), &gorm.Config{
		Logger:         newGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if isSQLite(databaseURL) {
		// sqlite serialises writers anyway; one connection keeps :memory: databases coherent.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate auto-migrates all models and applies the hand-written indexes.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.Booking{},
		&models.BookingStatusHistory{},
		&models.Review{},
		&models.PasswordResetToken{},
		&models.NotificationLog{},
		&models.AuditEvent{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	for _, stmt := range slotIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply indexes: %w", err)
		}
	}
	return nil
}

func dialectorFor(databaseURL string) gorm.Dialector {
	if isSQLite(databaseURL) {
		return sqlite.Open(databaseURL)
	}
	return postgres.Open(databaseURL)
}

func isSQLite(databaseURL string) bool {
	return !strings.HasPrefix(databaseURL, "postgres://") &&
		!strings.HasPrefix(databaseURL, "postgresql://") &&
		!strings.Contains(databaseURL, "host=")
}
