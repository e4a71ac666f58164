package database

import (
	"log"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Option tweaks the gorm configuration before the connection is opened.
type Option func(*gorm.Config)

// Quiet drops gorm's own query logging to errors only. Useful for the
// seeder, which would otherwise echo every insert.
func Quiet() Option {
	return func(cfg *gorm.Config) {
		cfg.Logger = logger.Default.LogMode(logger.Error)
	}
}

// Connect opens the database behind dsn. PostgreSQL URLs get the pgx-backed
// driver; everything else is treated as a sqlite file path served by the
// cgo-free driver, so local development and CI need no running server.
func Connect(dsn string, opts ...Option) (*gorm.DB, error) {
	cfg := &gorm.Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return gorm.Open(dialectorFor(dsn), cfg)
}

func dialectorFor(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Println("connecting to PostgreSQL")
		return postgres.Open(dsn)
	}

	// Accept sqlite:// DSNs as a convenience, stripped down to the file path.
	path := strings.TrimPrefix(dsn, "sqlite://")
	log.Println("using SQLite database at", path)

	return gormsqlite.New(gormsqlite.Config{
		DriverName: "sqlite",
		DSN:        path,
	})
}
