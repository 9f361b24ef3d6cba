// Package storage opens the relational store behind every repository and
// recognises constraint violations across the supported drivers.
package storage

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/opentna/internal"
	"github.com/frahmantamala/opentna/internal/core/datamodel/attendance"
	"github.com/frahmantamala/opentna/internal/core/datamodel/card"
	"github.com/frahmantamala/opentna/internal/core/datamodel/role"
	"github.com/frahmantamala/opentna/internal/core/datamodel/user"
)

const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
)

// Open connects to the configured database and applies the pool settings.
func Open(cfg internal.DatabaseConfig, lg *slog.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg.GetDriver(), cfg.GetDSN())
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.GetDriver(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if lg != nil {
		lg.Info("database connection established", "driver", cfg.GetDriver())
	}
	return db, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case internal.DriverPostgres:
		return postgres.Open(dsn), nil
	case internal.DriverMySQL:
		return gormmysql.Open(dsn), nil
	case internal.DriverSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// SQLDriverName returns the database/sql driver name behind db, as sqlx
// expects it for bindvar selection.
func SQLDriverName(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "pgx"
	case "sqlite":
		return "sqlite3"
	default:
		return db.Dialector.Name()
	}
}

// Models lists every persisted data model.
func Models() []interface{} {
	return []interface{}{
		&role.Role{},
		&card.ProximityCard{},
		&user.User{},
		&user.UserRole{},
		&user.UserProximityCard{},
		&attendance.Attendance{},
	}
}

// AutoMigrate creates or updates the schema from the data models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to auto-migrate schema: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err was caused by a unique or primary
// key constraint, whichever driver produced it.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	return false
}
