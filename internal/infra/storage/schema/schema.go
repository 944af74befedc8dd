package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/FrankX3M/wordstat-api/pkg/dbmetrics"
	"github.com/FrankX3M/wordstat-api/pkg/sqlbuilder"
)

var (
	ErrUnsupportedDriver = errors.New("schema: unsupported database driver")
	ErrOpen              = errors.New("schema: failed to open database")
	ErrMigrate           = errors.New("schema: migration failed")
)

var postgresDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id             BIGINT PRIMARY KEY,
		username       TEXT NOT NULL DEFAULT '',
		full_name      TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL,
		last_activity  TIMESTAMPTZ NOT NULL,
		is_active      BOOLEAN NOT NULL DEFAULT TRUE,
		total_exports  BIGINT NOT NULL DEFAULT 0,
		total_requests BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS exports (
		id            BIGSERIAL PRIMARY KEY,
		job_uuid      TEXT NOT NULL UNIQUE,
		user_id       BIGINT NOT NULL REFERENCES users(id),
		chat_id       BIGINT NOT NULL,
		message_id    INTEGER NOT NULL DEFAULT 0,
		host_id       TEXT NOT NULL,
		host_url      TEXT NOT NULL DEFAULT '',
		export_type   TEXT NOT NULL,
		export_format TEXT NOT NULL,
		device_type   TEXT NOT NULL,
		date_from     TEXT NOT NULL,
		date_to       TEXT NOT NULL,
		status        TEXT NOT NULL,
		rows_exported BIGINT NOT NULL DEFAULT 0,
		file_path     TEXT,
		file_size     BIGINT,
		created_at    TIMESTAMPTZ NOT NULL,
		completed_at  TIMESTAMPTZ,
		error_message TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_exports_status ON exports (status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_exports_user ON exports (user_id)`,
	`CREATE TABLE IF NOT EXISTS host_cache (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL,
		host_id      TEXT NOT NULL,
		host_data    TEXT NOT NULL DEFAULT '',
		summary_data TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL,
		expires_at   TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, host_id)
	)`,
}

var sqliteDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id             INTEGER PRIMARY KEY,
		username       TEXT NOT NULL DEFAULT '',
		full_name      TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMP NOT NULL,
		last_activity  TIMESTAMP NOT NULL,
		is_active      BOOLEAN NOT NULL DEFAULT 1,
		total_exports  INTEGER NOT NULL DEFAULT 0,
		total_requests INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS exports (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		job_uuid      TEXT NOT NULL UNIQUE,
		user_id       INTEGER NOT NULL REFERENCES users(id),
		chat_id       INTEGER NOT NULL,
		message_id    INTEGER NOT NULL DEFAULT 0,
		host_id       TEXT NOT NULL,
		host_url      TEXT NOT NULL DEFAULT '',
		export_type   TEXT NOT NULL,
		export_format TEXT NOT NULL,
		device_type   TEXT NOT NULL,
		date_from     TEXT NOT NULL,
		date_to       TEXT NOT NULL,
		status        TEXT NOT NULL,
		rows_exported INTEGER NOT NULL DEFAULT 0,
		file_path     TEXT,
		file_size     INTEGER,
		created_at    TIMESTAMP NOT NULL,
		completed_at  TIMESTAMP,
		error_message TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_exports_status ON exports (status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_exports_user ON exports (user_id)`,
	`CREATE TABLE IF NOT EXISTS host_cache (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id      INTEGER NOT NULL,
		host_id      TEXT NOT NULL,
		host_data    TEXT NOT NULL DEFAULT '',
		summary_data TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMP NOT NULL,
		updated_at   TIMESTAMP NOT NULL,
		expires_at   TIMESTAMP NOT NULL,
		UNIQUE (user_id, host_id)
	)`,
}

// Open открывает базу; для sqlite создаётся каталог файла и разрешается одно соединение
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case sqlbuilder.DriverPostgres:
	case sqlbuilder.DriverSQLite:
		if dir := sqliteDir(dsn); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("%w: Open - mkdir %s: %v", ErrOpen, dir, err)
			}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: Open - %s: %v", ErrOpen, driver, err)
	}

	if driver == sqlbuilder.DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate создаёт таблицы, если их нет; повторный вызов ничего не меняет
func Migrate(ctx context.Context, db dbmetrics.DBExecutor, driver string) error {
	var stmts []string
	switch driver {
	case sqlbuilder.DriverPostgres:
		stmts = postgresDDL
	case sqlbuilder.DriverSQLite:
		stmts = sqliteDDL
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %v", ErrMigrate, err)
		}
	}

	return nil
}

// sqliteDir каталог файла базы; для :memory: и пустого пути пустая строка
func sqliteDir(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return ""
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return ""
	}
	return dir
}
