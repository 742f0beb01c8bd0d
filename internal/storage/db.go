// Package storage は SQL データベースへの接続とスキーマ作成を提供します。
//
// postgres（lib/pq）と sqlite3（mattn/go-sqlite3）に対応し、
// クエリは sqlx の Rebind でプレースホルダを方言に合わせます。
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// 対応ドライバ名です。
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Open はデータベースに接続し、疎通確認まで行います。
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if driver == DriverSQLite {
		// :memory: は接続ごとに別DBになるため1本に固定する
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate はテーブルとインデックスを作成します（既存なら何もしません）。
func Migrate(ctx context.Context, db *sqlx.DB) error {
	statements := postgresSchema
	if db.DriverName() == DriverSQLite {
		statements = sqliteSchema
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// UniqueViolation は一意制約違反であれば違反した制約・カラムの情報を返します。
// 呼び出し側は返り値に "username" や "email" が含まれるかで判定します。
func UniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // unique_violation
			return pgErr.Constraint + " " + pgErr.Detail, true
		}
		return "", false
	}
	// sqlite3: "UNIQUE constraint failed: users.username"
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return msg, true
	}
	return "", false
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS todos (
		id          BIGSERIAL PRIMARY KEY,
		title       VARCHAR(200) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		completed   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS todos_created_at_idx ON todos (created_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      VARCHAR(150) NOT NULL,
		email         VARCHAR(254) NOT NULL,
		email_key     VARCHAR(254) NOT NULL,
		first_name    VARCHAR(150) NOT NULL DEFAULT '',
		last_name     VARCHAR(150) NOT NULL DEFAULT '',
		password_hash VARCHAR(128) NOT NULL,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		date_joined   TIMESTAMPTZ NOT NULL,
		CONSTRAINT users_username_key UNIQUE (username)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key_idx ON users (email_key)`,
	`CREATE TABLE IF NOT EXISTS auth_tokens (
		key     VARCHAR(40) PRIMARY KEY,
		user_id BIGINT NOT NULL UNIQUE REFERENCES users (id) ON DELETE CASCADE,
		created TIMESTAMPTZ NOT NULL
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS todos (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		completed   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  DATETIME NOT NULL,
		updated_at  DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS todos_created_at_idx ON todos (created_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL,
		email_key     TEXT NOT NULL,
		first_name    TEXT NOT NULL DEFAULT '',
		last_name     TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		date_joined   DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key_idx ON users (email_key)`,
	`CREATE TABLE IF NOT EXISTS auth_tokens (
		key     TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL UNIQUE REFERENCES users (id) ON DELETE CASCADE,
		created DATETIME NOT NULL
	)`,
}
