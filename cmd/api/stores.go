package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/todo-forge/internal/auth"
	"github.com/yourusername/todo-forge/internal/config"
	"github.com/yourusername/todo-forge/internal/storage"
	"github.com/yourusername/todo-forge/internal/todos"
	"github.com/yourusername/todo-forge/internal/users"
)

// storeSet は設定に応じて選んだストア一式です。
type storeSet struct {
	todos  todos.Store
	users  users.Store
	tokens auth.TokenStore

	db  *sqlx.DB
	rdb *redis.Client
}

// openStores は STORE_BACKEND と TOKEN_REDIS_URL に従ってストアを組み立てます。
func openStores(ctx context.Context, cfg *config.Config, logger *log.Logger) (*storeSet, error) {
	set := &storeSet{}

	switch cfg.StoreBackend {
	case config.BackendPostgres, config.BackendSQLite:
		db, err := storage.Open(ctx, cfg.StoreBackend, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := storage.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		set.db = db
		set.todos = todos.NewSQLStore(db)
		set.users = users.NewSQLStore(db)
		set.tokens = auth.NewSQLTokenStore(db)
	default:
		logger.Printf("using in-memory stores; data is lost on restart")
		set.todos = todos.NewMemoryStore()
		set.users = users.NewMemoryStore()
		set.tokens = auth.NewMemoryTokenStore()
	}

	if cfg.TokenRedisURL != "" {
		opt, err := redis.ParseURL(cfg.TokenRedisURL)
		if err != nil {
			set.Close()
			return nil, fmt.Errorf("invalid TOKEN_REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			set.Close()
			return nil, fmt.Errorf("failed to connect to token redis: %w", err)
		}
		set.rdb = rdb
		set.tokens = auth.NewRedisTokenStore(rdb)
	}

	return set, nil
}

// Close は開いた接続を閉じます。
func (s *storeSet) Close() {
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			log.Printf("failed to close redis: %v", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}
}
