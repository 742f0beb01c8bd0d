package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yourusername/todo-forge/internal/apperr"
	"github.com/yourusername/todo-forge/internal/storage"
)

// SQLTokenStore は auth_tokens テーブルにトークンを保存します。
type SQLTokenStore struct {
	db *sqlx.DB
}

// NewSQLTokenStore は SQLTokenStore を作成します。
func NewSQLTokenStore(db *sqlx.DB) *SQLTokenStore {
	return &SQLTokenStore{db: db}
}

func (s *SQLTokenStore) GetOrCreate(ctx context.Context, userID int64) (string, error) {
	selectQuery := s.db.Rebind(`SELECT key FROM auth_tokens WHERE user_id = ?`)
	insertQuery := s.db.Rebind(`INSERT INTO auth_tokens (key, user_id, created) VALUES (?, ?, ?)`)

	// 同時発行で一意制約に負けた場合は1回だけ読み直す
	for attempt := 0; attempt < 2; attempt++ {
		var existing string
		err := s.db.GetContext(ctx, &existing, selectQuery, userID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("failed to load token: %w", err)
		}

		key, err := generateToken()
		if err != nil {
			return "", err
		}
		_, err = s.db.ExecContext(ctx, insertQuery, key, userID, time.Now().UTC())
		if err == nil {
			return key, nil
		}
		if _, dup := storage.UniqueViolation(err); !dup {
			return "", fmt.Errorf("failed to create token: %w", err)
		}
	}
	return "", fmt.Errorf("failed to create token for user %d", userID)
}

func (s *SQLTokenStore) Lookup(ctx context.Context, token string) (int64, error) {
	var userID int64
	query := s.db.Rebind(`SELECT user_id FROM auth_tokens WHERE key = ?`)
	if err := s.db.GetContext(ctx, &userID, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.NotFound("Token")
		}
		return 0, fmt.Errorf("failed to look up token: %w", err)
	}
	return userID, nil
}

func (s *SQLTokenStore) Delete(ctx context.Context, token string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM auth_tokens WHERE key = ?`), token)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("Token")
	}
	return nil
}
