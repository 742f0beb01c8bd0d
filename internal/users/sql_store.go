package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/yourusername/todo-forge/internal/apperr"
	"github.com/yourusername/todo-forge/internal/storage"
)

const userColumns = `id, username, email, first_name, last_name, password_hash, is_active, date_joined`

// SQLStore は users テーブルに保存する Store です。
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore は SQLStore を作成します。
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Create(ctx context.Context, user *User) error {
	query := s.db.Rebind(`INSERT INTO users (username, email, email_key, first_name, last_name, password_hash, is_active, date_joined)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := s.db.QueryRowxContext(ctx, query,
		user.Username, user.Email, NormalizeEmail(user.Email), user.FirstName, user.LastName, user.PasswordHash, user.IsActive, user.DateJoined,
	).Scan(&user.ID)
	if err != nil {
		return mapWriteError("create", err)
	}
	return nil
}

func (s *SQLStore) Update(ctx context.Context, user *User) error {
	query := s.db.Rebind(`UPDATE users SET username = ?, email = ?, email_key = ?, first_name = ?, last_name = ?,
		password_hash = ?, is_active = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query,
		user.Username, user.Email, NormalizeEmail(user.Email), user.FirstName, user.LastName, user.PasswordHash, user.IsActive, user.ID,
	)
	if err != nil {
		return mapWriteError("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (*User, error) {
	return s.getOne(ctx, `WHERE id = ?`, id)
}

func (s *SQLStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.getOne(ctx, `WHERE username = ?`, username)
}

func (s *SQLStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	// sqlite の LOWER() は ASCII しか小文字化しないため、Go 側で正規化したキーで引く
	return s.getOne(ctx, `WHERE email_key = ?`, NormalizeEmail(email))
}

func (s *SQLStore) getOne(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	query := s.db.Rebind(`SELECT ` + userColumns + ` FROM users ` + where)
	if err := s.db.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// mapWriteError は一意制約違反を重複エラーに読み替えます。
func mapWriteError(op string, err error) error {
	if detail, ok := storage.UniqueViolation(err); ok {
		switch {
		case strings.Contains(detail, "username"):
			return apperr.DuplicateUsername()
		case strings.Contains(detail, "email"):
			return apperr.DuplicateEmail()
		}
	}
	return fmt.Errorf("failed to %s user: %w", op, err)
}
