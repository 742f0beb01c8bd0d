package todos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/yourusername/todo-forge/internal/apperr"
)

const todoColumns = `id, title, description, completed, created_at, updated_at`

// SQLStore は todos テーブルに保存する Store です。
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore は SQLStore を作成します。スキーマは storage.Migrate で作成済みであること。
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) List(ctx context.Context) ([]Todo, error) {
	list := []Todo{}
	query := `SELECT ` + todoColumns + ` FROM todos ORDER BY created_at DESC, id DESC`
	if err := s.db.SelectContext(ctx, &list, query); err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return list, nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (*Todo, error) {
	var t Todo
	query := s.db.Rebind(`SELECT ` + todoColumns + ` FROM todos WHERE id = ?`)
	if err := s.db.GetContext(ctx, &t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Todo")
		}
		return nil, fmt.Errorf("failed to get todo %d: %w", id, err)
	}
	return &t, nil
}

func (s *SQLStore) Create(ctx context.Context, todo *Todo) error {
	query := s.db.Rebind(`INSERT INTO todos (title, description, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`)
	err := s.db.QueryRowxContext(ctx, query,
		todo.Title, todo.Description, todo.Completed, todo.CreatedAt, todo.UpdatedAt,
	).Scan(&todo.ID)
	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

func (s *SQLStore) Update(ctx context.Context, todo *Todo) error {
	query := s.db.Rebind(`UPDATE todos SET title = ?, description = ?, completed = ?, updated_at = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, todo.Title, todo.Description, todo.Completed, todo.UpdatedAt, todo.ID)
	if err != nil {
		return fmt.Errorf("failed to update todo %d: %w", todo.ID, err)
	}
	return requireAffected(res)
}

func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM todos WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete todo %d: %w", id, err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("Todo")
	}
	return nil
}
