package todos

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/yourusername/todo-forge/internal/apperr"
	"github.com/yourusername/todo-forge/internal/validation"
)

// Manager は Todo の作成・更新・削除・一覧を担います。
type Manager struct {
	store  Store
	logger *log.Logger
	now    func() time.Time
}

// NewManager は Manager を作成します。
func NewManager(store Store, logger *log.Logger) (*Manager, error) {
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		store:  store,
		logger: logger,
		now:    time.Now,
	}, nil
}

// List は作成日時の新しい順に Todo を返します。
func (m *Manager) List(ctx context.Context) ([]Todo, error) {
	return m.store.List(ctx)
}

// Get は ID に対応する Todo を返します。
func (m *Manager) Get(ctx context.Context, id int64) (*Todo, error) {
	return m.store.Get(ctx, id)
}

// Create はタイトルを検証して Todo を作成します。
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*Todo, error) {
	title, err := checkTitle(req.Title)
	if err != nil {
		return nil, err
	}

	now := m.timestamp()
	todo := &Todo{
		Title:     title,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Description != nil {
		todo.Description = *req.Description
	}

	if err := m.store.Create(ctx, todo); err != nil {
		return nil, err
	}
	m.logger.Printf("todo created id=%d", todo.ID)
	return todo, nil
}

// Update は指定されたフィールドだけを更新し、updated_at を進めます。
func (m *Manager) Update(ctx context.Context, id int64, req UpdateRequest) (*Todo, error) {
	todo, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title, err := checkTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		todo.Title = title
	}
	if req.Description != nil {
		todo.Description = *req.Description
	}
	if req.Completed != nil {
		todo.Completed = *req.Completed
	}

	now := m.timestamp()
	if !now.After(todo.UpdatedAt) {
		// 時計の粒度で同一時刻になった場合も必ず進める
		now = todo.UpdatedAt.Add(time.Microsecond)
	}
	todo.UpdatedAt = now

	if err := m.store.Update(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

// Delete は Todo を削除します。存在しない場合は NOT_FOUND です。
func (m *Manager) Delete(ctx context.Context, id int64) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.logger.Printf("todo deleted id=%d", id)
	return nil
}

// checkTitle は空白を除いたタイトルを検証し、最大文字数を超えていないか確認します。
func checkTitle(raw string) (string, error) {
	title, err := validation.ValidateTitle(raw)
	if err != nil {
		return "", err
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", apperr.New(apperr.CodeInvalidInput, "title",
			fmt.Sprintf("Ensure this field has no more than %d characters.", MaxTitleLength))
	}
	return title, nil
}

// timestamp は DB に合わせてマイクロ秒に丸めた UTC 時刻を返します。
func (m *Manager) timestamp() time.Time {
	return m.now().UTC().Truncate(time.Microsecond)
}
