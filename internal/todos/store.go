package todos

import (
	"context"
	"sort"
	"sync"

	"github.com/yourusername/todo-forge/internal/apperr"
)

// Store は Todo の永続化を抽象化します。
// 見つからない場合は apperr の NOT_FOUND を返します。
type Store interface {
	List(ctx context.Context) ([]Todo, error)
	Get(ctx context.Context, id int64) (*Todo, error)
	Create(ctx context.Context, todo *Todo) error
	Update(ctx context.Context, todo *Todo) error
	Delete(ctx context.Context, id int64) error
}

// MemoryStore はプロセス内に Todo を保持する Store です。
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]Todo
}

// NewMemoryStore は MemoryStore を作成します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[int64]Todo)}
}

// List は作成日時の新しい順（同時刻は後から作成した順）に返します。
func (s *MemoryStore) List(ctx context.Context) ([]Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Todo, 0, len(s.items))
	for _, t := range s.items {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (*Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.items[id]
	if !ok {
		return nil, apperr.NotFound("Todo")
	}
	return &t, nil
}

func (s *MemoryStore) Create(ctx context.Context, todo *Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	todo.ID = s.nextID
	s.items[todo.ID] = *todo
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, todo *Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[todo.ID]; !ok {
		return apperr.NotFound("Todo")
	}
	s.items[todo.ID] = *todo
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return apperr.NotFound("Todo")
	}
	delete(s.items, id)
	return nil
}
