package users

import (
	"context"
	"sync"

	"github.com/yourusername/todo-forge/internal/apperr"
)

// Store はユーザーの永続化を抽象化します。
//
// username は大文字小文字を区別して一意、email は区別せずに一意です。
// 違反時は DUPLICATE_USERNAME / DUPLICATE_EMAIL、見つからない場合は NOT_FOUND を返します。
type Store interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Get(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// MemoryStore はプロセス内にユーザーを保持する Store です。
type MemoryStore struct {
	mu         sync.RWMutex
	nextID     int64
	users      map[int64]User
	byUsername map[string]int64
	byEmail    map[string]int64
}

// NewMemoryStore は MemoryStore を作成します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[int64]User),
		byUsername: make(map[string]int64),
		byEmail:    make(map[string]int64),
	}
}

func (s *MemoryStore) Create(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(user, 0); err != nil {
		return err
	}
	s.nextID++
	user.ID = s.nextID
	s.put(user)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.users[user.ID]
	if !ok {
		return apperr.NotFound("User")
	}
	if err := s.checkUnique(user, user.ID); err != nil {
		return err
	}
	delete(s.byUsername, prev.Username)
	delete(s.byEmail, NormalizeEmail(prev.Email))
	s.put(user)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(id, true)
}

func (s *MemoryStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	return s.lookup(id, ok)
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[NormalizeEmail(email)]
	return s.lookup(id, ok)
}

func (s *MemoryStore) lookup(id int64, ok bool) (*User, error) {
	if !ok {
		return nil, apperr.NotFound("User")
	}
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return &u, nil
}

// checkUnique は self 以外のユーザーと username / email が衝突しないか確認します。
func (s *MemoryStore) checkUnique(user *User, self int64) error {
	if id, ok := s.byUsername[user.Username]; ok && id != self {
		return apperr.DuplicateUsername()
	}
	if id, ok := s.byEmail[NormalizeEmail(user.Email)]; ok && id != self {
		return apperr.DuplicateEmail()
	}
	return nil
}

func (s *MemoryStore) put(user *User) {
	s.users[user.ID] = *user
	s.byUsername[user.Username] = user.ID
	s.byEmail[NormalizeEmail(user.Email)] = user.ID
}
