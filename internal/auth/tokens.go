package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/yourusername/todo-forge/internal/apperr"
)

// tokenBytes は発行するトークンの乱数バイト数です（16進で40文字）。
const tokenBytes = 20

// TokenStore はユーザーと不透明なベアラートークンの対応を保持します。
// トークンはユーザーごとに1つで、削除されるまで有効です。
type TokenStore interface {
	// GetOrCreate は既存のトークンがあればそれを、なければ新しく発行して返します。
	GetOrCreate(ctx context.Context, userID int64) (string, error)
	// Lookup はトークンに対応するユーザーIDを返します。存在しなければ NOT_FOUND です。
	Lookup(ctx context.Context, token string) (int64, error)
	// Delete はトークンを削除します。存在しなければ NOT_FOUND です。
	Delete(ctx context.Context, token string) error
}

// MemoryTokenStore はプロセス内にトークンを保持する TokenStore です。
type MemoryTokenStore struct {
	mu     sync.Mutex
	byKey  map[string]int64
	byUser map[int64]string
}

// NewMemoryTokenStore は MemoryTokenStore を作成します。
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		byKey:  make(map[string]int64),
		byUser: make(map[int64]string),
	}
}

func (s *MemoryTokenStore) GetOrCreate(ctx context.Context, userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key, ok := s.byUser[userID]; ok {
		return key, nil
	}
	key, err := generateToken()
	if err != nil {
		return "", err
	}
	s.byKey[key] = userID
	s.byUser[userID] = key
	return key, nil
}

func (s *MemoryTokenStore) Lookup(ctx context.Context, token string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.byKey[token]
	if !ok {
		return 0, apperr.NotFound("Token")
	}
	return userID, nil
}

func (s *MemoryTokenStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.byKey[token]
	if !ok {
		return apperr.NotFound("Token")
	}
	delete(s.byKey, token)
	if s.byUser[userID] == token {
		delete(s.byUser, userID)
	}
	return nil
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
