package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/todo-forge/internal/apperr"
)

// PasswordHasher は一方向ハッシュによるパスワードの保存と照合を行います。
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// BcryptHasher は bcrypt による PasswordHasher です。
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher は BcryptHasher を作成します。cost が範囲外なら既定値を使います。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.New(apperr.CodeInvalidInput, "password", "Ensure this field has no more than 72 bytes.")
		}
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
