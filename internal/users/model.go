// Package users はユーザーレコードの保存と公開用の表現を提供します。
package users

import (
	"strings"
	"time"
)

// User は保存されるユーザーです。平文のパスワードは保持しません。
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	PasswordHash string    `db:"password_hash"`
	IsActive     bool      `db:"is_active"`
	DateJoined   time.Time `db:"date_joined"`
}

// PublicView はパスワードやトークンを含まない公開用の表現です。
type PublicView struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Public は公開用の表現に変換します。
func (u *User) Public() PublicView {
	return PublicView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// NormalizeEmail は大文字小文字を区別しない比較用のキーを返します。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
