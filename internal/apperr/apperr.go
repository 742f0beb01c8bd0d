// Package apperr はアプリケーション共通のエラー分類と HTTP レスポンスへの変換を提供します。
package apperr

import (
	"errors"
	"fmt"
)

// Code はクライアントへ返すエラー種別です。
type Code string

const (
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeEmptyTitle         Code = "EMPTY_TITLE"
	CodeWeakPassword       Code = "WEAK_PASSWORD"
	CodeDuplicateUsername  Code = "DUPLICATE_USERNAME"
	CodeDuplicateEmail     Code = "DUPLICATE_EMAIL"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUserInactive       Code = "USER_INACTIVE"
	CodeNotFound           Code = "NOT_FOUND"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
)

// Error は API エラーを表します。
// Fields はフィールド単位のメッセージ、Reason は WEAK_PASSWORD の詳細理由です。
type Error struct {
	Code    Code
	Reason  string
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is はコード（と、指定があれば Reason）が一致するかで比較します。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// 比較用のセンチネルです。errors.Is(err, apperr.ErrNotFound) のように使います。
var (
	ErrEmptyTitle         = &Error{Code: CodeEmptyTitle, Message: "Title cannot be empty."}
	ErrWeakPassword       = &Error{Code: CodeWeakPassword, Message: "Password is too weak."}
	ErrDuplicateUsername  = &Error{Code: CodeDuplicateUsername, Message: "Username already taken"}
	ErrDuplicateEmail     = &Error{Code: CodeDuplicateEmail, Message: "Email already in use"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "Invalid e-mail or password, please check your credentials"}
	ErrUserInactive       = &Error{Code: CodeUserInactive, Message: "User inactive"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "Not found."}
	ErrUnauthorized       = &Error{Code: CodeUnauthorized, Message: "Authentication credentials were not provided or are invalid."}
	ErrForbidden          = &Error{Code: CodeForbidden, Message: "You do not have permission to perform this action."}
)

// New は単一フィールドに紐づくエラーを作成します。field が空ならフィールド情報は付けません。
func New(code Code, field, message string) *Error {
	e := &Error{Code: code, Message: message}
	if field != "" {
		e.Fields = map[string][]string{field: {message}}
	}
	return e
}

// EmptyTitle は title が空のときのエラーです。
func EmptyTitle() *Error {
	return New(CodeEmptyTitle, "title", ErrEmptyTitle.Message)
}

// WeakPassword は強度不足のパスワードに対するエラーです。
func WeakPassword(reason, message string) *Error {
	e := New(CodeWeakPassword, "password", message)
	e.Reason = reason
	return e
}

// DuplicateUsername は username 重複のエラーです。
func DuplicateUsername() *Error {
	return New(CodeDuplicateUsername, "username", ErrDuplicateUsername.Message)
}

// DuplicateEmail は email 重複のエラーです。
func DuplicateEmail() *Error {
	return New(CodeDuplicateEmail, "email", ErrDuplicateEmail.Message)
}

// InvalidCredentials はメールアドレス・パスワードのどちらが誤っていても同一の内容を返します。
func InvalidCredentials() *Error {
	return New(CodeInvalidCredentials, "", ErrInvalidCredentials.Message)
}

// UserInactive は無効化されたユーザーのサインインに対するエラーです。
func UserInactive() *Error {
	return New(CodeUserInactive, "", ErrUserInactive.Message)
}

// NotFound は対象が存在しないことを表します。
func NotFound(what string) *Error {
	return New(CodeNotFound, "", fmt.Sprintf("%s not found.", what))
}

// Unauthorized は認証に失敗したことを表します。
func Unauthorized(message string) *Error {
	if message == "" {
		message = ErrUnauthorized.Message
	}
	return New(CodeUnauthorized, "", message)
}

// Forbidden は権限がないことを表します。
func Forbidden() *Error {
	return New(CodeForbidden, "", ErrForbidden.Message)
}

// Required は必須フィールドが空のときのエラーです。
func Required(field string) *Error {
	return New(CodeInvalidInput, field, "This field is required.")
}

// IsNotFound は err が NOT_FOUND かどうかを返します。
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
