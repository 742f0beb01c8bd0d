// Package validation は入力値の検証ルールを提供します。
package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/yourusername/todo-forge/internal/apperr"
)

// MinPasswordLength はパスワードに必要な最小文字数です。
const MinPasswordLength = 8

// パスワード強度チェックの失敗理由です。
const (
	ReasonTooShort    = "too_short"
	ReasonNoUppercase = "no_uppercase"
	ReasonNoLowercase = "no_lowercase"
	ReasonNoDigit     = "no_digit"
)

// ValidateTitle は前後の空白を取り除いたタイトルを返します。空になる場合は EMPTY_TITLE です。
func ValidateTitle(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", apperr.EmptyTitle()
	}
	return trimmed, nil
}

// ValidatePasswordStrength は長さ・大文字・小文字・数字の順に検査し、最初に失敗した理由を返します。
// 成功時は入力をそのまま返します。
func ValidatePasswordStrength(s string) (string, error) {
	if utf8.RuneCountInString(s) < MinPasswordLength {
		return "", apperr.WeakPassword(ReasonTooShort, "Password must be at least 8 characters long.")
	}
	if !strings.ContainsFunc(s, isUpper) {
		return "", apperr.WeakPassword(ReasonNoUppercase, "Password must contain at least one uppercase letter.")
	}
	if !strings.ContainsFunc(s, isLower) {
		return "", apperr.WeakPassword(ReasonNoLowercase, "Password must contain at least one lowercase letter.")
	}
	if !strings.ContainsFunc(s, isDigit) {
		return "", apperr.WeakPassword(ReasonNoDigit, "Password must contain at least one number.")
	}
	return s, nil
}

// 文字種は ASCII の範囲で判定する
func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }
