// Package auth は認証・認可機能を提供します。
package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/todo-forge/internal/apperr"
	"github.com/yourusername/todo-forge/internal/users"
	"github.com/yourusername/todo-forge/internal/validation"
)

var validate = validator.New()

// SignUpRequest はサインアップで受け付けるフィールドです。
type SignUpRequest struct {
	Username  string `json:"username" binding:"max=150"`
	Email     string `json:"email" binding:"max=254"`
	Password  string `json:"password"`
	FirstName string `json:"firstName" binding:"max=150"`
	LastName  string `json:"lastName" binding:"max=150"`
}

// SignInRequest はサインインで受け付けるフィールドです。
type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ProfileUpdate はプロフィール更新で受け付けるフィールドです。省略したフィールドは変更しません。
type ProfileUpdate struct {
	Username  *string `json:"username" binding:"omitempty,max=150"`
	Email     *string `json:"email" binding:"omitempty,max=254"`
	FirstName *string `json:"firstName" binding:"omitempty,max=150"`
	LastName  *string `json:"lastName" binding:"omitempty,max=150"`
	Password  *string `json:"password"`
}

// Session はサインアップ・サインインの結果です。
type Session struct {
	Token string           `json:"token"`
	User  users.PublicView `json:"user"`
}

// Manager はサインアップ・サインイン・ログアウト・プロフィールの処理をまとめた構造体です。
type Manager struct {
	users  users.Store
	tokens TokenStore
	hasher PasswordHasher
	logger *log.Logger
	now    func() time.Time

	// 存在しないユーザーでも照合の所要時間を揃えるためのハッシュ
	dummyOnce sync.Once
	dummyHash string
}

// NewManager は認証マネージャーを作成します。
func NewManager(userStore users.Store, tokens TokenStore, hasher PasswordHasher, logger *log.Logger) (*Manager, error) {
	if userStore == nil {
		return nil, errors.New("user store is nil")
	}
	if tokens == nil {
		return nil, errors.New("token store is nil")
	}
	if hasher == nil {
		return nil, errors.New("hasher is nil")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		users:  userStore,
		tokens: tokens,
		hasher: hasher,
		logger: logger,
		now:    time.Now,
	}, nil
}

// SignUp はユーザーを作成してトークンを発行します。
// username 重複、email 重複、パスワード強度の順に検査し、失敗時はユーザーを作成しません。
func (m *Manager) SignUp(ctx context.Context, req SignUpRequest) (*Session, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if username == "" {
		return nil, apperr.Required("username")
	}
	if err := m.ensureUsernameFree(ctx, username, 0); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := m.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}
	if _, err := validation.ValidatePasswordStrength(req.Password); err != nil {
		return nil, err
	}

	hash, err := m.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &users.User{
		Username:     username,
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hash,
		IsActive:     true,
		DateJoined:   m.now().UTC().Truncate(time.Microsecond),
	}
	if err := m.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := m.tokens.GetOrCreate(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	m.logger.Printf("user signed up id=%d username=%s", user.ID, user.Username)
	return &Session{Token: token, User: user.Public()}, nil
}

// SignIn はメールアドレスとパスワードを照合してトークンを返します。
// ユーザーが存在しない場合とパスワード不一致の場合は同一のエラーを返します。
func (m *Manager) SignIn(ctx context.Context, req SignInRequest) (*Session, error) {
	user, err := m.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if apperr.IsNotFound(err) {
			m.compareDummy(req.Password)
			return nil, apperr.InvalidCredentials()
		}
		return nil, err
	}
	if !m.hasher.Compare(user.PasswordHash, req.Password) {
		return nil, apperr.InvalidCredentials()
	}
	if !user.IsActive {
		return nil, apperr.UserInactive()
	}

	token, err := m.tokens.GetOrCreate(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user.Public()}, nil
}

// LogOut はトークンを削除します。削除に失敗しても呼び出し側には成功として扱います。
func (m *Manager) LogOut(ctx context.Context, token string) {
	if err := m.tokens.Delete(ctx, token); err != nil && !apperr.IsNotFound(err) {
		m.logger.Printf("failed to delete token on logout: %v", err)
	}
}

// Authenticate はベアラートークンを有効なユーザーに解決します。
func (m *Manager) Authenticate(ctx context.Context, token string) (*users.User, error) {
	if token == "" {
		return nil, apperr.Unauthorized("")
	}
	userID, err := m.tokens.Lookup(ctx, token)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Invalid token.")
		}
		return nil, err
	}
	user, err := m.users.Get(ctx, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("User inactive or deleted.")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized("User inactive or deleted.")
	}
	return user, nil
}

// Profile はユーザーの公開情報を返します。
func (m *Manager) Profile(ctx context.Context, userID int64) (users.PublicView, error) {
	user, err := m.users.Get(ctx, userID)
	if err != nil {
		return users.PublicView{}, err
	}
	return user.Public(), nil
}

// UpdateProfile は指定されたフィールドだけを更新します。
// 新しいパスワードは強度を検査した上でハッシュ化して保存します。
func (m *Manager) UpdateProfile(ctx context.Context, userID int64, req ProfileUpdate) (users.PublicView, error) {
	user, err := m.users.Get(ctx, userID)
	if err != nil {
		return users.PublicView{}, err
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return users.PublicView{}, apperr.Required("username")
		}
		if err := m.ensureUsernameFree(ctx, username, user.ID); err != nil {
			return users.PublicView{}, err
		}
		user.Username = username
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if err := validateEmail(email); err != nil {
			return users.PublicView{}, err
		}
		if err := m.ensureEmailFree(ctx, email, user.ID); err != nil {
			return users.PublicView{}, err
		}
		user.Email = email
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Password != nil {
		if _, err := validation.ValidatePasswordStrength(*req.Password); err != nil {
			return users.PublicView{}, err
		}
		hash, err := m.hasher.Hash(*req.Password)
		if err != nil {
			return users.PublicView{}, err
		}
		user.PasswordHash = hash
	}

	if err := m.users.Update(ctx, user); err != nil {
		return users.PublicView{}, err
	}
	return user.Public(), nil
}

// compareDummy はユーザーが見つからない場合にもパスワード照合と同じコストを払います。
func (m *Manager) compareDummy(password string) {
	m.dummyOnce.Do(func() {
		hash, err := m.hasher.Hash("dummy-Password-0")
		if err != nil {
			m.logger.Printf("failed to prepare dummy password hash: %v", err)
			return
		}
		m.dummyHash = hash
	})
	if m.dummyHash != "" {
		m.hasher.Compare(m.dummyHash, password)
	}
}

// ensureUsernameFree は self 以外に同じ username のユーザーがいないことを確認します。
func (m *Manager) ensureUsernameFree(ctx context.Context, username string, self int64) error {
	existing, err := m.users.GetByUsername(ctx, username)
	switch {
	case err == nil && existing.ID != self:
		return apperr.DuplicateUsername()
	case err == nil, apperr.IsNotFound(err):
		return nil
	default:
		return err
	}
}

// ensureEmailFree は self 以外に同じ email（大文字小文字を区別しない）のユーザーがいないことを確認します。
func (m *Manager) ensureEmailFree(ctx context.Context, email string, self int64) error {
	existing, err := m.users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != self:
		return apperr.DuplicateEmail()
	case err == nil, apperr.IsNotFound(err):
		return nil
	default:
		return err
	}
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Required("email")
	}
	if err := validate.Var(email, "email"); err != nil {
		return apperr.New(apperr.CodeInvalidInput, "email", "Enter a valid email address.")
	}
	return nil
}
