package auth

import (
	"context"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/todo-forge/internal/apperr"
	"github.com/yourusername/todo-forge/internal/users"
)

// ハンドラー間でログイン済みユーザーとトークンを共有するためのキーです。
const (
	ContextUserKey  = "auth.user"
	ContextTokenKey = "auth.token"
)

// Authenticator はトークンをユーザーに解決します。Manager が実装します。
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*users.User, error)
}

// RequireToken は Authorization ヘッダーのトークンを検証するミドルウェアを返します。
// "Bearer <token>" と "Token <token>" の両方を受け付けます。
func RequireToken(authn Authenticator, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Header("WWW-Authenticate", `Bearer realm="api"`)
			apperr.Respond(c, logger, apperr.Unauthorized(""))
			return
		}

		user, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.Header("WWW-Authenticate", `Bearer realm="api"`)
			apperr.Respond(c, logger, err)
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextTokenKey, token)
		c.Next()
	}
}

// CurrentUser は RequireToken が設定したユーザーを返します。
func CurrentUser(c *gin.Context) (*users.User, bool) {
	user, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	u, ok := user.(*users.User)
	return u, ok && u != nil
}

// CurrentToken は RequireToken が検証したトークンを返します。
func CurrentToken(c *gin.Context) string {
	return c.GetString(ContextTokenKey)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return "", false
	}
	if !strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
