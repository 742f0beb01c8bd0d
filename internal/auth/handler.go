package auth

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/todo-forge/internal/apperr"
	"github.com/yourusername/todo-forge/internal/users"
)

// AuthService はハンドラーが利用する認証操作です。Manager が実装します。
type AuthService interface {
	Authenticator
	SignUp(ctx context.Context, req SignUpRequest) (*Session, error)
	SignIn(ctx context.Context, req SignInRequest) (*Session, error)
	LogOut(ctx context.Context, token string)
	Profile(ctx context.Context, userID int64) (users.PublicView, error)
	UpdateProfile(ctx context.Context, userID int64, req ProfileUpdate) (users.PublicView, error)
}

// Handler は /auth/ 系エンドポイントのハンドラーをまとめます。
type Handler struct {
	svc    AuthService
	logger *log.Logger
}

// NewHandler は Handler を作成します。
func NewHandler(svc AuthService, logger *log.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register はルートを登録します。
func (h *Handler) Register(r gin.IRoutes) {
	// サインアップ・サインイン時はトークン未発行なので認証不要
	r.POST("/auth/sign-up/", h.SignUp)
	r.POST("/auth/sign-in/", h.SignIn)

	requireToken := RequireToken(h.svc, h.logger)
	r.POST("/auth/log-out/", requireToken, h.LogOut)
	for _, path := range []string{"/auth/profile/", "/auth/profile/:id/"} {
		r.GET(path, requireToken, h.GetProfile)
		r.PUT(path, requireToken, h.UpdateProfile)
		r.PATCH(path, requireToken, h.UpdateProfile)
	}
}

// SignUp は POST /auth/sign-up/ のハンドラーです。
func (h *Handler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := apperr.BindJSON(c, &req); err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	session, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// SignIn は POST /auth/sign-in/ のハンドラーです。
func (h *Handler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := apperr.BindJSON(c, &req); err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	session, err := h.svc.SignIn(c.Request.Context(), req)
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// LogOut は POST /auth/log-out/ のハンドラーです。認証済みなら常に 204 を返します。
func (h *Handler) LogOut(c *gin.Context) {
	h.svc.LogOut(c.Request.Context(), CurrentToken(c))
	c.Status(http.StatusNoContent)
}

// GetProfile は GET /auth/profile/ のハンドラーです。
func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := h.profileTarget(c)
	if !ok {
		return
	}
	view, err := h.svc.Profile(c.Request.Context(), userID)
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateProfile は PUT/PATCH /auth/profile/ のハンドラーです。どちらも部分更新として扱います。
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := h.profileTarget(c)
	if !ok {
		return
	}
	var req ProfileUpdate
	if err := apperr.BindJSON(c, &req); err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	view, err := h.svc.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// profileTarget は対象ユーザーIDを決めます。:id 指定時は本人以外を拒否します。
func (h *Handler) profileTarget(c *gin.Context) (int64, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		apperr.Respond(c, h.logger, apperr.Unauthorized(""))
		return 0, false
	}
	raw := c.Param("id")
	if raw == "" {
		return user.ID, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		apperr.Respond(c, h.logger, apperr.NotFound("User"))
		return 0, false
	}
	if id != user.ID {
		apperr.Respond(c, h.logger, apperr.Forbidden())
		return 0, false
	}
	return id, true
}
