package todos

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/todo-forge/internal/apperr"
)

// TodoService はハンドラーが利用する Todo 操作です。Manager が実装します。
type TodoService interface {
	List(ctx context.Context) ([]Todo, error)
	Get(ctx context.Context, id int64) (*Todo, error)
	Create(ctx context.Context, req CreateRequest) (*Todo, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*Todo, error)
	Delete(ctx context.Context, id int64) error
}

// Handler は /todos/ 系エンドポイントのハンドラーをまとめます。
type Handler struct {
	svc    TodoService
	logger *log.Logger
}

// NewHandler は Handler を作成します。
func NewHandler(svc TodoService, logger *log.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register はルートを登録します。middleware は各ルートの前に挟まれます。
func (h *Handler) Register(r gin.IRoutes, middleware ...gin.HandlerFunc) {
	with := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, middleware...), handler)
	}
	r.GET("/todos/", with(h.List)...)
	r.POST("/todos/", with(h.Create)...)
	r.GET("/todos/:id/", with(h.Get)...)
	r.PUT("/todos/:id/", with(h.Update)...)
	r.PATCH("/todos/:id/", with(h.Update)...)
	r.DELETE("/todos/:id/", with(h.Delete)...)
}

// List は GET /todos/ のハンドラーです。
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	views := make([]View, len(list))
	for i := range list {
		views[i] = ToView(&list[i])
	}
	c.JSON(http.StatusOK, views)
}

// Get は GET /todos/:id/ のハンドラーです。
func (h *Handler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	todo, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ToView(todo))
}

// Create は POST /todos/ のハンドラーです。
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := apperr.BindJSON(c, &req); err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	todo, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, ToView(todo))
}

// Update は PUT/PATCH /todos/:id/ のハンドラーです。どちらも部分更新として扱います。
func (h *Handler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := apperr.BindJSON(c, &req); err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	todo, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ToView(todo))
}

// Delete は DELETE /todos/:id/ のハンドラーです。
func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// parseID は :id を解釈します。数値でない ID は存在しないものとして 404 を返します。
func (h *Handler) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apperr.Respond(c, h.logger, apperr.NotFound("Todo"))
		return 0, false
	}
	return id, true
}
