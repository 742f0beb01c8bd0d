// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/todo-forge/internal/auth"
	"github.com/yourusername/todo-forge/internal/config"
	"github.com/yourusername/todo-forge/internal/todos"
)

const requestIDHeader = "X-Request-Id"

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	logger := log.Default()
	stores, err := openStores(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open stores: %v", err)
	}
	defer stores.Close()

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()
	router.Use(requestID())

	// CORSミドルウェアの設定（トークンはヘッダーで送るのでクッキーは使わない）
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins()
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"Authorization",
	}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	router.Use(cors.New(corsConfig))

	// ルーティングの設定
	if err := setupRoutes(router, cfg, stores, logger); err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s (mode: %s, store: %s)", addr, cfg.GinMode, cfg.StoreBackend)
	if err := router.Run(addr); err != nil {
		log.Printf("Failed to start server: %v", err)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "todo-forge-api",
		"version": "0.1.0",
	})
}

// requestID はリクエストごとに X-Request-Id を付与します。クライアント指定があればそれを使います。
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// setupRoutes は Todo と認証周りの配線を行います。
func setupRoutes(router *gin.Engine, cfg *config.Config, stores *storeSet, logger *log.Logger) error {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)

	authManager, err := auth.NewManager(stores.users, stores.tokens, auth.NewBcryptHasher(cfg.BcryptCost), logger)
	if err != nil {
		return err
	}
	auth.NewHandler(authManager, logger).Register(router)

	todoManager, err := todos.NewManager(stores.todos, logger)
	if err != nil {
		return err
	}
	var todoMiddleware []gin.HandlerFunc
	if cfg.TodosRequireAuth {
		todoMiddleware = append(todoMiddleware, auth.RequireToken(authManager, logger))
	}
	todos.NewHandler(todoManager, logger).Register(router, todoMiddleware...)
	return nil
}
