// Package httpapi はコーディネート解析・類似マッチングのJSON APIを提供する
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jinford/look-matcher/internal/core/catalog"
	"github.com/jinford/look-matcher/internal/core/describe"
	"github.com/jinford/look-matcher/internal/core/match"
)

const (
	// DefaultAddr はサーバのデフォルト待ち受けアドレス
	DefaultAddr = ":8080"

	// shutdownTimeout はGraceful Shutdownの猶予時間
	shutdownTimeout = 10 * time.Second
)

// Server はginベースのHTTP APIサーバ
type Server struct {
	engine          *gin.Engine
	describeService *describe.Service
	catalogService  *catalog.Service
	matchService    *match.Service
	logger          *slog.Logger
	addr            string
}

// ServerOption は Server 構築時のオプション
type ServerOption func(*Server)

// WithLogger はロガーを差し替える
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAddr は待ち受けアドレスを設定する
func WithAddr(addr string) ServerOption {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// NewServer は新しい Server を作成してルートを登録する
func NewServer(
	describeService *describe.Service,
	catalogService *catalog.Service,
	matchService *match.Service,
	opts ...ServerOption,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:          engine,
		describeService: describeService,
		catalogService:  catalogService,
		matchService:    matchService,
		logger:          slog.Default(),
		addr:            DefaultAddr,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api/v1")
	{
		api.POST("/analyze", s.handleAnalyze)
		api.POST("/match", s.handleMatch)
	}
}

// Handler はテストやカスタムサーバ構成向けにルータを返す
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run はサーバを起動し、コンテキストのキャンセルでGraceful Shutdownする
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTPサーバを起動", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("HTTPサーバを停止中")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
