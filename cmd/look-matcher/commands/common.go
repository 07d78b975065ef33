// Package commands はCLIコマンドのアクション実装を提供する
package commands

import (
	"fmt"
	"log/slog"

	"github.com/jinford/look-matcher/internal/platform/config"
	"github.com/jinford/look-matcher/internal/platform/container"
	"github.com/jinford/look-matcher/internal/platform/logger"
)

// AppContext はコマンド実行に必要な共通コンテキストを保持する
type AppContext struct {
	Config    *config.Config
	Container *container.ServiceContainer

	logger *slog.Logger
}

// NewAppContext は設定ファイルを読み込み、サービスコンテナを組み立てて AppContext を作成する
func NewAppContext(envFile string, opts ...container.ContainerOption) (*AppContext, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	appLogger := logger.New(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
	})

	containerOpts := append([]container.ContainerOption{
		container.WithContainerLogger(appLogger),
	}, opts...)

	cont, err := container.NewContainer(cfg, containerOpts...)
	if err != nil {
		return nil, fmt.Errorf("コンテナの初期化に失敗: %w", err)
	}

	return &AppContext{
		Config:    cfg,
		Container: cont,
		logger:    appLogger,
	}, nil
}

// Close はAppContextが保持するリソースをクリーンアップする
func (ac *AppContext) Close() {
	if ac.Container != nil {
		if err := ac.Container.Close(); err != nil {
			ac.Logger().Warn("リソースの解放に失敗", "error", err)
		}
	}
}

// Logger はAppContextのロガーを返す
func (ac *AppContext) Logger() *slog.Logger {
	if ac.logger != nil {
		return ac.logger
	}
	return slog.Default()
}
