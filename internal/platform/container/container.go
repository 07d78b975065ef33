// Package container はサービスの依存関係の組み立てを提供する
package container

import (
	"fmt"
	"log/slog"

	"github.com/jinford/look-matcher/internal/core/catalog"
	"github.com/jinford/look-matcher/internal/core/describe"
	"github.com/jinford/look-matcher/internal/core/match"
	"github.com/jinford/look-matcher/internal/infra/clip"
	"github.com/jinford/look-matcher/internal/infra/imgfetch"
	"github.com/jinford/look-matcher/internal/infra/openai"
	"github.com/jinford/look-matcher/internal/infra/serpapi"
	"github.com/jinford/look-matcher/internal/platform/config"
)

// ServiceContainer はアプリケーション全体の依存関係を保持する
type ServiceContainer struct {
	DescribeService *describe.Service
	CatalogService  *catalog.Service
	MatchService    *match.Service

	logger  *slog.Logger
	encoder *clip.Encoder
}

type containerOptions struct {
	logger       *slog.Logger
	visionClient describe.VisionClient
	searcher     catalog.Searcher
	fetcher      match.Fetcher
	encoder      match.Encoder
}

// ContainerOption は ServiceContainer 構築時のオプション
type ContainerOption func(*containerOptions)

// WithContainerLogger はロガーを差し替える
func WithContainerLogger(logger *slog.Logger) ContainerOption {
	return func(opts *containerOptions) {
		opts.logger = logger
	}
}

// WithContainerVisionClient は Vision クライアントを差し替える
func WithContainerVisionClient(client describe.VisionClient) ContainerOption {
	return func(opts *containerOptions) {
		opts.visionClient = client
	}
}

// WithContainerSearcher は商品検索プロバイダを差し替える
func WithContainerSearcher(searcher catalog.Searcher) ContainerOption {
	return func(opts *containerOptions) {
		opts.searcher = searcher
	}
}

// WithContainerFetcher は画像フェッチャーを差し替える
func WithContainerFetcher(fetcher match.Fetcher) ContainerOption {
	return func(opts *containerOptions) {
		opts.fetcher = fetcher
	}
}

// WithContainerEncoder は Embedding エンコーダを差し替える
func WithContainerEncoder(encoder match.Encoder) ContainerOption {
	return func(opts *containerOptions) {
		opts.encoder = encoder
	}
}

// NewContainer は設定からコンテナを生成する
func NewContainer(cfg *config.Config, opts ...ContainerOption) (*ServiceContainer, error) {
	options := containerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	// Vision クライアント (OpenAI)
	visionClient := options.visionClient
	if visionClient == nil {
		client, err := openai.NewVisionClientWithAPIKey(
			cfg.OpenAI.APIKey,
			openai.WithModel(cfg.OpenAI.VisionModel),
			openai.WithMaxTokens(cfg.OpenAI.MaxTokens),
			openai.WithTemperature(cfg.OpenAI.Temperature),
		)
		if err != nil {
			return nil, fmt.Errorf("Vision クライアントの初期化に失敗しました: %w", err)
		}
		visionClient = client
	}

	// 商品検索プロバイダ (SerpAPI)
	searcher := options.searcher
	if searcher == nil {
		searcher = serpapi.NewClient(
			cfg.SerpAPI.APIKey,
			serpapi.WithBaseURL(cfg.SerpAPI.BaseURL),
			serpapi.WithTimeout(cfg.SerpAPI.Timeout),
			serpapi.WithCountry(cfg.SerpAPI.Country),
		)
	}

	// 画像フェッチャー
	fetcher := options.fetcher
	if fetcher == nil {
		fetcher = imgfetch.NewFetcher(
			imgfetch.WithTimeout(cfg.Matching.FetchTimeout),
		)
	}

	// CLIP エンコーダ (ONNX)
	container := &ServiceContainer{logger: options.logger}
	encoder := options.encoder
	if encoder == nil {
		clipEncoder, err := clip.NewEncoder(clip.Config{
			OrtLibraryPath:  cfg.CLIP.OrtLibraryPath,
			VisualModelPath: cfg.CLIP.VisualModelPath,
			TextModelPath:   cfg.CLIP.TextModelPath,
			TokenizerPath:   cfg.CLIP.TokenizerPath,
			Dimension:       cfg.CLIP.Dimension,
			ImageSize:       cfg.CLIP.ImageSize,
			MaxSeqLen:       cfg.CLIP.MaxSeqLen,
		})
		if err != nil {
			return nil, fmt.Errorf("CLIP エンコーダの初期化に失敗しました: %w", err)
		}
		container.encoder = clipEncoder
		encoder = clipEncoder
	}

	container.DescribeService = describe.NewService(
		visionClient,
		describe.WithLogger(options.logger),
	)

	container.CatalogService = catalog.NewService(
		searcher,
		catalog.WithLogger(options.logger),
	)

	container.MatchService = match.NewService(
		fetcher,
		encoder,
		match.WithLogger(options.logger),
		match.WithMaxConcurrency(cfg.Matching.MaxConcurrency),
		match.WithDefaultTopK(cfg.Matching.TopK),
		match.WithDefaultMinSimilarity(cfg.Matching.MinSimilarity),
	)

	return container, nil
}

// Close はコンテナが保持するリソースを解放する
func (c *ServiceContainer) Close() error {
	if c.encoder != nil {
		if err := c.encoder.Close(); err != nil {
			return fmt.Errorf("エンコーダのクローズに失敗しました: %w", err)
		}
		c.encoder = nil
	}
	return nil
}
