package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Searcher は外部検索APIへの問い合わせインターフェース
type Searcher interface {
	// VisualSearch は画像URLから視覚的に類似する商品を検索する
	VisualSearch(ctx context.Context, imageURL string, maxResults int) ([]*Product, error)
	// TextSearch はキーワードからショッピング検索を実行する
	TextSearch(ctx context.Context, query string, maxResults int) ([]*Product, error)
}

// Service は商品候補検索のビジネスロジックを提供する
type Service struct {
	searcher Searcher
	logger   *slog.Logger
}

// ServiceOption は Service 構築時のオプション
type ServiceOption func(*Service)

// WithLogger はロガーを差し替える
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService は新しい Service を作成する
func NewService(searcher Searcher, opts ...ServiceOption) *Service {
	s := &Service{
		searcher: searcher,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HybridSearch は画像検索とテキスト検索を組み合わせて商品候補を収集する。
//
//  1. Google Lensによる画像検索を優先する（視覚的マッチング精度が高い）
//  2. 国内ECの候補をリストの先頭に寄せる
//  3. 国内候補がmaxResults件に満たない場合はテキスト検索で補完する
//  4. 商品リンクで重複を除去する
//
// 類似度ランキング側でのフィルタリングを見込み、最大でmaxResultsの2倍まで返す。
// 検索プロバイダが利用できない場合はErrUnavailableを返す。
func (s *Service) HybridSearch(ctx context.Context, imageURL, keywords string, maxResults int) ([]*Product, error) {
	if maxResults <= 0 {
		return nil, fmt.Errorf("maxResults must be positive")
	}
	if imageURL == "" && keywords == "" {
		return nil, fmt.Errorf("either imageURL or keywords is required")
	}

	var combined []*Product

	if imageURL != "" {
		lensProducts, err := s.searcher.VisualSearch(ctx, imageURL, maxResults)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				return nil, err
			}
			// 画像検索の失敗は致命的ではない。テキスト検索のみで継続する。
			s.logger.Warn("画像検索に失敗したためテキスト検索のみで継続", "error", err)
		} else {
			domestic, global := partitionByPlatform(lensProducts)
			s.logger.Debug("画像検索が完了",
				"domestic", len(domestic),
				"global", len(global),
			)

			// 国内候補だけで十分な場合はテキスト検索を省略する
			if len(domestic) >= maxResults {
				return domestic[:maxResults], nil
			}
			combined = append(combined, domestic...)
			combined = append(combined, global...)
		}
	}

	if keywords != "" {
		textProducts, err := s.searcher.TextSearch(ctx, keywords, maxResults)
		if err != nil {
			if errors.Is(err, ErrUnavailable) && len(combined) == 0 {
				return nil, err
			}
			if !errors.Is(err, ErrUnavailable) {
				s.logger.Warn("テキスト検索に失敗", "error", err)
			}
		} else {
			combined = append(combined, textProducts...)
		}
	}

	deduped := dedupeByLink(combined)

	limit := maxResults * 2
	if len(deduped) > limit {
		deduped = deduped[:limit]
	}

	s.logger.Info("商品候補の収集が完了", "candidates", len(deduped))
	return deduped, nil
}

// partitionByPlatform は国内ECの候補とそれ以外を分離し、国内候補の出典名を正規化する
func partitionByPlatform(products []*Product) (domestic, global []*Product) {
	for _, p := range products {
		if name, ok := domesticPlatform(p.Link); ok {
			p.Source = name
			domestic = append(domestic, p)
		} else {
			global = append(global, p)
		}
	}
	return domestic, global
}

// dedupeByLink は商品リンクの重複を除去する（先勝ち）
func dedupeByLink(products []*Product) []*Product {
	seen := make(map[string]struct{}, len(products))
	result := make([]*Product, 0, len(products))
	for _, p := range products {
		if p.Link == "" {
			continue
		}
		if _, ok := seen[p.Link]; ok {
			continue
		}
		seen[p.Link] = struct{}{}
		result = append(result, p)
	}
	return result
}
