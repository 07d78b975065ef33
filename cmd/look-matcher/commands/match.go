package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/mo"
	"github.com/urfave/cli/v3"

	"github.com/jinford/look-matcher/internal/core/catalog"
	"github.com/jinford/look-matcher/internal/core/describe"
	"github.com/jinford/look-matcher/internal/core/match"
)

// itemMatch はアイテム1件分のランキング結果
type itemMatch struct {
	ItemType string        `json:"item_type"`
	Keywords string        `json:"keywords"`
	Result   *match.Result `json:"result"`
}

// matchOutput は match コマンドの出力形式
type matchOutput struct {
	Analysis *describe.Analysis `json:"analysis"`
	Items    []itemMatch        `json:"items"`
}

// MatchAction はコーディネート画像の解析・商品検索・類似度ランキングを一括実行する。
// 識別されたアイテムごとに候補を検索し、アイテム単位のランキング結果を返す。
func MatchAction(ctx context.Context, cmd *cli.Command) error {
	imageArg := cmd.String("image")
	topK := int(cmd.Int("top-k"))
	minSimilarity := cmd.Float("min-similarity")
	maxResults := int(cmd.Int("max-results"))
	exportPath := cmd.String("export")
	envFile := cmd.String("env")

	src, err := resolveImageSource(imageArg)
	if err != nil {
		return err
	}

	appCtx, err := NewAppContext(envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()
	logger := appCtx.Logger()

	// 1. アイテム識別
	analysis, err := appCtx.Container.DescribeService.Describe(ctx, src)
	if err != nil {
		return fmt.Errorf("画像解析に失敗: %w", err)
	}
	logger.Info("アイテムを識別", "items", len(analysis.Items))

	if maxResults <= 0 {
		maxResults = appCtx.Config.Matching.MaxResults
	}
	opts := match.Options{TopK: topK}
	if cmd.IsSet("min-similarity") {
		opts.MinSimilarity = mo.Some(minSimilarity)
	}

	// 画像検索には公開URLが必要。ローカル画像の場合はテキスト検索のみ。
	imageURL := ""
	if src.IsURL() {
		imageURL = src.URL
	}

	// 2. アイテムごとに候補を検索してランキングする
	output := matchOutput{Analysis: analysis}
	for _, item := range analysis.Items {
		candidates := searchCandidates(ctx, appCtx, imageURL, item, maxResults)

		result, err := appCtx.Container.MatchService.MatchLook(ctx, src, candidates, opts)
		if err != nil {
			return fmt.Errorf("アイテム %q のランキングに失敗: %w", item.Type, err)
		}
		logger.Info("ランキングが完了",
			"item", item.Type,
			"candidates", len(candidates),
			"matched", len(result.Matches),
		)

		output.Items = append(output.Items, itemMatch{
			ItemType: item.Type,
			Keywords: item.SearchKeywords,
			Result:   result,
		})
	}

	if err := printJSON(output); err != nil {
		return err
	}

	if exportPath != "" {
		if err := exportJSON(exportPath, output); err != nil {
			return fmt.Errorf("マッチング結果のエクスポートに失敗: %w", err)
		}
		logger.Info("マッチング結果をエクスポートしました", "path", exportPath)
	}

	return nil
}

// searchCandidates は1アイテム分のハイブリッド検索を実行する。
// 検索プロバイダが利用できない場合や検索失敗は候補ゼロとして継続する。
func searchCandidates(ctx context.Context, appCtx *AppContext, imageURL string, item describe.Item, maxResults int) []match.Candidate {
	logger := appCtx.Logger()

	products, err := appCtx.Container.CatalogService.HybridSearch(ctx, imageURL, item.SearchKeywords, maxResults)
	if err != nil {
		if errors.Is(err, catalog.ErrUnavailable) {
			logger.Warn("検索プロバイダが利用できないため候補なしで継続", "item", item.Type)
		} else {
			logger.Warn("商品検索に失敗", "item", item.Type, "error", err)
		}
		return nil
	}

	candidates := make([]match.Candidate, 0, len(products))
	for _, p := range products {
		candidates = append(candidates, match.Candidate{
			Platform:   p.Source,
			Title:      p.Title,
			ProductURL: p.Link,
			ImageURL:   p.Thumbnail,
			Price:      p.Price,
		})
	}
	return candidates
}
