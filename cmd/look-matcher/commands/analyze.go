package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/jinford/look-matcher/internal/core/catalog"
	"github.com/jinford/look-matcher/internal/core/describe"
	"github.com/jinford/look-matcher/internal/core/look"
)

// analyzeOutput は analyze コマンドの出力形式
type analyzeOutput struct {
	Analysis    *describe.Analysis              `json:"analysis"`
	SearchLinks map[string][]catalog.SearchLink `json:"search_links"`
}

// AnalyzeAction はコーディネート画像を解析してアイテムと検索リンクを出力する
func AnalyzeAction(ctx context.Context, cmd *cli.Command) error {
	imageArg := cmd.String("image")
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

	analysis, err := appCtx.Container.DescribeService.Describe(ctx, src)
	if err != nil {
		return fmt.Errorf("画像解析に失敗: %w", err)
	}

	output := analyzeOutput{
		Analysis:    analysis,
		SearchLinks: make(map[string][]catalog.SearchLink, len(analysis.Items)),
	}
	for _, item := range analysis.Items {
		output.SearchLinks[item.Type] = catalog.SearchLinks(item.SearchKeywords, item.Type)
	}

	if err := printJSON(output); err != nil {
		return err
	}

	if exportPath != "" {
		if err := exportJSON(exportPath, output); err != nil {
			return fmt.Errorf("解析結果のエクスポートに失敗: %w", err)
		}
		appCtx.Logger().Info("解析結果をエクスポートしました", "path", exportPath)
	}

	return nil
}

// resolveImageSource はURLまたはローカルファイルパスから画像ソースを組み立てる
func resolveImageSource(arg string) (look.ImageSource, error) {
	if arg == "" {
		return look.ImageSource{}, fmt.Errorf("--image is required")
	}
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return look.FromURL(arg), nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return look.ImageSource{}, fmt.Errorf("画像ファイルの読み込みに失敗: %w", err)
	}
	return look.FromBytes(data), nil
}

// printJSON は値を整形済みJSONとして標準出力へ書き出す
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}

// exportJSON は値を整形済みJSONとしてファイルへ書き出す
func exportJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
