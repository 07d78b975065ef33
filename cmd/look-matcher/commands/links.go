package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jinford/look-matcher/internal/core/catalog"
)

// LinksAction はキーワードから各ECプラットフォームの検索リンクを生成する。
// 外部APIもモデルも使わないため、設定ファイルなしで動作する。
func LinksAction(_ context.Context, cmd *cli.Command) error {
	keywords := cmd.String("keywords")
	itemType := cmd.String("type")

	if keywords == "" {
		return fmt.Errorf("--keywords is required")
	}

	links := catalog.SearchLinks(keywords, itemType)
	return printJSON(links)
}
