package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// compareOutput は compare コマンドの出力形式
type compareOutput struct {
	Score float64 `json:"score"`
}

// CompareAction は2枚の画像の視覚的類似度スコアを出力する
func CompareAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	args := cmd.Args()
	if args.Len() != 2 {
		return fmt.Errorf("usage: compare <image-a> <image-b>")
	}

	srcA, err := resolveImageSource(args.Get(0))
	if err != nil {
		return err
	}
	srcB, err := resolveImageSource(args.Get(1))
	if err != nil {
		return err
	}

	appCtx, err := NewAppContext(envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	score, err := appCtx.Container.MatchService.Compare(ctx, srcA, srcB)
	if err != nil {
		return fmt.Errorf("類似度の計算に失敗: %w", err)
	}

	return printJSON(compareOutput{Score: score})
}
