package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/jinford/look-matcher/cmd/look-matcher/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 構造化ログの設定（設定読み込み後にコマンド側で上書きされる）
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	envFlag := &cli.StringFlag{
		Name:  "env",
		Usage: "環境変数ファイルパス",
		Value: ".env",
	}

	app := &cli.Command{
		Name:  "look-matcher",
		Usage: "コーディネート画像の解析とECサイト商品の類似マッチング",
		Commands: []*cli.Command{
			{
				Name:  "analyze",
				Usage: "画像からファッションアイテムを識別して検索リンクを生成",
				Flags: []cli.Flag{
					envFlag,
					&cli.StringFlag{
						Name:     "image",
						Usage:    "画像のURLまたはローカルファイルパス",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "export",
						Usage: "解析結果のJSON出力先ファイルパス",
					},
				},
				Action: commands.AnalyzeAction,
			},
			{
				Name:  "match",
				Usage: "画像解析・商品検索・類似度ランキングを一括実行",
				Flags: []cli.Flag{
					envFlag,
					&cli.StringFlag{
						Name:     "image",
						Usage:    "画像のURLまたはローカルファイルパス",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "返却する上位マッチ数（0で設定値を使用）",
					},
					&cli.FloatFlag{
						Name:  "min-similarity",
						Usage: "採用する最小類似度スコア",
					},
					&cli.IntFlag{
						Name:  "max-results",
						Usage: "検索APIから取得する候補数の上限（0で設定値を使用）",
					},
					&cli.StringFlag{
						Name:  "export",
						Usage: "マッチング結果のJSON出力先ファイルパス",
					},
				},
				Action: commands.MatchAction,
			},
			{
				Name:      "compare",
				Usage:     "2枚の画像の視覚的類似度スコアを計算",
				ArgsUsage: "<image-a> <image-b>",
				Flags: []cli.Flag{
					envFlag,
				},
				Action: commands.CompareAction,
			},
			{
				Name:  "links",
				Usage: "キーワードから各ECプラットフォームの検索リンクを生成",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "keywords",
						Usage:    "検索キーワード",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "アイテム種別（アクセサリ類はNykaa Fashionを追加）",
					},
				},
				Action: commands.LinksAction,
			},
			{
				Name:  "server",
				Usage: "APIサーバ管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "start",
						Usage: "JSON APIサーバを起動",
						Flags: []cli.Flag{
							envFlag,
							&cli.StringFlag{
								Name:  "addr",
								Usage: "待ち受けアドレス",
								Value: ":8080",
							},
						},
						Action: commands.ServerStartAction,
					},
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatalf("エラー: %v", err)
	}
}
