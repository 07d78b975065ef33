package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/jinford/look-matcher/internal/interface/httpapi"
)

// ServerStartAction はJSON APIサーバを起動する
func ServerStartAction(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	server := httpapi.NewServer(
		appCtx.Container.DescribeService,
		appCtx.Container.CatalogService,
		appCtx.Container.MatchService,
		httpapi.WithLogger(appCtx.Logger()),
		httpapi.WithAddr(addr),
	)

	return server.Run(ctx)
}
