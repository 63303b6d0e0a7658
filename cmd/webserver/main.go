package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/searchktools/webserver/app"
	"github.com/searchktools/webserver/config"
	"github.com/searchktools/webserver/core/middleware"
	"github.com/searchktools/webserver/examples/hello"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:           "webserver",
		Short:         "Serve the hello controller over plain HTTP/1.1",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), configFile)
			if err != nil {
				return err
			}

			logger, err := app.NewLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			application := app.New(cfg, logger)
			engine := application.Engine()

			if err := engine.Mount(hello.Routes(&hello.Controller{})); err != nil {
				return err
			}
			for _, m := range []middleware.Middleware{
				middleware.Logger(logger.Named("access")),
				middleware.RequestID(),
				middleware.PoweredBy("webserver"),
			} {
				if err := engine.Use(m); err != nil {
					return err
				}
			}

			logger.Debug("routes mounted", zap.Int("count", engine.Routes().Len()))
			return application.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Config file (yaml, json or toml)")
	config.RegisterFlags(cmd.Flags())
	return cmd
}
