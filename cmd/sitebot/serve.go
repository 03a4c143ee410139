package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/eringen/sitebot"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot and the asset server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return errors.Errorf("loading config: %w", err)
			}

			app := sitebot.New(cfg)
			defer func() {
				if err := app.Close(); err != nil {
					zerolog.Ctx(ctx).Error().Err(err).Msg("closing app")
				}
			}()
			if err := app.Open(ctx); err != nil {
				return err
			}
			zerolog.Ctx(ctx).Info().
				Str("base_url", app.Config.BaseURL).
				Str("data_dir", app.Config.DataDir).
				Str("meta", app.Config.MetaBackend).
				Str("assets", app.Config.AssetBackend).
				Msg("starting sitebot")
			return app.Start(ctx)
		},
	}
	cmd.Flags().String("addr", ":3000", "listen address of the asset server")
	cmd.Flags().String("base-url", "http://localhost:3000", "public URL of the asset server")
	cmd.Flags().Bool("strict", false, "fail operations when metadata cannot be saved")
	addStoreFlags(cmd)
	return cmd
}
