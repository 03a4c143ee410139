package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/eringen/sitebot"
)

var (
	configFile string
	envFile    string
	debug      bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sitebot",
		Short:         "Host HTML pages uploaded through a Telegram bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(envFile); err != nil {
				return err
			}
			level := zerolog.InfoLevel
			if lvl, err := zerolog.ParseLevel(sitebot.EnvOr("LOG_LEVEL", "info")); err == nil && lvl != zerolog.NoLevel {
				level = lvl
			}
			if debug {
				level = zerolog.DebugLevel
			}
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
				Level(level).With().Timestamp().Logger()
			cmd.SetContext(logger.WithContext(cmd.Context()))
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file path")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	cmd.AddCommand(newServeCmd(), newSitesCmd(), newVersionCmd())
	return cmd
}

// loadEnvFile loads path into the environment without overriding variables
// already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return errors.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// loadConfig reads the config file and environment, then applies flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (sitebot.Config, error) {
	cfg, err := sitebot.LoadConfig(configFile)
	if err != nil {
		return sitebot.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("base-url") {
		cfg.BaseURL, _ = flags.GetString("base-url")
	}
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("meta-backend") {
		cfg.MetaBackend, _ = flags.GetString("meta-backend")
	}
	if flags.Changed("strict") {
		cfg.Strict, _ = flags.GetBool("strict")
	}
	return cfg, nil
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("data-dir", "sites", "directory holding metadata, activity log and content")
	cmd.Flags().String("meta-backend", "json", "metadata backend: json or sqlite")
}
