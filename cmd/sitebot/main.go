package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		logger := zerolog.Ctx(cmd.Context())
		if logger.GetLevel() == zerolog.Disabled {
			l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
			logger = &l
		}
		logger.Error().Err(err).Msg("sitebot failed")
		stop()
		os.Exit(1)
	}
}
