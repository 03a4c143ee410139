// Package sitebot hosts HTML pages uploaded through a Telegram bot. Each
// upload becomes a site with a short id served at /sites/<id>.html; only the
// uploader can replace or delete it.
//
// App wires the metadata store, the asset store, the registry, the upload
// pipeline and the bot dispatcher together and runs the asset server and the
// update loop side by side.
package sitebot

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/sitebot/activity"
	"github.com/eringen/sitebot/assets"
	"github.com/eringen/sitebot/bot"
	"github.com/eringen/sitebot/metadata"
	"github.com/eringen/sitebot/pending"
	"github.com/eringen/sitebot/qr"
	"github.com/eringen/sitebot/registry"
	"github.com/eringen/sitebot/upload"
	"github.com/eringen/sitebot/views"
)

// Gateway is a messaging gateway that also delivers inbound events.
type Gateway interface {
	bot.Gateway
	Run(ctx context.Context, h bot.Handler, workers int) error
}

// App is the central sitebot application.
type App struct {
	Config   Config
	Echo     *echo.Echo
	Meta     metadata.Store
	Assets   assets.Store
	Registry *registry.Registry
	Tracker  *pending.Tracker
	Pipeline *upload.Pipeline
	Bot      *bot.Dispatcher
	Activity *activity.Log

	gateway      Gateway
	qr           qr.Provider
	console      io.Writer
	logger       zerolog.Logger
	customRoutes []func(*App)
}

// New creates an App. Call Open before Start.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:  cfg,
		Echo:    echo.New(),
		console: os.Stdout,
		logger:  zerolog.Nop(),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Open initializes storage, the registry, the gateway and the HTTP routes.
func (a *App) Open(ctx context.Context) error {
	a.logger = *zerolog.Ctx(ctx)
	if err := a.Config.validate(a.gateway != nil); err != nil {
		return err
	}

	act, err := activity.Open(filepath.Join(a.Config.DataDir, "logs.txt"), a.console)
	if err != nil {
		return errors.Errorf("sitebot: init activity log: %w", err)
	}
	a.Activity = act

	meta, err := metadata.Open(ctx, metadata.Backend(a.Config.MetaBackend), a.Config.DataDir, a.Config.Strict)
	if err != nil {
		return errors.Errorf("sitebot: init metadata store: %w", err)
	}
	a.Meta = meta

	if a.Assets == nil {
		store, err := a.openAssets(ctx)
		if err != nil {
			return errors.Errorf("sitebot: init asset store: %w", err)
		}
		a.Assets = store
	}

	if a.qr == nil {
		a.qr = qr.NewHTTPProvider(a.Config.QREndpoint, a.Config.QRSize)
	}
	if a.gateway == nil {
		tg, err := bot.NewTelegram(a.Config.BotToken)
		if err != nil {
			return errors.Errorf("sitebot: init telegram: %w", err)
		}
		a.gateway = tg
	}

	a.Registry = registry.New(a.Meta, a.Assets)
	a.Tracker = pending.NewTracker(a.Config.pendingTTL())
	a.Pipeline = upload.New(a.Tracker, a.Registry,
		upload.WithQR(a.qr),
		upload.WithBaseURL(a.Config.BaseURL))
	a.Bot = bot.NewDispatcher(a.gateway, a.Registry, a.Tracker, a.Pipeline,
		bot.WithActivity(a.Activity),
		bot.WithBaseURL(a.Config.BaseURL))

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) openAssets(ctx context.Context) (assets.Store, error) {
	switch a.Config.AssetBackend {
	case AssetsS3:
		client, err := assets.NewS3Client(ctx, a.Config.S3Region, a.Config.S3Endpoint)
		if err != nil {
			return nil, err
		}
		s3 := assets.NewS3Store(client, a.Config.S3Bucket, a.Config.S3Prefix)
		return assets.NewCachedStore(s3, a.Config.AssetCacheTTL, 0), nil
	default:
		return assets.NewFSStore(a.Config.DataDir)
	}
}

// Start runs the asset server, the update loop and the keep-alive pinger until
// ctx is cancelled or one of them fails.
func (a *App) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", a.Config.Addr).Str("base_url", a.Config.BaseURL).Msg("asset server listening")
		a.Activity.Info(activity.Server, "express_listen", "addr="+a.Config.Addr)
		if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Errorf("asset server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.Echo.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		a.Activity.Info(activity.Server, "bot_launch", "BASE_URL="+a.Config.BaseURL)
		return a.gateway.Run(ctx, a.Bot.Handle, a.Config.Workers)
	})

	if a.Config.KeepAliveURL != "" {
		k := NewKeepAlive(a.Config.KeepAliveURL, a.Config.KeepAliveInterval)
		g.Go(func() error {
			k.Run(ctx)
			return nil
		})
	}

	return g.Wait()
}

// Close releases storage and background workers. Safe to call after a failed Open.
func (a *App) Close() error {
	var errs []error
	if a.Tracker != nil {
		a.Tracker.Close()
	}
	if a.Meta != nil {
		errs = append(errs, a.Meta.Close())
	}
	if a.Activity != nil {
		errs = append(errs, a.Activity.Close())
	}
	return errors.Join(errs...)
}

func (a *App) siteConfig() views.SiteConfig {
	cfg := views.SiteConfig{Name: a.Config.Name, URL: a.Config.BaseURL}
	if named, ok := a.gateway.(interface{ Username() string }); ok {
		cfg.BotUsername = named.Username()
	}
	return cfg
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
