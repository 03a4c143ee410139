package sitebot

import (
	"io"
	"os"
	"strconv"
	"time"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/eringen/sitebot/assets"
	"github.com/eringen/sitebot/metadata"
	"github.com/eringen/sitebot/qr"
)

// Config holds all configuration for a sitebot instance.
type Config struct {
	Name     string `yaml:"name"`      // Service name on the landing page (default "HTML Host Bot")
	BotToken string `yaml:"bot_token"` // Required unless a gateway is injected
	BaseURL  string `yaml:"base_url"`  // Public URL of the asset server (default "http://localhost:3000")
	Addr     string `yaml:"addr"`      // Listen address (default ":3000")

	DataDir      string `yaml:"data_dir"`      // sites.json, logs.txt and content files (default "sites")
	MetaBackend  string `yaml:"meta_backend"`  // "json" (default) or "sqlite"
	AssetBackend string `yaml:"asset_backend"` // "fs" (default) or "s3"
	Strict       bool   `yaml:"strict_persistence"`

	S3Bucket   string `yaml:"s3_bucket"`
	S3Region   string `yaml:"s3_region"`
	S3Endpoint string `yaml:"s3_endpoint"` // for S3-compatible services; enables path-style addressing
	S3Prefix   string `yaml:"s3_prefix"`   // default "sites/"

	AssetCacheTTL time.Duration `yaml:"asset_cache_ttl"` // default 1m, only used with s3

	QREndpoint string `yaml:"qr_endpoint"`
	QRSize     int    `yaml:"qr_size"`

	PendingTTL time.Duration `yaml:"pending_ttl"` // default 15m, negative disables expiry
	Workers    int           `yaml:"workers"`     // concurrent update handlers (default 8)

	KeepAliveURL      string        `yaml:"keepalive_url"`
	KeepAliveInterval time.Duration `yaml:"keepalive_interval"` // default 10m

	LogLevel string `yaml:"log_level"` // default "info"
}

const (
	AssetsFS = "fs"
	AssetsS3 = "s3"
)

func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "HTML Host Bot"
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DataDir == "" {
		c.DataDir = "sites"
	}
	if c.MetaBackend == "" {
		c.MetaBackend = string(metadata.BackendJSON)
	}
	if c.AssetBackend == "" {
		c.AssetBackend = AssetsFS
	}
	if c.S3Prefix == "" {
		c.S3Prefix = "sites/"
	}
	if c.AssetCacheTTL == 0 {
		c.AssetCacheTTL = time.Minute
	}
	if c.QREndpoint == "" {
		c.QREndpoint = qr.DefaultEndpoint
	}
	if c.QRSize == 0 {
		c.QRSize = qr.DefaultSize
	}
	if c.PendingTTL == 0 {
		c.PendingTTL = 15 * time.Minute
	}
	if c.Workers == 0 {
		c.Workers = 8
	}
	if c.KeepAliveInterval == 0 {
		c.KeepAliveInterval = 10 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate(haveGateway bool) error {
	if c.BotToken == "" && !haveGateway {
		return errors.New("sitebot: BOT_TOKEN is required")
	}
	switch c.AssetBackend {
	case AssetsFS:
	case AssetsS3:
		if c.S3Bucket == "" {
			return errors.New("sitebot: S3_BUCKET is required for the s3 asset backend")
		}
	default:
		return errors.Errorf("sitebot: unknown asset backend %q", c.AssetBackend)
	}
	return nil
}

// pendingTTL is the tracker ttl; zero there means no expiry.
func (c *Config) pendingTTL() time.Duration {
	if c.PendingTTL < 0 {
		return 0
	}
	return c.PendingTTL
}

// LoadConfig reads a YAML config file, then applies environment overrides.
// An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, errors.Errorf("opening config: %w", err)
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, errors.Errorf("parsing config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Name = EnvOr("SITE_NAME", c.Name)
	c.BotToken = EnvOr("BOT_TOKEN", c.BotToken)
	c.BaseURL = EnvOr("BASE_URL", c.BaseURL)
	if port := os.Getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}
	c.DataDir = EnvOr("DATA_DIR", c.DataDir)
	c.MetaBackend = EnvOr("META_BACKEND", c.MetaBackend)
	c.AssetBackend = EnvOr("ASSET_BACKEND", c.AssetBackend)
	c.S3Bucket = EnvOr("S3_BUCKET", c.S3Bucket)
	c.S3Region = EnvOr("S3_REGION", c.S3Region)
	c.S3Endpoint = EnvOr("S3_ENDPOINT", c.S3Endpoint)
	c.QREndpoint = EnvOr("QR_ENDPOINT", c.QREndpoint)
	c.KeepAliveURL = EnvOr("KEEPALIVE_URL", c.KeepAliveURL)
	c.LogLevel = EnvOr("LOG_LEVEL", c.LogLevel)

	if v := os.Getenv("PENDING_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Errorf("parsing PENDING_TTL: %w", err)
		}
		c.PendingTTL = d
	}
	if v := os.Getenv("STRICT_PERSISTENCE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Errorf("parsing STRICT_PERSISTENCE: %w", err)
		}
		c.Strict = b
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithGateway replaces the Telegram gateway, typically with a fake in tests.
func WithGateway(g Gateway) Option {
	return func(a *App) {
		a.gateway = g
	}
}

// WithQRProvider replaces the HTTP QR provider.
func WithQRProvider(p qr.Provider) Option {
	return func(a *App) {
		a.qr = p
	}
}

// WithAssetStore replaces the configured asset backend.
func WithAssetStore(s assets.Store) Option {
	return func(a *App) {
		a.Assets = s
	}
}

// WithConsole sets where activity lines are mirrored (default os.Stdout).
func WithConsole(w io.Writer) Option {
	return func(a *App) {
		a.console = w
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
