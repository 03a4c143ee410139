package sitebot

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// KeepAlive periodically requests a URL so free hosting tiers that sleep on
// inactivity keep the process running.
type KeepAlive struct {
	URL      string
	Interval time.Duration
	Client   *http.Client
}

func NewKeepAlive(url string, interval time.Duration) *KeepAlive {
	return &KeepAlive{
		URL:      url,
		Interval: interval,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Ping performs one request. Failures are logged, never returned.
func (k *KeepAlive) Ping(ctx context.Context) bool {
	logger := zerolog.Ctx(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.URL, nil)
	if err != nil {
		logger.Warn().Err(err).Str("url", k.URL).Msg("keep-alive request")
		return false
	}
	resp, err := k.Client.Do(req)
	if err != nil {
		logger.Warn().Err(err).Str("url", k.URL).Msg("keep-alive ping failed")
		return false
	}
	resp.Body.Close()
	logger.Debug().Int("status", resp.StatusCode).Str("url", k.URL).Msg("keep-alive ping")
	return resp.StatusCode < http.StatusInternalServerError
}

// Run pings every Interval until ctx is done.
func (k *KeepAlive) Run(ctx context.Context) {
	ticker := time.NewTicker(k.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			k.Ping(ctx)
		}
	}
}
