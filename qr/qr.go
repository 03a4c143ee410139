// Package qr fetches QR code images for site URLs from an external HTTP service.
package qr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"time"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/image/draw"

	"github.com/eringen/sitebot/site"
)

const (
	// DefaultEndpoint is the public goqr.me API.
	DefaultEndpoint = "https://api.qrserver.com/v1/create-qr-code/"
	DefaultSize     = 300

	maxImageBytes = 2 << 20
)

// Provider turns a URL into a PNG image.
type Provider interface {
	Generate(ctx context.Context, target string) ([]byte, error)
}

// HTTPProvider asks an HTTP QR service for an image and normalizes it to a
// square PNG of Size pixels.
type HTTPProvider struct {
	Endpoint string
	Size     int
	Client   *http.Client
}

func NewHTTPProvider(endpoint string, size int) *HTTPProvider {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if size <= 0 {
		size = DefaultSize
	}
	return &HTTPProvider{
		Endpoint: endpoint,
		Size:     size,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPProvider) requestURL(target string) (string, error) {
	u, err := url.Parse(p.Endpoint)
	if err != nil {
		return "", errors.Errorf("parsing qr endpoint: %w", err)
	}
	q := u.Query()
	q.Set("size", fmt.Sprintf("%dx%d", p.Size, p.Size))
	q.Set("format", "png")
	q.Set("data", target)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Generate returns site.ErrUpstream wrapped errors for any transport,
// status or decoding failure.
func (p *HTTPProvider) Generate(ctx context.Context, target string) ([]byte, error) {
	reqURL, err := p.requestURL(target)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Errorf("creating qr request: %w", err)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, site.Wrap(site.ErrUpstream, errors.Errorf("requesting qr image: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, site.Wrap(site.ErrUpstream, errors.Errorf("qr service returned status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, site.Wrap(site.ErrUpstream, errors.Errorf("reading qr image: %w", err))
	}
	out, err := normalize(body, p.Size)
	if err != nil {
		return nil, site.Wrap(site.ErrUpstream, err)
	}
	return out, nil
}

// normalize decodes img and re-encodes it as a size x size PNG. Nearest
// neighbour keeps module edges sharp so scanners read the result reliably.
func normalize(data []byte, size int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Errorf("decode qr image: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != size || bounds.Dy() != size {
		dst := image.NewRGBA(image.Rect(0, 0, size, size))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
		img = dst
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Errorf("encode qr png: %w", err)
	}
	return buf.Bytes(), nil
}
