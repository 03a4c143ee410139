// Package upload turns a file delivered by the messaging gateway into a
// created or updated site, according to the user's pending action.
package upload

import (
	"bytes"
	"context"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/eringen/sitebot/pending"
	"github.com/eringen/sitebot/qr"
	"github.com/eringen/sitebot/site"
)

// MaxFileSize matches the messaging platform's own download limit.
const MaxFileSize = 20 << 20

var markers = [][]byte{[]byte("<html"), []byte("<!doctype")}

// Sites is the part of the registry the pipeline drives.
type Sites interface {
	Create(ctx context.Context, owner site.UserID, content []byte) (site.Site, error)
	Update(ctx context.Context, owner site.UserID, id string, content []byte) (site.Site, error)
}

// File is an inbound document. Fetch downloads its content; OnAccepted, when
// set, runs once the cheap checks pass and before the download starts.
type File struct {
	Name       string
	Size       int64
	Fetch      func(ctx context.Context) ([]byte, error)
	OnAccepted func(ctx context.Context)
}

// Outcome tells whether a site was created or replaced.
type Outcome int

const (
	Created Outcome = iota + 1
	Updated
)

// Result describes a successful upload. QR is nil when the provider failed
// or none is configured.
type Result struct {
	Site    site.Site
	Outcome Outcome
	URL     string
	QR      []byte
}

// Pipeline validates uploads and dispatches them. Callers serialize calls for
// the same user (see pending.Tracker.Lock).
type Pipeline struct {
	tracker *pending.Tracker
	sites   Sites
	qr      qr.Provider
	baseURL string
	maxSize int64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithQR(p qr.Provider) Option {
	return func(pl *Pipeline) {
		pl.qr = p
	}
}

func WithBaseURL(u string) Option {
	return func(pl *Pipeline) {
		pl.baseURL = u
	}
}

func WithMaxSize(n int64) Option {
	return func(pl *Pipeline) {
		pl.maxSize = n
	}
}

func New(tracker *pending.Tracker, sites Sites, opts ...Option) *Pipeline {
	p := &Pipeline{
		tracker: tracker,
		sites:   sites,
		baseURL: "http://localhost:3000",
		maxSize: MaxFileSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ValidateName rejects anything not ending in .html, ignoring case.
func ValidateName(name string) error {
	if !strings.HasSuffix(strings.ToLower(name), ".html") {
		return errors.WithStack(&site.ValidationError{Reason: site.ReasonExtension, Detail: name})
	}
	return nil
}

// ValidateSize rejects sizes above limit.
func ValidateSize(size, limit int64) error {
	if size > limit {
		return errors.WithStack(&site.ValidationError{Reason: site.ReasonTooLarge})
	}
	return nil
}

// Sniff requires an <html or <!DOCTYPE marker anywhere in content, ignoring case.
func Sniff(content []byte) error {
	lower := bytes.ToLower(content)
	for _, m := range markers {
		if bytes.Contains(lower, m) {
			return nil
		}
	}
	return errors.WithStack(&site.ValidationError{Reason: site.ReasonContent})
}

// Handle processes f for user. Without an upload-type pending action it
// returns site.ErrNoPendingAction and leaves all state alone; any other
// outcome, success or failure, clears the pending action.
func (p *Pipeline) Handle(ctx context.Context, user site.UserID, f File) (Result, error) {
	action, ok := p.tracker.Get(user)
	if !ok || !action.AwaitsUpload() {
		return Result{}, errors.WithStack(site.ErrNoPendingAction)
	}
	defer p.tracker.Clear(user)

	logger := zerolog.Ctx(ctx).With().
		Int64("user", int64(user)).
		Str("action", action.Kind.String()).
		Str("file", f.Name).
		Logger()

	if err := ValidateName(f.Name); err != nil {
		return Result{}, err
	}
	if err := ValidateSize(f.Size, p.maxSize); err != nil {
		return Result{}, err
	}
	if f.OnAccepted != nil {
		f.OnAccepted(ctx)
	}

	content, err := f.Fetch(ctx)
	if err != nil {
		return Result{}, site.Wrap(site.ErrUpstream, err)
	}
	if err := ValidateSize(int64(len(content)), p.maxSize); err != nil {
		return Result{}, err
	}
	if err := Sniff(content); err != nil {
		return Result{}, err
	}

	var res Result
	switch action.Kind {
	case pending.KindCreate:
		res.Site, err = p.sites.Create(ctx, user, content)
		res.Outcome = Created
	case pending.KindUpdate:
		res.Site, err = p.sites.Update(ctx, user, action.SiteID, content)
		res.Outcome = Updated
	}
	if err != nil {
		return Result{}, err
	}
	res.URL = res.Site.URL(p.baseURL)

	if p.qr != nil {
		img, err := p.qr.Generate(ctx, res.URL)
		if err != nil {
			logger.Warn().Err(err).Str("id", res.Site.ID).Msg("qr generation failed, sending text only")
		} else {
			res.QR = img
		}
	}
	logger.Debug().Str("id", res.Site.ID).Int64("size", res.Site.SizeBytes).Msg("upload processed")
	return res, nil
}
