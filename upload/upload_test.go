package upload

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/eringen/sitebot/assets"
	"github.com/eringen/sitebot/metadata"
	"github.com/eringen/sitebot/pending"
	"github.com/eringen/sitebot/registry"
	"github.com/eringen/sitebot/site"
)

const validHTML = "<!DOCTYPE html><html></html>"

type stubQR struct {
	err   error
	calls []string
}

func (s *stubQR) Generate(ctx context.Context, target string) ([]byte, error) {
	s.calls = append(s.calls, target)
	if s.err != nil {
		return nil, s.err
	}
	return []byte("png"), nil
}

type fixture struct {
	ctx     context.Context
	tracker *pending.Tracker
	reg     *registry.Registry
	assets  *assets.FSStore
	qr      *stubQR
	p       *Pipeline
}

func setup(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.New(zerolog.TestWriter{T: t})
	ctx := logger.WithContext(context.Background())
	dir := t.TempDir()

	meta, err := metadata.OpenJSON(ctx, filepath.Join(dir, "sites.json"))
	require.NoError(t, err)
	t.Cleanup(func() { meta.Close() })
	store, err := assets.NewFSStore(filepath.Join(dir, "sites"))
	require.NoError(t, err)

	tracker := pending.NewTracker(0)
	t.Cleanup(func() { tracker.Close() })
	reg := registry.New(meta, store)
	q := &stubQR{}

	return &fixture{
		ctx:     ctx,
		tracker: tracker,
		reg:     reg,
		assets:  store,
		qr:      q,
		p:       New(tracker, reg, WithQR(q), WithBaseURL("https://host.example/")),
	}
}

func file(name, content string) File {
	return File{
		Name: name,
		Size: int64(len(content)),
		Fetch: func(ctx context.Context) ([]byte, error) {
			return []byte(content), nil
		},
	}
}

func TestValidation(t *testing.T) {
	assert.NoError(t, ValidateName("page.html"))
	assert.NoError(t, ValidateName("PAGE.HTML"))
	assert.Error(t, ValidateName("page.txt"))
	assert.Error(t, ValidateName("page.html.txt"))
	assert.Error(t, ValidateName("html"))

	assert.NoError(t, Sniff([]byte(validHTML)))
	assert.NoError(t, Sniff([]byte("<HTML lang=en>")))
	assert.NoError(t, Sniff([]byte("  <!doctype html>")))
	err := Sniff([]byte("hello world"))
	require.ErrorIs(t, err, site.ErrValidation)
	reason, ok := site.Reason(err)
	require.True(t, ok)
	assert.Equal(t, site.ReasonContent, reason)

	assert.NoError(t, ValidateSize(MaxFileSize, MaxFileSize))
	assert.ErrorIs(t, ValidateSize(MaxFileSize+1, MaxFileSize), site.ErrValidation)
}

func TestNoPendingAction(t *testing.T) {
	f := setup(t)
	fetched := false
	in := file("a.html", validHTML)
	in.Fetch = func(ctx context.Context) ([]byte, error) {
		fetched = true
		return []byte(validHTML), nil
	}

	_, err := f.p.Handle(f.ctx, 1, in)
	assert.ErrorIs(t, err, site.ErrNoPendingAction)
	assert.False(t, fetched)

	t.Run("delete_confirm_is_not_consumed", func(t *testing.T) {
		f.tracker.Set(1, pending.DeleteConfirm("abc123"))
		_, err := f.p.Handle(f.ctx, 1, in)
		assert.ErrorIs(t, err, site.ErrNoPendingAction)
		a, ok := f.tracker.Get(1)
		require.True(t, ok)
		assert.Equal(t, pending.KindDeleteConfirm, a.Kind)
	})
}

func TestCreateFlow(t *testing.T) {
	f := setup(t)
	f.tracker.Set(1, pending.Create())
	accepted := false
	in := file("a.html", validHTML)
	in.OnAccepted = func(ctx context.Context) { accepted = true }

	res, err := f.p.Handle(f.ctx, 1, in)
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, Created, res.Outcome)
	assert.Equal(t, site.UserID(1), res.Site.Owner)
	assert.Equal(t, int64(len(validHTML)), res.Site.SizeBytes)
	assert.Equal(t, "https://host.example/sites/"+res.Site.ID+".html", res.URL)
	assert.Equal(t, []byte("png"), res.QR)
	assert.Equal(t, []string{res.URL}, f.qr.calls)

	_, ok := f.tracker.Get(1)
	assert.False(t, ok, "pending action must be cleared after success")

	stored, err := f.assets.Get(f.ctx, res.Site.File)
	require.NoError(t, err)
	assert.Equal(t, validHTML, string(stored))
}

func TestUpdateFlow(t *testing.T) {
	f := setup(t)
	orig, err := f.reg.Create(f.ctx, 1, []byte("<html>v1</html>"))
	require.NoError(t, err)

	f.tracker.Set(1, pending.Update(orig.ID))
	res, err := f.p.Handle(f.ctx, 1, file("new.html", validHTML))
	require.NoError(t, err)
	assert.Equal(t, Updated, res.Outcome)
	assert.Equal(t, orig.ID, res.Site.ID)
	assert.Equal(t, int64(len(validHTML)), res.Site.SizeBytes)

	t.Run("ownership_rechecked_at_consumption", func(t *testing.T) {
		f.tracker.Set(2, pending.Update(orig.ID))
		_, err := f.p.Handle(f.ctx, 2, file("evil.html", validHTML+"<p>x</p>"))
		assert.ErrorIs(t, err, site.ErrForbidden)
		_, ok := f.tracker.Get(2)
		assert.False(t, ok)
	})

	t.Run("target_deleted_meanwhile", func(t *testing.T) {
		f.tracker.Set(1, pending.Update(orig.ID))
		require.NoError(t, f.reg.Delete(f.ctx, 1, orig.ID))
		_, err := f.p.Handle(f.ctx, 1, file("a.html", validHTML))
		assert.ErrorIs(t, err, site.ErrNotFound)
	})
}

func TestRejectionsClearPendingAction(t *testing.T) {
	cases := []struct {
		name   string
		in     File
		reason site.ValidationReason
	}{
		{name: "wrong_extension", in: file("page.txt", validHTML), reason: site.ReasonExtension},
		{name: "no_markup", in: file("page.html", "hello world"), reason: site.ReasonContent},
		{name: "declared_too_large", in: File{Name: "big.html", Size: MaxFileSize + 1}, reason: site.ReasonTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t)
			f.tracker.Set(1, pending.Create())

			_, err := f.p.Handle(f.ctx, 1, tc.in)
			require.ErrorIs(t, err, site.ErrValidation)
			reason, ok := site.Reason(err)
			require.True(t, ok)
			assert.Equal(t, tc.reason, reason)

			_, ok = f.tracker.Get(1)
			assert.False(t, ok)
			sites, err := f.reg.ListByOwner(f.ctx, 1)
			require.NoError(t, err)
			assert.Empty(t, sites, "rejected upload must not create a site")
		})
	}
}

func TestFetchedContentTooLarge(t *testing.T) {
	f := setup(t)
	f.p = New(f.tracker, f.reg, WithMaxSize(10))
	f.tracker.Set(1, pending.Create())

	in := file("a.html", validHTML)
	in.Size = 5
	_, err := f.p.Handle(f.ctx, 1, in)
	reason, ok := site.Reason(err)
	require.True(t, ok)
	assert.Equal(t, site.ReasonTooLarge, reason)
}

func TestFetchFailureIsUpstream(t *testing.T) {
	f := setup(t)
	f.tracker.Set(1, pending.Create())
	in := file("a.html", validHTML)
	in.Fetch = func(ctx context.Context) ([]byte, error) {
		return nil, errors.New("connection reset")
	}

	_, err := f.p.Handle(f.ctx, 1, in)
	assert.ErrorIs(t, err, site.ErrUpstream)
	_, ok := f.tracker.Get(1)
	assert.False(t, ok)
}

func TestQRFailureIsNotFatal(t *testing.T) {
	f := setup(t)
	f.qr.err = site.Wrap(site.ErrUpstream, errors.New("qr down"))
	f.tracker.Set(1, pending.Create())

	res, err := f.p.Handle(f.ctx, 1, file("a.html", validHTML))
	require.NoError(t, err)
	assert.Nil(t, res.QR)
	assert.NotEmpty(t, res.Site.ID)
}

func TestWithoutQRProvider(t *testing.T) {
	f := setup(t)
	f.p = New(f.tracker, f.reg)
	f.tracker.Set(1, pending.Create())

	res, err := f.p.Handle(f.ctx, 1, file("a.html", validHTML))
	require.NoError(t, err)
	assert.Nil(t, res.QR)
	assert.Equal(t, "http://localhost:3000/sites/"+res.Site.ID+".html", res.URL)
}
