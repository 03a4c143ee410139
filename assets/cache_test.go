package assets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/sitebot/site"
)

type countingStore struct {
	Store
	gets int
}

func (c *countingStore) Get(ctx context.Context, ref string) ([]byte, error) {
	c.gets++
	return c.Store.Get(ctx, ref)
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	inner := &countingStore{Store: fs}
	c := NewCachedStore(inner, time.Minute, 0)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Put(ctx, "abc123.html", []byte("v1")))
	for i := 0; i < 3; i++ {
		got, err := c.Get(ctx, "abc123.html")
		require.NoError(t, err)
		assert.Equal(t, "v1", string(got))
	}
	assert.Equal(t, 1, inner.gets)

	require.NoError(t, c.Put(ctx, "abc123.html", []byte("v2")))
	got, err := c.Get(ctx, "abc123.html")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got), "write must invalidate")
	assert.Equal(t, 2, inner.gets)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "abc123.html")
	require.NoError(t, err)
	assert.Equal(t, 3, inner.gets, "expired entry must be refetched")

	require.NoError(t, c.Remove(ctx, "abc123.html"))
	_, err = c.Get(ctx, "abc123.html")
	assert.ErrorIs(t, err, site.ErrNotFound)
	assert.Equal(t, 0, c.Len())
}

func TestCachedStoreBounded(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	c := NewCachedStore(fs, time.Minute, 2)

	for _, ref := range []string{"a.html", "b.html", "c.html"} {
		require.NoError(t, fs.Put(ctx, ref, []byte(ref)))
		_, err := c.Get(ctx, ref)
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, c.Len(), 2)
}

// pausingStore blocks Get after reading from the inner store until release
// is closed.
type pausingStore struct {
	Store
	read    chan struct{}
	release chan struct{}
}

func (p *pausingStore) Get(ctx context.Context, ref string) ([]byte, error) {
	content, err := p.Store.Get(ctx, ref)
	if p.read != nil {
		close(p.read)
		p.read = nil
		<-p.release
	}
	return content, err
}

func TestCachedStoreWriteDuringFill(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, fs.Put(ctx, "abc123.html", []byte("v1")))

	inner := &pausingStore{Store: fs, read: make(chan struct{}), release: make(chan struct{})}
	c := NewCachedStore(inner, time.Minute, 0)

	read := inner.read
	done := make(chan []byte)
	go func() {
		got, _ := c.Get(ctx, "abc123.html")
		done <- got
	}()

	<-read
	require.NoError(t, c.Put(ctx, "abc123.html", []byte("v2")))
	close(inner.release)
	assert.Equal(t, "v1", string(<-done))

	got, err := c.Get(ctx, "abc123.html")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got), "a fill that raced a write must not be cached")
}
