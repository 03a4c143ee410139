package activity

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Info(User(42), "create_site", "id=abc123 sizeKB=1.25")

	line := buf.String()
	assert.Contains(t, line, "INF")
	assert.Contains(t, line, "create_site")
	assert.Contains(t, line, "actor=42")
	assert.Contains(t, line, "detail=")
	assert.Contains(t, line, "abc123")
	assert.NotContains(t, line, "\x1b[", "activity lines must not carry colour codes")
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Warn(User(1), "upload_failed_not_html", "")
	l.Error(Server, "upload_error", "boom")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "WRN")
	assert.NotContains(t, lines[0], "detail=")
	assert.Contains(t, lines[1], "ERR")
	assert.Contains(t, lines[1], "actor=server")
}

func TestOpenAppendsAndMirrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "logs.txt")
	var mirror bytes.Buffer

	l, err := Open(path, &mirror)
	require.NoError(t, err)
	l.Info(Server, "bot_launch", "")
	require.NoError(t, l.Close())

	l, err = Open(path, nil)
	require.NoError(t, err)
	l.Info(Server, "express_listen", "port=3000")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "bot_launch")
	assert.Contains(t, lines[1], "express_listen")
	assert.Contains(t, mirror.String(), "bot_launch")
	assert.NotContains(t, mirror.String(), "express_listen")
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Info(Server, "noop", "")
	assert.NoError(t, l.Close())
}
