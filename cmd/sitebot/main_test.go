package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/sitebot/metadata"
	"github.com/eringen/sitebot/site"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--env-file", ""})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.True(t, strings.HasPrefix(out.String(), "sitebot "))
}

func TestSitesListCommand(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store, err := metadata.Open(ctx, metadata.BackendJSON, dir, false)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, site.Site{ID: "abc123", Owner: 1, File: "abc123.html", SizeBytes: 10}))
	require.NoError(t, store.Close())

	cmd := newRootCmd()
	cmd.SetArgs([]string{"sites", "list", "--data-dir", dir, "--env-file", ""})
	assert.NoError(t, cmd.ExecuteContext(ctx))
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SITEBOT_TEST_VALUE=from-dotenv\n"), 0o644))
	t.Setenv("SITEBOT_TEST_VALUE", "")
	os.Unsetenv("SITEBOT_TEST_VALUE")
	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-dotenv", os.Getenv("SITEBOT_TEST_VALUE"))
}
