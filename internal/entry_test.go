package internal

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Vault.Path = filepath.Join(dir, "vault")
	cfg.SQLite.Path = filepath.Join(dir, "dendra.db")
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNewNoteAndPrintTree(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	opts := []Option{WithConfig(cfg), WithLogOutput(io.Discard)}

	var out bytes.Buffer
	require.NoError(t, NewNote(ctx, &out, "project.backend.api", opts...))
	assert.Equal(t, "project.backend.api.md\n", out.String())

	data, err := os.ReadFile(filepath.Join(cfg.Vault.Path, "project.backend.api.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `title: "Api"`)

	out.Reset()
	require.NoError(t, PrintTree(ctx, &out, opts...))
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "root", lines[0])
	assert.True(t, strings.HasSuffix(lines[3], "api (Api)"), lines[3])
}

func TestNewNote_Duplicate(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	opts := []Option{WithConfig(cfg), WithLogOutput(io.Discard)}

	require.NoError(t, NewNote(ctx, io.Discard, "a", opts...))
	assert.Error(t, NewNote(ctx, io.Discard, "A", opts...))
}

func TestCustomExtension(t *testing.T) {
	cfg := testConfig(t)
	cfg.Vault.Extension = "txt"
	require.NoError(t, os.MkdirAll(cfg.Vault.Path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Vault.Path, "a.b.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Vault.Path, "ignored.md"), nil, 0o644))

	var out bytes.Buffer
	require.NoError(t, PrintTree(context.Background(), &out, WithConfig(cfg), WithLogOutput(io.Discard)))
	assert.Contains(t, out.String(), "b (B)")
	assert.NotContains(t, out.String(), "ignored")
}

func TestConfigRequired(t *testing.T) {
	assert.Error(t, Run(context.Background()))
	assert.Error(t, PrintTree(context.Background(), io.Discard))
	assert.Error(t, NewNote(context.Background(), io.Discard, "a"))
	assert.Error(t, ServeMCP(context.Background()))
}
