package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Debug bool   `yaml:"debug"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("DENDRA_TEST_NAME", "notes")
	path := writeFile(t, "name: ${DENDRA_TEST_NAME}\nport: 9000\n")

	cfg := sample{Debug: true}
	require.NoError(t, Load(path, &cfg))
	assert.Equal(t, "notes", cfg.Name)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.Debug, "unset keys keep their defaults")
}

func TestLoad_Errors(t *testing.T) {
	var cfg sample
	assert.Error(t, Load(filepath.Join(t.TempDir(), "missing.yaml"), &cfg))
	assert.Error(t, Load(writeFile(t, "port: [1, 2"), &cfg))

	err := Load(writeFile(t, "port: 0\n"), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoadOptional(t *testing.T) {
	cfg := sample{Port: 8080}
	found, err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &cfg)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 8080, cfg.Port)

	found, err = LoadOptional(writeFile(t, "port: 1234\n"), &cfg)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1234, cfg.Port)

	invalid := sample{}
	_, err = LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &invalid)
	assert.Error(t, err, "defaults are validated too")
}
