package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSecrets(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		PepperFile:      filepath.Join(dir, "pepper"),
		TokenSecretFile: filepath.Join(dir, "secrets", "token.secret"),
	}

	first, err := LoadSecrets(cfg)
	require.NoError(t, err)
	require.NotEmpty(t, first.Pepper)
	require.GreaterOrEqual(t, len(first.TokenSecret), secretSize)

	info, err := os.Stat(cfg.TokenSecretFile)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := LoadSecrets(cfg)
	require.NoError(t, err)
	require.Equal(t, first, second)

	t.Run("inline token secret wins", func(t *testing.T) {
		cfg := cfg
		cfg.TokenSecret = "inline-secret-inline-secret-inline-secret"

		s, err := LoadSecrets(cfg)
		require.NoError(t, err)
		require.Equal(t, []byte(cfg.TokenSecret), s.TokenSecret)
		require.Equal(t, first.Pepper, s.Pepper)
	})

	t.Run("empty pepper file", func(t *testing.T) {
		path := filepath.Join(dir, "empty")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		_, err := LoadSecrets(Config{PepperFile: path, TokenSecretFile: cfg.TokenSecretFile})
		require.Error(t, err)
	})
}
