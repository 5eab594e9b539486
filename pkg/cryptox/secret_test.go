package cryptox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomSecret(t *testing.T) {
	tests := []struct {
		size int
		len  int
	}{
		{16, 22},
		{32, 43},
		{64, 86},
	}
	for _, tt := range tests {
		a, err := RandomSecret(tt.size)
		require.NoError(t, err)
		require.Len(t, a, tt.len)

		b, err := RandomSecret(tt.size)
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	}

	for _, size := range []int{0, -1} {
		s, err := RandomSecret(size)
		require.Error(t, err)
		require.Empty(t, s)
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("$argon2id$digest-a")

	require.Equal(t, a, Fingerprint("$argon2id$digest-a"))
	require.NotEqual(t, a, Fingerprint("$argon2id$digest-b"))
	require.Len(t, a, 43)
}

func TestLoadOrCreateSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pepper")

	created, err := LoadOrCreateSecret(path, 32)
	require.NoError(t, err)
	require.Len(t, created, 43)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadOrCreateSecret(path, 32)
	require.NoError(t, err)
	require.Equal(t, created, loaded)

	t.Run("empty path", func(t *testing.T) {
		_, err := LoadOrCreateSecret("", 32)
		require.Error(t, err)
	})

	t.Run("blank file", func(t *testing.T) {
		blank := filepath.Join(t.TempDir(), "blank")
		require.NoError(t, os.WriteFile(blank, []byte("  \n"), 0o600))
		_, err := LoadOrCreateSecret(blank, 32)
		require.Error(t, err)
	})
}
