package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/reqscan/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	return full
}

func TestFileLoader_Load(t *testing.T) {
	dir := t.TempDir()
	abs := writeFile(t, dir, "requirements/base.txt", "requests==2.31.0\n")

	t.Run("relative to root", func(t *testing.T) {
		text, err := NewFileLoader(dir).Load(context.Background(), "requirements/base.txt")
		require.NoError(t, err)
		assert.Equal(t, "requests==2.31.0\n", text)
	})

	t.Run("absolute path ignores root", func(t *testing.T) {
		text, err := NewFileLoader("/does/not/matter").Load(context.Background(), abs)
		require.NoError(t, err)
		assert.Equal(t, "requests==2.31.0\n", text)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewFileLoader(dir).Load(context.Background(), "nope.txt")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("directory is not a manifest", func(t *testing.T) {
		_, err := NewFileLoader(dir).Load(context.Background(), "requirements")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewFileLoader(dir).Load(ctx, "requirements/base.txt")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
