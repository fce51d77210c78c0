package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/reqscan/internal/cache"
	"github.com/quantmind-br/reqscan/internal/domain"
	"github.com/quantmind-br/reqscan/internal/mocks"
)

func TestRouter_Load(t *testing.T) {
	dir := t.TempDir()
	local := writeFile(t, dir, "requirements.txt", "local==1\n")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("remote==1\n"))
	}))
	defer server.Close()

	gitClient := &mocks.MockGitClient{Files: map[string]string{"reqs.txt": "git==1\n"}}
	gitClient.On("PlainCloneContext", mock.Anything, mock.Anything, false, mock.Anything).Return(nil, nil)

	router := NewRouter(Options{
		Root:      dir,
		Timeout:   5 * time.Second,
		GitClient: gitClient,
	})

	tests := []struct {
		name     string
		location string
		expected string
	}{
		{name: "relative file", location: "requirements.txt", expected: "local==1\n"},
		{name: "absolute file", location: local, expected: "local==1\n"},
		{name: "file url", location: "file://" + filepath.ToSlash(local), expected: "local==1\n"},
		{name: "upper-case file url", location: "FILE://" + filepath.ToSlash(local), expected: "local==1\n"},
		{name: "http", location: server.URL + "/requirements.txt", expected: "remote==1\n"},
		{name: "git", location: "git+https://github.com/org/repo.git#reqs.txt", expected: "git==1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := router.Load(context.Background(), tt.location)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, text)
		})
	}

	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := router.Load(context.Background(), "ftp://example.com/requirements.txt")
		assert.ErrorIs(t, err, domain.ErrUnsupportedSource)
	})
}

func TestRouter_CachesRemoteOnly(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte("remote==1\n"))
	}))
	defer server.Close()

	store, err := cache.NewBadgerCache(cache.Options{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	dir := t.TempDir()
	writeFile(t, dir, "requirements.txt", "local==1\n")

	router := NewRouter(Options{Root: dir, Cache: store, CacheTTL: time.Hour})

	for i := 0; i < 2; i++ {
		_, err := router.Load(context.Background(), server.URL)
		require.NoError(t, err)
		_, err = router.Load(context.Background(), "requirements.txt")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, hits)
	assert.False(t, store.Has(context.Background(), cache.ManifestKey("requirements.txt")))
}
