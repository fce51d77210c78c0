package git

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/reqscan/internal/mocks"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Location
		wantErr  bool
	}{
		{
			name:     "with ref",
			input:    "git+https://github.com/org/repo.git@v1.2#requirements/base.txt",
			expected: Location{RepoURL: "https://github.com/org/repo.git", Ref: "v1.2", Path: "requirements/base.txt"},
		},
		{
			name:     "without ref",
			input:    "git+https://github.com/org/repo.git#requirements.txt",
			expected: Location{RepoURL: "https://github.com/org/repo.git", Path: "requirements.txt"},
		},
		{
			name:     "user info is not a ref",
			input:    "git+ssh://git@github.com/org/repo.git#reqs.txt",
			expected: Location{RepoURL: "ssh://git@github.com/org/repo.git", Path: "reqs.txt"},
		},
		{
			name:     "user info and ref",
			input:    "git+ssh://git@github.com/org/repo.git@main#/reqs.txt",
			expected: Location{RepoURL: "ssh://git@github.com/org/repo.git", Ref: "main", Path: "reqs.txt"},
		},
		{name: "missing prefix", input: "https://github.com/org/repo.git#reqs.txt", wantErr: true},
		{name: "missing path", input: "git+https://github.com/org/repo.git@v1", wantErr: true},
		{name: "missing scheme", input: "git+github.com/org/repo.git#reqs.txt", wantErr: true},
		{name: "missing repo path", input: "git+https://github.com#reqs.txt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseLocation(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLocation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, loc)
		})
	}
}

func TestIsLocation(t *testing.T) {
	assert.True(t, IsLocation("git+https://github.com/org/repo.git#r.txt"))
	assert.False(t, IsLocation("https://github.com/org/repo.git"))
	assert.False(t, IsLocation("requirements.txt"))
}

func TestShallowClone(t *testing.T) {
	t.Run("default branch", func(t *testing.T) {
		client := &mocks.MockGitClient{}
		client.On("PlainCloneContext", mock.Anything, mock.Anything, false, mock.MatchedBy(func(o *git.CloneOptions) bool {
			return o.URL == "https://example.com/repo.git" && o.Depth == 1 && o.ReferenceName == "" && o.Auth == nil
		})).Return(nil, nil).Once()

		dir, err := ShallowClone(context.Background(), client, t.TempDir(), CloneRequest{URL: "https://example.com/repo.git"})

		require.NoError(t, err)
		assert.DirExists(t, dir)
		client.AssertExpectations(t)
	})

	t.Run("falls back from branch to tag", func(t *testing.T) {
		client := &mocks.MockGitClient{}
		client.On("PlainCloneContext", mock.Anything, mock.Anything, false, mock.MatchedBy(func(o *git.CloneOptions) bool {
			return o.ReferenceName == plumbing.NewBranchReferenceName("v1.0")
		})).Return(nil, errors.New("reference not found")).Once()
		client.On("PlainCloneContext", mock.Anything, mock.Anything, false, mock.MatchedBy(func(o *git.CloneOptions) bool {
			return o.ReferenceName == plumbing.NewTagReferenceName("v1.0") && o.SingleBranch
		})).Return(nil, nil).Once()

		dir, err := ShallowClone(context.Background(), client, t.TempDir(), CloneRequest{URL: "https://example.com/repo.git", Ref: "v1.0"})

		require.NoError(t, err)
		assert.Equal(t, "checkout-1", filepath.Base(dir))
		client.AssertExpectations(t)
	})

	t.Run("full reference name is used as is", func(t *testing.T) {
		client := &mocks.MockGitClient{}
		client.On("PlainCloneContext", mock.Anything, mock.Anything, false, mock.MatchedBy(func(o *git.CloneOptions) bool {
			return o.ReferenceName == plumbing.ReferenceName("refs/heads/release")
		})).Return(nil, nil).Once()

		_, err := ShallowClone(context.Background(), client, t.TempDir(), CloneRequest{URL: "u", Ref: "refs/heads/release"})

		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("token becomes basic auth", func(t *testing.T) {
		client := &mocks.MockGitClient{}
		client.On("PlainCloneContext", mock.Anything, mock.Anything, false, mock.MatchedBy(func(o *git.CloneOptions) bool {
			auth, ok := o.Auth.(*githttp.BasicAuth)
			return ok && auth.Username == "token" && auth.Password == "secret"
		})).Return(nil, nil).Once()

		_, err := ShallowClone(context.Background(), client, t.TempDir(), CloneRequest{URL: "u", Token: "secret"})

		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("all attempts fail", func(t *testing.T) {
		client := &mocks.MockGitClient{}
		client.On("PlainCloneContext", mock.Anything, mock.Anything, false, mock.Anything).
			Return(nil, errors.New("repository not found")).Twice()

		_, err := ShallowClone(context.Background(), client, t.TempDir(), CloneRequest{URL: "https://example.com/x.git", Ref: "main"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "repository not found")
		assert.Contains(t, err.Error(), "https://example.com/x.git")
	})

	t.Run("canceled context stops retrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := &mocks.MockGitClient{}
		client.On("PlainCloneContext", mock.Anything, mock.Anything, false, mock.Anything).
			Return(nil, context.Canceled).Once()

		_, err := ShallowClone(ctx, client, t.TempDir(), CloneRequest{URL: "u", Ref: "main"})

		assert.ErrorIs(t, err, context.Canceled)
		client.AssertExpectations(t)
	})
}

func TestRealClient_CanceledContext(t *testing.T) {
	var client Client = NewClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.PlainCloneContext(ctx, t.TempDir(), false, &git.CloneOptions{
		URL: "https://github.com/git-fixtures/basic.git",
	})

	assert.Error(t, err)
}
