package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/quantmind-br/reqscan/internal/domain"
	"github.com/quantmind-br/reqscan/internal/git"
	"github.com/quantmind-br/reqscan/internal/utils"
)

// GitLoader reads a manifest out of a git repository named by a
// git+<repo>[@ref]#<path> location. Every load is a fresh shallow clone;
// wrap it in a CachedLoader to avoid cloning the same file twice.
type GitLoader struct {
	client  git.Client
	token   string
	tempDir string
	logger  *utils.Logger
}

// GitLoaderOptions contains options for creating a GitLoader
type GitLoaderOptions struct {
	Client  git.Client
	Token   string
	TempDir string
	Logger  *utils.Logger
}

// NewGitLoader creates a new GitLoader
func NewGitLoader(opts GitLoaderOptions) *GitLoader {
	client := opts.Client
	if client == nil {
		client = git.NewClient()
	}
	return &GitLoader{
		client:  client,
		token:   opts.Token,
		tempDir: opts.TempDir,
		logger:  opts.Logger,
	}
}

// Load clones the repository and reads the manifest file
func (l *GitLoader) Load(ctx context.Context, location string) (string, error) {
	loc, err := git.ParseLocation(location)
	if err != nil {
		return "", err
	}

	workDir, err := os.MkdirTemp(l.tempDir, "reqscan-git-*")
	if err != nil {
		return "", fmt.Errorf("failed to create clone directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	if l.logger != nil {
		l.logger.Debug().
			Str("repo", loc.RepoURL).
			Str("ref", loc.Ref).
			Str("path", loc.Path).
			Msg("Cloning repository for manifest")
	}

	checkout, err := git.ShallowClone(ctx, l.client, workDir, git.CloneRequest{
		URL:   loc.RepoURL,
		Ref:   loc.Ref,
		Token: l.token,
	})
	if err != nil {
		return "", err
	}

	// Clean against "/" so the path cannot leave the checkout
	rel := path.Clean("/" + loc.Path)
	data, err := os.ReadFile(filepath.Join(checkout, filepath.FromSlash(rel)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s in %s", domain.ErrNotFound, loc.Path, loc.RepoURL)
		}
		return "", fmt.Errorf("failed to read %s: %w", loc.Path, err)
	}

	return DecodeText(data)
}
