package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Location identifies a file inside a git repository, written as
// git+<repo-url>[@<ref>]#<path>, e.g.
// git+https://github.com/org/repo.git@v1.2#requirements/base.txt
type Location struct {
	RepoURL string
	Ref     string
	Path    string
}

// ErrInvalidLocation indicates a malformed git+ location
var ErrInvalidLocation = errors.New("invalid git location")

// IsLocation reports whether s uses the git+ scheme prefix
func IsLocation(s string) bool {
	return strings.HasPrefix(s, "git+")
}

// ParseLocation splits a git+ location into repository, ref and file path
func ParseLocation(s string) (Location, error) {
	rest, ok := strings.CutPrefix(s, "git+")
	if !ok {
		return Location{}, fmt.Errorf("%w: missing git+ prefix: %s", ErrInvalidLocation, s)
	}

	repo, file, _ := strings.Cut(rest, "#")
	if file == "" {
		return Location{}, fmt.Errorf("%w: missing #path: %s", ErrInvalidLocation, s)
	}

	schemeEnd := strings.Index(repo, "://")
	if schemeEnd < 0 {
		return Location{}, fmt.Errorf("%w: missing scheme: %s", ErrInvalidLocation, s)
	}
	hostStart := schemeEnd + len("://")
	slash := strings.Index(repo[hostStart:], "/")
	if slash < 0 {
		return Location{}, fmt.Errorf("%w: missing repository path: %s", ErrInvalidLocation, s)
	}
	pathStart := hostStart + slash

	loc := Location{RepoURL: repo, Path: strings.TrimPrefix(file, "/")}
	// "@" before the repository path belongs to user info, not to the ref
	if at := strings.LastIndex(repo[pathStart:], "@"); at >= 0 {
		loc.RepoURL = repo[:pathStart+at]
		loc.Ref = repo[pathStart+at+1:]
	}
	return loc, nil
}

// CloneRequest describes a shallow clone
type CloneRequest struct {
	URL   string
	Ref   string
	Token string
}

// ShallowClone clones req.URL at depth 1 into a fresh directory under dir and
// returns the checkout path. A ref is tried as a branch first, then as a tag.
func ShallowClone(ctx context.Context, client Client, dir string, req CloneRequest) (string, error) {
	var refs []plumbing.ReferenceName
	switch {
	case req.Ref == "":
		refs = []plumbing.ReferenceName{""}
	case strings.HasPrefix(req.Ref, "refs/"):
		refs = []plumbing.ReferenceName{plumbing.ReferenceName(req.Ref)}
	default:
		refs = []plumbing.ReferenceName{
			plumbing.NewBranchReferenceName(req.Ref),
			plumbing.NewTagReferenceName(req.Ref),
		}
	}

	var lastErr error
	for i, ref := range refs {
		dest := filepath.Join(dir, fmt.Sprintf("checkout-%d", i))
		if err := os.MkdirAll(dest, 0755); err != nil {
			return "", err
		}

		opts := &git.CloneOptions{
			URL:           req.URL,
			Depth:         1,
			SingleBranch:  ref != "",
			ReferenceName: ref,
		}
		if req.Token != "" {
			opts.Auth = &githttp.BasicAuth{
				Username: "token",
				Password: req.Token,
			}
		}

		_, err := client.PlainCloneContext(ctx, dest, false, opts)
		if err == nil {
			return dest, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}

	return "", fmt.Errorf("failed to clone %s: %w", req.URL, lastErr)
}
