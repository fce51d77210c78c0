// Package loader provides the manifest sources used to resolve references:
// local files, HTTP(S) URLs and files inside git repositories, plus a cache
// wrapper and a router that picks one by location.
package loader

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/quantmind-br/reqscan/internal/domain"
	"github.com/quantmind-br/reqscan/internal/git"
	"github.com/quantmind-br/reqscan/internal/utils"
)

// Options configures the loaders built by NewRouter
type Options struct {
	Root       string
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string
	MaxSize    int64
	GitToken   string
	HTTPClient *http.Client
	GitClient  git.Client
	Cache      domain.Cache
	CacheTTL   time.Duration
	Logger     *utils.Logger
}

// Router dispatches a location to the file, HTTP or git loader
type Router struct {
	file   domain.Loader
	http   domain.Loader
	git    domain.Loader
	logger *utils.Logger
}

// NewRouter builds the loaders described by opts. When opts.Cache is set,
// remote loaders are wrapped in a CachedLoader; local files are always read
// fresh.
func NewRouter(opts Options) *Router {
	var httpLoader domain.Loader = NewHTTPLoader(HTTPLoaderOptions{
		Timeout:    opts.Timeout,
		MaxRetries: opts.MaxRetries,
		UserAgent:  opts.UserAgent,
		MaxSize:    opts.MaxSize,
		Client:     opts.HTTPClient,
		Logger:     opts.Logger,
	})
	var gitLoader domain.Loader = NewGitLoader(GitLoaderOptions{
		Client: opts.GitClient,
		Token:  opts.GitToken,
		Logger: opts.Logger,
	})

	if opts.Cache != nil {
		httpLoader = NewCachedLoader(httpLoader, opts.Cache, opts.CacheTTL, opts.Logger)
		gitLoader = NewCachedLoader(gitLoader, opts.Cache, opts.CacheTTL, opts.Logger)
	}

	return &Router{
		file:   NewFileLoader(opts.Root),
		http:   httpLoader,
		git:    gitLoader,
		logger: opts.Logger,
	}
}

// Load implements domain.Loader
func (r *Router) Load(ctx context.Context, location string) (string, error) {
	l, target, err := r.pick(location)
	if err != nil {
		return "", err
	}

	if r.logger != nil {
		r.logger.WithSource(location).Debug().Msg("Loading manifest")
	}
	return l.Load(ctx, target)
}

// pick returns the loader for location and the location to hand it
func (r *Router) pick(location string) (domain.Loader, string, error) {
	if git.IsLocation(location) {
		return r.git, location, nil
	}

	scheme, rest, hasScheme := strings.Cut(location, "://")
	if utils.IsLocalPath(location) {
		if hasScheme {
			return r.file, rest, nil
		}
		return r.file, location, nil
	}

	switch strings.ToLower(scheme) {
	case "http", "https":
		return r.http, location, nil
	default:
		return nil, "", fmt.Errorf("%w: %s", domain.ErrUnsupportedSource, location)
	}
}
