package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/quantmind-br/reqscan/internal/cache"
	"github.com/quantmind-br/reqscan/internal/config"
	"github.com/quantmind-br/reqscan/internal/domain"
	"github.com/quantmind-br/reqscan/internal/loader"
	"github.com/quantmind-br/reqscan/internal/manifest"
	"github.com/quantmind-br/reqscan/internal/output"
	"github.com/quantmind-br/reqscan/internal/utils"
	"github.com/quantmind-br/reqscan/pkg/version"
)

// Orchestrator loads, parses and resolves manifests using the configured
// loaders, cache and worker pool
type Orchestrator struct {
	config   *config.Config
	loader   domain.Loader
	resolver *manifest.Resolver
	cache    *cache.BadgerCache
	stdin    io.Reader
	resolve  bool
	logger   *utils.Logger
}

// OrchestratorOptions contains options for creating an orchestrator
type OrchestratorOptions struct {
	Config  *config.Config
	Verbose bool
	NoCache bool
	// Loader replaces the default router, mainly for tests
	Loader    domain.Loader
	Stdin     io.Reader
	LogOutput io.Writer
}

// NewOrchestrator creates a new orchestrator with the given configuration
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := utils.NewLogger(utils.LoggerOptions{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  opts.LogOutput,
		Verbose: opts.Verbose,
	}).WithComponent("orchestrator")

	o := &Orchestrator{
		config:  cfg,
		stdin:   opts.Stdin,
		resolve: cfg.Resolve.Enabled,
		logger:  logger,
	}
	if o.stdin == nil {
		o.stdin = os.Stdin
	}

	o.loader = opts.Loader
	if o.loader == nil {
		var store domain.Cache
		if cfg.Cache.Enabled && !opts.NoCache {
			c, err := cache.NewBadgerCache(cache.Options{Directory: utils.ExpandPath(cfg.Cache.Directory)})
			if err != nil {
				logger.Warn().Err(err).Msg("Cache unavailable, continuing without it")
			} else {
				o.cache = c
				store = c
			}
		}

		o.loader = loader.NewRouter(loader.Options{
			Timeout:    cfg.Concurrency.Timeout,
			MaxRetries: retriesOption(cfg.HTTP.MaxRetries),
			UserAgent:  userAgent(cfg.HTTP.UserAgent),
			MaxSize:    cfg.MaxSizeBytes(),
			GitToken:   cfg.Git.Token,
			Cache:      store,
			CacheTTL:   cfg.Cache.TTL,
			Logger:     logger.WithComponent("loader"),
		})
	}

	o.resolver = manifest.NewResolver(o.loader, manifest.ResolverOptions{
		MaxDepth: cfg.Resolve.MaxDepth,
	})

	return o, nil
}

// userAgent adds the build version to the default User-Agent
func userAgent(ua string) string {
	if ua == "" || ua == config.DefaultUserAgent {
		return version.UserAgent()
	}
	return ua
}

// retriesOption maps the configured retry count onto loader options, where
// zero means "use the default" and a negative value disables retries
func retriesOption(n int) int {
	if n == 0 {
		return -1
	}
	return n
}

// ValidateSource checks if the location can be loaded
func (o *Orchestrator) ValidateSource(location string) error {
	if DetectSourceType(location) == SourceUnknown {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedSource, location)
	}
	return nil
}

// Load parses one manifest and, unless resolution is disabled, splices in
// its references. When resolution fails the unresolved manifest is returned
// alongside the error.
func (o *Orchestrator) Load(ctx context.Context, source string) (*domain.Manifest, error) {
	start := time.Now()
	log := o.logger.WithSource(source)

	text, err := o.readSource(ctx, source)
	if err != nil {
		return nil, err
	}

	m := manifest.Parse(source, text)
	for _, d := range m.Diagnostics {
		log.Debug().Str("kind", string(d.Kind)).Int("line", d.Line).Msg(d.Message)
	}

	if o.resolve && m.HasReferences() {
		resolved, err := o.resolver.Resolve(ctx, m)
		if err != nil {
			var refErr *domain.ReferenceError
			if errors.As(err, &refErr) {
				log = log.WithReference(refErr.Line, refErr.Path)
			}
			log.Error().Err(err).Msg("Reference resolution failed")
			return m, err
		}
		m = resolved
	}

	log.Debug().
		Int("entries", len(m.Entries)).
		Int("diagnostics", len(m.Diagnostics)).
		Dur("duration", time.Since(start)).
		Msg("Manifest parsed")

	return m, nil
}

func (o *Orchestrator) readSource(ctx context.Context, source string) (string, error) {
	if DetectSourceType(source) != SourceStdin {
		return o.loader.Load(ctx, source)
	}

	data, err := io.ReadAll(o.stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return loader.DecodeText(data)
}

// Parse processes sources concurrently and collects one result per source,
// in argument order
func (o *Orchestrator) Parse(ctx context.Context, sources []string) (*output.Report, error) {
	start := time.Now()
	o.logger.Info().
		Int("manifests", len(sources)).
		Int("concurrency", o.config.Concurrency.Workers).
		Bool("resolve", o.resolve).
		Msg("Parsing manifests")

	pool := utils.NewPool(o.config.Concurrency.Workers, o.Load)
	tasks, err := pool.Process(ctx, sources)

	collector := output.NewCollector(sources)
	for _, task := range tasks {
		collector.Add(task.Index, task.Result, task.Err)
	}
	report := collector.Report()

	for _, taskErr := range utils.CollectErrors(tasks) {
		o.logger.Warn().Err(taskErr).Msg("Manifest failed")
	}

	o.logger.Info().
		Int("packages", report.Summary.Packages).
		Int("diagnostics", report.Summary.Diagnostics).
		Int("errors", report.Summary.Errors).
		Dur("duration", time.Since(start)).
		Msg("Parsing completed")

	if err != nil {
		o.logger.Warn().Msg("Parsing cancelled")
		return report, err
	}
	return report, nil
}

// Diff loads two manifests concurrently and compares their packages. When
// both fail, the error for oldSource is returned.
func (o *Orchestrator) Diff(ctx context.Context, oldSource, newSource string) (*output.DiffReport, error) {
	pool := utils.NewPool(2, func(ctx context.Context, source string) (*domain.Manifest, error) {
		m, err := o.Load(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", source, err)
		}
		return m, nil
	})

	tasks, err := pool.Process(ctx, []string{oldSource, newSource})
	if taskErr := utils.FirstError(tasks); taskErr != nil {
		return nil, taskErr
	}
	if err != nil {
		return nil, err
	}

	return &output.DiffReport{
		Old:     oldSource,
		New:     newSource,
		Changes: manifest.Diff(tasks[0].Result, tasks[1].Result),
	}, nil
}

// Cache returns the manifest cache, or nil when caching is off
func (o *Orchestrator) Cache() *cache.BadgerCache {
	return o.cache
}

// Close releases all resources held by the orchestrator
func (o *Orchestrator) Close() error {
	if o.cache != nil {
		return o.cache.Close()
	}
	return nil
}
