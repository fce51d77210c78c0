package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quantmind-br/reqscan/internal/app"
	"github.com/quantmind-br/reqscan/internal/cache"
	"github.com/quantmind-br/reqscan/internal/config"
	"github.com/quantmind-br/reqscan/internal/output"
	"github.com/quantmind-br/reqscan/pkg/version"
)

// Exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitDiagnostics = 2
)

// exitError carries a process exit code through cobra's error return
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitFailure
}

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}

// cli holds flag state shared by all subcommands
type cli struct {
	v          *viper.Viper
	cfgFile    string
	verbose    bool
	noCache    bool
	noResolve  bool
	force      bool
	outputPath string
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "reqscan",
		Short: "Parse and check Python requirements manifests",
		Long: `reqscan parses pip-style requirements manifests into structured entries,
grouped by the comment sections they appear under.

References to other manifests (-r, --requirement, include) are resolved from
local files, HTTP(S) URLs and git repositories, with cycle detection.
Malformed lines and duplicate packages are reported as diagnostics.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "config file (default is ~/.reqscan/config.yaml)")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "Verbose output")
	pf.StringP("format", "f", config.DefaultOutputFormat, "Output format: text, json, yaml, toml, requirements")
	pf.StringVarP(&c.outputPath, "output", "o", "", "Write output to a file instead of stdout")
	pf.BoolVar(&c.force, "force", false, "Overwrite an existing output file")
	pf.IntP("concurrency", "j", config.DefaultWorkers, "Number of manifests parsed concurrently")
	pf.Duration("timeout", config.DefaultTimeout, "Timeout for fetching a remote manifest")
	pf.BoolVar(&c.noCache, "no-cache", false, "Disable the remote manifest cache")
	pf.Duration("cache-ttl", config.DefaultCacheTTL, "Cache TTL for remote manifests")
	pf.BoolVar(&c.noResolve, "no-resolve", false, "Do not follow references to other manifests")
	pf.Int("max-depth", config.DefaultMaxDepth, "Maximum reference nesting depth")
	pf.Bool("strict", false, "Exit with status 2 when any diagnostic is reported")

	_ = c.v.BindPFlag("output.format", pf.Lookup("format"))
	_ = c.v.BindPFlag("concurrency.workers", pf.Lookup("concurrency"))
	_ = c.v.BindPFlag("concurrency.timeout", pf.Lookup("timeout"))
	_ = c.v.BindPFlag("cache.ttl", pf.Lookup("cache-ttl"))
	_ = c.v.BindPFlag("resolve.max_depth", pf.Lookup("max-depth"))
	_ = c.v.BindPFlag("strict", pf.Lookup("strict"))

	rootCmd.AddCommand(newParseCmd(c))
	rootCmd.AddCommand(newDiffCmd(c))
	rootCmd.AddCommand(newCacheCmd(c))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// loadConfig reads configuration and applies flags that have no config key
func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithViper(c.v, c.cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if c.noResolve {
		cfg.Resolve.Enabled = false
	}
	return cfg, nil
}

// setup loads configuration and builds the orchestrator and output writer
func (c *cli) setup(cmd *cobra.Command) (*config.Config, *app.Orchestrator, *output.Writer, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, nil, nil, err
	}

	orchestrator, err := app.NewOrchestrator(app.OrchestratorOptions{
		Config:    cfg,
		Verbose:   c.verbose,
		NoCache:   c.noCache,
		Stdin:     cmd.InOrStdin(),
		LogOutput: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	writer := output.NewWriter(output.WriterOptions{
		Path:   c.outputPath,
		Format: format,
		Force:  c.force,
		Stdout: cmd.OutOrStdout(),
	})

	return cfg, orchestrator, writer, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func newParseCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <manifest>...",
		Short: "Parse manifests and report their entries",
		Long: `Parse one or more manifests. Each argument is a local path, an http(s) URL,
a git+<repo>[@ref]#<path> location, or "-" for standard input.`,
		Example: `  reqscan parse requirements.txt
  reqscan parse -f json requirements/*.txt
  reqscan parse git+https://github.com/org/repo.git@v1.2#requirements.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, orchestrator, writer, err := c.setup(cmd)
			if err != nil {
				return err
			}
			defer orchestrator.Close()

			for _, source := range args {
				if err := orchestrator.ValidateSource(source); err != nil {
					return err
				}
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			report, runErr := orchestrator.Parse(ctx, args)
			if err := writer.WriteReport(report); err != nil {
				return err
			}
			if runErr != nil {
				return runErr
			}

			if report.HasErrors() {
				return &exitError{
					code: exitFailure,
					err:  fmt.Errorf("%d of %d manifests failed", report.Summary.Errors, report.Summary.Manifests),
				}
			}
			if cfg.Strict && report.HasDiagnostics() {
				return &exitError{
					code: exitDiagnostics,
					err:  fmt.Errorf("%d diagnostics reported (strict mode)", report.Summary.Diagnostics),
				}
			}
			return nil
		},
	}
}

func newDiffCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Compare the packages of two manifests",
		Long: `Resolve two manifests and list added, removed, upgraded, downgraded and
otherwise changed packages. Versions are ordered as semantic versions when
both sides parse as such.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, orchestrator, writer, err := c.setup(cmd)
			if err != nil {
				return err
			}
			defer orchestrator.Close()

			for _, source := range args {
				if err := orchestrator.ValidateSource(source); err != nil {
					return err
				}
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			d, err := orchestrator.Diff(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return writer.WriteDiff(d)
		},
	}
}

func newCacheCmd(c *cli) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the remote manifest cache",
	}

	open := func() (*cache.BadgerCache, error) {
		cfg, err := c.loadConfig()
		if err != nil {
			return nil, err
		}
		return cache.NewBadgerCache(cache.Options{Directory: cfg.Cache.Directory})
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return fmt.Errorf("failed to open cache: %w", err)
			}
			defer store.Close()

			stats := store.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "entries:   %v\n", stats["entries"])
			fmt.Fprintf(out, "lsm size:  %v\n", stats["lsm_size"])
			fmt.Fprintf(out, "vlog size: %v\n", stats["vlog_size"])
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cached manifests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return fmt.Errorf("failed to open cache: %w", err)
			}
			defer store.Close()

			n := store.Size()
			start := time.Now()
			if err := store.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries in %s\n", n, time.Since(start).Round(time.Millisecond))
			return nil
		},
	})

	return cacheCmd
}

func newVersionCmd() *cobra.Command {
	var short bool
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), version.Short())
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		},
	}
	versionCmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return versionCmd
}
