package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/quantmind-br/bundlecheck/internal/app"
	"github.com/quantmind-br/bundlecheck/internal/cache"
	"github.com/quantmind-br/bundlecheck/internal/config"
	"github.com/quantmind-br/bundlecheck/internal/domain"
	"github.com/quantmind-br/bundlecheck/internal/git"
	"github.com/quantmind-br/bundlecheck/internal/output"
	"github.com/quantmind-br/bundlecheck/internal/utils"
	"github.com/quantmind-br/bundlecheck/pkg/version"
)

// Dependencies for testing
var (
	getwd      = os.Getwd
	isTerminal = func() bool { return term.IsTerminal(int(os.Stderr.Fd())) }

	gitClient git.Client = git.NewClient()
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, domain.ErrVerificationFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// cli holds the state shared by all commands of one invocation
type cli struct {
	cfgFile    string
	verbose    bool
	v          *viper.Viper
	noProgress bool
	stdout     io.Writer
	stderr     io.Writer
	log        *utils.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr, v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "bundlecheck [path]",
		Short: "Verify artifact bundles and checksum files",
		Long: `bundlecheck verifies the integrity of artifact bundles (directories or
.zip/.hxs archives carrying a manifest.json), SHA256SUMS.txt files and whole
published asset trees.

Given a path, it detects what the path holds and verifies it.`,
		Version:       version.Short(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return c.runCheck(cmd, args[0])
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default is ~/.bundlecheck/config.yaml)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Verbose output")
	flags.StringP("format", "f", config.DefaultOutputFormat, "Report format (text, json, yaml)")
	flags.IntP("concurrency", "j", config.DefaultWorkers, "Number of bundles verified concurrently")
	flags.Bool("cache", false, "Cache archive verification results")
	flags.BoolVar(&c.noProgress, "no-progress", false, "Disable the progress bar")

	_ = c.v.BindPFlag("output.format", flags.Lookup("format"))
	_ = c.v.BindPFlag("concurrency.workers", flags.Lookup("concurrency"))
	_ = c.v.BindPFlag("cache.enabled", flags.Lookup("cache"))

	rootCmd.AddCommand(c.bundleCmd())
	rootCmd.AddCommand(c.sumsCmd())
	rootCmd.AddCommand(c.repoCmd())
	rootCmd.AddCommand(c.cacheCmd())
	rootCmd.AddCommand(c.versionCmd())

	return rootCmd
}

func (c *cli) bundleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle <path>",
		Short: "Verify an artifact bundle against its manifest",
		Long: `Verifies every manifest entry of a bundle directory or .zip/.hxs archive.
In strict mode (the default) the bundle's file set must match the manifest
exactly: extra and missing files are reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, cfg *config.Config, orch *app.Orchestrator) (*domain.Report, error) {
				strict := cfg.Verify.Strict
				if noStrict, _ := cmd.Flags().GetBool("no-strict"); noStrict {
					strict = false
				}
				return domain.FromResult(orch.VerifyBundle(ctx, args[0], strict)), nil
			})
		},
	}
	cmd.Flags().Bool("no-strict", false, "Skip the exact file-set comparison (extra/missing files)")
	return cmd
}

func (c *cli) sumsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sums <SHA256SUMS.txt>",
		Short: "Verify the files listed in a SHA256SUMS file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, cfg *config.Config, orch *app.Orchestrator) (*domain.Report, error) {
				return domain.FromResult(orch.VerifySums(args[0])), nil
			})
		},
	}
}

func (c *cli) repoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Verify a published asset tree",
		Long: `Verifies every SHA256SUMS.txt file, every bundles/**/*.zip.sha256 anchor
and the INDEX.json of a repository tree. The root defaults to the enclosing
git worktree of the current directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			if root == "" {
				cwd, err := getwd()
				if err != nil {
					return fmt.Errorf("failed to get working directory: %w", err)
				}
				root = git.RootOrDefault(gitClient, cwd)
			}
			return c.run(cmd, func(ctx context.Context, cfg *config.Config, orch *app.Orchestrator) (*domain.Report, error) {
				return orch.Run(ctx, root)
			})
		},
	}
	cmd.Flags().String("root", "", "Repository root (default: enclosing git worktree)")
	return cmd
}

func (c *cli) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the verification result cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show the cache location and entry count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCache(func(dir string, bc *cache.BadgerCache) error {
				_, err := fmt.Fprintf(c.stdout, "directory: %s\nentries: %d\n", dir, bc.Size())
				return err
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cached results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCache(func(dir string, bc *cache.BadgerCache) error {
				n := bc.Size()
				if err := bc.Clear(); err != nil {
					return fmt.Errorf("failed to clear cache: %w", err)
				}
				_, err := fmt.Fprintf(c.stdout, "removed %d cached results\n", n)
				return err
			})
		},
	})

	return cmd
}

// withCache opens the configured on-disk cache for the duration of fn
func (c *cli) withCache(fn func(dir string, bc *cache.BadgerCache) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	opts := cache.DefaultOptions()
	opts.Directory = utils.ExpandPath(cfg.Cache.Directory)
	bc, err := cache.NewBadgerCache(opts)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer bc.Close()

	return fn(opts.Directory, bc)
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("format")
			format, err := output.ParseFormat(name)
			if err != nil {
				return err
			}

			info := version.Get()
			switch format {
			case output.FormatJSON:
				enc := json.NewEncoder(c.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case output.FormatYAML:
				return yaml.NewEncoder(c.stdout).Encode(info)
			default:
				_, err := fmt.Fprintln(c.stdout, info.String())
				return err
			}
		},
	}
}

func (c *cli) runCheck(cmd *cobra.Command, path string) error {
	return c.run(cmd, func(ctx context.Context, cfg *config.Config, orch *app.Orchestrator) (*domain.Report, error) {
		return orch.Check(ctx, path)
	})
}

type verifyFunc func(ctx context.Context, cfg *config.Config, orch *app.Orchestrator) (*domain.Report, error)

// run loads configuration, builds the orchestrator, executes fn and writes
// its report. A report with issues yields domain.ErrVerificationFailed.
func (c *cli) run(cmd *cobra.Command, fn verifyFunc) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	c.log = utils.NewLogger(utils.LoggerOptions{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  c.stderr,
		Verbose: c.verbose,
	})

	common := domain.DefaultCommonOptions()
	common.Verbose = c.verbose
	common.Strict = cfg.Verify.Strict
	common.Workers = cfg.Concurrency.Workers
	common.Progress = cfg.Output.Progress && !c.noProgress && isTerminal()
	common.UseCache = cfg.Cache.Enabled

	orch, err := app.NewOrchestrator(app.OrchestratorOptions{
		CommonOptions: common,
		Config:        cfg,
		Logger:        c.log,
	})
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	defer orch.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			c.log.Info().Msg("Shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	report, err := fn(ctx, cfg, orch)
	if err != nil {
		return err
	}

	writer := output.NewWriter(output.WriterOptions{
		Format: format,
		Stdout: c.stdout,
		Stderr: c.stderr,
	})
	if err := writer.Write(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if !report.OK {
		return domain.ErrVerificationFailed
	}
	return nil
}

func (c *cli) loadConfig() (*config.Config, error) {
	return config.LoadViper(c.v, c.cfgFile)
}
