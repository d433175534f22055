package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"image-audit/internal/filesystem"
	"image-audit/internal/history"
	"image-audit/internal/logging"
	"image-audit/internal/metrics"
	"image-audit/internal/report"
	"image-audit/internal/startup"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitFileErrs = 2
)

// ExitError carries a non-zero exit code out of a command.
type ExitError struct {
	Code int
	Msg  string
}

func (e *ExitError) Error() string {
	return e.Msg
}

func fileErrors(n int) error {
	return &ExitError{Code: ExitFileErrs, Msg: fmt.Sprintf("completed with %d error(s)", n)}
}

type rootFlags struct {
	configFile  string
	cacheDir    string
	magick      string
	logLevel    string
	metricsAddr string
	metricsFile string
	noCache     bool
	noHistory   bool
}

// app holds the state shared by one command invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	flags   rootFlags
	cfg     *startup.Config
	printer *report.Printer

	metricsSrv *metrics.Server
	journal    *history.Journal
}

// NewRootCommand builds the command tree reading from stdin and writing
// reports to stdout. Log output goes to stderr.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	return newApp(stdin, stdout, stderr).command()
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr}
}

func (a *app) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image-audit",
		Short: "Audit image folders for oversized files, duplicates and look-alikes",
		Long: `image-audit scans a folder of images and reports files that are too large,
files that share a name, files taken on the same day and files that look
alike. It can recompress oversized images and move grouped files into
per-group folders after taking a backup.

Image metadata comes from ImageMagick and is cached between runs.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "config file (default ~/.config/image-audit/config.yaml)")
	pf.StringVar(&a.flags.cacheDir, "cache-dir", "", "directory for the metadata cache and run history")
	pf.StringVar(&a.flags.magick, "magick", "", "ImageMagick binary (default \"magick\")")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run")
	pf.StringVar(&a.flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this file when the run ends")
	pf.BoolVar(&a.flags.noCache, "no-cache", false, "do not read or write the metadata cache")
	pf.BoolVar(&a.flags.noHistory, "no-history", false, "do not journal this run")

	cmd.AddCommand(
		a.newScanCommand(),
		a.newCompressCommand(),
		a.newMoveCommand(),
		a.newHistoryCommand(),
		newVersionCommand(),
	)

	return cmd
}

// setup loads configuration and starts the ambient services for a command.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.flags.logLevel != "" {
		level, err := logging.ParseLevel(a.flags.logLevel)
		if err != nil {
			return err
		}
		logging.SetLevel(level)
	}

	cfg, err := startup.LoadConfig(a.flags.configFile)
	if err != nil {
		return err
	}

	pf := cmd.Flags()
	if pf.Changed("cache-dir") {
		cfg.CacheDir = a.flags.cacheDir
	}
	if pf.Changed("magick") {
		cfg.MagickPath = a.flags.magick
	}
	if pf.Changed("metrics-addr") {
		cfg.MetricsAddr = a.flags.metricsAddr
	}
	if pf.Changed("metrics-file") {
		cfg.MetricsFile = a.flags.metricsFile
	}
	if a.flags.noCache {
		cfg.UseCache = false
	}
	if a.flags.noHistory {
		cfg.UseHistory = false
	}
	a.cfg = cfg

	a.printer = report.New(a.stdout)
	a.printer.SetInput(a.stdin)

	metrics.InitializeMetrics()
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	if cfg.MetricsAddr != "" {
		srv, err := metrics.Serve(cfg.MetricsAddr)
		if err != nil {
			return err
		}
		a.metricsSrv = srv
	}

	return nil
}

// finish releases what setup acquired. It runs whether or not the command
// succeeded.
func (a *app) finish() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			logging.Warn("Failed to close history database: %v", err)
		}
		a.journal = nil
	}
	if a.cfg != nil && a.cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			logging.Warn("%v", err)
		}
	}
	if a.metricsSrv != nil {
		if err := a.metricsSrv.Shutdown(); err != nil {
			logging.Warn("Failed to stop metrics server: %v", err)
		}
		a.metricsSrv = nil
	}
}

// openJournal returns the run journal, or nil when history is disabled or
// cannot be opened.
func (a *app) openJournal(ctx context.Context) *history.Journal {
	if a.journal != nil || !a.cfg.UseHistory {
		return a.journal
	}
	if err := startup.EnsureCacheDir(a.cfg); err != nil {
		logging.Warn("Run history disabled: %v", err)
		return nil
	}
	j, err := history.Open(ctx, a.cfg.HistoryPath())
	if err != nil {
		logging.Warn("Run history disabled: %v", err)
		return nil
	}
	a.journal = j
	return j
}

// run executes the command tree with args and returns the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := newApp(stdin, stdout, stderr)
	cmd := a.command()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	a.finish()

	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		logging.Warn("%s", exitErr.Msg)
		return exitErr.Code
	}

	_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitFailure
}

// Execute runs the command line against the process arguments and standard
// streams, stopping gracefully on SIGINT or SIGTERM.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}
