package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"image-audit/internal/cache"
	"image-audit/internal/grouping"
	"image-audit/internal/history"
	"image-audit/internal/logging"
	"image-audit/internal/magick"
	"image-audit/internal/mediatypes"
	"image-audit/internal/report"
	"image-audit/internal/scanner"
	"image-audit/internal/startup"
)

// scanFlags are shared by scan, compress and move.
type scanFlags struct {
	maxMB      float64
	maxWidth   int
	maxHeight  int
	extensions string
	group      string
	workers    int
	similarity int
	report     bool
	json       bool
	yes        bool
	hidden     bool
}

func (f *scanFlags) register(fs *pflag.FlagSet, limits bool) {
	fs.StringVar(&f.extensions, "extensions", strings.Join(mediatypes.DefaultExtensions, ","), "comma-separated file extensions to scan")
	fs.IntVar(&f.workers, "workers", 0, "concurrent metadata workers (default 6)")
	fs.IntVar(&f.similarity, "similarity", startup.DefaultSimilarityThreshold, "maximum hash distance for similar images")
	fs.BoolVarP(&f.yes, "yes", "y", false, "skip confirmation prompts")
	fs.BoolVar(&f.hidden, "include-hidden", false, "also scan dot-prefixed files and directories")
	if limits {
		fs.Float64Var(&f.maxMB, "max-mb", startup.DefaultMaxMB, "flag files larger than this many MiB")
		fs.IntVar(&f.maxWidth, "max-width", 0, "flag files wider than this many pixels (0 = no limit)")
		fs.IntVar(&f.maxHeight, "max-height", 0, "flag files taller than this many pixels (0 = no limit)")
	}
}

// apply copies explicitly set flags over the loaded configuration.
func (f *scanFlags) apply(fs *pflag.FlagSet, cfg *startup.Config) {
	if fs.Changed("extensions") {
		cfg.Extensions = mediatypes.NormalizeExtensions(strings.Split(f.extensions, ","))
	}
	if fs.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fs.Changed("similarity") {
		cfg.SimilarityThreshold = f.similarity
	}
	if fs.Changed("max-mb") {
		cfg.SetMaxMB(f.maxMB)
	}
	if fs.Changed("max-width") {
		cfg.MaxWidth = f.maxWidth
	}
	if fs.Changed("max-height") {
		cfg.MaxHeight = f.maxHeight
	}
}

func (a *app) newScanCommand() *cobra.Command {
	var f scanFlags

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Report oversized images and groupings",
		Example: `  image-audit scan ~/Pictures
  image-audit scan ~/Pictures --group similiar --max-mb 5
  image-audit scan ~/Pictures --json > audit.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.apply(cmd.Flags(), a.cfg)
			mode, err := mediatypes.ParseGroupMode(f.group)
			if err != nil {
				return err
			}

			started := time.Now()
			result, err := a.scan(cmd.Context(), args[0], mode, f)
			if err != nil {
				return err
			}

			a.journalRun(cmd.Context(), newRun("scan", started, result))

			if f.json {
				if err := report.JSON(a.stdout, result); err != nil {
					return err
				}
			} else {
				a.printer.ScanSummary(result)
				a.offerReport(f, func() { a.printer.ScanReport(result) })
			}

			if result.HasErrors() {
				return fileErrors(len(result.Errors))
			}
			return nil
		},
	}

	fl := cmd.Flags()
	f.register(fl, true)
	fl.StringVar(&f.group, "group", string(mediatypes.ModeAll), "groupings to compute: duplicate-name, day, similiar or all")
	fl.BoolVar(&f.report, "report", false, "print the full report without asking")
	fl.BoolVar(&f.json, "json", false, "write the result as JSON")

	return cmd
}

// scan validates the configuration, checks the image tool when the mode
// needs it, and runs the scanner with the metadata cache.
func (a *app) scan(ctx context.Context, root string, mode mediatypes.GroupMode, f scanFlags) (*mediatypes.ScanResult, error) {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	startup.LogConfig(cfg)

	tool := magick.New(magick.Options{
		Binary:    cfg.MagickPath,
		Timeout:   cfg.CommandTimeout,
		MaxOutput: cfg.MaxOutputBytes,
	})
	if needsTool(mode, cfg) {
		if err := a.checkTool(ctx, tool); err != nil {
			return nil, err
		}
	}

	var store *cache.Store
	if cfg.UseCache {
		if err := startup.EnsureCacheDir(cfg); err != nil {
			logging.Warn("Metadata cache disabled: %v", err)
		} else {
			store = cache.Load(afero.NewOsFs(), cfg.CachePath())
		}
	}

	if !f.json {
		if store != nil && store.LoadErr() != nil {
			a.printer.Notice("Metadata cache partly ignored (%v), affected files will be re-read", store.LoadErr())
		}
		a.printer.Notice("Scanning %s (grouping: %s, extensions: %s)", root, mode, strings.Join(cfg.Extensions, ","))
	}

	s := scanner.New(scanner.Options{
		Root:       root,
		Extensions: cfg.Extensions,
		Mode:       mode,
		Workers:    cfg.Workers,
		Rules: grouping.Rules{
			MaxBytes:            cfg.MaxBytes,
			MaxWidth:            cfg.MaxWidth,
			MaxHeight:           cfg.MaxHeight,
			SimilarityThreshold: cfg.SimilarityThreshold,
		},
		IncludeHidden: f.hidden,
	}, tool, store)

	result, err := s.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return result, nil
}

func needsTool(mode mediatypes.GroupMode, cfg *startup.Config) bool {
	return mode.WantsDays() || mode.WantsSimilar() || cfg.MaxWidth > 0 || cfg.MaxHeight > 0
}

func (a *app) checkTool(ctx context.Context, tool *magick.Tool) error {
	if _, err := tool.Check(ctx); err != nil {
		_, _ = fmt.Fprintln(a.stderr, magick.InstallHint)
		return err
	}
	return nil
}

// offerReport prints the full report when asked for, or after a yes at the
// prompt.
func (a *app) offerReport(f scanFlags, print func()) {
	if f.yes || f.report || a.printer.Confirm("Do you want to generate full report?") {
		print()
	}
}

// newRun describes a finished scan for the journal.
func newRun(command string, started time.Time, result *mediatypes.ScanResult) *history.Run {
	return &history.Run{
		Command:   command,
		Root:      result.Root,
		Mode:      string(result.Mode),
		StartedAt: started,
		Total:     result.Total,
		Oversized: len(result.Oversized),
		Groups:    len(result.Duplicates) + len(result.Days) + len(result.Similar),
		Errors:    len(result.Errors),
	}
}

// journalRun records run and returns its ID, or "" when the journal is
// unavailable. Failures are logged only.
func (a *app) journalRun(ctx context.Context, run *history.Run) string {
	j := a.openJournal(ctx)
	if j == nil {
		return ""
	}

	run.Duration = time.Since(run.StartedAt)
	if err := j.RecordRun(ctx, run); err != nil {
		logging.Warn("Failed to journal run: %v", err)
		return ""
	}
	logging.Debug("Journaled %s run %s", run.Command, run.ID)
	return run.ID
}
