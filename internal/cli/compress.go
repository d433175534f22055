package cli

import (
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"image-audit/internal/compress"
	"image-audit/internal/logging"
	"image-audit/internal/magick"
	"image-audit/internal/mediatypes"
	"image-audit/internal/report"
	"image-audit/internal/startup"
)

func (a *app) newCompressCommand() *cobra.Command {
	var (
		f        scanFlags
		quality  int
		pngLevel int
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "compress <dir>",
		Short: "Recompress oversized images in place",
		Long: `Scans the folder, then re-encodes every oversized image. The original is
replaced only when the new file is smaller.`,
		Example: `  image-audit compress ~/Pictures --max-mb 1 --quality 80
  image-audit compress ~/Pictures --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fl := cmd.Flags()
			f.apply(fl, a.cfg)
			if fl.Changed("quality") {
				a.cfg.Quality = quality
			}
			if fl.Changed("level") {
				a.cfg.PNGLevel = pngLevel
			}
			mode, err := mediatypes.ParseGroupMode(f.group)
			if err != nil {
				return err
			}

			started := time.Now()
			scan, err := a.scan(ctx, args[0], mode, f)
			if err != nil {
				return err
			}
			if !f.json {
				a.printer.ScanSummary(scan)
			}

			candidates := scan.Oversized
			tool := magick.New(magick.Options{
				Binary:    a.cfg.MagickPath,
				Timeout:   a.cfg.CommandTimeout,
				MaxOutput: a.cfg.MaxOutputBytes,
			})
			if len(candidates) > 0 && !dryRun && !needsTool(mode, a.cfg) {
				if err := a.checkTool(ctx, tool); err != nil {
					return err
				}
			}

			var result *compress.Result
			switch {
			case len(candidates) == 0:
				result = compress.Canceled(nil, scan.Errors)
			case !f.yes && !dryRun && !a.printer.Confirm(confirmCompress(len(candidates))):
				result = compress.Canceled(candidates, scan.Errors)
			default:
				exec := compress.New(afero.NewOsFs(), tool, compress.Options{
					Quality:  a.cfg.Quality,
					PNGLevel: a.cfg.PNGLevel,
					DryRun:   dryRun,
				})
				result = exec.Run(ctx, candidates, scan.Errors)
			}

			run := newRun("compress", started, scan)
			run.Errors = len(result.Errors)
			if id := a.journalRun(ctx, run); id != "" && a.journal != nil {
				if err := a.journal.RecordCompressions(ctx, id, result); err != nil {
					logging.Warn("Failed to journal compressions: %v", err)
				}
			}

			if f.json {
				if err := report.JSON(a.stdout, result); err != nil {
					return err
				}
			} else {
				a.printer.CompressSummary(result)
				a.offerReport(f, func() { a.printer.CompressReport(result) })
			}

			if err := ctx.Err(); err != nil {
				return err
			}
			if result.HasErrors() {
				return fileErrors(len(result.Errors))
			}
			return nil
		},
	}

	fl := cmd.Flags()
	f.register(fl, true)
	fl.StringVar(&f.group, "group", string(mediatypes.ModeAll), "groupings to compute while scanning")
	fl.BoolVar(&f.report, "report", false, "print the full report without asking")
	fl.BoolVar(&f.json, "json", false, "write the result as JSON")
	fl.IntVar(&quality, "quality", startup.DefaultQuality, "JPEG and WebP quality (1-100)")
	fl.IntVar(&pngLevel, "level", startup.DefaultPNGLevel, "PNG compression level (0-9)")
	fl.BoolVar(&dryRun, "dry-run", false, "list candidates without changing any file")

	return cmd
}

func confirmCompress(n int) string {
	return fmt.Sprintf("Compress/replace %d file(s)?", n)
}
