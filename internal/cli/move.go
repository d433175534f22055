package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"image-audit/internal/logging"
	"image-audit/internal/mediatypes"
	"image-audit/internal/organize"
	"image-audit/internal/report"
)

func (a *app) newMoveCommand() *cobra.Command {
	var f scanFlags

	cmd := &cobra.Command{
		Use:   "move <dir>",
		Short: "Back up the folder, then move grouped files into per-group folders",
		Long: `Scans the folder with one grouping and moves every grouped file into a
folder under the scanned root:

  duplicate-name  _duplicates_/<name>/<stem>_<n><ext>
  day             _days_/<YYYY-MM-DD>/<name>
  similiar        _similiars_/<group-N>/<stem>__<n><ext>

A full copy of the folder is written to <dir>_backup first. The move is
aborted when the backup cannot be made or already exists.`,
		Example: `  image-audit move ~/Pictures --group day`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f.apply(cmd.Flags(), a.cfg)
			mode, err := mediatypes.ParseGroupMode(f.group)
			if err != nil {
				return err
			}
			if !mode.Movable() {
				return fmt.Errorf("--group must be duplicate-name, day or similiar, got %q", f.group)
			}

			started := time.Now()
			scan, err := a.scan(ctx, args[0], mode, f)
			if err != nil {
				return err
			}
			if !f.json {
				a.printer.ScanSummary(scan)
			}

			groups := scan.Groups(mode)
			files := 0
			for _, g := range groups {
				files += len(g.Paths)
			}
			if files == 0 {
				a.printer.Notice("Nothing to move")
				return a.finishMove(scan, nil)
			}

			if !f.yes && !a.printer.Confirm(fmt.Sprintf("Move %d file(s) in %d group(s) into %s?", files, len(groups), groupDir(scan.Root, mode))) {
				a.printer.Notice("Move canceled")
				return a.finishMove(scan, nil)
			}

			fs := afero.NewOsFs()
			backup, err := organize.Backup(fs, scan.Root)
			if err != nil {
				a.printer.Failure("Backup failed:", err)
				a.printer.Notice("Aborting arrangement to protect your files.")
				return err
			}
			a.printer.Notice("Backup written to %s", backup)

			result, err := organize.Move(fs, scan.Root, mode, groups)
			if err != nil {
				return err
			}

			run := newRun("move", started, scan)
			run.Errors = len(scan.Errors) + len(result.Failed)
			if id := a.journalRun(ctx, run); id != "" && a.journal != nil {
				if err := a.journal.RecordMoves(ctx, id, result); err != nil {
					logging.Warn("Failed to journal moves: %v", err)
				}
			}

			if f.json {
				if err := report.JSON(a.stdout, result); err != nil {
					return err
				}
			} else {
				a.printer.MoveSummary(result)
				a.offerReport(f, func() { a.printer.MoveReport(result) })
			}

			return a.finishMove(scan, result)
		},
	}

	fl := cmd.Flags()
	f.register(fl, false)
	fl.StringVar(&f.group, "group", "", "grouping to move by: duplicate-name, day or similiar (required)")
	fl.BoolVar(&f.json, "json", false, "write the move result as JSON")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}

func (a *app) finishMove(scan *mediatypes.ScanResult, result *organize.MoveResult) error {
	n := len(scan.Errors)
	if result != nil {
		n += len(result.Failed)
	}
	if n > 0 {
		return fileErrors(n)
	}
	return nil
}

// groupDir is the folder a mode moves files into.
func groupDir(root string, mode mediatypes.GroupMode) string {
	switch mode {
	case mediatypes.ModeDuplicateName:
		return filepath.Join(root, organize.DuplicatesDir)
	case mediatypes.ModeDay:
		return filepath.Join(root, organize.DaysDir)
	default:
		return filepath.Join(root, organize.SimilarDir)
	}
}
