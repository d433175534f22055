package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"image-audit/internal/history"
	"image-audit/internal/report"
	"image-audit/internal/startup"
)

func (a *app) newHistoryCommand() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recent runs, or show the files one run moved or compressed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			path := a.cfg.HistoryPath()
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				if asJSON {
					return report.JSON(a.stdout, []history.Run{})
				}
				a.printer.History(nil)
				return nil
			}

			j, err := history.Open(ctx, path)
			if err != nil {
				return err
			}
			a.journal = j

			if len(args) == 0 {
				runs, err := j.Recent(ctx, limit)
				if err != nil {
					return err
				}
				if asJSON {
					return report.JSON(a.stdout, runs)
				}
				a.printer.History(runs)
				return nil
			}

			run, err := j.Get(ctx, args[0])
			if err != nil {
				return err
			}
			moves, err := j.Moves(ctx, run.ID)
			if err != nil {
				return err
			}
			comps, err := j.Compressions(ctx, run.ID)
			if err != nil {
				return err
			}

			if asJSON {
				return report.JSON(a.stdout, struct {
					*history.Run
					Moves        any `json:"moves"`
					Compressions any `json:"compressions"`
				}{run, moves, comps})
			}
			a.printer.RunDetail(run, moves, comps)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write as JSON")

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// no configuration is needed to print the version
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := startup.GetBuildInfo()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "image-audit %s (commit %s, built %s, %s %s/%s)\n",
				info.Version, info.Commit, info.BuildTime, info.GoVersion, info.OS, info.Arch)
			return err
		},
	}
}
