package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"dailycast/internal/journal"
	"dailycast/internal/logging"
	"dailycast/internal/store"
)

func newStatusCommand(cmdCtx *commandContext) *cobra.Command {
	var runLimit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-locale catalog state and recent ingest runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			st := store.New(cfg.Paths.DataDir, logging.NewNop())

			localeRows := make([][]string, 0, len(cfg.Locales))
			for _, locale := range cfg.Locales {
				ids, err := st.ReadIndex(locale)
				if err != nil {
					return fmt.Errorf("read index for %s: %w", locale, err)
				}
				updated := "never"
				if modTime, err := st.IndexLastModified(locale); err == nil {
					updated = modTime.Local().Format("2006-01-02 15:04")
				}
				localeRows = append(localeRows, []string{locale, strconv.Itoa(len(ids)), updated})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Locale", "Items", "Last Updated"},
				localeRows,
				[]columnAlignment{alignLeft, alignRight, alignLeft}))

			jrnl, err := journal.Open(filepath.Join(cfg.Paths.LogDir, "journal.db"))
			if err != nil {
				return fmt.Errorf("open run journal: %w", err)
			}
			defer jrnl.Close()

			runs, err := jrnl.Recent(cmd.Context(), runLimit)
			if err != nil {
				return fmt.Errorf("read recent runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No ingest runs recorded yet.")
				return nil
			}

			runRows := make([][]string, 0, len(runs))
			for _, run := range runs {
				duration := ""
				if !run.FinishedAt.IsZero() {
					duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
				}
				runRows = append(runRows, []string{
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					run.Locale,
					run.Outcome,
					run.ItemID,
					duration,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Locale", "Outcome", "Item", "Duration"},
				runRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().IntVar(&runLimit, "runs", 20, "How many recent runs to show")
	return cmd
}
