package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dailycast/internal/pipeline"
)

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run [locale]",
		Short: "Ingest today's item once, for one locale or all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 && !cfg.HasLocale(args[0]) {
				return fmt.Errorf("locale %q is not configured", args[0])
			}

			application, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer application.close()

			var results []pipeline.Result
			if len(args) == 1 {
				results = []pipeline.Result{application.runner.RunLocale(cmd.Context(), args[0])}
			} else {
				results = application.runner.RunAll(cmd.Context())
			}

			out := cmd.OutOrStdout()
			failures := 0
			for _, result := range results {
				switch result.Outcome {
				case pipeline.OutcomeIngested:
					fmt.Fprintf(out, "%s: ingested %q (%s)\n", result.Locale, result.Title, result.ItemID)
				case pipeline.OutcomeSkipped:
					fmt.Fprintf(out, "%s: already up to date (%s)\n", result.Locale, result.ItemID)
				case pipeline.OutcomeFailed:
					failures++
					fmt.Fprintf(out, "%s: failed: %v\n", result.Locale, result.Err)
				}
			}
			if failures > 0 {
				return fmt.Errorf("%d of %d locales failed", failures, len(results))
			}
			return nil
		},
	}
}
