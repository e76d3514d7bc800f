package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dailycast/internal/daemon"
)

func newServeCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ingest scheduler and feed server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			application, err := buildApp(cfg)
			if err != nil {
				return err
			}

			d, err := daemon.New(daemon.Options{
				Config:    cfg,
				Logger:    application.logger,
				Runner:    application.runner,
				Store:     application.store,
				Assembler: application.assembler,
				Journal:   application.journal,
				Shutdown:  application.close,
			})
			if err != nil {
				application.close()
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := d.Start(ctx); err != nil {
				application.close()
				return fmt.Errorf("start daemon: %w", err)
			}

			<-ctx.Done()
			d.Stop()
			return nil
		},
	}
}
