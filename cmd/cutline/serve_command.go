package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cutline/internal/api"
	"cutline/internal/logging"
	"cutline/internal/staging"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the export engine over the local HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if b := strings.TrimSpace(bind); b != "" {
				cfg.API.Bind = b
			}
			logger := ctx.loggerValue()

			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if n, err := store.MarkInterrupted(runCtx); err != nil {
				logging.WarnWithContext(logger, "mark interrupted exports failed", "history_recovery_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "stale exports stay marked running"),
				)
			} else if n > 0 {
				logger.Info("marked interrupted exports failed", logging.Int64("count", n))
			}
			staging.CleanStale(runCtx, cfg.Paths.TempDir, time.Duration(cfg.Export.StaleWorkspaceHours)*time.Hour, logger)
			logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
				logging.RetentionTarget{Dir: filepath.Join(cfg.Paths.LogDir, "exports"), Pattern: "*.log"},
			)

			exporter, err := ctx.exporter()
			if err != nil {
				return err
			}
			renderer, err := ctx.renderer()
			if err != nil {
				return err
			}
			server := api.NewServer(api.ServerConfig{
				Config:    cfg,
				Exporter:  exporter,
				Renderer:  renderer,
				Importer:  ctx.importer(),
				Devices:   ctx.devices(),
				Store:     store,
				Logger:    logger,
				StartTime: time.Now(),
			})

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-runCtx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("http shutdown", logging.Error(err))
			}
			for _, progress := range exporter.Active() {
				_ = exporter.Cancel(progress.ExportID)
			}
			if err := exporter.Wait(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to api.bind)")
	return cmd
}
