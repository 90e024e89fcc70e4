package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ammerola/countsync/internal/offline"
)

const statusInterval = time.Minute

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := shutdownContext(cmd.Context(), a.logger)

			report, err := a.engine.SyncOnce(ctx)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(a.out, report)
			}
			fmt.Fprintln(a.out, describeReport(report))
			return nil
		},
	}
}

func describeReport(report offline.SyncReport) string {
	if report.Skipped == offline.SkipInProgress {
		return "another countsync is syncing this queue; try again later"
	}
	return report.String()
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Stay in the foreground and sync whenever the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := shutdownContext(cmd.Context(), a.logger)

			a.logger.InfoContext(ctx, "countsync running",
				slog.String("api_url", a.cfg.APIURL),
				slog.String("device_id", a.cfg.DeviceID),
				slog.String("db", a.cfg.DBPath))

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return a.engine.Run(gctx)
			})
			g.Go(func() error {
				a.reportStatus(gctx)
				return nil
			})

			if err := g.Wait(); err != nil {
				return err
			}
			a.logger.Info("countsync stopped")
			return nil
		},
	}
}

// reportStatus logs the queue size periodically until ctx is done
func (a *app) reportStatus(ctx context.Context) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := a.engine.Queue.Stats(ctx)
			if err != nil {
				a.logger.ErrorContext(ctx, "failed to read queue stats", slog.String("error", err.Error()))
				continue
			}
			a.logger.InfoContext(ctx, "queue status",
				slog.Int("queued", stats.Total),
				slog.Int("retrying", stats.Retrying),
				slog.Int("dead_letters", stats.DeadLettered),
				slog.Bool("online", a.engine.Monitor.Online()))
		}
	}
}
