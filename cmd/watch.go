package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/planwell/calsync/internal/auth"
)

func newWatchCmd() *cobra.Command {
	var (
		interval    string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Periodically resync the catalog and fetch events",
		Long: `Run until interrupted, refreshing the calendar catalog and fetching
events on a schedule. The schedule uses cron syntax, including the
"@every <duration>" shorthand.

With --metrics-addr a Prometheus scrape endpoint is served at /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := newApp(ctx, appOptions{metricsEnabled: metricsAddr != ""})
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			if interval == "" {
				interval = app.cfg.Sync.WatchInterval
			}

			removeListener := app.auth.OnAuthExpired(func(e auth.ExpiredEvent) {
				app.logger.Warn("session expired, run 'calsync login' to continue",
					"message", e.Message)
			})
			defer removeListener()

			runOnce := func() {
				runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
				defer cancel()

				if err := app.catalog.SyncFromRemote(runCtx); err != nil {
					app.logger.Error("catalog resync failed", "error", err)
				}
				if _, err := app.events.FetchEvents(runCtx, "", time.Time{}, time.Time{}); err != nil {
					app.logger.Error("event fetch failed", "error", err)
				}
			}

			scheduler := cron.New()
			if _, err := scheduler.AddFunc(interval, runOnce); err != nil {
				return fmt.Errorf("invalid --interval %q: %w", interval, err)
			}

			var metricsSrv *http.Server
			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", app.instr.Handler())
				metricsSrv = &http.Server{Addr: metricsAddr, Handler: mux}
				go func() {
					if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						app.logger.Error("metrics server failed", "error", err)
					}
				}()
				app.logger.Info("metrics endpoint listening", "addr", metricsAddr)
			}

			runOnce()
			scheduler.Start()
			app.logger.Info("watching", "interval", interval)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig

			stopCtx := scheduler.Stop()
			<-stopCtx.Done()
			if metricsSrv != nil {
				shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
				if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
					app.logger.Error("metrics server shutdown failed", "error", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&interval, "interval", "", "Resync schedule in cron syntax (default: from config, \"@every 5m\")")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address to serve Prometheus metrics on (e.g. :9090)")
	return cmd
}
