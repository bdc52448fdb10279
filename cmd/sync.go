package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/planwell/calsync/internal/auth"
)

const timeFlagLayout = "2006-01-02T15:04:05"

func newSyncCmd() *cobra.Command {
	var (
		calendarID string
		startFlag  string
		endFlag    string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch events from the remote account",
		Long: `Fetch events from the remote account and print them as JSON.

Without --start/--end the window is derived from the configured
ongoing-days setting. Timestamps are local-naive (UTC+8), e.g.
2025-06-01T09:00:00.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			var start, end time.Time
			if (startFlag == "") != (endFlag == "") {
				return fmt.Errorf("--start and --end must be given together")
			}
			if startFlag != "" {
				if start, err = time.Parse(timeFlagLayout, startFlag); err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
				if end, err = time.Parse(timeFlagLayout, endFlag); err != nil {
					return fmt.Errorf("invalid --end: %w", err)
				}
			}

			fetched, err := app.events.FetchEvents(ctx, calendarID, start, end)
			if err != nil {
				return err
			}

			if app.auth.Mode() == auth.ModeSimulated {
				fmt.Fprintln(os.Stderr, "warning: remote unreachable, results are degraded")
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(fetched)
		},
	}

	cmd.Flags().StringVar(&calendarID, "calendar", "", "Calendar id to fetch from (default: the whole account)")
	cmd.Flags().StringVar(&startFlag, "start", "", "Window start, local-naive (2006-01-02T15:04:05)")
	cmd.Flags().StringVar(&endFlag, "end", "", "Window end, local-naive")
	return cmd
}
