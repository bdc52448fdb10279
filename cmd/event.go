package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planwell/calsync/internal/events"
)

func newEventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Create, update, and delete events",
	}

	cmd.AddCommand(newEventCreateCmd())
	cmd.AddCommand(newEventUpdateCmd())
	cmd.AddCommand(newEventDeleteCmd())
	cmd.AddCommand(newEventPushCmd())
	return cmd
}

// eventFlags binds the shared event field flags and reports which optional
// ones were explicitly set.
type eventFlags struct {
	title       string
	description string
	start       string
	end         string
	location    string
	allDay      bool
}

func (f *eventFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Event title")
	cmd.Flags().StringVar(&f.description, "description", "", "Event description")
	cmd.Flags().StringVar(&f.start, "start", "", "Start time, local-naive (2006-01-02T15:04:05)")
	cmd.Flags().StringVar(&f.end, "end", "", "End time, local-naive")
	cmd.Flags().StringVar(&f.location, "location", "", "Event location")
	cmd.Flags().BoolVar(&f.allDay, "all-day", false, "Mark the event as all-day")
}

func (f *eventFlags) input(cmd *cobra.Command) events.EventInput {
	in := events.EventInput{
		Title:       f.title,
		Description: f.description,
		StartTime:   f.start,
		EndTime:     f.end,
	}
	// Only explicitly set flags make it into the payload, so updates do
	// not overwrite remote values with defaults.
	if cmd.Flags().Changed("location") {
		in.Location = &f.location
	}
	if cmd.Flags().Changed("all-day") {
		in.IsAllDay = &f.allDay
	}
	return in
}

func newEventCreateCmd() *cobra.Command {
	var flags eventFlags
	var calendarID string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			id, err := app.events.CreateEvent(ctx, calendarID, flags.input(cmd))
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&calendarID, "calendar", "", "Target calendar id (default: the account default calendar)")
	return cmd
}

func newEventUpdateCmd() *cobra.Command {
	var flags eventFlags

	cmd := &cobra.Command{
		Use:   "update <event-id>",
		Short: "Update an event",
		Long: `Update an event. Only explicitly given flags are sent; start and end
must be given together or not at all.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			if err := app.events.UpdateEvent(ctx, args[0], flags.input(cmd)); err != nil {
				return err
			}
			fmt.Println("Updated.")
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newEventDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <event-id>",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			if err := app.events.DeleteEvent(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted.")
			return nil
		},
	}
}

func newEventPushCmd() *cobra.Command {
	var flags eventFlags
	var calendarID string

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Create an event in the selected default calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			id, err := app.events.SyncEventToCalendar(ctx, calendarID, flags.input(cmd))
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&calendarID, "calendar", "", "Target calendar id (default: the selected calendar)")
	return cmd
}
