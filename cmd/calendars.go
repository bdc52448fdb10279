package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCalendarsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendars",
		Short: "Show and manage the calendar catalog",
	}

	cmd.AddCommand(newCalendarsListCmd())
	cmd.AddCommand(newCalendarsSelectCmd())
	cmd.AddCommand(newCalendarsCreateGroupCmd())
	cmd.AddCommand(newCalendarsCreateCmd())
	cmd.AddCommand(newCalendarsDeleteGroupCmd())
	cmd.AddCommand(newCalendarsClearCacheCmd())
	return cmd
}

func newCalendarsListCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List calendar groups and calendars",
		Long: `List calendar groups and calendars.

The catalog is served from the local cache once populated; use --refresh
to force a resync from the remote account.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			groups, calendars, err := app.catalog.GetAll(ctx, refresh)
			if err != nil {
				return fmt.Errorf("failed to load catalog: %w", err)
			}

			selected, _ := app.catalog.SelectedCalendarID()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tID\tNAME\t")
			for _, g := range groups {
				fmt.Fprintf(w, "group\t%s\t%s\t\n", g.ID, g.Name)
			}
			for _, c := range calendars {
				marker := ""
				if c.ID == selected {
					marker = "(selected)"
				}
				fmt.Fprintf(w, "calendar\t%s\t%s\t%s\n", c.ID, c.Name, marker)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if meta := app.catalog.Meta(); meta != nil && meta.IsOfflineMode {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: catalog may be stale (last sync failed)")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Force a resync from the remote account")
	return cmd
}

func newCalendarsSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <calendar-id>",
		Short: "Choose the default calendar for pushed events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			if err := app.catalog.SetSelectedCalendarID(args[0]); err != nil {
				return err
			}
			fmt.Printf("Selected calendar %s\n", args[0])
			return nil
		},
	}
}

func newCalendarsCreateGroupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-group <name>",
		Short: "Create a calendar group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			group, err := app.catalog.CreateGroup(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to create group: %w", err)
			}
			fmt.Printf("Created group %s (%s)\n", group.Name, group.ID)
			return nil
		},
	}
}

func newCalendarsCreateCmd() *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "create <group-id> <name>",
		Short: "Create a calendar inside a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			cal, err := app.catalog.CreateCalendarInGroup(ctx, args[0], args[1], color)
			if err != nil {
				return fmt.Errorf("failed to create calendar: %w", err)
			}
			fmt.Printf("Created calendar %s (%s)\n", cal.Name, cal.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "Calendar color (provider color name)")
	return cmd
}

func newCalendarsDeleteGroupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-group <group-id>",
		Short: "Delete a calendar group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			if err := app.catalog.DeleteGroup(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete group: %w", err)
			}
			fmt.Printf("Deleted group %s\n", args[0])
			return nil
		},
	}
}

func newCalendarsClearCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Drop the locally cached catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			if err := app.catalog.ClearCache(); err != nil {
				return err
			}
			fmt.Println("Catalog cache cleared.")
			return nil
		},
	}
}
