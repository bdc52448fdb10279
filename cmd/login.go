package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the remote calendar account",
		Long: `Sign in to the remote calendar account.

Without flags this opens the provider's consent page in your browser.
After granting access, copy the "code" parameter from the redirect URL
and finish the sign-in with:

  calsync login --code <authorization-code>`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			if code != "" {
				if err := app.auth.CompleteExternalAuth(ctx, code); err != nil {
					return fmt.Errorf("failed to complete sign-in: %w", err)
				}
				fmt.Println("Signed in.")
				return nil
			}

			if app.auth.ReloadToken() {
				fmt.Println("Already signed in.")
				return nil
			}

			ok, err := app.auth.SignIn(ctx)
			if err != nil {
				return fmt.Errorf("sign-in failed: %w", err)
			}
			if ok {
				fmt.Println("Signed in.")
				return nil
			}
			fmt.Println("Waiting for you to finish in the browser; then run: calsync login --code <authorization-code>")
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the browser redirect")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and discard the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			if err := app.auth.SignOut(); err != nil {
				return fmt.Errorf("failed to sign out: %w", err)
			}
			fmt.Println("Signed out.")
			return nil
		},
	}
}
