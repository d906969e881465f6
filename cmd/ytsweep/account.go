package main

import (
	"errors"
	"fmt"

	"github.com/pders01/ytsweep/internal/youtube"
	"github.com/spf13/cobra"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authorize ytsweep to manage your comments",
		Long: `Opens the Google consent page in your browser and waits for the
authorization to come back. The token is cached in the database so later
commands can refresh it without asking again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !authConfigured(opts.cfg) {
				return errNoAuthConfig
			}
			rt, err := opts.openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, stop := signalContext(cmd)
			defer stop()
			defer follow(rt.bus, cmd.ErrOrStderr(), opts.quiet)()

			ch, err := rt.engine.Login(ctx)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Signed in as %s (%s)", ch.Title, ch.ID)
			return nil
		},
	}
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget and revoke the cached credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, stop := signalContext(cmd)
			defer stop()

			if err := rt.engine.Logout(ctx); err != nil {
				return fmt.Errorf("signed out locally, but revoking failed: %w", err)
			}
			success(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the channel of the current credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, stop := signalContext(cmd)
			defer stop()

			ch, err := rt.engine.Whoami(ctx)
			if errors.Is(err, youtube.ErrUnauthenticated) {
				return errors.New("not signed in; run ytsweep login")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ch.Title, muted("("+ch.ID+")"))
			return nil
		},
	}
}
