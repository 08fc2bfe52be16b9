package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sadopc/floe/internal/identity"
)

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Sign in with a one-time link",
	Long: `Send a one-time login link to email. Finish signing in by opening the
link while floe serve is running, or by passing its code to login --code.`,
	Args: cobra.MaximumNArgs(1),
	RunE: withEnv(runLogin),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved session",
	Args:  cobra.NoArgs,
	RunE:  withEnv(runLogout),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  withEnv(runWhoami),
}

func init() {
	loginCmd.Flags().String("code", "", "Exchange a login code for a session")
}

func runLogin(cmd *cobra.Command, args []string, e *env) error {
	ctx := cmd.Context()
	svc := e.identity()
	out := cmd.OutOrStdout()

	if code, _ := cmd.Flags().GetString("code"); code != "" {
		sess, err := svc.Exchange(ctx, code)
		if err != nil {
			return err
		}
		if err := e.tokens.Save(sess.Token); err != nil {
			return err
		}
		u, err := svc.Current(ctx, sess.Token)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Signed in as %s\n", color.GreenString(u.Email))
		return nil
	}

	if len(args) == 0 {
		return errors.New("login needs an email address or --code")
	}
	link, err := svc.SignIn(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Login link for %s:\n  %s\n", args[0], color.CyanString(link))
	fmt.Fprintln(out, "It expires in", identity.CodeTTL)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string, e *env) error {
	token, err := e.tokens.Load()
	if err != nil {
		return err
	}
	err = e.identity().SignOut(cmd.Context(), token)
	if err != nil && !errors.Is(err, identity.ErrNotSignedIn) {
		return err
	}
	if err := e.tokens.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string, e *env) error {
	token, err := e.tokens.Load()
	if err != nil {
		return err
	}
	u, err := e.identity().Current(cmd.Context(), token)
	if errors.Is(err, identity.ErrNotSignedIn) {
		fmt.Fprintf(cmd.OutOrStdout(), "Not signed in (using %s)\n", LocalEmail)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), u.Email)
	return nil
}
