// Package commands is the floe command line. With no subcommand it opens the
// terminal UI.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/floe/internal/config"
	"github.com/sadopc/floe/internal/identity"
	"github.com/sadopc/floe/internal/store"
	"github.com/sadopc/floe/internal/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// LocalEmail owns the data of an install nobody has signed in to.
const LocalEmail = "me@localhost"

var rootCmd = &cobra.Command{
	Use:   "floe",
	Short: "Tasks and deep work in the terminal",
	Long: `floe keeps your tasks in Inbox, Today, Upcoming and project views and
times focused work against them. Run it with no arguments for the full UI.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         withEnv(runTUI),
}

// env is what every command runs against.
type env struct {
	cfg    *config.Config
	store  *store.Store
	tokens identity.TokenFile
}

func openEnv() (*env, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, fmt.Errorf("config dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	s, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &env{cfg: cfg, store: s, tokens: identity.TokenFile{Path: cfg.SessionPath()}}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

func (e *env) identity() *identity.Service {
	return identity.NewService(e.store, identity.LogMailer{}, e.cfg.BaseURL)
}

// user returns the signed-in user. Without a live session the data belongs
// to the local user.
func (e *env) user(ctx context.Context) (*store.User, error) {
	token, err := e.tokens.Load()
	if err != nil {
		return nil, err
	}
	if token != "" {
		u, err := e.identity().Current(ctx, token)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, identity.ErrNotSignedIn) {
			return nil, err
		}
	}
	return e.store.UpsertUser(ctx, LocalEmail)
}

// withEnv opens the config and database before fn and closes them after.
func withEnv(fn func(*cobra.Command, []string, *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		return fn(cmd, args, e)
	}
}

func runTUI(cmd *cobra.Command, _ []string, e *env) error {
	f, err := tea.LogToFile(e.cfg.LogFile, "floe")
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	u, err := e.user(cmd.Context())
	if err != nil {
		return err
	}

	app := tui.NewApp(e.store, *u)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && cmd.Context().Err() != nil {
		return nil
	}
	return err
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command. SIGINT and SIGTERM cancel its context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(focusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
}
