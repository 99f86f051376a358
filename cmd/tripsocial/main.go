// Command tripsocial exercises the social data layer from a terminal: it builds the
// seeded runtime and runs one operation against it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tripsocial/internal/bootstrap"
	"tripsocial/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, config.LoadConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes one command line and releases the runtime afterwards, including when
// the command failed.
func run(ctx context.Context, args []string, out io.Writer, loadConfig func() (*config.Config, error)) error {
	a := &app{loadConfig: loadConfig}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)

	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.close(context.WithoutCancel(ctx)))
}

// app carries the state shared by every subcommand of one invocation.
type app struct {
	loadConfig func() (*config.Config, error)
	opts       bootstrap.Options

	backend   string
	userID    string
	noSeed    bool
	fakeUsers int
	fakePosts int

	cfg *config.Config
	rt  *bootstrap.Runtime
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tripsocial",
		Short: "Poke the tripsocial data layer",
		Long: `tripsocial loads the seeded social data layer in memory and runs one command
against it: read the feed, list notifications, chat with the simulated counterparty,
or read and change the persisted theme and language preferences.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.start,
	}

	root.PersistentFlags().StringVar(&a.backend, "prefs-backend", "", "preference store: memory, redis or sqlite (overrides PREFS_BACKEND)")
	root.PersistentFlags().StringVar(&a.userID, "user", "", "acting user id (overrides CURRENT_USER_ID)")
	root.PersistentFlags().BoolVar(&a.noSeed, "no-seed", false, "start with empty repositories")

	root.AddCommand(
		newFeedCmd(a),
		newStoriesCmd(a),
		newNotificationsCmd(a),
		newChatCmd(a),
		newPrefsCmd(a),
		newSeedCmd(a),
		newDBCmd(a),
		newWatchCmd(a),
	)
	return root
}

func (a *app) start(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.backend != "" {
		cfg.PrefsBackend = a.backend
	}
	if a.userID != "" {
		cfg.CurrentUserID = a.userID
	}
	if a.fakeUsers > 0 {
		cfg.SeedFakeUsers = a.fakeUsers
	}
	if a.fakePosts > 0 {
		cfg.SeedFakePosts = a.fakePosts
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.opts.SkipSeed = a.noSeed
	rt, err := bootstrap.InitRuntime(cmd.Context(), cfg, a.opts)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.rt = rt
	return nil
}

func (a *app) close(ctx context.Context) error {
	if a.rt == nil {
		return nil
	}
	err := a.rt.Close(ctx)
	a.rt = nil
	return err
}

// username returns @username for id, or the id itself when the user is unknown.
func (a *app) username(id string) string {
	if u, ok := a.rt.Users.GetUser(id); ok {
		return "@" + u.Username
	}
	return id
}
