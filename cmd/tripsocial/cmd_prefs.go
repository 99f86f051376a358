package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tripsocial/internal/config"
	"tripsocial/internal/database"
	"tripsocial/internal/prefs"
)

func newPrefsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Read or change the theme and language preferences",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:       "get [theme|language]",
			Short:     "Print one preference, or both",
			Args:      cobra.MaximumNArgs(1),
			ValidArgs: []string{prefs.KeyTheme, prefs.KeyLanguage},
			RunE: func(cmd *cobra.Command, args []string) error {
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					v, err := a.rt.Prefs.Get(args[0])
					if err != nil {
						return err
					}
					fmt.Fprintln(out, v)
					return nil
				}
				p := a.rt.Prefs.Current()
				fmt.Fprintf(out, "%s=%s\n%s=%s\n", prefs.KeyTheme, p.Theme, prefs.KeyLanguage, p.Language)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <theme|language> <value>",
			Short: "Validate and persist one preference",
			Long: fmt.Sprintf(`Validate and persist one preference.

Themes: %s
Languages: %s`, strings.Join(prefs.Themes, ", "), strings.Join(prefs.Languages, ", ")),
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.rt.Prefs.Set(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				v, _ := a.rt.Prefs.Get(args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", args[0], v)
				return nil
			},
		},
		&cobra.Command{
			Use:       "reset <theme|language>",
			Short:     "Forget one stored preference and fall back to its default",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{prefs.KeyTheme, prefs.KeyLanguage},
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.rt.Prefs.Reset(cmd.Context(), args[0]); err != nil {
					return err
				}
				v, _ := a.rt.Prefs.Get(args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", args[0], v)
				return nil
			},
		},
	)
	return cmd
}

func newDBCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect the SQLite preference schema",
		Long:  "Schema operations for the sqlite preference backend. Use with --prefs-backend=sqlite.",
	}

	requireDB := func() error {
		if a.rt.DB() == nil {
			return errors.New("db commands need PREFS_BACKEND=" + config.PrefsBackendSQLite)
		}
		return nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "List applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := requireDB(); err != nil {
					return err
				}
				status, err := database.GetSchemaStatus(cmd.Context(), a.rt.DB(), a.cfg.Env)
				if err != nil {
					return fmt.Errorf("schema status failed: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "env=%s run_auto=%t applied=%d pending=%d\n", status.Environment,
					status.WillRunAutoMigrate, len(status.AppliedVersions), len(status.PendingMigrations))
				for _, m := range status.PendingMigrations {
					fmt.Fprintf(out, "pending: %s\n", m.String())
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "down <version>",
			Short: "Roll back one applied migration",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := requireDB(); err != nil {
					return err
				}
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				if err := database.RollbackMigration(cmd.Context(), a.rt.DB(), version); err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back migration %d\n", version)
				return nil
			},
		},
	)
	return cmd
}
