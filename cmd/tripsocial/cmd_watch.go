package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tripsocial/internal/config"
	"tripsocial/internal/notifications"
)

func newWatchCmd(a *app) *cobra.Command {
	var limit time.Duration
	cmd := &cobra.Command{
		Use:   "watch [user-id]",
		Short: "Print change events relayed through Redis by other processes",
		Long: `Subscribe to the Redis event channels and print every change event published
for the user (the acting user by default). Needs --prefs-backend=redis.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.rt.Redis() == nil {
				return errors.New("watch needs PREFS_BACKEND=" + config.PrefsBackendRedis)
			}
			userID := a.cfg.CurrentUserID
			if len(args) == 1 {
				userID = args[0]
			}

			ctx := cmd.Context()
			if limit > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, limit)
				defer cancel()
			}

			// A listen-only hub; the runtime hub already relays this process's own events.
			hub := notifications.NewHub(a.cfg.EventBufferSize, nil)
			defer func() { _ = hub.Shutdown(context.WithoutCancel(ctx)) }()
			if err := hub.StartWiring(ctx, notifications.NewNotifier(a.rt.Redis())); err != nil {
				return err
			}
			sub, err := hub.Subscribe(userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for {
				select {
				case e, ok := <-sub.Events():
					if !ok {
						return nil
					}
					payload, _ := json.Marshal(e.Payload)
					fmt.Fprintf(out, "%s  %s  %s\n", e.At.Format(time.TimeOnly), e.Type, payload)
				case <-ctx.Done():
					if errors.Is(ctx.Err(), context.DeadlineExceeded) {
						return nil
					}
					return ctx.Err()
				}
			}
		},
	}
	cmd.Flags().DurationVar(&limit, "for", 0, "stop after this long, 0 runs until interrupted")
	return cmd
}
