package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tripsocial/internal/display"
	"tripsocial/internal/models"
	"tripsocial/internal/notifications"
)

func newChatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "List conversations of the acting user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			now := time.Now()
			for _, c := range a.rt.Chat.Conversations() {
				preview := ""
				at := c.CreatedAt
				if c.LastMessage != nil {
					preview = c.LastMessage.Payload.Preview()
					at = c.LastMessage.CreatedAt
				}
				fmt.Fprintf(out, "%s  %s  (%d unread, %s)  %s\n", c.ID,
					a.username(c.Counterpart(a.cfg.CurrentUserID)), c.UnreadCount,
					display.FormatTimeAgo(at, now), preview)
			}
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <conversation-id>",
			Short: "Print the messages of a conversation and mark it read",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, ok := a.rt.Chat.GetConversation(args[0]); !ok {
					return fmt.Errorf("conversation %q not found", args[0])
				}
				printMessages(cmd.OutOrStdout(), a, a.rt.Chat.Messages(args[0]))
				a.rt.Chat.MarkAsRead(cmd.Context(), args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "new <user-id>",
			Short: "Open a direct conversation, reusing an existing one",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				conv, err := a.rt.Chat.CreateConversation(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), conv.ID)
				return nil
			},
		},
		newChatSendCmd(a),
	)
	return cmd
}

func newChatSendCmd(a *app) *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "send <conversation-id> <text>...",
		Short: "Send a text message and optionally wait for the simulated reply",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			convID := args[0]

			var events <-chan notifications.Event
			if wait > 0 {
				sub, err := a.rt.Hub.Subscribe(a.cfg.CurrentUserID)
				if err != nil {
					return err
				}
				defer a.rt.Hub.Unsubscribe(sub)
				events = sub.Events()
			}

			msg, err := a.rt.Chat.SendMessage(ctx, convID, models.TextPayload{Text: strings.Join(args[1:], " ")})
			if err != nil {
				return err
			}
			if msg == nil {
				return fmt.Errorf("conversation %q not found", convID)
			}
			printMessages(out, a, []models.Message{*msg})

			if wait <= 0 {
				return nil
			}
			timeout := time.NewTimer(wait)
			defer timeout.Stop()
			for {
				select {
				case e, ok := <-events:
					if !ok {
						return nil
					}
					if e.Type != notifications.EventMessageReceived {
						continue
					}
					msgs := a.rt.Chat.Messages(convID)
					if len(msgs) > 0 {
						printMessages(out, a, msgs[len(msgs)-1:])
					}
					a.rt.Chat.MarkAsRead(ctx, convID)
					return nil
				case <-timeout.C:
					fmt.Fprintln(out, "no reply yet")
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 0, "how long to wait for a reply, 0 returns immediately")
	return cmd
}

func printMessages(out io.Writer, a *app, msgs []models.Message) {
	for _, m := range msgs {
		line := m.Payload.Preview()
		if m.Reaction != "" {
			line += "  " + m.Reaction
		}
		fmt.Fprintf(out, "%s  %s: %s\n", m.CreatedAt.Format("15:04"), a.username(m.SenderID), line)
	}
}
