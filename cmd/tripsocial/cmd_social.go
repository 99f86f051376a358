package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tripsocial/internal/display"
)

func newFeedCmd(a *app) *cobra.Command {
	var saved bool
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the home feed of the acting user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			viewer := a.cfg.CurrentUserID
			posts := a.rt.Posts.Feed(viewer)
			if saved {
				posts = a.rt.Posts.SavedPosts(viewer)
			}
			if len(posts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No posts yet.")
				return nil
			}

			now := time.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, p := range posts {
				likes := display.FormatCount(p.Likes) + " likes"
				if p.HideLikes && p.UserID != viewer {
					likes = "-"
				}
				marker := " "
				if p.Liked {
					marker = "♥"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					marker, a.username(p.UserID), display.FormatTimeAgo(p.CreatedAt, now),
					likes, display.FormatCount(p.Comments)+" comments", p.Caption)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&saved, "saved", false, "show bookmarked posts instead")
	return cmd
}

func newStoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stories",
		Short: "Drop expired stories and list the active ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			now := time.Now()
			if n := a.rt.Stories.PruneExpired(cmd.Context(), now); n > 0 {
				fmt.Fprintf(out, "pruned %d expired\n", n)
			}
			for _, st := range a.rt.Stories.ActiveStories(now) {
				seen := ""
				if st.Seen {
					seen = "  seen"
				}
				fmt.Fprintf(out, "%s  %s  %d images  %s%s\n", st.ID, a.username(st.UserID),
					len(st.Images), display.FormatTimeAgo(st.CreatedAt, now), seen)
			}
			return nil
		},
	}
}

func newNotificationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"activity"},
		Short:   "List grouped notifications of the acting user",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			now := time.Now()
			groups := a.rt.Notifications.Grouped()
			for _, g := range groups {
				marker := "•"
				if g.Read {
					marker = " "
				}
				fmt.Fprintf(out, "%s %s  %s\n", marker, a.rt.Notifications.Text(g),
					display.FormatTimeAgo(g.Notification.CreatedAt, now))
			}
			fmt.Fprintf(out, "%d unread\n", a.rt.Notifications.UnreadCount())
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "read",
		Short: "Mark every notification as read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n := a.rt.Notifications.MarkAllAsRead(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "marked %d notifications as read\n", n)
			return nil
		},
	})
	return cmd
}

func newSeedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the seed snapshot and report what it contains",
		Long: `Load the embedded seed snapshot, plus generated users and posts when
--fake-users or --fake-posts is set, and print the row counts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.rt.Seeded
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "users\t%d\n", s.Users)
			fmt.Fprintf(w, "posts\t%d\n", s.Posts)
			fmt.Fprintf(w, "comments\t%d\n", s.Comments)
			fmt.Fprintf(w, "likes\t%d\n", s.Likes)
			fmt.Fprintf(w, "stories\t%d\n", s.Stories)
			fmt.Fprintf(w, "conversations\t%d\n", s.Conversations)
			fmt.Fprintf(w, "messages\t%d\n", s.Messages)
			fmt.Fprintf(w, "notifications\t%d\n", s.Notifications)
			return w.Flush()
		},
	}

	// Flags are parsed before the root pre-run builds the runtime.
	cmd.Flags().IntVar(&a.fakeUsers, "fake-users", 0, "generated users added after the snapshot")
	cmd.Flags().IntVar(&a.fakePosts, "fake-posts", 0, "generated posts added after the snapshot")
	cmd.Flags().Int64Var(&a.opts.FakeSeed, "fake-seed", 0, "seed for generated data, 0 picks one at random")
	return cmd
}
