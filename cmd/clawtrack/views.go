package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/divijg19/clawtrack/internal/analytics"
	"github.com/divijg19/clawtrack/internal/core"
)

const defaultTermWidth = 120

func termWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultTermWidth
}

func addViewCommands(root *cobra.Command) {
	root.AddCommand(newBoardCmd(), newDashboardCmd(), newFeedCmd(), newLeaderboardCmd(), newStaleCmd())
}

func newBoardCmd() *cobra.Command {
	var (
		filter    core.Filter
		perColumn int
	)
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show leads as a kanban board, one column per stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				renderBoard(cmd.OutOrStdout(), a.leads.Filter(filter), a.leads.Settings(), time.Now().UTC(), perColumn, termWidth())
				return nil
			})
		},
	}
	bindFilterFlags(cmd, &filter)
	cmd.Flags().IntVar(&perColumn, "per-column", 10, "cards shown per stage (0 for all)")
	return cmd
}

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Show pipeline, follow-up and team figures",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				now := time.Now().UTC()
				d := analytics.Summarize(a.leads.Leads(), a.users.List(ctx), now)
				renderDashboard(cmd.OutOrStdout(), d, now)
				return nil
			})
		},
	}
}

func newFeedCmd() *cobra.Command {
	var (
		user  string
		mine  bool
		limit int
	)
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show recent activity across all leads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if mine {
					u, ok := a.currentUser(ctx)
					if !ok {
						return fmt.Errorf("feed: --mine needs a logged-in user")
					}
					user = u.Name
				}
				renderFeed(cmd.OutOrStdout(), analytics.Feed(a.leads.Leads(), user, limit), time.Now().UTC())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "only activity by this team member")
	cmd.Flags().BoolVar(&mine, "mine", false, "only activity by the logged-in user")
	cmd.Flags().IntVar(&limit, "limit", 30, "maximum entries (0 for all)")
	return cmd
}

func newLeaderboardCmd() *cobra.Command {
	var window string
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank team members by closed deals, calls and completed tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := analytics.ParseWindow(window)
			if err != nil {
				return fmt.Errorf("leaderboard: %w", err)
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				rows := analytics.Leaderboard(a.leads.Leads(), a.leads.Tasks(core.TaskFilter{Status: core.TaskDone}), a.users.List(ctx), w, time.Now().UTC())
				renderLeaderboard(cmd.OutOrStdout(), rows, w)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&window, "window", "month", "week, month or all")
	return cmd
}

func newStaleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stale",
		Short: "List open leads stuck in their stage past the stale threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				settings := a.leads.Settings()
				now := time.Now().UTC()
				renderStale(cmd.OutOrStdout(), analytics.Stale(a.leads.Leads(), settings, now), settings.StaleThresholdDays, now)
				return nil
			})
		},
	}
}
