package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chapel/internal/backend"
	"chapel/internal/models"
	"chapel/internal/views"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow moderation events live (admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if rt.router.Navigate(views.Admin) != views.Admin {
			return errAdminOnly
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w := cmd.OutOrStdout()
		err := rt.client.WatchModeration(ctx, func(ev backend.FeedEvent) error {
			switch {
			case ev.Type == backend.FeedConnected:
				fmt.Fprintln(w, mutedStyle.Render("Connecté au fil de modération. Ctrl+C pour quitter."))
			case ev.Moderation != nil:
				renderAudit(w, []models.ModerationEvent{*ev.Moderation})
			}
			return nil
		})
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, backend.ErrFeedClosed):
			return nil
		case errors.Is(err, backend.ErrFeedRevoked):
			// Reload the profile so the router leaves the admin section.
			_ = rt.store.Refresh(cmd.Context())
			return errAdminOnly
		}
		return err
	},
}
