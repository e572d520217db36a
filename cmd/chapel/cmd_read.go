package main

import (
	"fmt"

	"chapel/internal/models"
	"chapel/internal/views"

	"github.com/spf13/cobra"
)

var categoryFlag string

var menuCmd = &cobra.Command{
	Use:   "menu [section]",
	Short: "Show the site navigation, optionally switching section",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			rt.router.Navigate(views.ParseSection(args[0]))
		}
		renderMenu(cmd.OutOrStdout(), rt.router.MenuItems(), rt.router.Current())
		return nil
	},
}

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List published blog posts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt.router.Navigate(views.Blog)
		ticket := rt.router.Ticket()

		ctx, cancel := commandContext(cmd)
		defer cancel()
		posts, err := rt.repo.ListPublishedPosts(ctx, models.PostFilter{Category: categoryFlag})
		if err != nil {
			return fmt.Errorf("list posts: %w", err)
		}
		if !rt.router.Valid(ticket) {
			return nil
		}
		renderPostList(cmd.OutOrStdout(), posts, false)
		return nil
	},
}

var readCmd = &cobra.Command{
	Use:   "read <post-id>",
	Short: "Read a post and its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		post, err := rt.repo.GetPublishedPost(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get post: %w", err)
		}
		comments, err := rt.repo.ListCommentsForPost(ctx, post.ID)
		if err != nil {
			return fmt.Errorf("list comments: %w", err)
		}
		renderPost(cmd.OutOrStdout(), post, comments)
		return nil
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment <post-id> <text>",
	Short: "Comment on a post; it appears once approved",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st := rt.store.Snapshot()
		var authorID string
		if st.SignedIn() {
			authorID = st.User.ID
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if _, err := rt.repo.SubmitComment(ctx, args[0], authorID, st.DisplayName(), args[1]); err != nil {
			return fmt.Errorf("submit comment: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Merci ! Votre commentaire sera publié après modération."))
		return nil
	},
}

func init() {
	postsCmd.Flags().StringVarP(&categoryFlag, "category", "c", "", "Filter by category (enseignement, temoignage, meditation, actualites)")
}
