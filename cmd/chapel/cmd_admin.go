package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chapel/internal/backend"
	"chapel/internal/models"
	"chapel/internal/moderation"
	"chapel/internal/views"

	"github.com/spf13/cobra"
)

var (
	assumeYes    bool
	filterFlag   string
	auditAction  string
	auditTarget  string
	auditSince   time.Duration
	auditLimit   int
	postCategory string
	postExcerpt  string
	postPublish  bool
	postFeature  bool
)

var errAdminOnly = errors.New("admin access required")

// stdinConfirmer asks on the terminal unless --yes was given.
func stdinConfirmer(cmd *cobra.Command) moderation.Confirmer {
	if assumeYes {
		return moderation.AutoConfirm
	}
	return moderation.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		answer, err := readLine(cmd, prompt+" [o/N] ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "o", "oui", "y", "yes":
			return true, nil
		}
		return false, nil
	})
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Moderate posts, comments and users",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		if rt.router.Navigate(views.Admin) != views.Admin {
			return errAdminOnly
		}
		return nil
	},
}

func postManager(ctx context.Context) (*moderation.PostManager, error) {
	m := moderation.NewPostManager(rt.repo, logger)
	if err := m.Load(ctx); err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	return m, nil
}

var adminPostsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List every post, drafts included",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		m, err := postManager(ctx)
		if err != nil {
			return err
		}
		renderPostList(cmd.OutOrStdout(), m.Posts(), true)
		return nil
	},
}

var adminNewPostCmd = &cobra.Command{
	Use:   "new <title> <markdown-file|->",
	Short: "Create a post from a markdown file (- reads stdin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readContent(cmd, args[1])
		if err != nil {
			return err
		}
		in := models.PostInput{
			Title:     args[0],
			Content:   body,
			Excerpt:   postExcerpt,
			Category:  postCategory,
			Featured:  postFeature,
			Published: postPublish,
		}
		if in.Excerpt == "" {
			in.Excerpt = excerptOf(body)
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		post, err := moderation.NewPostManager(rt.repo, logger).Save(ctx, "", in)
		if err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		renderPostList(cmd.OutOrStdout(), []models.Post{*post}, true)
		return nil
	},
}

// postToggle builds publish/unpublish/feature/unfeature.
func postToggle(use, short string, apply func(context.Context, *moderation.PostManager, string) (*models.Post, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <post-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			post, err := apply(ctx, moderation.NewPostManager(rt.repo, logger), args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}
			renderPostList(cmd.OutOrStdout(), []models.Post{*post}, true)
			return nil
		},
	}
}

var adminDeletePostCmd = &cobra.Command{
	Use:   "delete <post-id>",
	Short: "Delete a post and its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		m, err := postManager(ctx)
		if err != nil {
			return err
		}
		if err := m.Delete(ctx, args[0], stdinConfirmer(cmd)); err != nil {
			if errors.Is(err, moderation.ErrCancelled) {
				fmt.Fprintln(cmd.OutOrStdout(), "Annulé.")
				return nil
			}
			return fmt.Errorf("delete post: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Article supprimé."))
		return nil
	},
}

var adminCommentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "List comments for moderation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		filter, ok := models.ParseCommentFilter(filterFlag)
		if !ok {
			return fmt.Errorf("unknown filter %q (all, pending, approved)", filterFlag)
		}
		m := moderation.NewCommentManager(rt.repo, logger)
		if err := m.SetFilter(ctx, filter); err != nil {
			return fmt.Errorf("load comments: %w", err)
		}
		pending, err := m.PendingCount(ctx)
		if err != nil {
			return fmt.Errorf("pending count: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render(fmt.Sprintf("%d en attente", pending)))
		renderModerationComments(cmd.OutOrStdout(), m.Comments())
		return nil
	},
}

var adminApproveCmd = &cobra.Command{
	Use:   "approve <comment-id>...",
	Short: "Approve comments",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		m := moderation.NewCommentManager(rt.repo, logger)
		for _, id := range args {
			if err := m.Approve(ctx, id); err != nil {
				return fmt.Errorf("approve %s: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okStyle.Render("approuvé"), idStyle.Render(id))
		}
		return nil
	},
}

var adminRejectCmd = &cobra.Command{
	Use:   "reject <comment-id>",
	Short: "Delete a comment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		err := moderation.NewCommentManager(rt.repo, logger).Reject(ctx, args[0], stdinConfirmer(cmd))
		if errors.Is(err, moderation.ErrCancelled) {
			fmt.Fprintln(cmd.OutOrStdout(), "Annulé.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("reject: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Commentaire supprimé."))
		return nil
	},
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		m := moderation.NewUserManager(rt.repo)
		if err := m.Load(ctx); err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}
		renderProfiles(cmd.OutOrStdout(), m.Profiles())
		return nil
	},
}

var adminRoleCmd = &cobra.Command{
	Use:   "role <profile-id> <user|admin>",
	Short: "Change a user's role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := models.Role(strings.ToLower(args[1]))
		if !role.Valid() {
			return fmt.Errorf("role must be user or admin")
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		p, err := moderation.NewUserManager(rt.repo).SetRole(ctx, args[0], role)
		if backend.IsConflict(err) {
			return fmt.Errorf("refused: %s is the last administrator", args[0])
		}
		if err != nil {
			return fmt.Errorf("set role: %w", err)
		}
		renderProfiles(cmd.OutOrStdout(), []models.Profile{*p})
		return nil
	},
}

var adminAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the moderation trail",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := backend.AuditQuery{Action: auditAction, TargetType: auditTarget, Limit: auditLimit}
		if auditSince > 0 {
			q.Since = time.Now().Add(-auditSince)
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		events, err := rt.repo.ListAuditEvents(ctx, q)
		if err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		renderAudit(cmd.OutOrStdout(), events)
		return nil
	},
}

func init() {
	adminCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	adminCommentsCmd.Flags().StringVarP(&filterFlag, "filter", "f", "pending", "all, pending or approved")
	adminAuditCmd.Flags().StringVar(&auditAction, "action", "", "Only this action (e.g. comment.approved)")
	adminAuditCmd.Flags().StringVar(&auditTarget, "target", "", "Only this target type (post, comment, profile)")
	adminAuditCmd.Flags().DurationVar(&auditSince, "since", 0, "Only events newer than this")
	adminAuditCmd.Flags().IntVar(&auditLimit, "limit", 50, "Maximum number of events")
	adminNewPostCmd.Flags().StringVar(&postCategory, "category", models.DefaultPostCategory, "Post category")
	adminNewPostCmd.Flags().StringVar(&postExcerpt, "excerpt", "", "Excerpt (defaults to the first paragraph)")
	adminNewPostCmd.Flags().BoolVar(&postPublish, "publish", false, "Publish immediately")
	adminNewPostCmd.Flags().BoolVar(&postFeature, "feature", false, "Feature on the home page")

	adminCmd.AddCommand(
		adminPostsCmd,
		adminNewPostCmd,
		postToggle("publish", "Publish a draft", func(ctx context.Context, m *moderation.PostManager, id string) (*models.Post, error) {
			return m.SetPublished(ctx, id, true)
		}),
		postToggle("unpublish", "Move a post back to drafts", func(ctx context.Context, m *moderation.PostManager, id string) (*models.Post, error) {
			return m.SetPublished(ctx, id, false)
		}),
		postToggle("feature", "Feature a post", func(ctx context.Context, m *moderation.PostManager, id string) (*models.Post, error) {
			return m.SetFeatured(ctx, id, true)
		}),
		postToggle("unfeature", "Stop featuring a post", func(ctx context.Context, m *moderation.PostManager, id string) (*models.Post, error) {
			return m.SetFeatured(ctx, id, false)
		}),
		adminDeletePostCmd,
		adminCommentsCmd,
		adminApproveCmd,
		adminRejectCmd,
		adminUsersCmd,
		adminRoleCmd,
		adminAuditCmd,
	)
}
