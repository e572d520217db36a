// Command admin manages administrator roles directly in the database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"chapel/internal/cache"
	"chapel/internal/config"
	"chapel/internal/database"
	"chapel/internal/models"
	"chapel/internal/repository"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	timeout time.Duration

	db       *gorm.DB
	profiles repository.ProfileRepository
)

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage Chapel administrators",
	Long: `Promote, demote and list administrators.

Users are addressed by profile ID or email. Demoting the last administrator is refused.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, err = database.Connect(cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		cache.InitRedis(cfg.RedisURL)
		profiles = repository.NewProfileRepository(db)
		return nil
	},
}

var promoteCmd = &cobra.Command{
	Use:   "promote <id|email>",
	Short: "Give a user the admin role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd, args[0], models.RoleAdmin)
	},
}

var demoteCmd = &cobra.Command{
	Use:   "demote <id|email>",
	Short: "Give an admin the user role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd, args[0], models.RoleUser)
	},
}

var listAdminsCmd = &cobra.Command{
	Use:   "list-admins",
	Short: "List all administrators",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		var admins []models.Profile
		if err := db.WithContext(ctx).Where("role = ?", models.RoleAdmin).Order("email").Find(&admins).Error; err != nil {
			return fmt.Errorf("fetch admins: %w", err)
		}
		if len(admins) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No admins found")
			return nil
		}
		for _, a := range admins {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-32s  %s\n", a.ID, a.Email, a.DisplayName())
		}
		return nil
	},
}

func findProfile(ctx context.Context, ref string) (*models.Profile, error) {
	var p models.Profile
	err := db.WithContext(ctx).
		Where("id = ? OR email = ?", ref, models.NormalizeEmail(ref)).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no user matches %q", ref)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", ref, err)
	}
	return &p, nil
}

func setRole(cmd *cobra.Command, ref string, role models.Role) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	p, err := findProfile(ctx, ref)
	if err != nil {
		return err
	}
	if p.Role == role {
		fmt.Fprintf(cmd.OutOrStdout(), "%s already has role %s\n", p.Email, role)
		return nil
	}

	updated, err := profiles.ChangeRole(ctx, p.ID, role)
	if err != nil {
		if models.ErrorCode(err) == models.CodeConflict {
			return fmt.Errorf("%s is the last administrator", p.Email)
		}
		return fmt.Errorf("change role: %w", err)
	}
	cache.InvalidateProfile(ctx, updated.ID)

	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", updated.Email, updated.Role)
	return nil
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")
	rootCmd.AddCommand(promoteCmd, demoteCmd, listAdminsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
