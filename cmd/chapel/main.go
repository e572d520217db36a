// Command chapel is the terminal client for the Chapel site.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"chapel/internal/backend"
	"chapel/internal/config"
	"chapel/internal/content"
	"chapel/internal/session"
	"chapel/internal/views"

	"github.com/spf13/cobra"
)

var (
	verbose     bool
	timeout     time.Duration
	sessionPath string

	logger *slog.Logger
	rt     *appState
)

// appState is everything a command needs once configuration is loaded.
type appState struct {
	client  *backend.Client
	store   *session.Store
	repo    *content.Repository
	router  *views.Router
	session *sessionFile
}

var rootCmd = &cobra.Command{
	Use:   "chapel",
	Short: "Read and moderate the Chapel site from the terminal",
	Long: `chapel talks to the Chapel API.

It needs CHAPEL_BACKEND_URL and CHAPEL_ANON_KEY (environment, .env or chapel.yml).
The access token of the last login is kept in a session file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		cfg, err := config.LoadClientConfig()
		if err != nil {
			logger.Error("invalid client configuration", slog.String("error", err.Error()))
			return err
		}
		return setup(cmd.Context(), cfg)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if rt != nil {
			rt.store.Wait()
		}
	},
}

func setup(ctx context.Context, cfg *config.ClientConfig) error {
	client, err := backend.NewFromConfig(cfg, backend.WithLogger(logger))
	if err != nil {
		return err
	}

	path := sessionPath
	if path == "" {
		path = cfg.SessionFile
	}
	sf, err := openSessionFile(path)
	if err != nil {
		return err
	}

	store := session.New(client, session.WithLogger(logger), session.WithLoadTimeout(timeout))
	router := views.NewRouter(store)
	store.Subscribe(func(session.State) { router.Sync() })
	rt = &appState{
		client:  client,
		store:   store,
		repo:    content.NewRepository(client, logger),
		router:  router,
		session: sf,
	}

	if sf.Token == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := store.Restore(ctx, sf.Token); err != nil {
		if backend.IsUnauthorized(err) {
			logger.Info("stored session expired")
			return sf.Clear()
		}
		return fmt.Errorf("restore session: %w", err)
	}
	select {
	case <-store.Loaded():
	case <-ctx.Done():
	}
	return nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

var errNotSignedIn = errors.New("not signed in: run `chapel login <email>` first")

func requireSignedIn() (session.State, error) {
	st := rt.store.Snapshot()
	if !st.SignedIn() {
		return st, errNotSignedIn
	}
	return st, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session-file", "", "Session file (default: CHAPEL_SESSION_FILE or the user config dir)")

	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, whoamiCmd, passwordCmd)
	rootCmd.AddCommand(menuCmd, postsCmd, readCmd, commentCmd)
	rootCmd.AddCommand(adminCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
