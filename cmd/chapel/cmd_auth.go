package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var (
	passwordFlag string
	fullNameFlag string
)

var input *bufio.Reader

// readLine prompts on the command's output and reads one line of its input.
// The reader is shared so consecutive prompts do not lose buffered lines.
func readLine(cmd *cobra.Command, prompt string) (string, error) {
	if input == nil {
		input = bufio.NewReader(cmd.InOrStdin())
	}
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, err := input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func password(cmd *cobra.Command) (string, error) {
	if passwordFlag != "" {
		return passwordFlag, nil
	}
	return readLine(cmd, "Mot de passe : ")
}

func saveSession() error {
	st := rt.store.Snapshot()
	if !st.SignedIn() {
		return nil
	}
	return rt.session.Save(st.Token, st.User.ID, st.User.Email)
}

func greet(cmd *cobra.Command) {
	<-rt.store.Loaded()
	st := rt.store.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "Connecté en tant que %s", titleStyle.Render(st.DisplayName()))
	if st.IsAdmin() {
		fmt.Fprint(cmd.OutOrStdout(), " "+badge("admin", "#15803D"))
	}
	fmt.Fprintln(cmd.OutOrStdout())
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and remember the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := password(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := rt.store.SignIn(ctx, args[0], pw); err != nil {
			return fmt.Errorf("sign in: %w", err)
		}
		if err := saveSession(); err != nil {
			return err
		}
		greet(cmd)
		return nil
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup <email>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := password(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := rt.store.SignUp(ctx, args[0], pw, fullNameFlag); err != nil {
			return fmt.Errorf("sign up: %w", err)
		}
		if err := saveSession(); err != nil {
			return err
		}
		greet(cmd)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		rt.store.SignOut(ctx)
		if err := rt.session.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Déconnecté.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := requireSignedIn()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s <%s>\n", titleStyle.Render(st.DisplayName()), st.User.Email)
		if st.Profile != nil {
			fmt.Fprintf(w, "rôle : %s · inscrit %s\n", st.Profile.Role, ago(st.Profile.CreatedAt))
		}
		fmt.Fprintf(w, "admin vérifié : %t\n", st.IsAdmin())
		return nil
	},
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change your password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireSignedIn(); err != nil {
			return err
		}
		current, err := readLine(cmd, "Mot de passe actuel : ")
		if err != nil {
			return err
		}
		next, err := readLine(cmd, "Nouveau mot de passe : ")
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := rt.client.ChangePassword(ctx, current, next); err != nil {
			return fmt.Errorf("change password: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Mot de passe modifié."))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&passwordFlag, "password", "p", "", "Password (prompted when empty)")
	signupCmd.Flags().StringVarP(&passwordFlag, "password", "p", "", "Password (prompted when empty)")
	signupCmd.Flags().StringVar(&fullNameFlag, "name", "", "Display name")
}
