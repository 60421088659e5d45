package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginEmail   string
	loginSession string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and cache the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// External provider handoff takes precedence over password login.
		if loginSession != "" {
			user, err := api.ExchangeSession(ctx, loginSession)
			if err != nil {
				return err
			}
			cmd.Printf("Signed in as %s\n", user.Email)
			return nil
		}

		email := loginEmail
		if email == "" {
			cmd.Print("Email: ")
			if _, err := fmt.Fscanln(os.Stdin, &email); err != nil {
				return err
			}
		}
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		user, err := api.Login(ctx, strings.TrimSpace(email), password)
		if err != nil {
			return err
		}
		cmd.Printf("Signed in as %s\n", user.Email)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		var email, name string
		cmd.Print("Email: ")
		if _, err := fmt.Fscanln(os.Stdin, &email); err != nil {
			return err
		}
		cmd.Print("Name: ")
		if _, err := fmt.Fscanln(os.Stdin, &name); err != nil {
			return err
		}
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		user, err := api.Register(cmd.Context(), strings.TrimSpace(email), password, strings.TrimSpace(name))
		if err != nil {
			return err
		}
		cmd.Printf("Account created for %s\n", user.Email)
		return nil
	},
}

func readPassword(cmd *cobra.Command) (string, error) {
	cmd.Print("Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	cmd.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginSession, "session-id", "", "external provider session id to exchange")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
}
