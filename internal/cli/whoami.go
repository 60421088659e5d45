package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/RohitKattimani/MedReadApp/internal/client"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		gate := client.NewGate(api, log)
		if gate.Check(cmd.Context(), "") != client.StatusAuthenticated {
			return errors.New("not signed in. Run `medread login` first")
		}
		user := gate.User()
		cmd.Printf("%s <%s>\n", user.Name, user.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the session token and clear cached credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.Logout(cmd.Context()); err != nil && !errors.Is(err, client.ErrUnauthorized) {
			return err
		}
		cmd.Println("Signed out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(logoutCmd)
}
