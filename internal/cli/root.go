// Package cli implements the medread command line client.
package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RohitKattimani/MedReadApp/internal/client"
	logging "github.com/RohitKattimani/MedReadApp/internal/logging"
)

// Populated in PersistentPreRunE, shared by all subcommands.
var (
	api *client.Client
	log *zap.Logger

	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "medread",
	Short: "Timed diagnostic reading practice from the terminal",
	Long: `medread uploads categorized medical images to a MedRead server and runs
timed reading sessions against them: each image is shown without its
category, you commit a diagnosis, and the verdict comes back scored.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logging.Quiet()

		store, err := client.NewCredentialStore()
		if err != nil {
			return err
		}
		api, err = client.New(serverURL, store, log)
		if err != nil {
			return err
		}
		api.OnUnauthorized = func() {
			cmd.PrintErrln("Session expired. Run `medread login` to sign in again.")
		}
		return nil
	},
}

func init() {
	defaultURL := os.Getenv("MEDREAD_SERVER_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:5050"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultURL, "MedRead server base URL")
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
