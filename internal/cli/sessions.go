package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List past reading sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := api.ListSessions(cmd.Context())
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			cmd.Println("No sessions yet. Run `medread read` to start one.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tREVIEWED\tACCURACY")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%.1f%%\n",
				s.ID, s.StartedAt.Format("2006-01-02 15:04"), s.Status,
				s.ImagesReviewed, s.TotalImages, s.Accuracy())
		}
		return w.Flush()
	},
}

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Download a session's results as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := api.SessionCSV(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if exportOut == "" || exportOut == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return err
		}
		cmd.Printf("Wrote %s\n", exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "destination file (stdout when omitted)")
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(exportCmd)
}
