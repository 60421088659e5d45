package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/RohitKattimani/MedReadApp/internal/reading"
	"github.com/RohitKattimani/MedReadApp/internal/tui"
)

var (
	readCount   int
	readResume  string
	readDisplay int
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Run a timed reading session",
	Long: `read starts a reading session: each image in a random sample is shown
without its category, the active-time clock runs while you decide, and
every committed diagnosis comes back scored before the next image.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		presets, err := api.CategoryPresets(cmd.Context())
		if err != nil {
			return err
		}
		choices := make([]string, len(presets))
		for i, p := range presets {
			choices[i] = p.Value
		}

		ctrl := reading.NewController(reading.Config{
			API:           api,
			Log:           log,
			SessionID:     readResume,
			ImageCount:    readCount,
			ResultDisplay: time.Duration(readDisplay) * time.Millisecond,
		})
		return tui.Run(ctrl, choices)
	},
}

func init() {
	readCmd.Flags().IntVarP(&readCount, "count", "n", 0, "images per session (server default when 0)")
	readCmd.Flags().StringVar(&readResume, "resume", "", "session id to resume instead of starting fresh")
	readCmd.Flags().IntVar(&readDisplay, "result-ms", 0, "verdict display time in ms (default 1000)")
	rootCmd.AddCommand(readCmd)
}
