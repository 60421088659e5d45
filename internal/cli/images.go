package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var uploadCategory string

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload images under a ground-truth category",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			img, err := api.UploadImage(cmd.Context(), path, uploadCategory)
			if err != nil {
				return fmt.Errorf("uploading %s: %w", path, err)
			}
			cmd.Printf("%s  %s  (%s)\n", img.ID, img.Filename, img.Category)
		}
		return nil
	},
}

var imagesCategory string

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "List uploaded images",
	RunE: func(cmd *cobra.Command, args []string) error {
		images, err := api.ListImages(cmd.Context(), imagesCategory)
		if err != nil {
			return err
		}
		if len(images) == 0 {
			cmd.Println("No images uploaded yet.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFILENAME\tCATEGORY\tUPLOADED")
		for _, img := range images {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", img.ID, img.Filename, img.Category, img.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var imagesDeleteCmd = &cobra.Command{
	Use:   "delete <image-id>",
	Short: "Delete an uploaded image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.DeleteImage(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-category image counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, total, err := api.ImageStats(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tCOUNT")
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%d\n", s.Category, s.Count)
		}
		fmt.Fprintf(w, "total\t%d\n", total)
		return w.Flush()
	},
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadCategory, "category", "c", "", "ground-truth category for the uploaded images")
	if err := uploadCmd.MarkFlagRequired("category"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	imagesCmd.Flags().StringVarP(&imagesCategory, "category", "c", "", "filter by category")
	imagesCmd.AddCommand(imagesDeleteCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(imagesCmd)
	rootCmd.AddCommand(statsCmd)
}
