package main

import (
	"chanscraper/pkg/models"
	"chanscraper/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Update command flags
	printExisting bool
	updateIqdb    bool
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fetch new images of every thread in threads.txt",
	Long: `Visit every thread recorded in threads.txt and download the images that are
not on disk yet. Threads that return 404 or cannot be reached are removed from
threads.txt.

Press Ctrl+C to stop between threads; threads not yet visited stay in threads.txt.`,
	Example: `  # Update all threads, numbering new images
  chanscraper update

  # Also list images that are already on disk
  chanscraper update --print-existing

  # Sort by modification time equals post order afterwards
  chanscraper update -u`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().BoolVar(&printExisting, "print-existing", false, "also print images that already exist")
	updateCmd.Flags().BoolVarP(&updateIqdb, "iqdb", "i", false, "rejected: reverse image search is not supported by update")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	deps, err := setup(cmd)
	if err != nil {
		return err
	}

	req := models.UpdateRequest{
		Iqdb:          updateIqdb,
		Override:      deps.cfg.Download.OverrideExisting,
		Quiet:         quiet,
		Numbered:      deps.cfg.Output.Numbered,
		StampModTime:  deps.cfg.Download.StampModTime,
		PrintExisting: printExisting,
	}

	rep := ui.NewConsole(ui.Options{
		Quiet:        req.Quiet,
		Numbered:     req.Numbered,
		Color:        deps.cfg.Output.Color,
		HideExisting: !req.PrintExisting,
	})
	rep.Start()
	defer rep.Stop()

	if err := deps.scraper.Update(cmd.Context(), req, rep); err != nil {
		return err
	}

	deps.log.InfoWithFields("update finished", map[string]interface{}{
		"registry": deps.scraper.Registry().Path(),
	})
	return nil
}
