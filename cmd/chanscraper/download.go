package main

import (
	"fmt"
	"net/url"
	"strings"

	"chanscraper/pkg/models"
	"chanscraper/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Download command flags
	useIqdb   bool
	directory string
	name      string
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <url>",
	Short: "Download the images of a thread",
	Long: `Download every image linked from a thread page into a directory named after
the thread, then add the thread to threads.txt.

Images that already exist in the directory are skipped unless --override is set.`,
	Example: `  # Download a thread into "<id> - <subject>"
  chanscraper download https://boards.example.org/a/thread/123456

  # The download subcommand may be omitted
  chanscraper https://boards.example.org/a/thread/123456

  # Name the directory and the registry entry
  chanscraper https://boards.example.org/a/thread/123456 --name wallpapers

  # Resolve full-size images of a thumbnail-only archive through iqdb
  chanscraper -i https://archive.example.org/a/thread/123456`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	for _, cmd := range []*cobra.Command{downloadCmd, rootCmd} {
		cmd.Flags().BoolVarP(&useIqdb, "iqdb", "i", false, "look thumbnails up on iqdb and download the full-size result")
		cmd.Flags().StringVarP(&directory, "dir", "d", "", "download into this directory")
		cmd.Flags().StringVar(&name, "name", "", "name used for the directory and the threads.txt entry")
	}
}

func runDownload(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one thread url, got %d arguments", len(args))
	}
	threadURL, err := parseThreadURL(args[0])
	if err != nil {
		return err
	}

	deps, err := setup(cmd)
	if err != nil {
		return err
	}

	req := models.DownloadRequest{
		URL:          threadURL,
		Directory:    directory,
		Name:         strings.TrimSpace(name),
		Iqdb:         useIqdb,
		Override:     deps.cfg.Download.OverrideExisting,
		Quiet:        quiet,
		Numbered:     deps.cfg.Output.Numbered,
		StampModTime: deps.cfg.Download.StampModTime,
	}

	rep := ui.NewConsole(ui.Options{
		Quiet:    req.Quiet,
		Numbered: req.Numbered,
		Color:    deps.cfg.Output.Color,
	})
	rep.Start()
	defer rep.Stop()

	summary, err := deps.scraper.Download(cmd.Context(), req, rep)
	if err != nil {
		if summary == nil {
			// the reporter has already printed the failure
			return reportedError{err}
		}
		return err
	}

	deps.log.InfoWithFields("download finished", map[string]interface{}{
		"thread":  req.URL,
		"summary": summary.String(),
	})
	return nil
}

// parseThreadURL accepts absolute http(s) URLs only
func parseThreadURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid thread url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid thread url %q: expected an http or https url", raw)
	}
	return raw, nil
}

// reportedError is an error the reporter has already shown to the user
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }
