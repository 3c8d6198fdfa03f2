package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"chanscraper/pkg/config"
	"chanscraper/pkg/fetcher"
	"chanscraper/pkg/logger"
	"chanscraper/pkg/scraper"
	"chanscraper/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	logFile       string
	baseDir       string
	registryFile  string
	userAgent     string
	aggregatorURL string
	timeout       time.Duration
	noColor       bool
	debug         bool
	quiet         bool
	notNumbered   bool
	override      bool
	updateModTime bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chanscraper [url]",
	Short: "Download every image of an imageboard thread",
	Long: `chanscraper downloads the images posted in an imageboard thread into a local
directory and remembers the thread in threads.txt so that 'chanscraper update'
can fetch new images later.

When a thread only links thumbnails, --iqdb looks each thumbnail up on iqdb.org
and downloads the full-size image from the results instead.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			ui.PrintError(err.Error())
		}
		stop()
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.chanscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", "", "directory holding thread directories and threads.txt")
	rootCmd.PersistentFlags().StringVar(&registryFile, "registry", "", "thread registry file (default threads.txt in the base directory)")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", `user agent for every request ("random" picks one)`)
	rootCmd.PersistentFlags().StringVar(&aggregatorURL, "aggregator-url", "", "reverse image search service (default https://iqdb.org/)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for thread and image requests (default 10s)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "D", false, "print debug information")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print failures")
	rootCmd.PersistentFlags().BoolVarP(&notNumbered, "not-numbered", "n", false, "do not number image lines")
	rootCmd.PersistentFlags().BoolVarP(&override, "override", "o", false, "download images even if a file with the same name exists")
	rootCmd.PersistentFlags().BoolVarP(&updateModTime, "update-modify-date", "u", false, "set the modification time of every image to now, in post order")

	rootCmd.SetVersionTemplate(`chanscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
}

// commandFlags collects the flags the user set on cmd, keyed the way
// config.MergeCommandLineFlags expects
func commandFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := cmd.Flags().Changed

	if set("log-level") {
		flags["log-level"] = logLevel
	}
	if set("log-file") {
		flags["log-file"] = logFile
	}
	if set("base-dir") {
		flags["output"] = baseDir
	}
	if set("registry") {
		flags["registry"] = registryFile
	}
	if set("user-agent") {
		flags["user-agent"] = userAgent
	}
	if set("aggregator-url") {
		flags["aggregator-url"] = aggregatorURL
	}
	if set("timeout") {
		flags["timeout"] = timeout
	}
	if set("no-color") {
		flags["no-color"] = noColor
	}
	if set("debug") {
		flags["debug"] = debug
	}
	if set("not-numbered") {
		flags["not-numbered"] = notNumbered
	}
	if set("override") {
		flags["override"] = override
	}
	if set("update-modify-date") {
		flags["update-modify-date"] = updateModTime
	}
	return flags
}

// runtimeDeps is everything a scraping command needs, built from the merged
// configuration
type runtimeDeps struct {
	cfg     *config.Config
	log     logger.Logger
	scraper *scraper.Scraper
}

func setup(cmd *cobra.Command) (*runtimeDeps, error) {
	cfg, err := config.Load(configFile, commandFlags(cmd))
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Debug("chanscraper starting")

	client := fetcher.NewClient(cfg, log)

	return &runtimeDeps{
		cfg:     cfg,
		log:     log,
		scraper: scraper.New(cfg, client, log),
	}, nil
}

// Make download the default command when the first argument is not a command
func init() {
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !isKnownCommand(args[0]) {
			return runDownload(cmd, args)
		}
		return cmd.Help()
	}
	rootCmd.Args = cobra.ArbitraryArgs
}

func isKnownCommand(arg string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == arg || cmd.HasAlias(arg) {
			return true
		}
	}
	return false
}
