package main

import (
	"fmt"
	"os"

	"chanscraper/pkg/config"
	"chanscraper/pkg/ui"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".chanscraper.yaml"

var forceInit bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the chanscraper configuration",
	Long: `Create, inspect and validate the configuration file.

Configuration is read, in increasing precedence, from built-in defaults, the
config file (.chanscraper.yaml, .chanscraper.toml or ~/.config/chanscraper/),
.env files, CHANSCRAPER_* environment variables and command line flags.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Example: `  chanscraper config init
  chanscraper config init -c ~/.config/chanscraper/config.toml`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd)

	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite an existing config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = defaultConfigFile
	}

	if _, err := os.Stat(configPath); err == nil && !forceInit {
		return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", configPath)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, commandFlags(cmd))
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, commandFlags(cmd))
	if err != nil {
		return err
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Output directory", cfg.Output.BaseDirectory)
	ui.PrintInfo("Registry", cfg.Output.RegistryFile)
	ui.PrintInfo("Log level", cfg.Logging.Level)
	return nil
}
