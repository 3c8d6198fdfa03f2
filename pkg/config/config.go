package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultUserAgent is sent with every request unless overridden
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// RandomUserAgent as the configured user agent picks a random browser string per client
const RandomUserAgent = "random"

// Config holds all configuration options for chanscraper. It is loaded once at
// startup and passed by pointer to every component; nothing mutates it afterwards.
type Config struct {
	Site     SiteConfig     `yaml:"site" json:"site" toml:"site"`
	Retry    RetryConfig    `yaml:"retry" json:"retry" toml:"retry"`
	Output   OutputConfig   `yaml:"output" json:"output" toml:"output"`
	Download DownloadConfig `yaml:"download" json:"download" toml:"download"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging" toml:"logging"`
}

// SiteConfig holds HTTP settings for the thread sites and the aggregator
type SiteConfig struct {
	UserAgent      string        `yaml:"user_agent" json:"user_agent" toml:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout" toml:"request_timeout"`
	// AggregatorTimeout of zero means no timeout; the aggregator is slow but answers eventually
	AggregatorTimeout time.Duration `yaml:"aggregator_timeout" json:"aggregator_timeout" toml:"aggregator_timeout"`
	AggregatorURL     string        `yaml:"aggregator_url" json:"aggregator_url" toml:"aggregator_url"`
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second" toml:"requests_per_second"`
	Burst             int           `yaml:"burst" json:"burst" toml:"burst"`
}

// RetryConfig controls the retry of connection-level failures
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`
	Delay       time.Duration `yaml:"delay" json:"delay" toml:"delay"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier" toml:"multiplier"`
}

// OutputConfig holds output locations and console preferences
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory" toml:"base_directory"`
	RegistryFile  string `yaml:"registry_file" json:"registry_file" toml:"registry_file"`
	Numbered      bool   `yaml:"numbered" json:"numbered" toml:"numbered"`
	Color         bool   `yaml:"color" json:"color" toml:"color"`
}

// DownloadConfig holds the download engine policy
type DownloadConfig struct {
	MinFileSize      int64 `yaml:"min_file_size" json:"min_file_size" toml:"min_file_size"`
	OverrideExisting bool  `yaml:"override_existing" json:"override_existing" toml:"override_existing"`
	StampModTime     bool  `yaml:"stamp_mod_time" json:"stamp_mod_time" toml:"stamp_mod_time"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level" toml:"level"`
	File    string `yaml:"file" json:"file" toml:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color" toml:"no_color"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			UserAgent:         DefaultUserAgent,
			RequestTimeout:    10 * time.Second,
			AggregatorTimeout: 0,
			AggregatorURL:     "https://iqdb.org/",
			RequestsPerSecond: 0,
			Burst:             1,
		},
		Retry: RetryConfig{
			MaxAttempts: 2,
			Delay:       time.Second,
			Multiplier:  1,
		},
		Output: OutputConfig{
			BaseDirectory: ".",
			RegistryFile:  "threads.txt",
			Numbered:      true,
			Color:         true,
		},
		Download: DownloadConfig{
			MinFileSize:      1000,
			OverrideExisting: false,
			StampModTime:     false,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// LoadFromEnv loads configuration from CHANSCRAPER_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	setString("CHANSCRAPER_USER_AGENT", &c.Site.UserAgent)
	setDuration("CHANSCRAPER_REQUEST_TIMEOUT", &c.Site.RequestTimeout)
	setDuration("CHANSCRAPER_AGGREGATOR_TIMEOUT", &c.Site.AggregatorTimeout)
	setString("CHANSCRAPER_AGGREGATOR_URL", &c.Site.AggregatorURL)
	if v := os.Getenv("CHANSCRAPER_REQUESTS_PER_SECOND"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("CHANSCRAPER_REQUESTS_PER_SECOND: %w", err))
		} else {
			c.Site.RequestsPerSecond = rps
		}
	}

	setString("CHANSCRAPER_OUTPUT_DIR", &c.Output.BaseDirectory)
	setString("CHANSCRAPER_REGISTRY_FILE", &c.Output.RegistryFile)
	setBool("CHANSCRAPER_NUMBERED", &c.Output.Numbered)
	setBool("CHANSCRAPER_STAMP_MOD_TIME", &c.Download.StampModTime)

	setString("CHANSCRAPER_LOG_LEVEL", &c.Logging.Level)
	setString("CHANSCRAPER_LOG_FILE", &c.Logging.File)

	// https://no-color.org
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.Output.Color = false
		c.Logging.NoColor = true
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML or TOML file, chosen by extension
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if isTOML(path) {
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
		return nil
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// findConfigFile searches for a config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".chanscraper.yaml",
		".chanscraper.yml",
		".chanscraper.toml",
		filepath.Join(home, ".config", "chanscraper", "config.yaml"),
		filepath.Join(home, ".config", "chanscraper", "config.yml"),
		filepath.Join(home, ".config", "chanscraper", "config.toml"),
		filepath.Join(home, ".chanscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Site.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	if c.Site.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Site.AggregatorTimeout < 0 {
		errs = append(errs, errors.New("aggregator timeout cannot be negative"))
	}
	if u, err := url.Parse(c.Site.AggregatorURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("aggregator url %q must be an absolute URL", c.Site.AggregatorURL))
	}
	if c.Site.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("requests per second cannot be negative"))
	}
	if c.Site.Burst < 1 {
		errs = append(errs, errors.New("burst must be at least 1"))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}
	if c.Retry.Delay < 0 {
		errs = append(errs, errors.New("retry delay cannot be negative"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.RegistryFile == "" {
		errs = append(errs, errors.New("registry file is required"))
	}
	if c.Download.MinFileSize < 0 {
		errs = append(errs, errors.New("minimum file size cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "warning": true, "error": true, "disabled": true, "off": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Save writes the configuration to path as TOML or YAML depending on the extension
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	if isTOML(path) {
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(c); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		data = []byte(sb.String())
	} else {
		out, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		data = out
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["user-agent"].(string); ok && v != "" {
		c.Site.UserAgent = v
	}
	if v, ok := flags["timeout"].(time.Duration); ok && v > 0 {
		c.Site.RequestTimeout = v
	}
	if v, ok := flags["aggregator-url"].(string); ok && v != "" {
		c.Site.AggregatorURL = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["registry"].(string); ok && v != "" {
		c.Output.RegistryFile = v
	}
	if v, ok := flags["not-numbered"].(bool); ok && v {
		c.Output.Numbered = false
	}
	if v, ok := flags["no-color"].(bool); ok && v {
		c.Output.Color = false
		c.Logging.NoColor = true
	}
	if v, ok := flags["override"].(bool); ok {
		c.Download.OverrideExisting = v
	}
	if v, ok := flags["update-modify-date"].(bool); ok {
		c.Download.StampModTime = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
	// --debug wins over --log-level
	if v, ok := flags["debug"].(bool); ok && v {
		c.Logging.Level = "debug"
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: command line flags > environment (including .env) > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".chanscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
