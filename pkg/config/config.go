package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the Zhihu exporter
type Config struct {
	// Zhihu credentials and request identity
	Zhihu ZhihuConfig `yaml:"zhihu" json:"zhihu"`

	// Pacing between requests, items and collections
	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	// Retry policy for API calls
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Markdown rendering settings
	Render RenderConfig `yaml:"render" json:"render"`

	// Content extraction settings
	Extract ExtractConfig `yaml:"extract" json:"extract"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ZhihuConfig holds Zhihu-specific configuration
type ZhihuConfig struct {
	// Cookie is the full cookie header value of a logged-in session
	Cookie         string        `yaml:"cookie" json:"cookie"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	// RequestsPerMinute caps the overall API call rate
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// PacingConfig holds the fixed delays inserted between operations.
// Serial processing with fixed delays is what keeps the load on Zhihu
// bounded; none of these should be set to zero against a live site.
type PacingConfig struct {
	PageDelay       time.Duration `yaml:"page_delay" json:"page_delay"`
	ItemDelay       time.Duration `yaml:"item_delay" json:"item_delay"`
	CollectionDelay time.Duration `yaml:"collection_delay" json:"collection_delay"`
}

// RetryConfig holds the retry policy for API calls
type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay     time.Duration `yaml:"base_delay" json:"base_delay"`
	BackoffFactor float64       `yaml:"backoff_factor" json:"backoff_factor"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory           string `yaml:"base_directory" json:"base_directory"`
	CreateCollectionFolders bool   `yaml:"create_collection_folders" json:"create_collection_folders"`
	// WriteIndex writes an index.json manifest into each export folder
	WriteIndex bool `yaml:"write_index" json:"write_index"`
	// SkipExisting leaves files from previous runs untouched instead of
	// rewriting them
	SkipExisting bool `yaml:"skip_existing" json:"skip_existing"`
	// StatsFile persists the measured per-item processing time between runs
	StatsFile string `yaml:"stats_file" json:"stats_file"`
}

// RenderConfig holds Markdown rendering configuration
type RenderConfig struct {
	// MaxImageWidth caps the display width written into exported <img> tags
	MaxImageWidth int `yaml:"max_image_width" json:"max_image_width"`
}

// ExtractConfig holds content extraction configuration.
// The marker phrases identify promotional blocks by their short lead-in
// text; Zhihu changes these occasionally, so they live in config rather
// than code.
type ExtractConfig struct {
	NoiseMarkers  []string `yaml:"noise_markers" json:"noise_markers"`
	MinRootLength int      `yaml:"min_root_length" json:"min_root_length"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// EveryN throttles progress notifications during multi-collection runs
	EveryN      int           `yaml:"every_n" json:"every_n"`
	MinInterval time.Duration `yaml:"min_interval" json:"min_interval"`
	ClearAfter  time.Duration `yaml:"clear_after" json:"clear_after"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Zhihu: ZhihuConfig{
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			RequestTimeout:    30 * time.Second,
			RequestsPerMinute: 60,
		},
		Pacing: PacingConfig{
			PageDelay:       250 * time.Millisecond,
			ItemDelay:       1200 * time.Millisecond,
			CollectionDelay: 400 * time.Millisecond,
		},
		Retry: RetryConfig{
			MaxAttempts:   3,
			BaseDelay:     2 * time.Second,
			BackoffFactor: 2.0,
		},
		Output: OutputConfig{
			BaseDirectory:           "./exports",
			CreateCollectionFolders: true,
			WriteIndex:              true,
			SkipExisting:            true,
			StatsFile:               "",
		},
		Render: RenderConfig{
			MaxImageWidth: 800,
		},
		Extract: ExtractConfig{
			NoiseMarkers:  []string{"本文收录于", "推荐阅读", "相关热门"},
			MinRootLength: 30,
		},
		Notifications: NotificationConfig{
			Enabled:     true,
			EveryN:      10,
			MinInterval: 3 * time.Second,
			ClearAfter:  5 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if cookie := os.Getenv("ZHEXPORT_COOKIE"); cookie != "" {
		c.Zhihu.Cookie = cookie
	}
	if userAgent := os.Getenv("ZHEXPORT_USER_AGENT"); userAgent != "" {
		c.Zhihu.UserAgent = userAgent
	}
	if rpm := os.Getenv("ZHEXPORT_REQUESTS_PER_MINUTE"); rpm != "" {
		if val, err := strconv.Atoi(rpm); err == nil && val > 0 {
			c.Zhihu.RequestsPerMinute = val
		}
	}
	if outputDir := os.Getenv("ZHEXPORT_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if delay := os.Getenv("ZHEXPORT_ITEM_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil && d >= 0 {
			c.Pacing.ItemDelay = d
		}
	}
	if notifEnabled := os.Getenv("ZHEXPORT_NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.Notifications.Enabled = strings.EqualFold(notifEnabled, "true")
	}
	if logLevel := os.Getenv("ZHEXPORT_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
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

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".zhexport.yaml",
		".zhexport.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "zhexport", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "zhexport", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".zhexport.yaml"),
		filepath.Join(os.Getenv("HOME"), ".zhexport.yml"),
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

	if c.Zhihu.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.Zhihu.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}
	if c.Retry.BackoffFactor < 1 {
		errs = append(errs, errors.New("retry backoff factor must be at least 1"))
	}

	if c.Pacing.ItemDelay < 0 || c.Pacing.PageDelay < 0 || c.Pacing.CollectionDelay < 0 {
		errs = append(errs, errors.New("pacing delays cannot be negative"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	if c.Render.MaxImageWidth <= 0 {
		errs = append(errs, errors.New("max image width must be positive"))
	}

	if c.Extract.MinRootLength <= 0 {
		errs = append(errs, errors.New("min root length must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if cookie, ok := flags["cookie"].(string); ok && cookie != "" {
		c.Zhihu.Cookie = cookie
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if delay, ok := flags["item-delay"].(time.Duration); ok && delay >= 0 {
		c.Pacing.ItemDelay = delay
	}
	if width, ok := flags["max-image-width"].(int); ok && width > 0 {
		c.Render.MaxImageWidth = width
	}
	if attempts, ok := flags["max-attempts"].(int); ok && attempts > 0 {
		c.Retry.MaxAttempts = attempts
	}
	if enabled, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = enabled
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".zhexport.env"))

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
