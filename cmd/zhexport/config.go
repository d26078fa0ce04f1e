package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"zhexport/pkg/config"
	"zhexport/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage Zhihu Exporter configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (ZHEXPORT_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.zhexport.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources.

Sensitive values like the cookie will be masked for security.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Path accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".zhexport.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# Zhihu Exporter Configuration File
#
# This file contains all available configuration options.
# You can also use environment variables prefixed with ZHEXPORT_
# For example: ZHEXPORT_COOKIE, ZHEXPORT_OUTPUT_DIR

# Zhihu credentials and request identity
zhihu:
  # Full Cookie header value from a logged-in browser session.
  # Prefer 'zhexport auth login' over putting the cookie in this file.
  cookie: ""

  # User agent string (optional)
  # Leave empty to use default
  user_agent: ""

  # Request timeout
  request_timeout: 30s

  # Requests per minute cap
  requests_per_minute: 60

# Fixed delays between operations.
# Items are processed one at a time; lowering these delays risks
# rate limiting or account flagging.
pacing:
  page_delay: 250ms
  item_delay: 1.2s
  collection_delay: 400ms

# Retry policy for API calls
retry:
  max_attempts: 3
  base_delay: 2s
  backoff_factor: 2.0

# Output configuration
output:
  # Directory exported Markdown files are written into
  base_directory: "./exports"

  # Create one subfolder per collection
  create_collection_folders: true

  # Write an index.json manifest into each export folder
  write_index: true

  # Leave files from previous runs untouched instead of rewriting them
  skip_existing: true

  # File persisting per-item timing between runs, used for estimates
  # Leave empty to disable
  stats_file: ""

# Markdown rendering
render:
  # Maximum display width written into exported image tags
  max_image_width: 800

# Content extraction
extract:
  # Lead-in phrases that identify promotional blocks to remove
  noise_markers:
    - "本文收录于"
    - "推荐阅读"
    - "相关热门"

  # Minimum text length for a content root candidate
  min_root_length: 30

# Desktop notifications
notifications:
  enabled: true

  # During multi-collection runs, notify at most every N items
  every_n: 10
  min_interval: 3s

  # Clear the final notification after this delay (0 = keep)
  clear_after: 5s

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to stderr only
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'zhexport auth login' to store your Zhihu cookie")
	fmt.Println("2. Run 'zhexport config validate' to check the configuration")
	fmt.Println("3. Start exporting with 'zhexport export collection <id>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	displayCfg := *cfg

	if displayCfg.Zhihu.Cookie != "" {
		if len(displayCfg.Zhihu.Cookie) > 16 {
			displayCfg.Zhihu.Cookie = displayCfg.Zhihu.Cookie[:8] + "..." + displayCfg.Zhihu.Cookie[len(displayCfg.Zhihu.Cookie)-4:]
		} else {
			displayCfg.Zhihu.Cookie = "***"
		}
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (ZHEXPORT_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile == "" {
		possiblePaths := []string{
			".zhexport.yaml",
			".zhexport.yml",
			filepath.Join(os.Getenv("HOME"), ".zhexport.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "zhexport", "config.yaml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", configFile)

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	warnings := []string{}
	errors := []string{}

	if cfg.Zhihu.Cookie == "" {
		warnings = append(warnings, "No cookie configured; stored credentials or ZHEXPORT_COOKIE will be used")
	}

	if cfg.Output.BaseDirectory != "" {
		if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("Cannot create output directory: %v", err))
		}
	}

	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	if cfg.Pacing.ItemDelay < 500*time.Millisecond {
		warnings = append(warnings, "item_delay below 500ms risks rate limiting")
	}

	if len(errors) > 0 {
		ui.PrintError("Configuration has errors:", "")
		for _, err := range errors {
			fmt.Printf("  - %s\n", err)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:", "")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Printf("  Item delay: %s\n", cfg.Pacing.ItemDelay)
	fmt.Printf("  Max retries: %d\n", cfg.Retry.MaxAttempts)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
