package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"wbscraper/pkg/auth"
	"wbscraper/pkg/config"
	"wbscraper/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage wbscraper configuration.

Values are resolved in this order, later wins:
  - Defaults
  - Configuration file
  - .env files and WBSCRAPER_* environment variables
  - Command line flags`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Write an example configuration file with every option.

The file is created as 'wbscraper.yaml' in the current directory unless --config
names another path. An existing file is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration with the cookie masked",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# wbscraper configuration
#
# Every value can be overridden with WBSCRAPER_* environment variables,
# e.g. WBSCRAPER_COOKIE or WBSCRAPER_OUTPUT_DIR.

weibo:
  # Sent verbatim on every request
  user_agent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
  # Leave empty to use 'wbscraper auth set' or WBSCRAPER_COOKIE
  cookie: ""
  base_url: "https://weibo.com"
  timeout: 30s

# Seeds, processed in order
user_id_list:
  - 1669879400

user_mblog:
  # Seeds whose timeline is crawled
  id_list:
    - 1669879400
  # Stop at the first unpinned post older than this day (YYYY-MM-DD). Empty = all posts.
  since_date: "2024-01-01"

user_mutual_follow:
  # Seeds whose reciprocal-follow network is discovered
  id_list:
    - 1669879400
  # Followers below this count are never considered
  min_follower: 1000
  # Accepted but not used
  max_mutual_follower: 0
  # Expand members other than the seed
  include_indirect: false
  # Maximum network size, seed included
  max_members: 100
  # Follow listing pages checked per candidate, 0 = until exhausted
  max_follow_pages: 0
  # Time budget per candidate, 0 = none
  candidate_timeout: 0s

rate_limit:
  # Pause every N requests, starting with the first
  page_sleep_count: 10
  page_sleep_duration: 30s
  # Extra steady ceiling, 0 = off
  requests_per_minute: 0

output:
  base_directory: "./output"

download:
  concurrent_downloads: 3
  skip_images: false

metrics:
  # host:port for /metrics, empty = disabled
  listen: ""

logging:
  level: "info"
  file: ""

auth:
  # Keychain profile used when no cookie is configured
  profile: "default"
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "wbscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit user_id_list and the id lists")
	fmt.Println("2. Store your cookie with 'wbscraper auth set'")
	fmt.Println("3. Check the file with 'wbscraper config validate'")
	fmt.Println("4. Start with 'wbscraper run'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	display := *cfg
	if display.Weibo.Cookie != "" {
		display.Weibo.Cookie = auth.MaskCookie(display.Weibo.Cookie)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source == "" {
		source = "(none found, defaults only)"
	}
	fmt.Printf("\nConfiguration file: %s\n", source)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		return fmt.Errorf("no configuration file found, specify one with --config")
	}
	ui.PrintInfo("Validating configuration", path)

	cfg, err := config.Load(path, nil)
	if err != nil {
		return err
	}

	if cfg.Weibo.Cookie == "" {
		if _, _, err := auth.NewManager().Resolve(cfg.Auth.Profile); err != nil {
			ui.PrintWarning("No cookie in config, environment or keychain")
		}
	}
	if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}

	ui.PrintSuccess("Configuration is valid")
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Seeds: %d (timeline %d, network %d)\n",
		len(cfg.UserIDList), len(cfg.UserMblog.IDList), len(cfg.UserMutualFollow.IDList))
	fmt.Printf("  Pause: %s every %d requests\n", cfg.RateLimit.PageSleepDuration, cfg.RateLimit.PageSleepCount)
	fmt.Printf("  Network: min_follower=%d include_indirect=%t max_members=%d\n",
		cfg.UserMutualFollow.MinFollower, cfg.UserMutualFollow.IncludeIndirect, cfg.UserMutualFollow.MaxMembers)
	fmt.Printf("  Output directory: %s\n", cfg.Output.BaseDirectory)
	return nil
}
