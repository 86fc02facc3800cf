package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SinceDateLayout is the layout of user_mblog.since_date
const SinceDateLayout = "2006-01-02"

// Config holds all configuration options for the Weibo scraper
type Config struct {
	Weibo            WeiboConfig        `yaml:"weibo" json:"weibo"`
	UserIDList       []int64            `yaml:"user_id_list" json:"user_id_list" validate:"required,min=1,dive,gt=0"`
	UserMblog        UserMblogConfig    `yaml:"user_mblog" json:"user_mblog"`
	UserMutualFollow MutualFollowConfig `yaml:"user_mutual_follow" json:"user_mutual_follow"`
	RateLimit        RateLimitConfig    `yaml:"rate_limit" json:"rate_limit"`
	Output           OutputConfig       `yaml:"output" json:"output"`
	Download         DownloadConfig     `yaml:"download" json:"download"`
	Metrics          MetricsConfig      `yaml:"metrics" json:"metrics"`
	Logging          LoggingConfig      `yaml:"logging" json:"logging"`
	Auth             AuthConfig         `yaml:"auth" json:"auth"`
}

// WeiboConfig holds the request identity. Both strings are passed to the API opaquely.
type WeiboConfig struct {
	UserAgent string        `yaml:"user_agent" json:"user_agent" validate:"required"`
	Cookie    string        `yaml:"cookie" json:"cookie"`
	BaseURL   string        `yaml:"base_url" json:"base_url" validate:"required,url"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0s"`
}

// UserMblogConfig selects the seeds whose post timeline is crawled
type UserMblogConfig struct {
	IDList    []int64 `yaml:"id_list" json:"id_list" validate:"dive,gt=0"`
	SinceDate string  `yaml:"since_date" json:"since_date" validate:"omitempty,datetime=2006-01-02"`
}

// MutualFollowConfig selects the seeds whose reciprocal-follow network is discovered
type MutualFollowConfig struct {
	IDList      []int64 `yaml:"id_list" json:"id_list" validate:"dive,gt=0"`
	MinFollower int     `yaml:"min_follower" json:"min_follower" validate:"gte=0"`
	// MaxMutualFollower is accepted for compatibility with existing config files; the traversal does not use it.
	MaxMutualFollower int           `yaml:"max_mutual_follower" json:"max_mutual_follower" validate:"gte=0"`
	IncludeIndirect   bool          `yaml:"include_indirect" json:"include_indirect"`
	MaxMembers        int           `yaml:"max_members" json:"max_members" validate:"gte=1"`
	MaxFollowPages    int           `yaml:"max_follow_pages" json:"max_follow_pages" validate:"gte=0"`
	CandidateTimeout  time.Duration `yaml:"candidate_timeout" json:"candidate_timeout" validate:"gte=0s"`
}

// RateLimitConfig holds the request pacing parameters
type RateLimitConfig struct {
	PageSleepCount    int           `yaml:"page_sleep_count" json:"page_sleep_count" validate:"gte=1"`
	PageSleepDuration time.Duration `yaml:"page_sleep_duration" json:"page_sleep_duration" validate:"gte=0s"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute" validate:"gte=0"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory" validate:"required"`
}

// DownloadConfig holds image download configuration
type DownloadConfig struct {
	ConcurrentDownloads int  `yaml:"concurrent_downloads" json:"concurrent_downloads" validate:"gte=1,lte=10"`
	SkipImages          bool `yaml:"skip_images" json:"skip_images"`
}

// MetricsConfig controls the Prometheus endpoint. An empty listen address disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" json:"listen" validate:"omitempty,hostname_port"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn warning error disabled"`
	File  string `yaml:"file" json:"file"`
}

// AuthConfig names the keychain entry holding the cookie
type AuthConfig struct {
	Profile string `yaml:"profile" json:"profile"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report yaml keys rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Weibo: WeiboConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			BaseURL:   "https://weibo.com",
			Timeout:   30 * time.Second,
		},
		UserMutualFollow: MutualFollowConfig{
			MaxMembers: 100,
		},
		RateLimit: RateLimitConfig{
			PageSleepCount:    10,
			PageSleepDuration: 30 * time.Second,
		},
		Output: OutputConfig{
			BaseDirectory: "./output",
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 3,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Auth: AuthConfig{
			Profile: "default",
		},
	}
}

// LoadFromEnv overrides values from WBSCRAPER_* environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("WBSCRAPER_COOKIE"); v != "" {
		c.Weibo.Cookie = v
	}
	if v := os.Getenv("WBSCRAPER_USER_AGENT"); v != "" {
		c.Weibo.UserAgent = v
	}
	if v := os.Getenv("WBSCRAPER_OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := os.Getenv("WBSCRAPER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("WBSCRAPER_METRICS_LISTEN"); v != "" {
		c.Metrics.Listen = v
	}
	if v := os.Getenv("WBSCRAPER_PAGE_SLEEP_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WBSCRAPER_PAGE_SLEEP_COUNT: %w", err)
		}
		c.RateLimit.PageSleepCount = n
	}
	if v := os.Getenv("WBSCRAPER_PAGE_SLEEP_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("WBSCRAPER_PAGE_SLEEP_DURATION: %w", err)
		}
		c.RateLimit.PageSleepDuration = d
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file. An empty path searches the default locations.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil
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

// FindConfigFile searches for a config file in the standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"wbscraper.yaml",
		".wbscraper.yaml",
		".wbscraper.yml",
		filepath.Join(home, ".config", "wbscraper", "config.yaml"),
		filepath.Join(home, ".wbscraper.yaml"),
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks field constraints and the cross-field rules
func (c *Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				field := strings.TrimPrefix(fe.Namespace(), "Config.")
				errs = append(errs, fmt.Errorf("%s: failed %q constraint", field, fe.ActualTag()))
			}
		} else {
			errs = append(errs, err)
		}
	}

	seeds := make(map[int64]bool, len(c.UserIDList))
	for _, id := range c.UserIDList {
		seeds[id] = true
	}
	for _, id := range c.UserMblog.IDList {
		if !seeds[id] {
			errs = append(errs, fmt.Errorf("user_mblog.id_list: %d is not in user_id_list", id))
		}
	}
	for _, id := range c.UserMutualFollow.IDList {
		if !seeds[id] {
			errs = append(errs, fmt.Errorf("user_mutual_follow.id_list: %d is not in user_id_list", id))
		}
	}

	return errors.Join(errs...)
}

// SinceDate returns the timeline cutoff in UTC. The zero time means no cutoff.
func (c *Config) SinceDate() time.Time {
	if c.UserMblog.SinceDate == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(SinceDateLayout, c.UserMblog.SinceDate, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// CrawlsPosts reports whether the post timeline of seed should be crawled
func (c *Config) CrawlsPosts(seed int64) bool {
	return containsID(c.UserMblog.IDList, seed)
}

// DiscoversNetwork reports whether the reciprocal-follow network of seed should be discovered
func (c *Config) DiscoversNetwork(seed int64) bool {
	return containsID(c.UserMutualFollow.IDList, seed)
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	// the file may hold a cookie
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["cookie"].(string); ok && v != "" {
		c.Weibo.Cookie = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["metrics-listen"].(string); ok && v != "" {
		c.Metrics.Listen = v
	}
	if v, ok := flags["include-indirect"].(bool); ok {
		c.UserMutualFollow.IncludeIndirect = v
	}
	if v, ok := flags["min-follower"].(int); ok && v >= 0 {
		c.UserMutualFollow.MinFollower = v
	}
	if v, ok := flags["max-follow-pages"].(int); ok && v >= 0 {
		c.UserMutualFollow.MaxFollowPages = v
	}
	if v, ok := flags["skip-images"].(bool); ok {
		c.Download.SkipImages = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".wbscraper.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
