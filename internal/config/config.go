package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the configuration for the vocabulary radar service
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Highlight  HighlightConfig  `yaml:"highlight"`
	Navigation NavigationConfig `yaml:"navigation"`
	Presenter  PresenterConfig  `yaml:"presenter"`
	AutoScan   AutoScanConfig   `yaml:"auto_scan"`
	Vocab      VocabConfig      `yaml:"vocab"`
	Fetcher    FetcherConfig    `yaml:"fetcher"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	DefaultLocale string `yaml:"default_locale"`
}

// HighlightConfig controls which text nodes the highlight engine considers
type HighlightConfig struct {
	StrictVisibility bool `yaml:"strict_visibility"`
}

// NavigationConfig holds the advisory lock timings used between navigation and auto-scans
type NavigationConfig struct {
	AutoScanCooldown  time.Duration `yaml:"auto_scan_cooldown"`
	GracePeriod       time.Duration `yaml:"grace_period"`
	PresentOnNavigate bool          `yaml:"present_on_navigate"`
}

// PresenterConfig holds the hover debounce delays of the term detail popup
type PresenterConfig struct {
	ShowDelay time.Duration `yaml:"show_delay"`
	HideDelay time.Duration `yaml:"hide_delay"`
}

type AutoScanConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// VocabConfig holds vocabulary source configuration
type VocabConfig struct {
	RemoteURL      string        `yaml:"remote_url"`
	CacheMaxAge    time.Duration `yaml:"cache_max_age"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// FetcherConfig holds page loading configuration
type FetcherConfig struct {
	Timeout             time.Duration `yaml:"timeout"`
	UserAgent           string        `yaml:"user_agent"`
	EnableRobotsCheck   bool          `yaml:"enable_robots_check"`
	RobotsCacheDuration time.Duration `yaml:"robots_cache_duration"`
	MinDelay            time.Duration `yaml:"min_delay"`
	MaxBodyBytes        int           `yaml:"max_body_bytes"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          ":8080",
			DefaultLocale: "en",
		},
		Highlight: HighlightConfig{
			StrictVisibility: true,
		},
		Navigation: NavigationConfig{
			AutoScanCooldown:  30 * time.Second,
			GracePeriod:       1 * time.Second,
			PresentOnNavigate: true,
		},
		Presenter: PresenterConfig{
			ShowDelay: 300 * time.Millisecond,
			HideDelay: 500 * time.Millisecond,
		},
		AutoScan: AutoScanConfig{
			Interval: 10 * time.Second,
		},
		Vocab: VocabConfig{
			CacheMaxAge:    72 * time.Hour,
			RequestTimeout: 10 * time.Second,
		},
		Fetcher: FetcherConfig{
			Timeout:             30 * time.Second,
			UserAgent:           "VocabularyRadar/1.0",
			EnableRobotsCheck:   true,
			RobotsCacheDuration: 24 * time.Hour,
			MinDelay:            1 * time.Second,
			MaxBodyBytes:        10 << 20,
		},
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return applyEnv(Defaults())
}

// LoadFile decodes a YAML file over the defaults, then applies environment overrides
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return applyEnv(cfg), nil
}

func applyEnv(base *Config) *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          GetStringEnv("SERVER_ADDR", base.Server.Addr),
			DefaultLocale: GetStringEnv("SERVER_DEFAULT_LOCALE", base.Server.DefaultLocale),
		},
		Highlight: HighlightConfig{
			StrictVisibility: GetBoolEnv("HIGHLIGHT_STRICT_VISIBILITY", base.Highlight.StrictVisibility),
		},
		Navigation: NavigationConfig{
			AutoScanCooldown:  GetDurationEnv("NAVIGATION_AUTO_SCAN_COOLDOWN", base.Navigation.AutoScanCooldown),
			GracePeriod:       GetDurationEnv("NAVIGATION_GRACE_PERIOD", base.Navigation.GracePeriod),
			PresentOnNavigate: GetBoolEnv("NAVIGATION_PRESENT_ON_NAVIGATE", base.Navigation.PresentOnNavigate),
		},
		Presenter: PresenterConfig{
			ShowDelay: GetDurationEnv("PRESENTER_SHOW_DELAY", base.Presenter.ShowDelay),
			HideDelay: GetDurationEnv("PRESENTER_HIDE_DELAY", base.Presenter.HideDelay),
		},
		AutoScan: AutoScanConfig{
			Interval: GetDurationEnv("AUTO_SCAN_INTERVAL", base.AutoScan.Interval),
		},
		Vocab: VocabConfig{
			RemoteURL:      GetStringEnv("VOCAB_REMOTE_URL", base.Vocab.RemoteURL),
			CacheMaxAge:    GetDurationEnv("VOCAB_CACHE_MAX_AGE", base.Vocab.CacheMaxAge),
			RequestTimeout: GetDurationEnv("VOCAB_REQUEST_TIMEOUT", base.Vocab.RequestTimeout),
		},
		Fetcher: FetcherConfig{
			Timeout:             GetDurationEnv("FETCHER_TIMEOUT", base.Fetcher.Timeout),
			UserAgent:           GetStringEnv("FETCHER_USER_AGENT", base.Fetcher.UserAgent),
			EnableRobotsCheck:   GetBoolEnv("FETCHER_ENABLE_ROBOTS_CHECK", base.Fetcher.EnableRobotsCheck),
			RobotsCacheDuration: GetDurationEnv("FETCHER_ROBOTS_CACHE_DURATION", base.Fetcher.RobotsCacheDuration),
			MinDelay:            GetDurationEnv("FETCHER_MIN_DELAY", base.Fetcher.MinDelay),
			MaxBodyBytes:        GetIntEnv("FETCHER_MAX_BODY_BYTES", base.Fetcher.MaxBodyBytes),
		},
		Storage: StorageConfig{
			DataDir: GetStringEnv("STORAGE_DATA_DIR", base.Storage.DataDir),
		},
		Log: LogConfig{
			Level: GetStringEnv("LOG_LEVEL", base.Log.Level),
		},
	}
}

func GetStringEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
