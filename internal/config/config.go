package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pders01/ytsweep/internal/validation"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	API       APIConfig       `mapstructure:"api"`
	Search    SearchConfig    `mapstructure:"search"`
	Delete    DeleteConfig    `mapstructure:"delete"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	UI        UIConfig        `mapstructure:"ui"`
	Browser   BrowserConfig   `mapstructure:"browser"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

// APIConfig controls how the remote API is called.
type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	PageSize          int           `mapstructure:"page_size"`
	UserAgent         string        `mapstructure:"user_agent"`
}

type SearchConfig struct {
	AbortOnVideoError bool   `mapstructure:"abort_on_video_error"`
	VideoSource       string `mapstructure:"video_source"`
	FeedBaseURL       string `mapstructure:"feed_base_url"`
}

type DeleteConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type AuthConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	Scopes       []string `mapstructure:"scopes"`
	RedirectPort int      `mapstructure:"redirect_port"`
	RevokeURL    string   `mapstructure:"revoke_url"`
	// AccessToken bypasses OAuth entirely when set.
	AccessToken string `mapstructure:"access_token"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Stdout  bool `mapstructure:"stdout"`
}

type UIConfig struct {
	Colors UIColors `mapstructure:"colors"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

type BrowserConfig struct {
	Opener string `mapstructure:"opener"`
}

const (
	VideoSourceUploads = "uploads"
	VideoSourceFeed    = "feed"
)

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".ytsweep", "ytsweep.db")
	searchIndexPath := filepath.Join(homeDir, ".ytsweep", "matches.bleve")

	return &Config{
		Database: DatabaseConfig{
			Path:        dbPath,
			Timeout:     1 * time.Second,
			SearchIndex: searchIndexPath,
		},
		API: APIConfig{
			BaseURL:           "https://www.googleapis.com/youtube/v3",
			HTTPTimeout:       30 * time.Second,
			MaxAttempts:       3,
			RetryDelay:        5 * time.Second,
			RequestsPerSecond: 10,
			PageSize:          50,
			UserAgent:         "ytsweep/1.0 (https://github.com/pders01/ytsweep)",
		},
		Search: SearchConfig{
			AbortOnVideoError: false,
			VideoSource:       VideoSourceUploads,
			FeedBaseURL:       "https://www.youtube.com",
		},
		Delete: DeleteConfig{
			Concurrency: 4,
		},
		Auth: AuthConfig{
			Scopes:       []string{"https://www.googleapis.com/auth/youtube.force-ssl"},
			RedirectPort: 0,
			RevokeURL:    "https://oauth2.googleapis.com/revoke",
		},
		Log: LogConfig{
			Level: "off",
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#FF6B6B",
				Secondary: "#4ECDC4",
				Accent:    "#95E1D3",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Error:     "#F87171",
				Success:   "#4ADE80",
			},
		},
		Browser: BrowserConfig{
			Opener: getDefaultOpener(),
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "ytsweep")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("YTSWEEP")
	v.AutomaticEnv()

	// Nested keys are not picked up by AutomaticEnv unless bound explicitly.
	for key, env := range map[string]string{
		"auth.access_token":  "YTSWEEP_ACCESS_TOKEN",
		"auth.client_id":     "YTSWEEP_CLIENT_ID",
		"auth.client_secret": "YTSWEEP_CLIENT_SECRET",
		"log.level":          "YTSWEEP_LOG_LEVEL",
		"telemetry.enabled":  "YTSWEEP_TELEMETRY",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers every leaf key so a partial table in the config
// file only overrides the keys it names.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.timeout", cfg.Database.Timeout)
	v.SetDefault("database.search_index", cfg.Database.SearchIndex)

	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.http_timeout", cfg.API.HTTPTimeout)
	v.SetDefault("api.max_attempts", cfg.API.MaxAttempts)
	v.SetDefault("api.retry_delay", cfg.API.RetryDelay)
	v.SetDefault("api.requests_per_second", cfg.API.RequestsPerSecond)
	v.SetDefault("api.page_size", cfg.API.PageSize)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)

	v.SetDefault("search.abort_on_video_error", cfg.Search.AbortOnVideoError)
	v.SetDefault("search.video_source", cfg.Search.VideoSource)
	v.SetDefault("search.feed_base_url", cfg.Search.FeedBaseURL)

	v.SetDefault("delete.concurrency", cfg.Delete.Concurrency)

	v.SetDefault("auth.client_id", cfg.Auth.ClientID)
	v.SetDefault("auth.client_secret", cfg.Auth.ClientSecret)
	v.SetDefault("auth.scopes", cfg.Auth.Scopes)
	v.SetDefault("auth.redirect_port", cfg.Auth.RedirectPort)
	v.SetDefault("auth.revoke_url", cfg.Auth.RevokeURL)
	v.SetDefault("auth.access_token", cfg.Auth.AccessToken)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)

	v.SetDefault("telemetry.enabled", cfg.Telemetry.Enabled)
	v.SetDefault("telemetry.stdout", cfg.Telemetry.Stdout)

	v.SetDefault("ui.colors.primary", cfg.UI.Colors.Primary)
	v.SetDefault("ui.colors.secondary", cfg.UI.Colors.Secondary)
	v.SetDefault("ui.colors.accent", cfg.UI.Colors.Accent)
	v.SetDefault("ui.colors.text", cfg.UI.Colors.Text)
	v.SetDefault("ui.colors.muted", cfg.UI.Colors.Muted)
	v.SetDefault("ui.colors.error", cfg.UI.Colors.Error)
	v.SetDefault("ui.colors.success", cfg.UI.Colors.Success)

	v.SetDefault("browser.opener", cfg.Browser.Opener)
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.API.MaxAttempts < 1 {
		return fmt.Errorf("api.max_attempts must be at least 1, got %d", c.API.MaxAttempts)
	}
	if c.API.RetryDelay < 0 {
		return fmt.Errorf("api.retry_delay must not be negative")
	}
	if c.API.PageSize < 1 || c.API.PageSize > 100 {
		return fmt.Errorf("api.page_size must be between 1 and 100, got %d", c.API.PageSize)
	}
	if c.Delete.Concurrency < 1 {
		return fmt.Errorf("delete.concurrency must be at least 1, got %d", c.Delete.Concurrency)
	}
	switch c.Search.VideoSource {
	case VideoSourceUploads, VideoSourceFeed:
	default:
		return fmt.Errorf("search.video_source must be %q or %q, got %q",
			VideoSourceUploads, VideoSourceFeed, c.Search.VideoSource)
	}

	endpoints := validation.NewEndpointValidator()
	base, err := endpoints.ValidateAndNormalize(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	c.API.BaseURL = base
	if c.Search.VideoSource == VideoSourceFeed {
		feed, err := endpoints.ValidateAndNormalize(c.Search.FeedBaseURL)
		if err != nil {
			return fmt.Errorf("search.feed_base_url: %w", err)
		}
		c.Search.FeedBaseURL = feed
	}
	return nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.File = expandPath(cfg.Log.File)
}

// settings lays the config out as the nested tables written to disk.
// The access token is never included; it belongs in the environment.
func settings(config *Config) map[string]interface{} {
	return map[string]interface{}{
		"database": map[string]interface{}{
			"path":         config.Database.Path,
			"timeout":      config.Database.Timeout.String(),
			"search_index": config.Database.SearchIndex,
		},
		"api": map[string]interface{}{
			"base_url":            config.API.BaseURL,
			"http_timeout":        config.API.HTTPTimeout.String(),
			"max_attempts":        config.API.MaxAttempts,
			"retry_delay":         config.API.RetryDelay.String(),
			"requests_per_second": config.API.RequestsPerSecond,
			"page_size":           config.API.PageSize,
			"user_agent":          config.API.UserAgent,
		},
		"search": map[string]interface{}{
			"abort_on_video_error": config.Search.AbortOnVideoError,
			"video_source":         config.Search.VideoSource,
			"feed_base_url":        config.Search.FeedBaseURL,
		},
		"delete": map[string]interface{}{"concurrency": config.Delete.Concurrency},
		"auth": map[string]interface{}{
			"client_id":     config.Auth.ClientID,
			"client_secret": config.Auth.ClientSecret,
			"scopes":        config.Auth.Scopes,
			"redirect_port": config.Auth.RedirectPort,
			"revoke_url":    config.Auth.RevokeURL,
		},
		"log": map[string]interface{}{"level": config.Log.Level, "file": config.Log.File},
		"telemetry": map[string]interface{}{
			"enabled": config.Telemetry.Enabled,
			"stdout":  config.Telemetry.Stdout,
		},
		"ui": map[string]interface{}{
			"colors": map[string]interface{}{
				"primary":   config.UI.Colors.Primary,
				"secondary": config.UI.Colors.Secondary,
				"accent":    config.UI.Colors.Accent,
				"text":      config.UI.Colors.Text,
				"muted":     config.UI.Colors.Muted,
				"error":     config.UI.Colors.Error,
				"success":   config.UI.Colors.Success,
			},
		},
		"browser": map[string]interface{}{"opener": config.Browser.Opener},
	}
}

func Save(config *Config, path string) error {
	v := viper.New()
	for key, table := range settings(config) {
		v.Set(key, table)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

// Encode writes config as TOML in the same layout Save uses. Client
// secrets are masked.
func Encode(w io.Writer, config *Config) error {
	s := settings(config)
	if auth, ok := s["auth"].(map[string]interface{}); ok && config.Auth.ClientSecret != "" {
		auth["client_secret"] = "********"
	}
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(s)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
