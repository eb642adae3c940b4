package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

type Config struct {
	API      APIConfig      `mapstructure:"api" toml:"api"`
	Lookup   LookupConfig   `mapstructure:"lookup" toml:"lookup"`
	Database DatabaseConfig `mapstructure:"database" toml:"database"`
	UI       UIConfig       `mapstructure:"ui" toml:"ui"`
	Keys     KeyConfig      `mapstructure:"keys" toml:"keys"`
	Log      LogConfig      `mapstructure:"log" toml:"log"`
}

type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url" toml:"base_url"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout" toml:"http_timeout"`
	UserAgent         string        `mapstructure:"user_agent" toml:"user_agent"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" toml:"requests_per_second"`
	Burst             int           `mapstructure:"burst" toml:"burst"`
	// AllowLocal permits loopback and private base URLs (local mirrors).
	AllowLocal bool `mapstructure:"allow_local" toml:"allow_local"`
}

type LookupConfig struct {
	Debounce     time.Duration `mapstructure:"debounce" toml:"debounce"`
	MaxResults   int           `mapstructure:"max_results" toml:"max_results"`
	ErrorDelay   time.Duration `mapstructure:"error_delay" toml:"error_delay"`
	TooManyDelay time.Duration `mapstructure:"too_many_delay" toml:"too_many_delay"`
	NoticeWidth  int           `mapstructure:"notice_width" toml:"notice_width"`
	DiscardStale bool          `mapstructure:"discard_stale" toml:"discard_stale"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path" toml:"path"`
	Timeout     time.Duration `mapstructure:"timeout" toml:"timeout"`
	SearchIndex string        `mapstructure:"search_index" toml:"search_index"`
	MaxHistory  int           `mapstructure:"max_history" toml:"max_history"`
}

type UIConfig struct {
	Colors UIColors   `mapstructure:"colors" toml:"colors"`
	Card   CardConfig `mapstructure:"card" toml:"card"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary" toml:"primary"`
	Secondary  string `mapstructure:"secondary" toml:"secondary"`
	Accent     string `mapstructure:"accent" toml:"accent"`
	Background string `mapstructure:"background" toml:"background"`
	Surface    string `mapstructure:"surface" toml:"surface"`
	Text       string `mapstructure:"text" toml:"text"`
	Muted      string `mapstructure:"muted" toml:"muted"`
	Error      string `mapstructure:"error" toml:"error"`
	Success    string `mapstructure:"success" toml:"success"`
}

type CardConfig struct {
	WordWrapMaxWidth int `mapstructure:"word_wrap_max_width" toml:"word_wrap_max_width"`
	WordWrapMinWidth int `mapstructure:"word_wrap_min_width" toml:"word_wrap_min_width"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier" toml:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings" toml:"bindings"`
}

type KeyBindings struct {
	Quit    string `mapstructure:"quit" toml:"quit"`
	History string `mapstructure:"history" toml:"history"`
	Clear   string `mapstructure:"clear" toml:"clear"`
	Back    string `mapstructure:"back" toml:"back"`
}

type LogConfig struct {
	Level string `mapstructure:"level" toml:"level"`
	File  string `mapstructure:"file" toml:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".cntry.db")
	searchIndexPath := filepath.Join(homeDir, ".cntry", "history.bleve")

	return &Config{
		API: APIConfig{
			BaseURL:           "https://restcountries.com",
			HTTPTimeout:       10 * time.Second,
			UserAgent:         "cntry/1.0 (https://github.com/pders01/cntry)",
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Lookup: LookupConfig{
			Debounce:     500 * time.Millisecond,
			MaxResults:   10,
			ErrorDelay:   4 * time.Second,
			TooManyDelay: 1 * time.Second,
			NoticeWidth:  40,
			DiscardStale: true,
		},
		Database: DatabaseConfig{
			Path:        dbPath,
			Timeout:     1 * time.Second,
			SearchIndex: searchIndexPath,
			MaxHistory:  500,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			Card: CardConfig{
				WordWrapMaxWidth: 100,
				WordWrapMinWidth: 40,
			},
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:    "c",
				History: "h",
				Clear:   "l",
				Back:    "esc",
			},
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(homeDir, ".cntry", "cntry.log"),
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("api", cfg.API)
	v.SetDefault("lookup", cfg.Lookup)
	v.SetDefault("database", cfg.Database)
	v.SetDefault("ui", cfg.UI)
	v.SetDefault("keys", cfg.Keys)
	v.SetDefault("log", cfg.Log)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(DefaultDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CNTRY")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Decode over the defaults so partial sections keep the other keys.
	config := defaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(config)

	return config, nil
}

// DefaultDir is ~/.config/cntry.
func DefaultDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "cntry")
}

// DefaultPath is the config file used when --config is not given.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.toml")
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

// expandPaths expands all paths in the config
func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.File = expandPath(cfg.Log.File)
}

// ExpandPath is expandPath for callers that take paths from flags.
func ExpandPath(path string) string {
	return expandPath(path)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings for TOML readability
	apiCfg := map[string]interface{}{
		"base_url":            config.API.BaseURL,
		"http_timeout":        config.API.HTTPTimeout.String(),
		"user_agent":          config.API.UserAgent,
		"requests_per_second": config.API.RequestsPerSecond,
		"burst":               config.API.Burst,
		"allow_local":         config.API.AllowLocal,
	}

	lookupCfg := map[string]interface{}{
		"debounce":       config.Lookup.Debounce.String(),
		"max_results":    config.Lookup.MaxResults,
		"error_delay":    config.Lookup.ErrorDelay.String(),
		"too_many_delay": config.Lookup.TooManyDelay.String(),
		"notice_width":   config.Lookup.NoticeWidth,
		"discard_stale":  config.Lookup.DiscardStale,
	}

	dbCfg := map[string]interface{}{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
		"max_history":  config.Database.MaxHistory,
	}

	v.Set("api", apiCfg)
	v.Set("lookup", lookupCfg)
	v.Set("database", dbCfg)
	v.Set("ui", config.UI)
	v.Set("keys", config.Keys)
	v.Set("log", config.Log)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}

// Marshal renders the effective configuration as TOML.
func Marshal(config *Config) ([]byte, error) {
	data, err := toml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}
