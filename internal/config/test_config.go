package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           "http://127.0.0.1:0",
			HTTPTimeout:       2 * time.Second,
			UserAgent:         "cntry-test/1.0",
			RequestsPerSecond: 0, // unlimited
			Burst:             1,
			AllowLocal:        true,
		},
		Lookup: LookupConfig{
			Debounce:     10 * time.Millisecond,
			MaxResults:   10,
			ErrorDelay:   4 * time.Second,
			TooManyDelay: 1 * time.Second,
			NoticeWidth:  40,
			DiscardStale: true,
		},
		Database: DatabaseConfig{
			Path:       ":memory:",
			Timeout:    1 * time.Second,
			MaxHistory: 50,
		},
		UI:   defaultConfig().UI,
		Keys: defaultConfig().Keys,
		Log:  LogConfig{Level: "off"},
	}
}
