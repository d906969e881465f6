package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.Database = DatabaseConfig{
		Path:    ":memory:",
		Timeout: 1 * time.Second,
	}
	cfg.API.HTTPTimeout = 5 * time.Second
	cfg.API.RetryDelay = 0
	cfg.API.RequestsPerSecond = 0
	cfg.API.UserAgent = "ytsweep-test/1.0"
	cfg.Delete.Concurrency = 2
	cfg.Auth.AccessToken = "test-token"
	return cfg
}
