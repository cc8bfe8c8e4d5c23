package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Policy   string `toml:"policy"`
	MaxItems int    `toml:"max_items"`
	Window   string `toml:"window"`

	Sink      string `toml:"sink"`
	Separator string `toml:"separator"`
	Output    string `toml:"output"`
	Input     string `toml:"input"`

	HTTPURL     string `toml:"http_url"`
	HTTPTimeout string `toml:"http_timeout"`
	HTTPRetries *int   `toml:"http_retries"`
	AuthKey     string `toml:"auth_key"`

	RedisAddr   string `toml:"redis_addr"`
	RedisStream string `toml:"redis_stream"`

	LogLevel   string `toml:"log_level"`
	LogBackend string `toml:"log_backend"`

	WatchConfig     *bool  `toml:"watch_config"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.reqbatch/config.toml, or "" if the home
// directory cannot be determined.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".reqbatch", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("policy", fc.Policy, &cfg.Policy)
	s.setInt("max-items", fc.MaxItems, &cfg.MaxItems)
	if err := s.setDuration("window", fc.Window, &cfg.Window); err != nil {
		return err
	}

	s.setString("sink", fc.Sink, &cfg.Sink)
	s.setString("separator", fc.Separator, &cfg.Separator)
	s.setString("output", fc.Output, &cfg.Output)
	s.setString("input", fc.Input, &cfg.Input)

	s.setString("http-url", fc.HTTPURL, &cfg.HTTPURL)
	if err := s.setDuration("http-timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	s.setIntPtr("http-retries", fc.HTTPRetries, &cfg.HTTPRetries)
	s.setString("auth-key", fc.AuthKey, &cfg.AuthKey)

	s.setString("redis-addr", fc.RedisAddr, &cfg.RedisAddr)
	s.setString("redis-stream", fc.RedisStream, &cfg.RedisStream)

	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-backend", fc.LogBackend, &cfg.LogBackend)

	s.setBool("watch-config", fc.WatchConfig, &cfg.WatchConfig)
	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
