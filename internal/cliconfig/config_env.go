package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "REQBATCH_"

// ApplyEnvConfig applies REQBATCH_* environment variables to cfg.
// Flags in changed take precedence.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("policy", getenv("POLICY"), &cfg.Policy)
	if err := s.setIntFromString("max-items", getenv("MAX_ITEMS"), &cfg.MaxItems); err != nil {
		return err
	}
	if err := s.setDuration("window", getenv("WINDOW"), &cfg.Window); err != nil {
		return err
	}

	s.setString("sink", getenv("SINK"), &cfg.Sink)
	s.setString("separator", getenv("SEPARATOR"), &cfg.Separator)
	s.setString("output", getenv("OUTPUT"), &cfg.Output)
	s.setString("input", getenv("INPUT"), &cfg.Input)

	s.setString("http-url", getenv("HTTP_URL"), &cfg.HTTPURL)
	if err := s.setDuration("http-timeout", getenv("HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setIntFromString("http-retries", getenv("HTTP_RETRIES"), &cfg.HTTPRetries); err != nil {
		return err
	}
	s.setString("auth-key", getenv("AUTH_KEY"), &cfg.AuthKey)

	s.setString("redis-addr", getenv("REDIS_ADDR"), &cfg.RedisAddr)
	s.setString("redis-stream", getenv("REDIS_STREAM"), &cfg.RedisStream)

	s.setString("log-level", getenv("LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-backend", getenv("LOG_BACKEND"), &cfg.LogBackend)

	s.setBoolFromString("watch-config", getenv("WATCH_CONFIG"), &cfg.WatchConfig)
	if err := s.setDuration("shutdown-timeout", getenv("SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}

	return nil
}

func getenv(name string) string {
	return os.Getenv(EnvPrefix + name)
}
