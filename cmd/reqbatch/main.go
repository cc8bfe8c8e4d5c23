package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/makomweb/request-batcher/internal/cliconfig"
	"github.com/makomweb/request-batcher/internal/configwatch"
	"github.com/makomweb/request-batcher/pkg/batch"
	"github.com/makomweb/request-batcher/pkg/log"
)

const helpDescription = `
Coalesce lines from stdin (or a file) into batches and hand every batch to a
sink exactly once.

Highlights:
  - Size-bounded or time-windowed batches.
  - Sinks: stdout, an HTTP collector (JSON, retries with backoff) or a Redis stream.
  - Configure via file, env (REQBATCH_*) or flags; the file can be watched for changes.
`

var exampleUsage = strings.TrimSpace(`
  seq 1 10 | reqbatch --max-items 3
  tail -f access.log | reqbatch --policy time-window --window 2s --sink http --http-url http://collector/batches
  reqbatch --config $HOME/.reqbatch/config.toml --input requests.txt --watch-config
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return batch.Version
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	logger := log.NewZerologAdapter(os.Stderr, log.LevelInfo)

	root := &cobra.Command{
		Use:           "reqbatch",
		Short:         "Coalesce input lines into batches and deliver each batch once",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.reqbatch/config.toml), then apply env and flags
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			} else if cfgPath != "" {
				return fmt.Errorf("config file %s not found", cfgPath)
			}

			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			appLogger, err := cfg.NewLogger(os.Stderr)
			if err != nil {
				return err
			}

			logCfg := cfg
			if len(logCfg.AuthKey) > 0 {
				logCfg.AuthKey = "*****"
			}
			appLogger.Debug("configuration", log.Any("config", logCfg))

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.WatchConfig && cliconfig.FileExists(cfgFile) {
				w := configwatch.New(cfgFile, levelReloader(appLogger), appLogger, configwatch.DefaultConfig())
				if err := w.Start(ctx); err != nil {
					appLogger.Warn("config watcher disabled", log.Err(err))
				} else {
					defer w.Stop()
				}
			}

			in, closeIn, err := openInput(cfg.Input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer closeIn()

			return run(ctx, cfg, appLogger, in, cmd.OutOrStdout())
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.reqbatch/config.toml)")

	root.Flags().StringVar(&cfg.Policy, "policy", cfg.Policy, "completion policy: size or time-window")
	root.Flags().IntVar(&cfg.MaxItems, "max-items", cfg.MaxItems, "items per batch for the size policy")
	root.Flags().DurationVar(&cfg.Window, "window", cfg.Window, "batch lifetime for the time-window policy")

	root.Flags().StringVar(&cfg.Sink, "sink", cfg.Sink, "where batches go: stdout, http or redis")
	root.Flags().StringVar(&cfg.Separator, "separator", cfg.Separator, "separator between items for the stdout sink")
	root.Flags().StringVar(&cfg.Output, "output", cfg.Output, "file the stdout sink appends to (default: stdout)")
	root.Flags().StringVar(&cfg.Input, "input", cfg.Input, "file to read items from (default: stdin)")

	root.Flags().StringVar(&cfg.HTTPURL, "http-url", cfg.HTTPURL, "collector URL for the http sink")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "http-timeout", cfg.HTTPTimeout, "HTTP timeout per attempt")
	root.Flags().IntVar(&cfg.HTTPRetries, "http-retries", cfg.HTTPRetries, "additional attempts after a failed POST")
	root.Flags().StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "bearer token for the http sink")

	root.Flags().StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for the redis sink")
	root.Flags().StringVar(&cfg.RedisStream, "redis-stream", cfg.RedisStream, "Redis stream for the redis sink")

	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	root.Flags().StringVar(&cfg.LogBackend, "log-backend", cfg.LogBackend, "log backend: zerolog or logrus")
	root.Flags().BoolVar(&cfg.WatchConfig, "watch-config", cfg.WatchConfig, "reload the log level when the config file changes")
	root.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "how long to wait for running batches on exit")

	if err := root.Execute(); err != nil {
		logger.Error("reqbatch", log.Err(err))
		os.Exit(1)
	}
}

// levelReloader applies the log level of a reloaded config file.
func levelReloader(logger log.Logger) configwatch.ChangeFunc {
	return func(fc cliconfig.FileConfig) {
		if fc.LogLevel == "" {
			return
		}
		level, err := log.ParseLevel(fc.LogLevel)
		if err != nil {
			logger.Warn("ignoring log level", log.String("level", fc.LogLevel), log.Err(err))
			return
		}
		if setter, ok := logger.(log.LevelSetter); ok {
			setter.SetLevel(level)
			logger.Info("log level changed", log.String("level", level.String()))
		}
	}
}
