// Package config holds the process settings of the bridge.
//
// Values come from defaults, then the environment (optionally read from a
// dotenv file), then command line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/casualjim/stdinbridge"
	"github.com/casualjim/stdinbridge/internal/scheduler"
	"github.com/casualjim/stdinbridge/internal/supervisor"
	"github.com/fogfish/opts"
	"github.com/joho/godotenv"
)

// Environment variables.
const (
	EnvWorkers         = "STDINBRIDGE_WORKERS"
	EnvCheckInterval   = "STDINBRIDGE_CHECK_INTERVAL"
	EnvShutdownTimeout = "STDINBRIDGE_SHUTDOWN_TIMEOUT"
	EnvEscalate        = "STDINBRIDGE_ESCALATE"
	EnvMarkdown        = "STDINBRIDGE_MARKDOWN"
	EnvLogLevel        = "STDINBRIDGE_LOG_LEVEL"
	EnvNATSURL         = "NATS_URL"
)

// Config is the complete set of process settings.
type Config struct {
	Workers         int           `env:"STDINBRIDGE_WORKERS"`
	CheckInterval   time.Duration `env:"STDINBRIDGE_CHECK_INTERVAL"`
	ShutdownTimeout time.Duration `env:"STDINBRIDGE_SHUTDOWN_TIMEOUT"`
	Escalate        bool          `env:"STDINBRIDGE_ESCALATE"`
	Markdown        bool          `env:"STDINBRIDGE_MARKDOWN"`
	LogLevel        slog.Level    `env:"STDINBRIDGE_LOG_LEVEL"`
	NATSURL         string        `env:"NATS_URL"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Workers:         scheduler.DefaultWorkers,
		CheckInterval:   supervisor.DefaultCheckInterval,
		ShutdownTimeout: supervisor.DefaultShutdownTimeout,
		LogLevel:        slog.LevelWarn,
	}
}

// FromEnv overlays the process environment on the defaults.
func FromEnv() (Config, error) {
	return Parse(environ())
}

// FromFile overlays the variables of a dotenv file on the defaults. Variables
// set in the process environment win over the file.
func FromFile(path string) (Config, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	maps.Copy(vars, environ())
	return Parse(vars)
}

// Parse overlays vars on the defaults. Unset variables keep their default and
// every malformed variable is reported.
func Parse(vars map[string]string) (Config, error) {
	cfg := Default()
	err := env.ParseWithOptions(&cfg, env.Options{
		Environment: vars,
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(slog.Level(0)): func(v string) (any, error) {
				var level slog.Level
				err := level.UnmarshalText([]byte(v))
				return level, err
			},
		},
	})
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func environ() map[string]string {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return vars
}

// Validate reports every setting outside its allowed range.
func (c Config) Validate() error {
	var err error
	if c.Workers < 1 {
		err = errors.Join(err, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.CheckInterval <= 0 {
		err = errors.Join(err, fmt.Errorf("check interval must be positive, got %s", c.CheckInterval))
	}
	if c.ShutdownTimeout <= 0 {
		err = errors.Join(err, fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout))
	}
	return err
}

// ServerOptions translates the settings into server options.
func (c Config) ServerOptions() []opts.Option[stdinbridge.Server] {
	return []opts.Option[stdinbridge.Server]{
		stdinbridge.Workers(c.Workers),
		stdinbridge.CheckInterval(c.CheckInterval),
		stdinbridge.ShutdownTimeout(c.ShutdownTimeout),
		stdinbridge.Escalate(c.Escalate),
		stdinbridge.Markdown(c.Markdown),
	}
}
