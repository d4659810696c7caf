// Package commands implements the stdinbridge command line.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casualjim/stdinbridge"
	"github.com/casualjim/stdinbridge/apps"
	_ "github.com/casualjim/stdinbridge/apps/echo"
	_ "github.com/casualjim/stdinbridge/apps/natsapp"
	_ "github.com/casualjim/stdinbridge/apps/thoughts"
	"github.com/casualjim/stdinbridge/internal/config"
	"github.com/casualjim/stdinbridge/pkg/slogx"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	workers         int
	checkInterval   time.Duration
	shutdownTimeout time.Duration
	escalate        bool
	markdown        bool
	natsURL         string
	logLevel        string
	envFile         string

	cfg config.Config
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	defaults := config.Default()
	f := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "stdinbridge <application>",
		Short: "Bridge console lines to an asynchronous application",
		Long: `Reads lines from standard input and hands each one to the application as a
parse message. Print messages from the application are written as "--> <text>".
Type q or quit, or close the input, to end the session.

Applications: echo, thoughts, nats:<subject>.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.resolve(cmd)
			if err != nil {
				return err
			}
			f.cfg = cfg
			setupLogging(cmd.ErrOrStderr(), cfg.LogLevel)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], f.cfg)
		},
	}

	// persistent so that config reports the same overrides a session would use
	fs := cmd.PersistentFlags()
	fs.DurationVar(&f.checkInterval, "check-interval", defaults.CheckInterval, "how often failed tasks are reported")
	fs.IntVar(&f.workers, "workers", defaults.Workers, "size of the pool running blocking calls")
	fs.BoolVar(&f.escalate, "escalate", defaults.Escalate, "shut down after an application failure")
	fs.BoolVar(&f.markdown, "markdown", defaults.Markdown, "render printed text as markdown")
	fs.DurationVar(&f.shutdownTimeout, "shutdown-timeout", defaults.ShutdownTimeout, "how long shutdown waits for tasks")
	fs.StringVar(&f.natsURL, "nats-url", "", "NATS server for nats:<subject> applications (default $NATS_URL)")

	fs.StringVar(&f.logLevel, "log-level", defaults.LogLevel.String(), "log level: debug, info, warn or error")
	fs.StringVar(&f.envFile, "env-file", "", "read settings from a dotenv file")

	cmd.AddCommand(newAppsCommand(), newSchemaCommand(), newConfigCommand(f))
	return cmd
}

// resolve layers flags that were set explicitly over the environment.
func (f *rootFlags) resolve(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	var err error
	if f.envFile != "" {
		cfg, err = config.FromFile(f.envFile)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return config.Config{}, err
	}

	fs := cmd.Flags()
	if fs.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fs.Changed("check-interval") {
		cfg.CheckInterval = f.checkInterval
	}
	if fs.Changed("shutdown-timeout") {
		cfg.ShutdownTimeout = f.shutdownTimeout
	}
	if fs.Changed("escalate") {
		cfg.Escalate = f.escalate
	}
	if fs.Changed("markdown") {
		cfg.Markdown = f.markdown
	}
	if fs.Changed("nats-url") {
		cfg.NATSURL = f.natsURL
	}
	if fs.Changed("log-level") {
		if err := cfg.LogLevel.UnmarshalText([]byte(f.logLevel)); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, cfg.Validate()
}

func run(cmd *cobra.Command, locator string, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := apps.Resolve(ctx, locator, apps.Env{NATSURL: cfg.NATSURL})
	if err != nil {
		return err
	}
	if closer, ok := app.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				slog.WarnContext(ctx, "failed to release application", slogx.Error(err))
			}
		}()
	}

	options := append(cfg.ServerOptions(),
		stdinbridge.Input(cmd.InOrStdin()),
		stdinbridge.Output(cmd.OutOrStdout()),
	)
	srv, err := stdinbridge.New(app, options...)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func setupLogging(w io.Writer, level slog.Level) {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Stamp}
	logger := zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(logger, &zeroslog.HandlerOptions{Level: level}),
	))
}

// Execute runs the command line with the process arguments.
func Execute(ctx context.Context) error {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		cmd.PrintErrln("Error:", err)
		return err
	}
	return nil
}
