// Package cmd runs a bot process: it resolves the config path, builds the
// application and keeps the Telegram runtime alive until a signal arrives.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "github.com/m3rciful/intakebot/core/config"
	"github.com/m3rciful/intakebot/core/logger"
	coretelegram "github.com/m3rciful/intakebot/core/telegram"
)

const defaultConfigEnv = "CONFIG_PATH"

// ConfigCarrier exposes access to the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp is an assembled bot ready to hand its routes to the runtime.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options describe how to load configuration, assemble the app and run it.
type Options struct {
	// Name tags lifecycle log lines; defaults to "bot".
	Name string

	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(cfg ConfigCarrier) (TelegramApp, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// Run loads configuration, assembles the app and blocks in the Telegram
// runtime until SIGINT or SIGTERM.
func Run(opts Options) error {
	if opts.LoadConfig == nil || opts.Bootstrap == nil {
		return errors.New("cmd: LoadConfig and Bootstrap are required")
	}
	name := opts.Name
	if name == "" {
		name = "bot"
	}

	path, err := configPath(opts)
	if err != nil {
		return err
	}
	log.Printf("%s: loading config %s", name, path)
	cfg, err := opts.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("cmd: load config: %w", err)
	}
	if cfg.CoreConfig() == nil {
		return errors.New("cmd: config carries no core section")
	}

	startedAt := time.Now()
	app, err := opts.Bootstrap(cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap: %w", err)
	}

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("%s: logger shutdown: %v", name, err)
		}
	}()

	runOpts, err := app.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options: %w", err)
	}
	withLifecycleLogs(&runOpts, name, startedAt)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}
	return run(ctx, runOpts)
}

// configPath prefers the env variable over the compiled-in default.
func configPath(opts Options) (string, error) {
	env := opts.ConfigEnvVar
	if env == "" {
		env = defaultConfigEnv
	}
	if p := os.Getenv(env); p != "" {
		return p, nil
	}
	if opts.DefaultConfigPath != "" {
		return opts.DefaultConfigPath, nil
	}
	return "", fmt.Errorf("cmd: config path not provided via %s or DefaultConfigPath", env)
}

// withLifecycleLogs wraps the app's start and stop hooks with ready and
// shutdown events. The app's start hook runs first; a failure there is not
// reported as ready.
func withLifecycleLogs(ro *coretelegram.RunOptions, name string, startedAt time.Time) {
	appLog := logger.Component("app").With(slog.String("app", name))

	start := ro.OnStart
	ro.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if start != nil {
			if err := start(ctx, rt); err != nil {
				return err
			}
		}
		appLog.Info("app ready",
			slog.String("event", "app.ready"),
			slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
		)
		return nil
	}

	stop := ro.OnStop
	ro.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		appLog.Info("app stopping", slog.String("event", "app.shutdown"))
		if stop == nil {
			return nil
		}
		return stop(ctx, rt)
	}
}
