package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Cancel the run on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Getenv, os.Getwd, os.Args[1:]); err != nil {
		slog.Error("can't initialize app, sorry", "error", err.Error())
		stop()
		os.Exit(1)
	}
}

// run loads config, builds the app and processes orders once.
// Error returned only if the app can't be built
func run(ctx context.Context, getenv func(string) string, getwd func() (string, error), args []string) error {
	c, err := loadConfig(getenv, getwd, args)
	if err != nil {
		return err
	}

	app, err := NewBatchApp(c)
	if err != nil {
		return err
	}

	app.Run(ctx)
	return nil
}

// loadConfig resolves config: defaults, settings file, '.env', environment, flags. Later wins
func loadConfig(getenv func(string) string, getwd func() (string, error), args []string) (*Config, error) {
	load := func(c *Config) error {
		if err := c.LoadDotEnv(getwd); err != nil {
			return err
		}
		if err := c.LoadEnv(getenv); err != nil {
			return err
		}
		return c.ParseFlags(args)
	}

	// Settings file location is known after the first pass only
	c := NewConfig()
	if err := load(c); err != nil {
		return nil, err
	}
	if c.SettingsFile == "" {
		return c, nil
	}

	settingsFile := c.SettingsFile
	c = NewConfig()
	if err := c.LoadSettingsFile(settingsFile); err != nil {
		return nil, err
	}
	return c, load(c)
}
