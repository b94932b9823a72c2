package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/deusflow/newsrelay/internal/app"
	"github.com/deusflow/newsrelay/internal/config"
	"github.com/deusflow/newsrelay/internal/logger"
	"github.com/deusflow/newsrelay/internal/relay"
)

// cliOptions override the environment configuration.
type cliOptions struct {
	Categories string `long:"categories" description:"Path to the category routing YAML file"`
	Addr       string `long:"addr" description:"HTTP listen address for the control endpoints"`
	Once       string `long:"once" choice:"rss" choice:"other" choice:"all" description:"Run one cycle and exit instead of scheduling"`
	Debug      bool   `long:"debug" description:"Enable debug logging"`
}

func main() {
	var opts cliOptions
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	cfg, err := config.Load()
	if cfg != nil {
		applyOverrides(cfg, opts)
		logger.Init(logger.Options{Debug: cfg.Debug, Dir: cfg.LogDir})
	}
	if err != nil {
		logger.Error("configuration error", "err", err)
		os.Exit(1)
	}

	categories, err := config.LoadCategories(cfg.CategoriesFile)
	if err != nil {
		logger.Error("failed to load categories", "file", cfg.CategoriesFile, "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, categories, opts.Once); err != nil {
		logger.Error("news relay failed", "err", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, categories config.Categories, once string) error {
	a, err := app.New(ctx, cfg, categories)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	switch once {
	case "":
		return a.Run(ctx)
	case "all":
		return a.RunOnce(ctx, relay.CycleRSS, relay.CycleOther)
	default:
		cycle, err := relay.ParseCycle(once)
		if err != nil {
			return err
		}
		return a.RunOnce(ctx, cycle)
	}
}

func applyOverrides(cfg *config.Config, opts cliOptions) {
	if opts.Categories != "" {
		cfg.CategoriesFile = opts.Categories
	}
	if opts.Addr != "" {
		cfg.HTTPAddr = opts.Addr
	}
	if opts.Debug {
		cfg.Debug = true
	}
}
