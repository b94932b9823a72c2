package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/deusflow/newsrelay/internal/api"
	"github.com/deusflow/newsrelay/internal/config"
	"github.com/deusflow/newsrelay/internal/dedup"
	"github.com/deusflow/newsrelay/internal/discord"
	"github.com/deusflow/newsrelay/internal/gemini"
	"github.com/deusflow/newsrelay/internal/logger"
	"github.com/deusflow/newsrelay/internal/metrics"
	"github.com/deusflow/newsrelay/internal/newsapi"
	"github.com/deusflow/newsrelay/internal/openai"
	"github.com/deusflow/newsrelay/internal/relay"
	"github.com/deusflow/newsrelay/internal/rss"
	"github.com/deusflow/newsrelay/internal/scheduler"
	"github.com/deusflow/newsrelay/internal/summarizer"
	"github.com/deusflow/newsrelay/internal/youtube"
)

const shutdownTimeout = 30 * time.Second

// App owns every long-lived component of the relay.
type App struct {
	cfg       *config.Config
	metrics   *metrics.Metrics
	chat      *discord.Client
	runner    *relay.Runner
	scheduler *scheduler.Scheduler
	server    *http.Server
	closers   []func()

	// runCtx scopes manual trigger runs; cancelRuns ends them at shutdown.
	runCtx     context.Context
	cancelRuns context.CancelFunc
	log       *slog.Logger
}

// New wires the relay from configuration. Nothing connects to Discord
// until Run or RunOnce.
func New(ctx context.Context, cfg *config.Config, categories config.Categories) (*App, error) {
	a := &App{
		cfg:     cfg,
		metrics: metrics.New(),
		log:     logger.Component("app"),
	}

	for _, name := range cfg.MissingOptional() {
		a.log.Warn("optional credential not set, source will return nothing", "env", name)
	}

	registry := dedup.NewRegistry()

	rssFetcher := rss.NewFetcher(categories, registry, cfg.MaxRSSItems, cfg.RequestTimeout, logger.Component("rss"))
	ytFetcher, err := youtube.NewFetcher(ctx, cfg.YouTubeAPIKey, categories, registry,
		cfg.MaxYouTubeResults, cfg.RequestTimeout, logger.Component("youtube"))
	if err != nil {
		return nil, err
	}
	newsFetcher := newsapi.NewFetcher(cfg.NewsAPIBaseURL, cfg.NewsAPIKey, categories, registry,
		cfg.MaxNewsAPIResults, cfg.RequestTimeout, logger.Component("newsapi"))

	generator, err := a.newGenerator(ctx)
	if err != nil {
		return nil, err
	}
	tmpl, err := summarizer.LoadTemplate(cfg.PromptTemplateFile)
	if err != nil {
		return nil, err
	}
	sum, err := summarizer.New(generator, tmpl, logger.Component("summarizer"))
	if err != nil {
		return nil, err
	}

	a.chat, err = discord.New(cfg.DiscordToken, categories.Channels(), logger.Component("discord"))
	if err != nil {
		return nil, err
	}

	a.runner = relay.NewRunner(relay.Options{
		Registry: registry,
		Fetchers: map[relay.Cycle][]relay.Fetcher{
			relay.CycleRSS:   {rssFetcher},
			relay.CycleOther: {ytFetcher, newsFetcher},
		},
		Summarizer: sum,
		Chat:       a.chat,
		Colors:     categories.Colors(),
		Metrics:    a.metrics,
		Logger:     logger.Component("relay"),
	})

	a.scheduler, err = scheduler.New(a.runner, []scheduler.Job{
		{Cycle: relay.CycleRSS, Period: cfg.RSSInterval},
		{Cycle: relay.CycleOther, Period: cfg.OtherInterval},
	}, logger.Component("scheduler"))
	if err != nil {
		return nil, err
	}

	a.runCtx, a.cancelRuns = context.WithCancel(context.Background())
	handler := api.NewHandler(a.runCtx, a.runner, a.metrics, logger.Component("api"))
	a.server = &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     api.NewServer(handler, cfg.APIAccessKey, logger.Component("api")),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
		BaseContext: func(net.Listener) context.Context { return a.runCtx },
	}
	return a, nil
}

func (a *App) newGenerator(ctx context.Context) (summarizer.Generator, error) {
	switch a.cfg.GenerationProvider {
	case config.ProviderOpenAI:
		a.log.Info("using OpenAI-compatible generation", "model", a.cfg.OpenAIModel)
		return openai.NewClient(a.cfg.OpenAIAPIKey, a.cfg.OpenAIModel, a.cfg.OpenAIBaseURL), nil
	default:
		client, err := gemini.NewClient(ctx, a.cfg.GeminiAPIKey, a.cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		a.log.Info("using Gemini generation", "model", a.cfg.GeminiModel)
		return client, nil
	}
}

// Run serves the control endpoints and drives both cycles until ctx ends.
func (a *App) Run(ctx context.Context) error {
	if err := a.chat.Open(); err != nil {
		return err
	}
	defer a.Close()

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info("starting HTTP server", "addr", a.cfg.HTTPAddr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	a.log.Info("waiting for Discord to become ready")
	if err := a.scheduler.Start(ctx, a.chat.Ready()); err != nil {
		a.shutdownServer()
		return nil
	}
	a.log.Info("news relay started", "rss_interval", a.cfg.RSSInterval, "other_interval", a.cfg.OtherInterval)

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown requested")
	case runErr = <-serverErr:
		a.log.Error("server error", "err", runErr)
	}

	a.shutdownServer()
	a.scheduler.Stop()
	a.log.Info("news relay stopped", "stats", a.metrics.GetStats())
	return runErr
}

// RunOnce connects, runs the given cycles in order and returns.
func (a *App) RunOnce(ctx context.Context, cycles ...relay.Cycle) error {
	if err := a.chat.Open(); err != nil {
		return err
	}
	defer a.Close()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-a.chat.Ready():
	}

	for _, cycle := range cycles {
		report, err := a.runner.Run(ctx, cycle)
		if err != nil {
			return fmt.Errorf("run %s cycle: %w", cycle, err)
		}
		a.log.Info("cycle finished", "cycle", cycle, "run_id", report.RunID, "delivered", report.Delivered())
	}
	return nil
}

func (a *App) shutdownServer() {
	a.cancelRuns()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error("HTTP server shutdown error", "err", err)
	}
}

// Close releases the Discord session and generator clients.
func (a *App) Close() {
	a.cancelRuns()
	if err := a.chat.Close(); err != nil {
		a.log.Error("error closing discord session", "err", err)
	}
	for _, c := range a.closers {
		c()
	}
}
