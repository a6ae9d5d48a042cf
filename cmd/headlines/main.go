package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/deusflow/headlines/internal/app"
	"github.com/deusflow/headlines/internal/config"
	"github.com/deusflow/headlines/internal/gemini"
	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/ratelimit"
	"github.com/deusflow/headlines/internal/retry"
	"github.com/deusflow/headlines/internal/rss"
	"github.com/deusflow/headlines/internal/telegram"
	"github.com/deusflow/headlines/internal/window"
)

type options struct {
	EnvFile string `long:"env-file" default:".env" description:"dotenv file to seed the environment from"`
	Test    bool   `long:"test" description:"deliver to TELEGRAM_TEST_CHAT_ID instead of the main chat"`
	Daemon  bool   `long:"daemon" description:"stay running and build a report at every scheduled hour"`
}

func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		logger.Error("Fatal", "error", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if err := config.LoadEnvFile(opts.EnvFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	logger.Init(logger.Options{Debug: cfg.Debug, LogFile: cfg.LogFile})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	budget := ratelimit.NewBudget(cfg.MaxLLMRequests)
	if cfg.EnableHTTPMonitoring || opts.Daemon {
		go startMonitoringServer(ctx, cfg.MonitoringPort, budget)
	}

	transport, err := newTransport(ctx, cfg)
	if err != nil {
		return err
	}
	if c, ok := transport.(io.Closer); ok {
		defer c.Close()
	}

	journal, err := app.OpenJournal(ctx, cfg.DatabaseURL, cfg.ArchiveFile, cfg.ArchiveRetention)
	if err != nil {
		return err
	}
	var archive app.Archive
	if journal != nil {
		defer journal.Close()
		archive = journal
	}

	rc := retry.RetryConfig{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true, MaxDelay: 5 * time.Second}
	httpClient := &http.Client{}

	collector := rss.NewCollector(httpClient, rss.Options{
		UserAgent:   cfg.UserAgent,
		MaxItems:    cfg.MaxItemsPerSource,
		Concurrency: cfg.FetchConcurrency,
		Timeout:     cfg.RequestTimeout,
		Retry:       rc,
	})
	filter := gemini.NewClient(transport, budget, cfg.LLMTimeout)
	sender := telegram.NewSender(
		telegram.NewClient(&http.Client{Timeout: cfg.RequestTimeout}, cfg.TelegramBaseURL, cfg.TelegramToken, rc),
		cfg.TelegramMaxChars,
		cfg.SendInterval,
	)

	pipeline := app.NewPipeline(app.Settings{
		Label:          cfg.Label,
		ReportHours:    cfg.ReportHours,
		TimeZone:       cfg.TimeZone,
		MinReportCount: cfg.MinReportCount,
		Feeds:          cfg.Feeds,
		ChatID:         cfg.ChatID(opts.Test),
		Markup:         telegram.LinkButton(cfg.ButtonText, cfg.ButtonURL),
	}, collector, filter, sender, archive)

	runOnce := func() error {
		budget.Reset()
		runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
		_, err := pipeline.Run(runCtx)
		return err
	}

	if !opts.Daemon {
		return runOnce()
	}

	logger.Info("Daemon mode", "hours", cfg.ReportHours, "time_zone", cfg.TimeZone)
	for {
		next, err := window.Next(time.Now(), cfg.TimeZone, cfg.ReportHours)
		if err != nil {
			return err
		}
		logger.Info("Next report scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("Shutting down")
			return nil
		case <-timer.C:
		}

		if err := runOnce(); err != nil && ctx.Err() == nil {
			logger.Warn("Scheduled run failed, waiting for the next slot", "error", err)
		}
	}
}

func newTransport(ctx context.Context, cfg *config.Config) (gemini.Transport, error) {
	httpClient := &http.Client{Timeout: cfg.LLMTimeout}
	switch cfg.LLMBackend {
	case config.BackendSDK:
		return gemini.NewSDKTransport(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case config.BackendOpenAI:
		return gemini.NewOpenAITransport(httpClient, gemini.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		}), nil
	default:
		return gemini.NewRESTTransport(httpClient, gemini.RESTConfig{
			BaseURL:      cfg.GeminiBaseURL,
			Model:        cfg.GeminiModel,
			APIKey:       cfg.GeminiAPIKey,
			APIKeyHeader: cfg.GeminiAPIKeyHeader,
		}), nil
	}
}
