package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/autoreply/internal/bot"
	"github.com/teemow/autoreply/internal/config"
	"github.com/teemow/autoreply/internal/gmail"
	"github.com/teemow/autoreply/internal/instrumentation"
	"github.com/teemow/autoreply/internal/reply"
	"github.com/teemow/autoreply/internal/seen"
	"github.com/teemow/autoreply/internal/server"
)

func newRunCmd() *cobra.Command {
	var (
		account     string
		query       string
		label       string
		interval    int
		seenDB      string
		filtersFile string
		metricsAddr string
		once        bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll Gmail and send automatic replies to matching messages",
		Long: `Poll the configured Gmail query in a loop. Every matching message
that has not been answered before gets a generated reply, sent threaded
to the original message, after which the message is marked handled.

Configuration comes from the environment (optionally a .env file);
flags override environment values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotenv(); err != nil {
				return fmt.Errorf("failed to load .env file: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			// Flags override environment values
			if cmd.Flags().Changed("account") {
				cfg.Bot.Account = account
			}
			if cmd.Flags().Changed("query") {
				cfg.Bot.Query = query
			}
			if cmd.Flags().Changed("label") {
				cfg.Bot.Label = label
			}
			if cmd.Flags().Changed("interval") {
				if interval <= 0 {
					return fmt.Errorf("interval must be positive, got %d", interval)
				}
				cfg.Bot.PollInterval = time.Duration(interval) * time.Second
			}
			if cmd.Flags().Changed("seen-db") {
				cfg.Bot.SeenDB = seenDB
			}
			if cmd.Flags().Changed("filters") {
				cfg.Bot.FiltersFile = filtersFile
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Bot.MetricsAddr = metricsAddr
			}

			return runBot(cmd.Context(), cfg, once)
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Google account name to use (default: 'default')")
	cmd.Flags().StringVar(&query, "query", "is:unread", "Gmail search query selecting messages to reply to")
	cmd.Flags().StringVar(&label, "label", "", "Restrict the query to a Gmail label")
	cmd.Flags().IntVar(&interval, "interval", 60, "Poll interval in seconds")
	cmd.Flags().StringVar(&seenDB, "seen-db", "", "Path of the SQLite database recording answered messages (empty: in-memory)")
	cmd.Flags().StringVar(&filtersFile, "filters", "", "Path of the ignore-rules JSON file (empty: built-in defaults)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Listen address for health and metrics endpoints (empty: disabled)")
	cmd.Flags().BoolVar(&once, "once", false, "Run a single poll cycle and exit")

	return cmd
}

func runBot(parent context.Context, cfg *config.Config, once bool) error {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

	// Instrumentation (metrics + traces)
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer shutdownCancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error during instrumentation shutdown", slog.String("error", err.Error()))
		}
	}()

	// Operational HTTP server (health probes + Prometheus metrics)
	health := server.NewHealthChecker()
	var opsServer *server.Server
	if cfg.Bot.MetricsAddr != "" {
		opsServer, err = server.New(server.Config{
			Addr:                    cfg.Bot.MetricsAddr,
			Health:                  health,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create operational server: %w", err)
		}
		go func() {
			if err := opsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("operational server failed", slog.String("error", err.Error()))
			}
		}()
		defer func() {
			health.SetShuttingDown()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer shutdownCancel()
			if err := opsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("error during server shutdown", slog.String("error", err.Error()))
			}
		}()
	}

	// A missing or invalid token is fatal; the operator must run auth first
	client, err := gmail.NewClientForAccount(ctx, cfg.Bot.Account)
	if err != nil {
		return err
	}

	store, err := seen.NewStore(cfg.Bot.SeenDB)
	if err != nil {
		return fmt.Errorf("failed to open replied-messages store: %w", err)
	}
	defer store.Close()

	if n, err := store.Len(ctx); err == nil {
		provider.Metrics().AddSeenSetSize(ctx, int64(n))
		logger.Info("replied-messages store opened",
			slog.Int("entries", n),
			slog.String("path", cfg.Bot.SeenDB))
	}

	generator, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("reply generator selected", slog.String("generator", generator.Name()))

	filters, err := config.NewFilterManager(cfg.Bot.FiltersFile)
	if err != nil {
		return fmt.Errorf("failed to load ignore rules: %w", err)
	}

	audit := instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)

	b, err := bot.New(client, generator, store, bot.Options{
		Query:      cfg.Bot.EffectiveQuery(),
		MaxResults: cfg.Bot.MaxResults,
		Interval:   cfg.Bot.PollInterval,
		Filter:     filters,
		Logger:     logger,
		Metrics:    provider.Metrics(),
		Audit:      audit,
	})
	if err != nil {
		return err
	}

	health.SetReady(true)

	if once {
		return b.RunOnce(ctx)
	}

	if err := b.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// newGenerator picks the LLM generator when model credentials are
// configured and the keyword template otherwise.
func newGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (reply.Generator, error) {
	if !cfg.AI.Enabled() {
		logger.Info("no chat model configured, using template replies")
		return reply.NewTemplateGenerator(), nil
	}

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return reply.NewLLMGenerator(ctx, chatModel, logger)
}
