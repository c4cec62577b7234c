package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/Fahmialfayadh/mahainsight/api/config"
	"github.com/Fahmialfayadh/mahainsight/api/handlers"
	"github.com/Fahmialfayadh/mahainsight/api/metrics"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/dataset"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/narrator"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/pipeline"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/quota"
)

func main() {
	listenAddr := pflag.String("listen-addr", ":8080", "API listen address")
	logLevel := pflag.String("log-level", "info", "Log level (debug, info, warn, error)")
	pflag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey && len(groups) == 0 {
				attr.Value = slog.StringValue(attr.Value.Time().UTC().Format("2006-01-02T15:04:05.000Z"))
			}
			return attr
		},
	}))
	slog.SetDefault(logger)

	if err := config.Load(); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := config.LoadPostgres(); err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer config.ClosePostgres()

	cache := pipeline.NewCache(config.DatasetCacheTTL)
	defer cache.Stop()

	pipe, err := pipeline.New(&pipeline.Config{
		Logger: logger,
		Loader: dataset.NewHTTPLoader(logger),
		Cache:  cache,
	})
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	prompts, err := narrator.LoadPrompts()
	if err != nil {
		logger.Error("failed to load prompts", "error", err)
		os.Exit(1)
	}
	llm := narrator.NewAnthropicClient(config.AnthropicModel, config.AnthropicMaxTokens)
	llm.OnUsage = metrics.RecordAnthropicTokens
	voice := narrator.New(llm, prompts)

	ledger := quota.NewPostgresLedger(config.PgPool, config.QuotaLimit)

	handlers.Init(pipe, ledger, voice)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-User-ID", "X-Admin-Token"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Post("/api/ai/chat", handlers.Chat)
	r.Post("/api/ai/summary", handlers.Summary)
	r.Post("/api/ai/quiz/generate", handlers.Quiz)
	r.Get("/api/ai/usage/{postID}", handlers.Usage)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    *listenAddr,
		Handler: r,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("API server starting", "addr", *listenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	sig := <-shutdown
	logger.Info("shutting down", "signal", sig.String())

	// Give in-flight streams 30 seconds to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown error", "error", err)
	} else {
		logger.Info("server stopped gracefully")
	}
}
