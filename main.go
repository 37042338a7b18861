package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Kocoro-lab/Fathom/internal/activities"
	"github.com/Kocoro-lab/Fathom/internal/circuitbreaker"
	"github.com/Kocoro-lab/Fathom/internal/config"
	"github.com/Kocoro-lab/Fathom/internal/embeddings"
	"github.com/Kocoro-lab/Fathom/internal/health"
	"github.com/Kocoro-lab/Fathom/internal/httpapi"
	"github.com/Kocoro-lab/Fathom/internal/llm"
	"github.com/Kocoro-lab/Fathom/internal/search"
	"github.com/Kocoro-lab/Fathom/internal/server"
	temporallog "github.com/Kocoro-lab/Fathom/internal/temporal"
	"github.com/Kocoro-lab/Fathom/internal/tracing"
	"github.com/Kocoro-lab/Fathom/internal/vectordb"
	"github.com/Kocoro-lab/Fathom/internal/workflows"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	circuitbreaker.StartMetricsCollection()

	if err := tracing.Initialize(cfg.Tracing, logger); err != nil {
		logger.Warn("Failed to initialize tracing", zap.Error(err))
	}

	// Hot-reload watcher. Reloads feed new runs; in-flight runs keep the
	// knobs they were submitted with.
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "./config/fathom.yaml"
	}
	if watcher, err := config.NewWatcher(cfgPath, logger); err == nil {
		watcher.OnReload(func(next *config.Config) {
			cfg.Run = next.Run
			logger.Info("Run configuration reloaded",
				zap.Int("max_attempts", next.Run.MaxAttempts),
				zap.Int("max_tool_calls", next.Run.MaxToolCalls),
			)
		})
		if err := watcher.Start(); err != nil {
			logger.Warn("Config watcher start failed", zap.Error(err))
		} else {
			defer watcher.Stop()
		}
	} else {
		logger.Warn("Config watcher init failed", zap.Error(err))
	}

	// Collaborator clients.
	llmClient := llm.NewClient(cfg.LLM)
	searchClient := search.NewClient(cfg.Search, logger)
	vectorClient := vectordb.NewClient(cfg.Vector, logger)

	var embedCache embeddings.EmbeddingCache
	var redisCache *embeddings.RedisCache
	if cfg.Embeddings.EnableRedis {
		if c, err := embeddings.NewRedisCache(cfg.Embeddings.RedisAddr); err == nil {
			embedCache = c
			redisCache = c
		} else {
			logger.Warn("Embeddings Redis cache init failed, using local LRU only", zap.Error(err))
		}
	}
	embedService := embeddings.NewService(cfg.Embeddings, embedCache)

	// Admin HTTP: health, metrics, and the reports API. Brought up early
	// so probes respond while Temporal is still connecting.
	hm := health.NewManager(health.Config{
		CheckInterval: cfg.Health.CheckInterval,
		Timeout:       cfg.Health.Timeout,
	}, logger)
	hm.Register(health.NewHTTPServiceChecker("llm-service", cfg.LLM.BaseURL+"/health"))
	hm.Register(health.NewHTTPServiceChecker("search-service", cfg.Search.BaseURL+"/health"))
	hm.Register(health.NewHTTPServiceChecker("qdrant", vectorClient.BaseURL()+"/healthz"))
	if redisCache != nil {
		hm.Register(health.NewRedisChecker(redisCache.Client()))
	}
	if cfg.Health.Enabled {
		hm.Start(ctx)
		defer hm.Stop()
	}

	mux := http.NewServeMux()
	health.NewHTTPHandler(hm, logger).RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	adminSrv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Service.AdminPort),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute, // report runs are served synchronously
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("Admin HTTP server listening", zap.Int("port", cfg.Service.AdminPort))
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Admin HTTP server failed", zap.Error(err))
		}
	}()

	// Temporal client and worker. The engine is useless without them, so
	// dial with retry instead of dying on a slow Temporal start.
	var tc client.Client
	var w worker.Worker
	go func() {
		for i := 1; ; i++ {
			c, err := net.DialTimeout("tcp", cfg.Temporal.HostPort, 2*time.Second)
			if err == nil {
				_ = c.Close()
				break
			}
			if i%10 == 0 {
				logger.Warn("Waiting for Temporal TCP endpoint",
					zap.String("host_port", cfg.Temporal.HostPort), zap.Int("attempt", i))
			}
			time.Sleep(time.Second)
		}
		for attempt := 1; ; attempt++ {
			tc, err = client.Dial(client.Options{
				HostPort:  cfg.Temporal.HostPort,
				Namespace: cfg.Temporal.Namespace,
				Logger:    temporallog.NewZapAdapter(logger),
			})
			if err == nil {
				break
			}
			delay := time.Duration(attempt) * time.Second
			if delay > 15*time.Second {
				delay = 15 * time.Second
			}
			logger.Warn("Temporal not ready, retrying",
				zap.Int("attempt", attempt), zap.Error(err))
			time.Sleep(delay)
		}

		w = worker.New(tc, cfg.Temporal.TaskQueue, worker.Options{})
		acts := activities.NewActivities(llmClient, searchClient, vectorClient, embedService, cfg.Run, logger)
		workflows.Register(w, acts)

		svc := server.NewReportService(tc, cfg, logger)
		httpapi.NewReportsHandler(svc, logger).RegisterRoutes(mux)
		logger.Info("Reports API registered", zap.String("path", "/api/v1/reports"))

		logger.Info("Temporal worker started", zap.String("queue", cfg.Temporal.TaskQueue))
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Error("Temporal worker exited with error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("Shutting down report engine")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = adminSrv.Shutdown(shutdownCtx)
	if w != nil {
		w.Stop()
	}
	if tc != nil {
		tc.Close()
	}
	tracing.Shutdown(shutdownCtx)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}
	return cfg.Build()
}
