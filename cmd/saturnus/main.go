// cmd/saturnus/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/JanKonradK/Saturnus-Magister/internal/clients/agent"
	"github.com/JanKonradK/Saturnus-Magister/internal/clients/ticktick"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/config"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/database"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/logger"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/observability"
	"github.com/JanKonradK/Saturnus-Magister/internal/matching"
	"github.com/JanKonradK/Saturnus-Magister/internal/notify"
	"github.com/JanKonradK/Saturnus-Magister/internal/processor"
	"github.com/JanKonradK/Saturnus-Magister/internal/repository"
	"github.com/JanKonradK/Saturnus-Magister/internal/routing"
	"github.com/JanKonradK/Saturnus-Magister/internal/search"
)

// shutdownGracePeriod caps how long shutdown waits for in-flight emails.
const shutdownGracePeriod = 30 * time.Second

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting email pipeline...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry (non-fatal: search is best effort) ---
	var indexer processor.EmailIndexer
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Warn("elasticsearch unavailable, search indexing disabled", zap.Error(err))
	} else {
		indexer = search.NewIndexer(esClient.Client, cfg.Database.Elasticsearch.Index, log)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Wire the pipeline ---
	repo := repository.New(pg.DB, log)
	cache := repository.NewCache(redisClient.Client, log)

	agentClient := agent.NewClient(cfg.Agent, log)
	ticktickClient := ticktick.NewClient(cfg.TickTick, log)

	notifier, err := notify.New(cfg.Notifications, log)
	if err != nil {
		zapLog.Fatal("notifier init failed", zap.Error(err))
	}

	scorer := matching.NewScorer()
	disambiguator := matching.NewDisambiguator(agentClient, log)
	engine := matching.NewEngine(scorer, disambiguator, matching.Thresholds{
		AutoMatch:     cfg.Matching.AutoMatchThreshold,
		Review:        cfg.Matching.ReviewThreshold,
		AmbiguityBand: cfg.Matching.AmbiguityBand,
	}, log)

	builder := routing.NewMaterializer(routing.ProjectMap{
		Q1:   cfg.TickTick.Q1Project,
		Q2:   cfg.TickTick.Q2Project,
		Q3:   cfg.TickTick.Q3Project,
		Q4:   cfg.TickTick.Q4Project,
		Work: cfg.TickTick.WorkProject,
	})

	proc := processor.New(processor.Options{
		Store:         repo,
		Flags:         cache,
		Engine:        engine,
		Builder:       builder,
		Classifier:    agentClient,
		Syncer:        ticktickClient,
		Indexer:       indexer,
		Notifier:      notifier,
		Matching:      cfg.Matching,
		StreakLimit:   cfg.Notifications.RejectionStreakThreshold,
		MaxConcurrent: cfg.Processing.MaxConcurrent,
		Observability: obs,
		Logger:        log,
	})

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			lastPoll, _ := repo.GetState(r.Context(), "last_poll_at")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status":     "healthy",
				"time":       time.Now().Format(time.RFC3339),
				"lastPollAt": lastPoll,
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.Processing.MetricsAddr))
		if err := http.ListenAndServe(cfg.Processing.MetricsAddr, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Poll Loop ---
	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)

		ticker := time.NewTicker(cfg.Processing.PollInterval)
		defer ticker.Stop()

		runOnce := func() {
			emails, err := repo.GetUnprocessedEmails(ctx, cfg.Processing.BatchSize)
			if err != nil {
				log.Error("unprocessed email fetch failed", map[string]interface{}{"error": err.Error()})
				return
			}
			if len(emails) == 0 {
				return
			}
			stats := proc.ProcessBatch(ctx, emails)
			// The checkpoint write must survive a cancellation that arrived
			// while the batch was draining.
			stateCtx, cancelState := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancelState()
			if err := repo.SetState(stateCtx, "last_poll_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
				log.Warn("poll checkpoint write failed", map[string]interface{}{"error": err.Error()})
			}
			log.Info("batch complete", map[string]interface{}{
				"inboxProcessed": stats.InboxProcessed,
				"sentProcessed":  stats.SentProcessed,
				"matched":        stats.Matched,
				"needsReview":    stats.NeedsReview,
				"skipped":        stats.Skipped,
				"errors":         stats.Errors,
			})
		}

		runOnce()
		for {
			select {
			case <-ticker.C:
				runOnce()
			case <-ctx.Done():
				return
			}
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining in-flight emails...")
	cancel()

	// Wait for the poll loop to drain before the deferred client closes run.
	select {
	case <-pollDone:
		zapLog.Info("Email pipeline shut down")
	case <-time.After(shutdownGracePeriod):
		zapLog.Warn("Drain grace period expired, exiting with work in flight",
			zap.Duration("gracePeriod", shutdownGracePeriod),
		)
	}
}
