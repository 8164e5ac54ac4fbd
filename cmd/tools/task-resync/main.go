// cmd/tools/task-resync/main.go
//
// One-shot retry of task specs that never reached the task system. Run it
// after an outage; synced tasks are skipped automatically.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/JanKonradK/Saturnus-Magister/internal/clients/ticktick"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/config"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/database"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/logger"
	"github.com/JanKonradK/Saturnus-Magister/internal/processor"
	"github.com/JanKonradK/Saturnus-Magister/internal/repository"
)

func main() {
	limit := flag.Int("limit", 200, "maximum number of tasks to retry")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()

	repo := repository.New(pg.DB, log)
	ticktickClient := ticktick.NewClient(cfg.TickTick, log)

	proc := processor.New(processor.Options{
		Store:         repo,
		Syncer:        ticktickClient,
		Matching:      cfg.Matching,
		MaxConcurrent: 1,
		Logger:        log,
	})

	synced, err := proc.ResyncTasks(ctx, *limit)
	if err != nil {
		zapLog.Fatal("resync failed", zap.Error(err))
	}

	zapLog.Info("resync complete", zap.Int("synced", synced))
}
