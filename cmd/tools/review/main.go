// cmd/tools/review/main.go
//
// Work through the manual review queue from the command line.
//
//	review -list
//	review -resolve <review-id> -job <job-id> [-notes "..."]
//	review -resolve <review-id> -reject [-notes "..."]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JanKonradK/Saturnus-Magister/internal/clients/ticktick"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/config"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/database"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/logger"
	"github.com/JanKonradK/Saturnus-Magister/internal/models"
	"github.com/JanKonradK/Saturnus-Magister/internal/repository"
)

func main() {
	list := flag.Bool("list", false, "list pending reviews")
	resolve := flag.String("resolve", "", "review id to resolve")
	job := flag.String("job", "", "job application id to link the email to")
	reject := flag.Bool("reject", false, "resolve by rejecting the proposed match")
	notes := flag.String("notes", "", "resolution notes")
	limit := flag.Int("limit", 50, "maximum reviews to list")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()
	repo := repository.New(pg.DB, log)

	switch {
	case *resolve != "":
		resolveReview(ctx, cfg, repo, log, *resolve, *job, *reject, *notes, zapLog)
	case *list:
		fallthrough
	default:
		listReviews(ctx, repo, *limit, zapLog)
	}
}

func listReviews(ctx context.Context, repo *repository.Repository, limit int, zapLog *zap.Logger) {
	reviews, err := repo.GetPendingReviews(ctx, limit)
	if err != nil {
		zapLog.Fatal("load pending reviews failed", zap.Error(err))
	}
	if len(reviews) == 0 {
		fmt.Println("review queue is empty")
		return
	}

	for _, rev := range reviews {
		candidate := ""
		if c, ok := rev.ReasonDetails["bestCandidate"].(string); ok {
			candidate = " candidate=" + c
		}
		fmt.Printf("%s  p%d  %-22s email=%s%s  (%s)\n",
			rev.ID, rev.Priority, rev.Reason, rev.EmailID, candidate,
			rev.CreatedAt.Format("2006-01-02 15:04"))
	}
}

func resolveReview(ctx context.Context, cfg *config.Config, repo *repository.Repository, log logger.Logger, reviewArg, jobArg string, reject bool, notes string, zapLog *zap.Logger) {
	reviewID, err := uuid.Parse(reviewArg)
	if err != nil {
		zapLog.Fatal("invalid review id", zap.String("id", reviewArg))
	}
	if (jobArg == "" && !reject) || (jobArg != "" && reject) {
		zapLog.Fatal("resolve needs exactly one of -job or -reject")
	}

	review, err := repo.GetReviewByID(ctx, reviewID)
	if err != nil {
		zapLog.Fatal("load review failed", zap.Error(err))
	}
	if review == nil {
		zapLog.Fatal("review not found", zap.String("id", reviewArg))
	}

	if reject {
		if err := repo.RejectMatch(ctx, review.EmailID, notes); err != nil {
			zapLog.Fatal("reject match failed", zap.Error(err))
		}
		if err := repo.ResolveReview(ctx, reviewID, "reject", notes); err != nil {
			zapLog.Fatal("resolve review failed", zap.Error(err))
		}
		closeTasks(ctx, cfg, repo, log, review.EmailID, zapLog)
		fmt.Printf("review %s resolved: match rejected\n", reviewID)
		return
	}

	jobID, err := uuid.Parse(jobArg)
	if err != nil {
		zapLog.Fatal("invalid job id", zap.String("id", jobArg))
	}
	jobApp, err := repo.GetJobByID(ctx, jobID)
	if err != nil {
		zapLog.Fatal("load job application failed", zap.Error(err))
	}
	if jobApp == nil {
		zapLog.Fatal("job application not found", zap.String("id", jobArg))
	}

	if err := repo.LinkEmailToJob(ctx, review.EmailID, jobID, notes); err != nil {
		zapLog.Fatal("link failed", zap.Error(err))
	}
	if err := repo.ResolveReview(ctx, reviewID, "link", notes); err != nil {
		zapLog.Fatal("resolve review failed", zap.Error(err))
	}

	// The candidate snapshot may now be stale for in-flight matching.
	if rdb, err := database.NewRedis(cfg.Database.Redis); err == nil {
		repository.NewCache(rdb.Client, log).InvalidateRecentJobs(ctx)
		rdb.Close()
	}

	fmt.Printf("review %s resolved: linked to %s (%s)\n", reviewID, jobApp.CompanyName, jobApp.PositionTitle)
}

// closeTasks marks the rejected email's synced tasks done so they stop
// cluttering the task system.
func closeTasks(ctx context.Context, cfg *config.Config, repo *repository.Repository, log logger.Logger, emailID uuid.UUID, zapLog *zap.Logger) {
	tasks, err := repo.GetTasksByEmail(ctx, emailID)
	if err != nil {
		zapLog.Warn("load tasks for rejected email failed", zap.Error(err))
		return
	}
	if len(tasks) == 0 {
		return
	}

	client := ticktick.NewClient(cfg.TickTick, log)
	for _, task := range tasks {
		if task.SyncState != models.SyncSynced || task.ExternalTaskID == "" {
			continue
		}
		if err := client.CompleteTask(ctx, task.ProjectID, task.ExternalTaskID); err != nil {
			zapLog.Warn("close task failed",
				zap.String("taskId", task.ID.String()),
				zap.Error(err))
		}
	}
}
