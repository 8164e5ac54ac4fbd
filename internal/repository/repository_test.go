// internal/repository/repository_test.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JanKonradK/Saturnus-Magister/internal/common/logger"
	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

func newTestRepo(t *testing.T) (*Repository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, logger.NewTestLogger(t)), mock, db
}

func TestGetEmailByProviderID(t *testing.T) {
	repo, mock, _ := newTestRepo(t)
	ctx := context.Background()

	t.Run("returns nil when never seen", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM emails").
			WithArgs("msg-unknown").
			WillReturnError(sql.ErrNoRows)

		email, err := repo.GetEmailByProviderID(ctx, "msg-unknown")
		require.NoError(t, err)
		assert.Nil(t, email)
	})

	t.Run("scans a stored row", func(t *testing.T) {
		id := uuid.New()
		now := time.Now()
		rows := sqlmock.NewRows([]string{
			"id", "provider_id", "thread_id", "subject", "sender_email", "sender_name",
			"recipient_email", "received_at", "body_text", "body_html", "outbound",
			"category", "sentiment", "confidence",
			"processed", "processed_at", "error", "created_at", "updated_at",
		}).AddRow(
			id, "msg-1", "thread-1", "Interview invitation", "hr@techcorp.com", "HR",
			"me@example.com", now, "body", "", false,
			"interview_invite", "positive", 0.95,
			true, now, nil, now, now,
		)

		mock.ExpectQuery("SELECT (.+) FROM emails").
			WithArgs("msg-1").
			WillReturnRows(rows)

		email, err := repo.GetEmailByProviderID(ctx, "msg-1")
		require.NoError(t, err)
		require.NotNil(t, email)
		assert.Equal(t, id, email.ID)
		assert.True(t, email.Processed)
		assert.NotNil(t, email.ProcessedAt)
		assert.Equal(t, models.CategoryInterviewInvite, email.Category)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEmail(t *testing.T) {
	repo, mock, _ := newTestRepo(t)

	email := &models.Email{
		ProviderID:  "msg-2",
		ThreadID:    "thread-2",
		Subject:     "Assignment",
		SenderEmail: "hr@techcorp.com",
		ReceivedAt:  time.Now(),
		BodyText:    "Please complete the attached task.",
	}

	mock.ExpectExec("INSERT INTO emails").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateEmail(context.Background(), email))
	assert.NotEqual(t, uuid.Nil, email.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMatchSupersedesInTransaction(t *testing.T) {
	repo, mock, _ := newTestRepo(t)

	jobID := uuid.New()
	decision := &models.MatchDecision{
		EmailID: uuid.New(),
		JobID:   &jobID,
		Score:   0.91,
		Method:  models.MatchMethodAuto,
		SignalScores: map[string]interface{}{
			models.SignalCompanyName: 1.0,
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE email_job_matches SET active = FALSE").
		WithArgs(decision.EmailID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO email_job_matches").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateMatch(context.Background(), decision))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMatchRollsBackOnInsertError(t *testing.T) {
	repo, mock, _ := newTestRepo(t)

	decision := &models.MatchDecision{EmailID: uuid.New(), Method: models.MatchMethodAuto}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE email_job_matches SET active = FALSE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO email_job_matches").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	assert.Error(t, repo.CreateMatch(context.Background(), decision))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRecentJobApplications(t *testing.T) {
	repo, mock, _ := newTestRepo(t)

	first := uuid.New()
	second := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "company_name", "company_domain", "position_title",
		"applied_at", "effort_level", "status",
	}).
		AddRow(first, "TechCorp", "techcorp.com", "Backend Engineer", now.AddDate(0, 0, -3), "high", "applied").
		AddRow(second, "Initech", "", "SRE", now.AddDate(0, 0, -30), "", "")

	mock.ExpectQuery("SELECT (.+) FROM job_applications").
		WithArgs(90).
		WillReturnRows(rows)

	jobs, err := repo.GetRecentJobApplications(context.Background(), 90)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, first, jobs[0].ID)
	assert.Equal(t, models.EffortHigh, jobs[0].EffortLevel)
	assert.Empty(t, jobs[1].CompanyDomain)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskSyncStateTransitions(t *testing.T) {
	repo, mock, _ := newTestRepo(t)
	taskID := uuid.New()

	mock.ExpectExec("UPDATE task_specs").
		WithArgs(taskID, models.SyncSynced, "tt-123").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkTaskSynced(context.Background(), taskID, "tt-123"))

	mock.ExpectExec("UPDATE task_specs").
		WithArgs(taskID, models.SyncFailed, "status 502").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkTaskSyncFailed(context.Background(), taskID, errors.New("status 502")))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveReview(t *testing.T) {
	repo, mock, _ := newTestRepo(t)
	reviewID := uuid.New()

	t.Run("resolves a pending review", func(t *testing.T) {
		mock.ExpectExec("UPDATE manual_reviews").
			WithArgs(reviewID, models.ReviewCompleted, "link", "confirmed TechCorp").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.ResolveReview(context.Background(), reviewID, "link", "confirmed TechCorp"))
	})

	t.Run("errors when already resolved", func(t *testing.T) {
		mock.ExpectExec("UPDATE manual_reviews").
			WithArgs(reviewID, models.ReviewCompleted, "link", "again").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.Error(t, repo.ResolveReview(context.Background(), reviewID, "link", "again"))
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCompanyRejectionCount(t *testing.T) {
	repo, mock, _ := newTestRepo(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("TechCorp", 365).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.GetCompanyRejectionCount(context.Background(), "TechCorp", 365)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStateRoundTrip(t *testing.T) {
	repo, mock, _ := newTestRepo(t)

	mock.ExpectExec("INSERT INTO pipeline_state").
		WithArgs("last_history_id", "9912").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetState(context.Background(), "last_history_id", "9912"))

	mock.ExpectQuery("SELECT value FROM pipeline_state").
		WithArgs("last_history_id").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("9912"))

	value, err := repo.GetState(context.Background(), "last_history_id")
	require.NoError(t, err)
	assert.Equal(t, "9912", value)

	mock.ExpectQuery("SELECT value FROM pipeline_state").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	value, err = repo.GetState(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, mock.ExpectationsWereMet())
}
