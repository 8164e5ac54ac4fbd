// internal/repository/repository.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	apperrors "github.com/JanKonradK/Saturnus-Magister/internal/common/errors"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/logger"
	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

// Repository is the single persistence surface for the pipeline. All writes
// go through here; the orchestrator never touches *sql.DB directly.
type Repository struct {
	db     *sql.DB
	logger logger.Logger
}

func New(db *sql.DB, log logger.Logger) *Repository {
	return &Repository{db: db, logger: log}
}

// ---------------------------------------------------------------------------
// Emails

// GetEmailByProviderID returns the stored email for a provider message id, or
// sql.ErrNoRows wrapped as nil, false when the message was never seen.
func (r *Repository) GetEmailByProviderID(ctx context.Context, providerID string) (*models.Email, error) {
	var e models.Email
	var processedAt sql.NullTime
	var errMsg sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, provider_id, thread_id, subject, sender_email, sender_name,
		       recipient_email, received_at, body_text, body_html, outbound,
		       category, sentiment, confidence,
		       processed, processed_at, error, created_at, updated_at
		FROM emails
		WHERE provider_id = $1`, providerID).Scan(
		&e.ID, &e.ProviderID, &e.ThreadID, &e.Subject, &e.SenderEmail, &e.SenderName,
		&e.RecipientEmail, &e.ReceivedAt, &e.BodyText, &e.BodyHTML, &e.Outbound,
		&e.Category, &e.Sentiment, &e.Confidence,
		&e.Processed, &processedAt, &errMsg, &e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get_email_by_provider_id", err)
	}
	if processedAt.Valid {
		e.ProcessedAt = &processedAt.Time
	}
	if errMsg.Valid {
		e.Error = errMsg.String
	}
	return &e, nil
}

// CreateEmail inserts a new email record. Conflicts on provider_id are
// ignored so replayed fetches stay idempotent; the stored row wins.
func (r *Repository) CreateEmail(ctx context.Context, e *models.Email) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO emails (
			id, provider_id, thread_id, subject, sender_email, sender_name,
			recipient_email, received_at, body_text, body_html, outbound,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (provider_id) DO NOTHING`,
		e.ID, e.ProviderID, e.ThreadID, e.Subject, e.SenderEmail, e.SenderName,
		e.RecipientEmail, e.ReceivedAt, e.BodyText, e.BodyHTML, e.Outbound,
	)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

// MarkEmailProcessed stamps the classification snapshot and the processed
// flag in one write.
func (r *Repository) MarkEmailProcessed(ctx context.Context, emailID uuid.UUID, c models.Classification) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE emails
		SET processed = TRUE, processed_at = NOW(),
		    category = $2, sentiment = $3, confidence = $4,
		    error = NULL, updated_at = NOW()
		WHERE id = $1`,
		emailID, c.Category, c.Sentiment, c.Confidence,
	)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("mark_email_processed", err)
	}
	return nil
}

// MarkEmailFailed records a pipeline error without flipping the processed
// flag, so the next poll retries the message.
func (r *Repository) MarkEmailFailed(ctx context.Context, emailID uuid.UUID, procErr error) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE emails
		SET error = $2, updated_at = NOW()
		WHERE id = $1`,
		emailID, procErr.Error(),
	)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("mark_email_failed", err)
	}
	return nil
}

// GetUnprocessedEmails returns stored emails awaiting the pipeline, oldest
// first. Rows with a previous error are retried too.
func (r *Repository) GetUnprocessedEmails(ctx context.Context, limit int) ([]models.Email, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, provider_id, thread_id, subject, sender_email, sender_name,
		       recipient_email, received_at, body_text, body_html, outbound,
		       created_at, updated_at
		FROM emails
		WHERE processed = FALSE
		ORDER BY received_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get_unprocessed_emails", err)
	}
	defer rows.Close()

	var emails []models.Email
	for rows.Next() {
		var e models.Email
		if err := rows.Scan(
			&e.ID, &e.ProviderID, &e.ThreadID, &e.Subject, &e.SenderEmail, &e.SenderName,
			&e.RecipientEmail, &e.ReceivedAt, &e.BodyText, &e.BodyHTML, &e.Outbound,
			&e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("scan_email", err)
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

// ---------------------------------------------------------------------------
// Job applications

// GetRecentJobApplications returns candidates applied within the lookback
// window, newest first.
func (r *Repository) GetRecentJobApplications(ctx context.Context, lookbackDays int) ([]models.JobApplication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, company_name, COALESCE(company_domain, ''), position_title,
		       applied_at, COALESCE(effort_level, ''), COALESCE(status, '')
		FROM job_applications
		WHERE applied_at >= NOW() - ($1 * INTERVAL '1 day')
		ORDER BY applied_at DESC`, lookbackDays)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get_recent_job_applications", err)
	}
	defer rows.Close()

	var jobs []models.JobApplication
	for rows.Next() {
		var j models.JobApplication
		if err := rows.Scan(&j.ID, &j.CompanyName, &j.CompanyDomain, &j.PositionTitle,
			&j.AppliedAt, &j.EffortLevel, &j.Status); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("scan_job_application", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *Repository) GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.JobApplication, error) {
	var j models.JobApplication
	err := r.db.QueryRowContext(ctx, `
		SELECT id, company_name, COALESCE(company_domain, ''), position_title,
		       applied_at, COALESCE(effort_level, ''), COALESCE(status, '')
		FROM job_applications
		WHERE id = $1`, jobID).Scan(
		&j.ID, &j.CompanyName, &j.CompanyDomain, &j.PositionTitle,
		&j.AppliedAt, &j.EffortLevel, &j.Status,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get_job_by_id", err)
	}
	return &j, nil
}

// ---------------------------------------------------------------------------
// Match decisions

// CreateMatch persists a decision and supersedes any earlier active decision
// for the same email inside one transaction.
func (r *Repository) CreateMatch(ctx context.Context, d *models.MatchDecision) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	signals, err := json.Marshal(d.SignalScores)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE email_job_matches SET active = FALSE, updated_at = NOW()
		WHERE email_id = $1 AND active = TRUE`, d.EmailID); err != nil {
		return apperrors.NewQueryExecutionFailedError("supersede_match", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO email_job_matches (
			id, email_id, job_id, score, method, signal_scores,
			needs_review, reviewed, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, TRUE, NOW(), NOW())`,
		d.ID, d.EmailID, d.JobID, d.Score, d.Method, signals, d.NeedsReview,
	); err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewQueryExecutionFailedError("commit_match", err)
	}
	return nil
}

// GetActiveMatch returns the current decision for an email, nil when none.
func (r *Repository) GetActiveMatch(ctx context.Context, emailID uuid.UUID) (*models.MatchDecision, error) {
	var d models.MatchDecision
	var jobID uuid.NullUUID
	var signals []byte
	var reviewedAt sql.NullTime
	var notes sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, email_id, job_id, score, method, signal_scores,
		       needs_review, reviewed, reviewed_at, reviewer_notes,
		       created_at, updated_at
		FROM email_job_matches
		WHERE email_id = $1 AND active = TRUE`, emailID).Scan(
		&d.ID, &d.EmailID, &jobID, &d.Score, &d.Method, &signals,
		&d.NeedsReview, &d.Reviewed, &reviewedAt, &notes,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get_active_match", err)
	}
	if jobID.Valid {
		d.JobID = &jobID.UUID
	}
	if len(signals) > 0 {
		_ = json.Unmarshal(signals, &d.SignalScores)
	}
	if reviewedAt.Valid {
		d.ReviewedAt = &reviewedAt.Time
	}
	if notes.Valid {
		d.ReviewerNotes = notes.String
	}
	return &d, nil
}

// LinkEmailToJob records a manual match, superseding whatever the pipeline
// decided. Used by review resolution.
func (r *Repository) LinkEmailToJob(ctx context.Context, emailID, jobID uuid.UUID, notes string) error {
	now := time.Now()
	d := &models.MatchDecision{
		EmailID:       emailID,
		JobID:         &jobID,
		Score:         1.0,
		Method:        models.MatchMethodManual,
		ReviewerNotes: notes,
	}
	if err := r.CreateMatch(ctx, d); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_job_matches
		SET reviewed = TRUE, reviewed_at = $2, reviewer_notes = $3, updated_at = NOW()
		WHERE id = $1`, d.ID, now, notes)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("mark_match_reviewed", err)
	}
	return nil
}

// RejectMatch marks the active decision as reviewed-and-unmatched.
func (r *Repository) RejectMatch(ctx context.Context, emailID uuid.UUID, notes string) error {
	d := &models.MatchDecision{
		EmailID:       emailID,
		JobID:         nil,
		Score:         0,
		Method:        models.MatchMethodManual,
		ReviewerNotes: notes,
	}
	if err := r.CreateMatch(ctx, d); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_job_matches
		SET reviewed = TRUE, reviewed_at = NOW(), reviewer_notes = $2, updated_at = NOW()
		WHERE id = $1`, d.ID, notes)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("mark_match_reviewed", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Tasks

func (r *Repository) CreateTask(ctx context.Context, t *models.TaskSpec) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	reminders := remindersToStrings(t.Reminders)
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO task_specs (
			id, email_id, external_task_id, project_id, title, content,
			due_at, priority, tags, task_type,
			is_calendar_event, start_at, end_at, is_all_day,
			reminders, countdown_enabled, sync_state, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		          $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())`,
		t.ID, t.EmailID, t.ExternalTaskID, t.ProjectID, t.Title, t.Content,
		t.DueAt, t.Priority, pq.Array(tags), t.TaskType,
		t.IsCalendarEvent, t.StartAt, t.EndAt, t.IsAllDay,
		pq.Array(reminders), t.CountdownEnabled, t.SyncState,
	)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func (r *Repository) MarkTaskSynced(ctx context.Context, taskID uuid.UUID, externalID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE task_specs
		SET sync_state = $2, external_task_id = $3, synced_at = NOW(),
		    sync_error = NULL, updated_at = NOW()
		WHERE id = $1`, taskID, models.SyncSynced, externalID)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("mark_task_synced", err)
	}
	return nil
}

func (r *Repository) MarkTaskSyncFailed(ctx context.Context, taskID uuid.UUID, syncErr error) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE task_specs
		SET sync_state = $2, sync_error = $3, updated_at = NOW()
		WHERE id = $1`, taskID, models.SyncFailed, syncErr.Error())
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("mark_task_sync_failed", err)
	}
	return nil
}

// GetUnsyncedTasks returns pending and failed tasks oldest first, for the
// resync pass.
func (r *Repository) GetUnsyncedTasks(ctx context.Context, limit int) ([]models.TaskSpec, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email_id, COALESCE(external_task_id, ''), project_id, title,
		       COALESCE(content, ''), due_at, priority, tags, task_type,
		       is_calendar_event, start_at, end_at, is_all_day,
		       reminders, countdown_enabled, sync_state,
		       COALESCE(sync_error, ''), created_at, updated_at
		FROM task_specs
		WHERE sync_state IN ($1, $2)
		ORDER BY created_at ASC
		LIMIT $3`, models.SyncPending, models.SyncFailed, limit)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get_unsynced_tasks", err)
	}
	defer rows.Close()

	var tasks []models.TaskSpec
	for rows.Next() {
		var t models.TaskSpec
		var tags pq.StringArray
		var reminderStrs pq.StringArray
		if err := rows.Scan(
			&t.ID, &t.EmailID, &t.ExternalTaskID, &t.ProjectID, &t.Title,
			&t.Content, &t.DueAt, &t.Priority, &tags, &t.TaskType,
			&t.IsCalendarEvent, &t.StartAt, &t.EndAt, &t.IsAllDay,
			&reminderStrs, &t.CountdownEnabled, &t.SyncState,
			&t.SyncError, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("scan_task_spec", err)
		}
		t.Tags = tags
		t.Reminders = remindersFromStrings(reminderStrs)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTasksByEmail returns every task spec derived from one email.
func (r *Repository) GetTasksByEmail(ctx context.Context, emailID uuid.UUID) ([]models.TaskSpec, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email_id, COALESCE(external_task_id, ''), project_id, title,
		       COALESCE(content, ''), due_at, priority, tags, task_type,
		       is_calendar_event, start_at, end_at, is_all_day,
		       reminders, countdown_enabled, sync_state,
		       COALESCE(sync_error, ''), created_at, updated_at
		FROM task_specs
		WHERE email_id = $1
		ORDER BY created_at ASC`, emailID)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get_tasks_by_email", err)
	}
	defer rows.Close()

	var tasks []models.TaskSpec
	for rows.Next() {
		var t models.TaskSpec
		var tags pq.StringArray
		var reminderStrs pq.StringArray
		if err := rows.Scan(
			&t.ID, &t.EmailID, &t.ExternalTaskID, &t.ProjectID, &t.Title,
			&t.Content, &t.DueAt, &t.Priority, &tags, &t.TaskType,
			&t.IsCalendarEvent, &t.StartAt, &t.EndAt, &t.IsAllDay,
			&reminderStrs, &t.CountdownEnabled, &t.SyncState,
			&t.SyncError, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("scan_task_spec", err)
		}
		t.Tags = tags
		t.Reminders = remindersFromStrings(reminderStrs)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ---------------------------------------------------------------------------
// Manual review queue

func (r *Repository) AddToReviewQueue(ctx context.Context, rev *models.ManualReview) error {
	if rev.ID == uuid.Nil {
		rev.ID = uuid.New()
	}
	details, err := json.Marshal(rev.ReasonDetails)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO manual_reviews (
			id, email_id, reason, reason_details, status, priority,
			resolved, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW(), NOW())`,
		rev.ID, rev.EmailID, rev.Reason, details, models.ReviewPending, rev.Priority,
	)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

// GetPendingReviews returns unresolved entries, highest priority first.
func (r *Repository) GetPendingReviews(ctx context.Context, limit int) ([]models.ManualReview, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email_id, reason, reason_details, status, priority,
		       resolved, resolved_at, COALESCE(resolution_action, ''),
		       COALESCE(resolution_notes, ''), created_at, updated_at
		FROM manual_reviews
		WHERE resolved = FALSE
		ORDER BY priority DESC, created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get_pending_reviews", err)
	}
	defer rows.Close()

	var reviews []models.ManualReview
	for rows.Next() {
		var rev models.ManualReview
		var details []byte
		var resolvedAt sql.NullTime
		if err := rows.Scan(
			&rev.ID, &rev.EmailID, &rev.Reason, &details, &rev.Status, &rev.Priority,
			&rev.Resolved, &resolvedAt, &rev.ResolutionAction,
			&rev.ResolutionNotes, &rev.CreatedAt, &rev.UpdatedAt,
		); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("scan_manual_review", err)
		}
		if len(details) > 0 {
			_ = json.Unmarshal(details, &rev.ReasonDetails)
		}
		if resolvedAt.Valid {
			rev.ResolvedAt = &resolvedAt.Time
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}

func (r *Repository) GetReviewByID(ctx context.Context, reviewID uuid.UUID) (*models.ManualReview, error) {
	var rev models.ManualReview
	var details []byte
	var resolvedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email_id, reason, reason_details, status, priority,
		       resolved, resolved_at, COALESCE(resolution_action, ''),
		       COALESCE(resolution_notes, ''), created_at, updated_at
		FROM manual_reviews
		WHERE id = $1`, reviewID).Scan(
		&rev.ID, &rev.EmailID, &rev.Reason, &details, &rev.Status, &rev.Priority,
		&rev.Resolved, &resolvedAt, &rev.ResolutionAction,
		&rev.ResolutionNotes, &rev.CreatedAt, &rev.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get_review_by_id", err)
	}
	if len(details) > 0 {
		_ = json.Unmarshal(details, &rev.ReasonDetails)
	}
	if resolvedAt.Valid {
		rev.ResolvedAt = &resolvedAt.Time
	}
	return &rev, nil
}

func (r *Repository) ResolveReview(ctx context.Context, reviewID uuid.UUID, action, notes string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE manual_reviews
		SET resolved = TRUE, resolved_at = NOW(), status = $2,
		    resolution_action = $3, resolution_notes = $4, updated_at = NOW()
		WHERE id = $1 AND resolved = FALSE`,
		reviewID, models.ReviewCompleted, action, notes)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("resolve_review", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("review %s not found or already resolved", reviewID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Response analytics and blocklist

// RecordResponse appends an analytics row. Written for every rejection,
// interview invite and offer, matched or not.
func (r *Repository) RecordResponse(ctx context.Context, a *models.ResponseAnalytics) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO response_analytics (
			id, email_id, job_id, response_type, company_name, position_title,
			effort_level, application_date, response_date, days_to_response,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())`,
		a.ID, a.EmailID, a.JobID, a.ResponseType, a.CompanyName, a.PositionTitle,
		a.EffortLevel, a.ApplicationDate, a.ResponseDate, a.DaysToResponse,
	)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

// GetCompanyRejectionCount counts rejections from one company within the
// trailing window, matched case-insensitively.
func (r *Repository) GetCompanyRejectionCount(ctx context.Context, companyName string, windowDays int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM response_analytics
		WHERE LOWER(company_name) = LOWER($1)
		  AND response_type = 'rejection'
		  AND response_date >= NOW() - ($2 * INTERVAL '1 day')`,
		companyName, windowDays).Scan(&count)
	if err != nil {
		return 0, apperrors.NewQueryExecutionFailedError("get_company_rejection_count", err)
	}
	return count, nil
}

// UpsertBlocklist inserts or bumps a blocklist entry for a company.
func (r *Repository) UpsertBlocklist(ctx context.Context, companyName, domain, reason string, rejectionCount int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO company_blocklist (
			id, company_name, domain, reason, rejection_count, blocked,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		ON CONFLICT (company_name) DO UPDATE
		SET rejection_count = EXCLUDED.rejection_count,
		    reason = EXCLUDED.reason,
		    blocked = TRUE,
		    updated_at = NOW()`,
		uuid.New(), companyName, domain, reason, rejectionCount,
	)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

// IsCompanyBlocked reports whether a company sits on the blocklist.
func (r *Repository) IsCompanyBlocked(ctx context.Context, companyName string) (bool, error) {
	var blocked bool
	err := r.db.QueryRowContext(ctx, `
		SELECT blocked FROM company_blocklist
		WHERE LOWER(company_name) = LOWER($1)`, companyName).Scan(&blocked)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewQueryExecutionFailedError("is_company_blocked", err)
	}
	return blocked, nil
}

// ---------------------------------------------------------------------------
// Pipeline state

// GetState reads a named checkpoint value, empty string when unset.
func (r *Repository) GetState(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `
		SELECT value FROM pipeline_state WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", apperrors.NewQueryExecutionFailedError("get_state", err)
	}
	return value, nil
}

func (r *Repository) SetState(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pipeline_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()`, key, value)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("set_state", err)
	}
	return nil
}

// Reminder offsets persist as duration strings ("-24h0m0s") which round-trip
// through time.ParseDuration.

func remindersToStrings(reminders []time.Duration) []string {
	out := make([]string, 0, len(reminders))
	for _, d := range reminders {
		out = append(out, d.String())
	}
	return out
}

func remindersFromStrings(raw []string) []time.Duration {
	var out []time.Duration
	for _, s := range raw {
		if d, err := time.ParseDuration(s); err == nil {
			out = append(out, d)
		}
	}
	return out
}
