// internal/processor/processor.go
package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JanKonradK/Saturnus-Magister/internal/common/config"
	apperrors "github.com/JanKonradK/Saturnus-Magister/internal/common/errors"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/logger"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/metrics"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/observability"
	"github.com/JanKonradK/Saturnus-Magister/internal/matching"
	"github.com/JanKonradK/Saturnus-Magister/internal/models"
	"github.com/JanKonradK/Saturnus-Magister/internal/routing"
)

// rejectionWindowDays bounds the trailing window for streak detection.
const rejectionWindowDays = 365

// perEmailTimeout bounds a single email so a shutdown drain always terminates.
const perEmailTimeout = 2 * time.Minute

// Review priorities: urgent categories jump the queue.
const (
	reviewPriorityUrgent  = 8
	reviewPriorityDefault = 5
)

// Classifier categorizes one email. Failures degrade to the unknown
// classification inside the implementation.
type Classifier interface {
	Classify(ctx context.Context, email *models.Email) models.Classification
}

// TaskSyncer pushes one task spec to the external task system.
type TaskSyncer interface {
	CreateTask(ctx context.Context, spec *models.TaskSpec) (string, error)
}

// EmailIndexer mirrors processed emails into search. Optional.
type EmailIndexer interface {
	IndexEmail(ctx context.Context, email *models.Email, classification models.Classification, match *models.MatchCandidate) error
}

// AlertNotifier sends out-of-band alerts. Optional.
type AlertNotifier interface {
	NotifyUrgent(ctx context.Context, email *models.Email, classification models.Classification, company string) error
	NotifyRejectionStreak(ctx context.Context, company string, count int) error
}

// Store is the persistence surface the processor needs. Implemented by
// repository.Repository.
type Store interface {
	GetEmailByProviderID(ctx context.Context, providerID string) (*models.Email, error)
	CreateEmail(ctx context.Context, e *models.Email) error
	MarkEmailProcessed(ctx context.Context, emailID uuid.UUID, c models.Classification) error
	MarkEmailFailed(ctx context.Context, emailID uuid.UUID, procErr error) error

	GetRecentJobApplications(ctx context.Context, lookbackDays int) ([]models.JobApplication, error)
	GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.JobApplication, error)

	CreateMatch(ctx context.Context, d *models.MatchDecision) error
	AddToReviewQueue(ctx context.Context, rev *models.ManualReview) error

	CreateTask(ctx context.Context, t *models.TaskSpec) error
	MarkTaskSynced(ctx context.Context, taskID uuid.UUID, externalID string) error
	MarkTaskSyncFailed(ctx context.Context, taskID uuid.UUID, syncErr error) error
	GetUnsyncedTasks(ctx context.Context, limit int) ([]models.TaskSpec, error)

	RecordResponse(ctx context.Context, a *models.ResponseAnalytics) error
	GetCompanyRejectionCount(ctx context.Context, companyName string, windowDays int) (int, error)
	UpsertBlocklist(ctx context.Context, companyName, domain, reason string, rejectionCount int) error
	IsCompanyBlocked(ctx context.Context, companyName string) (bool, error)
}

// ProcessedFlags is the fast idempotency check in front of the store.
// Implemented by repository.Cache; a nil-safe no-op works too.
type ProcessedFlags interface {
	IsProcessed(ctx context.Context, providerID string) bool
	MarkProcessed(ctx context.Context, providerID string)
	GetRecentJobs(ctx context.Context) []models.JobApplication
	SetRecentJobs(ctx context.Context, jobs []models.JobApplication)
}

// Stats summarizes one batch.
type Stats struct {
	InboxProcessed int
	SentProcessed  int
	Matched        int
	NeedsReview    int
	Skipped        int
	Errors         int
}

// Processor runs the per-email pipeline over batches with bounded
// concurrency. Each email flows through classification, matching, routing,
// materialization and sync sequentially; only distinct emails overlap.
type Processor struct {
	store      Store
	flags      ProcessedFlags
	engine     *matching.Engine
	builder    *routing.Materializer
	classifier Classifier
	syncer     TaskSyncer
	indexer    EmailIndexer
	notifier   AlertNotifier

	matchingCfg   config.MatchingConfig
	streakLimit   int
	maxConcurrent int

	obs    *observability.Observability
	logger logger.Logger

	sem chan struct{}
	wg  sync.WaitGroup
}

type Options struct {
	Store      Store
	Flags      ProcessedFlags
	Engine     *matching.Engine
	Builder    *routing.Materializer
	Classifier Classifier
	Syncer     TaskSyncer
	Indexer    EmailIndexer  // optional
	Notifier   AlertNotifier // optional

	Matching      config.MatchingConfig
	StreakLimit   int
	MaxConcurrent int

	Observability *observability.Observability // optional
	Logger        logger.Logger
}

func New(opts Options) *Processor {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	if opts.StreakLimit < 1 {
		opts.StreakLimit = 3
	}
	return &Processor{
		store:         opts.Store,
		flags:         opts.Flags,
		engine:        opts.Engine,
		builder:       opts.Builder,
		classifier:    opts.Classifier,
		syncer:        opts.Syncer,
		indexer:       opts.Indexer,
		notifier:      opts.Notifier,
		matchingCfg:   opts.Matching,
		streakLimit:   opts.StreakLimit,
		maxConcurrent: opts.MaxConcurrent,
		obs:           opts.Observability,
		logger:        opts.Logger.WithFields(map[string]interface{}{"component": "processor"}),
		sem:           make(chan struct{}, opts.MaxConcurrent),
	}
}

// ProcessBatch runs the pipeline over a batch. Blocks until every email in
// the batch finished or ctx was cancelled; in-flight emails always finish.
func (p *Processor) ProcessBatch(ctx context.Context, emails []models.Email) Stats {
	var mu sync.Mutex
	var stats Stats

	for i := range emails {
		email := emails[i]

		select {
		case p.sem <- struct{}{}:
		case <-ctx.Done():
			mu.Lock()
			stats.Skipped += len(emails) - i
			mu.Unlock()
			p.wg.Wait()
			return stats
		}

		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			defer func() { <-p.sem }()

			// A dispatched email finishes even if the batch context is
			// cancelled mid-flight; the timeout bounds the drain window.
			workCtx, done := context.WithTimeout(context.WithoutCancel(ctx), perEmailTimeout)
			defer done()

			res := p.processOne(workCtx, &email)

			mu.Lock()
			defer mu.Unlock()
			switch res.status {
			case outcomeSkipped:
				stats.Skipped++
			case outcomeFailed:
				stats.Errors++
			default:
				if email.Outbound {
					stats.SentProcessed++
				} else {
					stats.InboxProcessed++
				}
				if res.matched {
					stats.Matched++
				}
				if res.needsReview {
					stats.NeedsReview++
				}
			}
		}()
	}

	p.wg.Wait()
	return stats
}

type outcomeStatus int

const (
	outcomeProcessed outcomeStatus = iota
	outcomeSkipped
	outcomeFailed
)

type outcome struct {
	status      outcomeStatus
	matched     bool
	needsReview bool
	code        apperrors.ErrorCode
}

// failed records the failure on the metric, labeled by the code of the error
// that broke the pipeline, and builds the failed outcome. Called exactly once
// per failed email, at the site that first observed the error.
func (p *Processor) failed(ctx context.Context, err error) outcome {
	code := apperrors.CodeOf(err)
	if ctx.Err() != nil {
		code = apperrors.ErrCodeClassificationTimeout
	}
	metrics.EmailsFailed.WithLabelValues(string(code)).Inc()
	return outcome{status: outcomeFailed, code: code}
}

func (p *Processor) processOne(ctx context.Context, email *models.Email) outcome {
	start := time.Now()
	log := p.logger.WithFields(map[string]interface{}{
		"providerId": email.ProviderID,
		"outbound":   email.Outbound,
	})

	metrics.PipelinesActive.Inc()
	defer metrics.PipelinesActive.Dec()

	// Idempotency: an email processes at most once per provider id.
	if p.flags != nil && p.flags.IsProcessed(ctx, email.ProviderID) {
		return outcome{status: outcomeSkipped}
	}
	existing, err := p.store.GetEmailByProviderID(ctx, email.ProviderID)
	if err != nil {
		log.Error("idempotency lookup failed", map[string]interface{}{"error": err.Error()})
		return p.failed(ctx, err)
	}
	if existing != nil && existing.Processed {
		if p.flags != nil {
			p.flags.MarkProcessed(ctx, email.ProviderID)
		}
		return outcome{status: outcomeSkipped}
	}
	if existing != nil {
		email.ID = existing.ID
	} else if err := p.store.CreateEmail(ctx, email); err != nil {
		log.Error("persist email failed", map[string]interface{}{"error": err.Error()})
		return p.failed(ctx, err)
	}

	classification := p.classifier.Classify(ctx, email)
	log.Info("email classified", map[string]interface{}{
		"category":   string(classification.Category),
		"sentiment":  string(classification.Sentiment),
		"confidence": classification.Confidence,
	})

	var res outcome
	if email.Outbound {
		res = p.processOutbound(ctx, email, classification, log)
	} else {
		res = p.processInbound(ctx, email, classification, log)
	}
	if res.status == outcomeFailed {
		if err := p.store.MarkEmailFailed(ctx, email.ID, fmt.Errorf("pipeline failed for %s: %s", email.ProviderID, res.code)); err != nil {
			log.Error("record pipeline failure failed", map[string]interface{}{"error": err.Error()})
		}
		p.recordDuration(ctx, classification, start, "failed")
		return res
	}

	if err := p.store.MarkEmailProcessed(ctx, email.ID, classification); err != nil {
		log.Error("mark processed failed", map[string]interface{}{"error": err.Error()})
		return p.failed(ctx, err)
	}
	if p.flags != nil {
		p.flags.MarkProcessed(ctx, email.ProviderID)
	}

	metrics.EmailsProcessed.WithLabelValues(string(classification.Category), direction(email)).Inc()
	p.recordDuration(ctx, classification, start, "processed")
	return res
}

func (p *Processor) processInbound(ctx context.Context, email *models.Email, classification models.Classification, log logger.Logger) outcome {
	match, decision, err := p.match(ctx, email, log)
	if err != nil {
		return p.failed(ctx, err)
	}

	if decision.NeedsReview {
		p.enqueueReview(ctx, email, classification, decision, log)
	}

	routeDecision := routing.Route(classification, effortOf(match))
	specs := p.builder.Build(email, classification, routeDecision, match, time.Now())
	p.persistAndSync(ctx, specs, log)

	p.recordAnalytics(ctx, email, classification, match, log)
	p.alert(ctx, email, classification, match, log)
	p.index(ctx, email, classification, match, log)

	return outcome{
		matched:     match != nil,
		needsReview: decision.NeedsReview,
	}
}

// processOutbound handles sent mail: it links the message to an application
// for thread context and, for availability emails, creates tentative
// calendar placeholders for each proposed time.
func (p *Processor) processOutbound(ctx context.Context, email *models.Email, classification models.Classification, log logger.Logger) outcome {
	match, decision, err := p.match(ctx, email, log)
	if err != nil {
		return p.failed(ctx, err)
	}

	if classification.Category == models.CategorySentAvailability {
		p.createPlaceholders(ctx, email, classification, match, log)
	}

	p.index(ctx, email, classification, match, log)

	return outcome{
		matched:     match != nil,
		needsReview: decision.NeedsReview,
	}
}

// match runs scoring plus decision policy and persists the result. Errors
// only on persistence failure; an unmatched email is not an error.
func (p *Processor) match(ctx context.Context, email *models.Email, log logger.Logger) (*models.MatchCandidate, matching.Decision, error) {
	jobs := p.recentJobs(ctx, log)
	decision := p.engine.Decide(ctx, email, jobs)

	metrics.MatchDecisions.WithLabelValues(string(decision.Method), fmt.Sprintf("%t", decision.NeedsReview)).Inc()

	record := &models.MatchDecision{
		EmailID:     email.ID,
		Method:      decision.Method,
		NeedsReview: decision.NeedsReview,
	}
	if decision.Candidate != nil {
		record.Score = decision.Candidate.Score
		record.SignalScores = decision.Candidate.SignalScores
	}
	if decision.Candidate != nil && !decision.NeedsReview {
		record.JobID = &decision.Candidate.JobID
	} else if decision.Candidate != nil && decision.Candidate.Score >= p.matchingCfg.ReviewThreshold {
		// Provisional link: kept visible in review, usable for routing.
		record.JobID = &decision.Candidate.JobID
	}

	if err := p.store.CreateMatch(ctx, record); err != nil {
		log.Error("persist match failed", map[string]interface{}{"error": err.Error()})
		return nil, decision, err
	}

	var match *models.MatchCandidate
	if record.JobID != nil {
		match = decision.Candidate
	}
	return match, decision, nil
}

func (p *Processor) recentJobs(ctx context.Context, log logger.Logger) []models.JobApplication {
	if p.flags != nil {
		if jobs := p.flags.GetRecentJobs(ctx); jobs != nil {
			return jobs
		}
	}
	jobs, err := p.store.GetRecentJobApplications(ctx, p.matchingCfg.LookbackDays)
	if err != nil {
		log.Warn("candidate load failed, matching against empty set", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	if p.flags != nil {
		p.flags.SetRecentJobs(ctx, jobs)
	}
	return jobs
}

func (p *Processor) enqueueReview(ctx context.Context, email *models.Email, classification models.Classification, decision matching.Decision, log logger.Logger) {
	priority := reviewPriorityDefault
	if classification.Category == models.CategoryInterviewInvite || classification.Category == models.CategoryOffer {
		priority = reviewPriorityUrgent
	}

	details := map[string]interface{}{
		"category": string(classification.Category),
	}
	if decision.Candidate != nil {
		details["bestCandidate"] = decision.Candidate.CompanyName
		details["bestScore"] = decision.Candidate.Score
	}

	rev := &models.ManualReview{
		EmailID:       email.ID,
		Reason:        decision.Reason,
		ReasonDetails: details,
		Priority:      priority,
	}
	if err := p.store.AddToReviewQueue(ctx, rev); err != nil {
		log.Error("enqueue review failed", map[string]interface{}{"error": err.Error()})
	}
}

func (p *Processor) persistAndSync(ctx context.Context, specs []models.TaskSpec, log logger.Logger) {
	for i := range specs {
		spec := &specs[i]
		if err := p.store.CreateTask(ctx, spec); err != nil {
			log.Error("persist task failed", map[string]interface{}{
				"title": spec.Title,
				"error": err.Error(),
			})
			continue
		}
		metrics.TasksMaterialized.WithLabelValues(string(spec.TaskType)).Inc()
		p.syncTask(ctx, spec, log)
	}
}

func (p *Processor) syncTask(ctx context.Context, spec *models.TaskSpec, log logger.Logger) {
	externalID, err := p.syncer.CreateTask(ctx, spec)
	if err != nil {
		log.Warn("task sync failed, left for resync", map[string]interface{}{
			"taskId": spec.ID.String(),
			"error":  err.Error(),
		})
		metrics.TasksSynced.WithLabelValues("failed").Inc()
		if dberr := p.store.MarkTaskSyncFailed(ctx, spec.ID, err); dberr != nil {
			log.Error("record sync failure failed", map[string]interface{}{"error": dberr.Error()})
		}
		return
	}
	metrics.TasksSynced.WithLabelValues("synced").Inc()
	if err := p.store.MarkTaskSynced(ctx, spec.ID, externalID); err != nil {
		log.Error("record sync success failed", map[string]interface{}{"error": err.Error()})
	}
}

// recordAnalytics appends a response row for rejections, invites and offers,
// and escalates rejection streaks to the blocklist.
func (p *Processor) recordAnalytics(ctx context.Context, email *models.Email, classification models.Classification, match *models.MatchCandidate, log logger.Logger) {
	if !classification.Category.IsResponse() {
		return
	}

	a := &models.ResponseAnalytics{
		EmailID:      email.ID,
		ResponseType: string(classification.Category),
		ResponseDate: email.ReceivedAt,
	}
	if match != nil {
		a.JobID = &match.JobID
		a.CompanyName = match.CompanyName
		a.PositionTitle = match.PositionTitle
		a.EffortLevel = match.EffortLevel
		applied := match.AppliedAt
		a.ApplicationDate = &applied
		days := int(email.ReceivedAt.Sub(applied).Hours() / 24)
		a.DaysToResponse = &days
	} else if domain := matching.ExtractDomain(email.SenderEmail); domain != "" {
		a.CompanyName = domain
	}
	if err := p.store.RecordResponse(ctx, a); err != nil {
		log.Warn("analytics write failed", map[string]interface{}{"error": err.Error()})
		return
	}

	if classification.Category == models.CategoryRejection && a.CompanyName != "" {
		p.checkRejectionStreak(ctx, email, a.CompanyName, log)
	}
}

func (p *Processor) checkRejectionStreak(ctx context.Context, email *models.Email, company string, log logger.Logger) {
	count, err := p.store.GetCompanyRejectionCount(ctx, company, rejectionWindowDays)
	if err != nil {
		log.Warn("rejection count lookup failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if count < p.streakLimit {
		return
	}

	// Already-blocked companies were announced once; only the count updates.
	blocked, err := p.store.IsCompanyBlocked(ctx, company)
	if err != nil {
		log.Warn("blocklist lookup failed", map[string]interface{}{"error": err.Error()})
	}

	reason := fmt.Sprintf("%d rejections in %d days", count, rejectionWindowDays)
	domain := matching.ExtractDomain(email.SenderEmail)
	if err := p.store.UpsertBlocklist(ctx, company, domain, reason, count); err != nil {
		log.Warn("blocklist update failed", map[string]interface{}{"error": err.Error()})
	}
	if p.notifier != nil && !blocked {
		if err := p.notifier.NotifyRejectionStreak(ctx, company, count); err != nil {
			log.Warn("streak notification failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (p *Processor) alert(ctx context.Context, email *models.Email, classification models.Classification, match *models.MatchCandidate, log logger.Logger) {
	if p.notifier == nil {
		return
	}
	if classification.Category != models.CategoryInterviewInvite && classification.Category != models.CategoryOffer {
		return
	}
	company := "unknown company"
	if match != nil {
		company = match.CompanyName
	}
	if err := p.notifier.NotifyUrgent(ctx, email, classification, company); err != nil {
		log.Warn("urgent notification failed", map[string]interface{}{"error": err.Error()})
	}
}

func (p *Processor) index(ctx context.Context, email *models.Email, classification models.Classification, match *models.MatchCandidate, log logger.Logger) {
	if p.indexer == nil {
		return
	}
	if err := p.indexer.IndexEmail(ctx, email, classification, match); err != nil {
		log.Warn("search indexing failed", map[string]interface{}{"error": err.Error()})
	}
}

func (p *Processor) createPlaceholders(ctx context.Context, email *models.Email, classification models.Classification, match *models.MatchCandidate, log logger.Logger) {
	times := classification.ExtractedStrings(models.ExtractedProposedTimes)
	if len(times) > 3 {
		times = times[:3]
	}

	company := ""
	if match != nil {
		company = match.CompanyName
	}

	var specs []models.TaskSpec
	for _, raw := range times {
		startAt, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			log.Debug("unparseable proposed time skipped", map[string]interface{}{"value": raw})
			continue
		}
		specs = append(specs, p.builder.BuildPlaceholder(email, company, startAt, time.Now()))
	}
	p.persistAndSync(ctx, specs, log)
}

// ResyncTasks retries pending and failed task specs. Returns how many synced.
func (p *Processor) ResyncTasks(ctx context.Context, limit int) (int, error) {
	tasks, err := p.store.GetUnsyncedTasks(ctx, limit)
	if err != nil {
		return 0, err
	}

	synced := 0
	for i := range tasks {
		spec := &tasks[i]
		externalID, err := p.syncer.CreateTask(ctx, spec)
		if err != nil {
			metrics.TasksSynced.WithLabelValues("failed").Inc()
			if dberr := p.store.MarkTaskSyncFailed(ctx, spec.ID, err); dberr != nil {
				p.logger.Error("record sync failure failed", map[string]interface{}{"error": dberr.Error()})
			}
			continue
		}
		metrics.TasksSynced.WithLabelValues("synced").Inc()
		if err := p.store.MarkTaskSynced(ctx, spec.ID, externalID); err != nil {
			p.logger.Error("record sync success failed", map[string]interface{}{"error": err.Error()})
			continue
		}
		synced++
	}
	return synced, nil
}

func (p *Processor) recordDuration(ctx context.Context, classification models.Classification, start time.Time, status string) {
	elapsed := time.Since(start)
	metrics.PipelineDuration.WithLabelValues(string(classification.Category)).Observe(elapsed.Seconds())
	if p.obs != nil {
		p.obs.RecordPipelineProcessed(ctx, status)
		p.obs.RecordPipelineDuration(ctx, elapsed, status)
	}
}

func effortOf(match *models.MatchCandidate) models.EffortLevel {
	if match == nil {
		return ""
	}
	return match.EffortLevel
}

func direction(email *models.Email) string {
	if email.Outbound {
		return "outbound"
	}
	return "inbound"
}

