// internal/routing/materializer.go
package routing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

// Fallbacks when the email could not be linked to an application.
const (
	unknownCompany  = "Unknown Company"
	unknownPosition = "Position"
)

// workTaskDeadlineBuffer backs the work task's due date off the real
// deadline so there is working room left.
const workTaskDeadlineBuffer = 12 * time.Hour

// interviewPrepLead puts interview preparation due a day before the event.
const interviewPrepLead = 24 * time.Hour

// ProjectMap binds Eisenhower quadrants and the work list to task-collaborator
// project ids.
type ProjectMap struct {
	Q1   string
	Q2   string
	Q3   string
	Q4   string
	Work string
}

// ForQuadrant returns the project id for a quadrant.
func (p ProjectMap) ForQuadrant(q models.Quadrant) string {
	switch q {
	case models.QuadrantQ1:
		return p.Q1
	case models.QuadrantQ2:
		return p.Q2
	case models.QuadrantQ3:
		return p.Q3
	default:
		return p.Q4
	}
}

// Materializer turns a routing decision plus match context into concrete
// task specs. Deterministic: the only clock input is the now argument.
type Materializer struct {
	projects ProjectMap
}

func NewMaterializer(projects ProjectMap) *Materializer {
	return &Materializer{projects: projects}
}

// Build emits 0-3 task specs for one routed email, in fixed order: calendar
// event, quadrant task, work-list task. All specs start in the pending sync
// state; nothing here talks to the task collaborator.
func (m *Materializer) Build(
	email *models.Email,
	classification models.Classification,
	decision models.RoutingDecision,
	match *models.MatchCandidate,
	now time.Time,
) []models.TaskSpec {
	company := unknownCompany
	position := unknownPosition
	if match != nil {
		if match.CompanyName != "" {
			company = match.CompanyName
		}
		if match.PositionTitle != "" {
			position = match.PositionTitle
		}
	}
	emailLink := mailLink(email.ProviderID)

	var specs []models.TaskSpec

	if decision.CreateCalendarEvent {
		if spec, ok := m.buildCalendarEvent(email, classification, decision, company, position, emailLink, now); ok {
			specs = append(specs, spec)
		}
	}

	if decision.MaterializeTask {
		specs = append(specs, m.buildQuadrantTask(email, classification, decision, company, position, emailLink, now))
	}

	if classification.Category.IsActionable() {
		specs = append(specs, m.buildWorkTask(email, classification, decision, company, position, emailLink, now))
	}

	return specs
}

// BuildPlaceholder creates a tentative calendar event for a proposed
// interview time mentioned in an outbound availability email.
func (m *Materializer) BuildPlaceholder(email *models.Email, company string, startAt, now time.Time) models.TaskSpec {
	if company == "" {
		company = "Interview"
	}
	endAt := startAt.Add(time.Hour)
	return models.TaskSpec{
		ID:              uuid.New(),
		EmailID:         email.ID,
		ProjectID:       m.projects.Work,
		Title:           fmt.Sprintf("Proposed: %s", company),
		Content:         "Proposed time - awaiting confirmation",
		TaskType:        models.TaskTypeCalendarEvent,
		IsCalendarEvent: true,
		StartAt:         &startAt,
		EndAt:           &endAt,
		Priority:        3,
		Tags:            []string{"proposed"},
		SyncState:       models.SyncPending,
		CreatedAt:       now,
	}
}

func (m *Materializer) buildCalendarEvent(
	email *models.Email,
	classification models.Classification,
	decision models.RoutingDecision,
	company, position, emailLink string,
	now time.Time,
) (models.TaskSpec, bool) {
	eventAt, ok := extractEventTime(classification)
	if !ok {
		return models.TaskSpec{}, false
	}

	isDeadline := classification.Category == models.CategoryAssignment

	prefix := "Interview:"
	if isDeadline {
		prefix = "Deadline:"
	}

	startAt := eventAt
	endAt := eventAt
	if !isDeadline {
		endAt = eventAt.Add(time.Hour)
	}

	return models.TaskSpec{
		ID:               uuid.New(),
		EmailID:          email.ID,
		ProjectID:        m.projects.Work,
		Title:            fmt.Sprintf("%s %s - %s", prefix, company, position),
		Content:          taskContent(classification.Reasoning, emailLink),
		TaskType:         models.TaskTypeCalendarEvent,
		IsCalendarEvent:  true,
		StartAt:          &startAt,
		EndAt:            &endAt,
		IsAllDay:         isDeadline,
		Reminders:        decision.Reminders,
		CountdownEnabled: decision.EnableCountdown,
		Priority:         5,
		Tags:             []string{"calendar", string(classification.Category)},
		SyncState:        models.SyncPending,
		CreatedAt:        now,
	}, true
}

func (m *Materializer) buildQuadrantTask(
	email *models.Email,
	classification models.Classification,
	decision models.RoutingDecision,
	company, position, emailLink string,
	now time.Time,
) models.TaskSpec {
	title := fmt.Sprintf("%s: %s", categoryTitle(classification.Category), company)

	var dueAt *time.Time
	if decision.DueIn > 0 {
		due := now.Add(decision.DueIn)
		dueAt = &due
	}

	content := fmt.Sprintf("Position: %s\n\n%s", position, taskContent(classification.Reasoning, emailLink))

	return models.TaskSpec{
		ID:        uuid.New(),
		EmailID:   email.ID,
		ProjectID: m.projects.ForQuadrant(decision.Quadrant),
		Title:     title,
		Content:   content,
		TaskType:  models.TaskTypeTask,
		Priority:  decision.Priority,
		Tags:      decision.Tags,
		DueAt:     dueAt,
		SyncState: models.SyncPending,
		CreatedAt: now,
	}
}

func (m *Materializer) buildWorkTask(
	email *models.Email,
	classification models.Classification,
	decision models.RoutingDecision,
	company, position, emailLink string,
	now time.Time,
) models.TaskSpec {
	var title string
	var checklist string

	switch classification.Category {
	case models.CategoryInterviewInvite:
		title = fmt.Sprintf("Prepare for %s interview", company)
		checklist = "- Research company\n- Review job description\n- Prepare questions\n- Test meeting technology\n\n"
	case models.CategoryAssignment:
		title = fmt.Sprintf("Complete %s assignment", company)
		if deadline, ok := classification.ExtractedString(models.ExtractedDeadline); ok {
			checklist = fmt.Sprintf("Deadline: %s\n\n", deadline)
		}
	case models.CategoryFollowUpNeeded:
		title = fmt.Sprintf("Reply to %s", company)
	default:
		title = fmt.Sprintf("Action: %s", company)
	}

	var dueAt *time.Time
	if eventAt, ok := extractEventTime(classification); ok {
		var due time.Time
		if classification.Category == models.CategoryAssignment {
			due = eventAt.Add(-workTaskDeadlineBuffer)
		} else {
			due = eventAt.Add(-interviewPrepLead)
		}
		dueAt = &due
	}

	content := fmt.Sprintf("Position: %s\n\n%s%s", position, checklist, taskContent(classification.Reasoning, emailLink))

	return models.TaskSpec{
		ID:        uuid.New(),
		EmailID:   email.ID,
		ProjectID: m.projects.Work,
		Title:     title,
		Content:   content,
		TaskType:  models.TaskTypeTask,
		Priority:  decision.Priority,
		Tags:      append(append([]string{}, decision.Tags...), "work"),
		DueAt:     dueAt,
		SyncState: models.SyncPending,
		CreatedAt: now,
	}
}

// extractEventTime parses the extracted interview date or, failing that, the
// deadline. Unparseable values behave like missing values.
func extractEventTime(classification models.Classification) (time.Time, bool) {
	for _, key := range []string{models.ExtractedInterviewDate, models.ExtractedDeadline} {
		raw, ok := classification.ExtractedString(key)
		if !ok {
			continue
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func taskContent(reasoning, emailLink string) string {
	if reasoning == "" {
		return fmt.Sprintf("Email: %s", emailLink)
	}
	return fmt.Sprintf("%s\n\nEmail: %s", reasoning, emailLink)
}

func categoryTitle(c models.EmailCategory) string {
	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func mailLink(providerID string) string {
	return "https://mail.google.com/mail/u/0/#all/" + providerID
}
