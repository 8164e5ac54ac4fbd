// internal/routing/materializer_test.go
package routing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

var testProjects = ProjectMap{
	Q1:   "proj-q1",
	Q2:   "proj-q2",
	Q3:   "proj-q3",
	Q4:   "proj-q4",
	Work: "proj-work",
}

func testEmail() *models.Email {
	return &models.Email{
		ID:          uuid.New(),
		ProviderID:  "msg-123",
		Subject:     "Interview invitation",
		SenderEmail: "recruiting@techcorp.com",
		ReceivedAt:  time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
}

func testMatch() *models.MatchCandidate {
	return &models.MatchCandidate{
		JobID:         uuid.New(),
		CompanyName:   "TechCorp",
		PositionTitle: "Backend Engineer",
		Score:         0.92,
		AppliedAt:     time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuildInterviewInvite(t *testing.T) {
	m := NewMaterializer(testProjects)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	email := testEmail()

	classification := classified(models.CategoryInterviewInvite, models.SentimentPositive, map[string]interface{}{
		models.ExtractedInterviewDate: "2026-09-02T14:00:00Z",
	})
	decision := Route(classification, models.EffortMedium)

	specs := m.Build(email, classification, decision, testMatch(), now)

	require.Len(t, specs, 3)
	calendar, quadrant, work := specs[0], specs[1], specs[2]

	assert.True(t, calendar.IsCalendarEvent)
	assert.Equal(t, "Interview: TechCorp - Backend Engineer", calendar.Title)
	assert.Equal(t, "proj-work", calendar.ProjectID)
	require.NotNil(t, calendar.StartAt)
	assert.Equal(t, time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC), *calendar.StartAt)
	require.NotNil(t, calendar.EndAt)
	assert.Equal(t, calendar.StartAt.Add(time.Hour), *calendar.EndAt)
	assert.False(t, calendar.IsAllDay)
	assert.Len(t, calendar.Reminders, 3)

	assert.Equal(t, models.TaskTypeTask, quadrant.TaskType)
	assert.Equal(t, "proj-q1", quadrant.ProjectID)
	assert.Equal(t, 5, quadrant.Priority)
	require.NotNil(t, quadrant.DueAt)
	assert.Equal(t, now.Add(24*time.Hour), *quadrant.DueAt)

	assert.Equal(t, "proj-work", work.ProjectID)
	assert.Equal(t, "Prepare for TechCorp interview", work.Title)
	assert.Contains(t, work.Content, "Research company")
	require.NotNil(t, work.DueAt)
	assert.Equal(t, time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC), *work.DueAt)
	assert.Contains(t, work.Tags, "work")

	for _, spec := range specs {
		assert.Equal(t, email.ID, spec.EmailID)
		assert.Equal(t, models.SyncPending, spec.SyncState)
	}
}

func TestBuildAssignment(t *testing.T) {
	m := NewMaterializer(testProjects)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	classification := classified(models.CategoryAssignment, models.SentimentNeutral, map[string]interface{}{
		models.ExtractedDeadline: "2026-09-05T23:59:00Z",
	})
	decision := Route(classification, models.EffortMedium)

	specs := m.Build(testEmail(), classification, decision, testMatch(), now)

	require.Len(t, specs, 3)
	calendar := specs[0]

	assert.True(t, calendar.IsAllDay)
	assert.Equal(t, "Deadline: TechCorp - Backend Engineer", calendar.Title)
	require.NotNil(t, calendar.EndAt)
	assert.Equal(t, *calendar.StartAt, *calendar.EndAt)

	work := specs[2]
	assert.Equal(t, "Complete TechCorp assignment", work.Title)
	require.NotNil(t, work.DueAt)
	assert.Equal(t, time.Date(2026, 9, 5, 11, 59, 0, 0, time.UTC), *work.DueAt)
}

func TestBuildLowEffortRejection(t *testing.T) {
	m := NewMaterializer(testProjects)
	now := time.Now()

	classification := classified(models.CategoryRejection, models.SentimentNegative, nil)
	decision := Route(classification, models.EffortLow)

	specs := m.Build(testEmail(), classification, decision, testMatch(), now)
	assert.Empty(t, specs)
}

func TestBuildUnmatchedEmail(t *testing.T) {
	m := NewMaterializer(testProjects)
	now := time.Now()

	classification := classified(models.CategoryFollowUpNeeded, models.SentimentNeutral, nil)
	decision := Route(classification, "")

	specs := m.Build(testEmail(), classification, decision, nil, now)

	require.Len(t, specs, 2)
	assert.Contains(t, specs[0].Title, "Unknown Company")
	assert.Equal(t, "Reply to Unknown Company", specs[1].Title)
}

func TestBuildUnparseableDateSkipsCalendar(t *testing.T) {
	m := NewMaterializer(testProjects)
	now := time.Now()

	classification := classified(models.CategoryInterviewInvite, models.SentimentNeutral, map[string]interface{}{
		models.ExtractedInterviewDate: "next Tuesday at 2pm",
	})
	decision := Route(classification, "")

	specs := m.Build(testEmail(), classification, decision, testMatch(), now)

	require.Len(t, specs, 2)
	for _, spec := range specs {
		assert.False(t, spec.IsCalendarEvent)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	m := NewMaterializer(testProjects)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	email := testEmail()
	match := testMatch()

	classification := classified(models.CategoryInterviewInvite, models.SentimentNeutral, map[string]interface{}{
		models.ExtractedInterviewDate: "2026-09-02T14:00:00Z",
	})
	decision := Route(classification, models.EffortMedium)

	first := m.Build(email, classification, decision, match, now)
	second := m.Build(email, classification, decision, match, now)

	require.Equal(t, len(first), len(second))
	for i := range first {
		// IDs are fresh per spec; everything else must be identical.
		first[i].ID = second[i].ID
		assert.Equal(t, first[i], second[i])
	}
}

func TestBuildPlaceholder(t *testing.T) {
	m := NewMaterializer(testProjects)
	now := time.Now()
	startAt := time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC)

	spec := m.BuildPlaceholder(testEmail(), "TechCorp", startAt, now)

	assert.True(t, spec.IsCalendarEvent)
	assert.Equal(t, "Proposed: TechCorp", spec.Title)
	require.NotNil(t, spec.EndAt)
	assert.Equal(t, startAt.Add(time.Hour), *spec.EndAt)
	assert.Contains(t, spec.Tags, "proposed")
}
