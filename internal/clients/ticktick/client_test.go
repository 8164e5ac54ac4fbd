// internal/clients/ticktick/client_test.go
package ticktick

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JanKonradK/Saturnus-Magister/internal/common/config"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/logger"
	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

func newTestTickTick(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.TickTickConfig{
		BaseURL:     server.URL,
		AccessToken: "tt-token",
		Timeout:     2 * time.Second,
	}, logger.NewTestLogger(t))
}

func TestCreateTask(t *testing.T) {
	due := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)

	t.Run("plain task payload", func(t *testing.T) {
		var got taskRequest
		var gotAuth, gotPath string
		client := newTestTickTick(t, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			json.NewEncoder(w).Encode(taskResponse{ID: "tt-42"})
		})

		spec := &models.TaskSpec{
			ID:        uuid.New(),
			ProjectID: "proj-q1",
			Title:     "Prepare for TechCorp interview",
			Content:   "Research company",
			DueAt:     &due,
			Priority:  4,
			Tags:      []string{"work", "interview_invite"},
			Reminders: []time.Duration{-24 * time.Hour},
			SyncState: models.SyncPending,
		}

		externalID, err := client.CreateTask(context.Background(), spec)
		require.NoError(t, err)
		assert.Equal(t, "tt-42", externalID)
		assert.Equal(t, "Bearer tt-token", gotAuth)
		assert.Equal(t, "/open/v1/task", gotPath)
		assert.Equal(t, "proj-q1", got.ProjectID)
		assert.Equal(t, "2026-09-01T14:00:00.000+0000", got.DueDate)
		assert.Empty(t, got.StartDate)
		assert.Equal(t, 3, got.Priority)
		assert.Equal(t, []string{"TRIGGER:-PT24H"}, got.Reminders)
	})

	t.Run("calendar event payload", func(t *testing.T) {
		var got taskRequest
		client := newTestTickTick(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			json.NewEncoder(w).Encode(taskResponse{ID: "tt-43"})
		})

		start := due
		end := due.Add(time.Hour)
		spec := &models.TaskSpec{
			ID:              uuid.New(),
			ProjectID:       "proj-cal",
			Title:           "Interview: TechCorp - Backend Engineer",
			IsCalendarEvent: true,
			StartAt:         &start,
			EndAt:           &end,
			Priority:        5,
			Reminders:       []time.Duration{-15 * time.Minute},
		}

		_, err := client.CreateTask(context.Background(), spec)
		require.NoError(t, err)
		assert.Equal(t, "2026-09-01T14:00:00.000+0000", got.StartDate)
		assert.Equal(t, "2026-09-01T15:00:00.000+0000", got.DueDate)
		assert.Equal(t, 5, got.Priority)
		assert.Equal(t, []string{"TRIGGER:-PT15M"}, got.Reminders)
	})

	t.Run("unauthorized", func(t *testing.T) {
		client := newTestTickTick(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := client.CreateTask(context.Background(), &models.TaskSpec{ProjectID: "p", Title: "t"})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("server error", func(t *testing.T) {
		client := newTestTickTick(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.CreateTask(context.Background(), &models.TaskSpec{ProjectID: "p", Title: "t"})
		assert.ErrorIs(t, err, ErrTaskSyncFailed)
	})

	t.Run("response without id", func(t *testing.T) {
		client := newTestTickTick(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(taskResponse{})
		})

		_, err := client.CreateTask(context.Background(), &models.TaskSpec{ProjectID: "p", Title: "t"})
		assert.ErrorIs(t, err, ErrTaskSyncFailed)
	})
}

func TestCompleteTask(t *testing.T) {
	var gotPath string
	client := newTestTickTick(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.CompleteTask(context.Background(), "proj-q1", "tt-42"))
	assert.Equal(t, "/open/v1/project/proj-q1/task/tt-42/complete", gotPath)
}

func TestAPIPriority(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 0}, {1, 1}, {2, 1}, {3, 3}, {4, 3}, {5, 5}, {8, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, apiPriority(tt.in))
	}
}

func TestFormatTrigger(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-24 * time.Hour, "TRIGGER:-PT24H"},
		{-15 * time.Minute, "TRIGGER:-PT15M"},
		{-90 * time.Minute, "TRIGGER:-PT1H30M"},
		{30 * time.Minute, "TRIGGER:PT30M"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatTrigger(tt.in))
	}
}
