// internal/models/task.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Quadrant is an Eisenhower matrix bucket.
type Quadrant string

const (
	QuadrantQ1 Quadrant = "q1" // urgent + important
	QuadrantQ2 Quadrant = "q2" // not urgent + important
	QuadrantQ3 Quadrant = "q3" // urgent + not important
	QuadrantQ4 Quadrant = "q4" // not urgent + not important
)

// TaskType distinguishes calendar events from plain tasks.
type TaskType string

const (
	TaskTypeTask          TaskType = "task"
	TaskTypeCalendarEvent TaskType = "calendar_event"
)

// SyncState tracks delivery of a TaskSpec to the task collaborator.
type SyncState string

const (
	SyncPending SyncState = "pending"
	SyncSynced  SyncState = "synced"
	SyncFailed  SyncState = "failed"
)

// RoutingDecision is the pure result of the routing table: where a message
// goes and what scheduling artifacts it carries. Never persisted on its own.
type RoutingDecision struct {
	Quadrant            Quadrant        `json:"quadrant"`
	Priority            int             `json:"priority"` // 0..5
	Tags                []string        `json:"tags"`
	Reminders           []time.Duration `json:"reminders"` // negative offsets before the event
	CreateCalendarEvent bool            `json:"createCalendarEvent"`
	EnableCountdown     bool            `json:"enableCountdown"`
	DueIn               time.Duration   `json:"dueIn"` // 0 = no due date
	MaterializeTask     bool            `json:"materializeTask"`
	Reasoning           string          `json:"reasoning,omitempty"`
}

// TaskSpec is a fully built task or calendar event awaiting sync. Created by
// the materializer, mutated only by the sync pass (pending -> synced|failed).
type TaskSpec struct {
	ID      uuid.UUID `json:"id"`
	EmailID uuid.UUID `json:"emailId"`

	ExternalTaskID string `json:"externalTaskId,omitempty"`
	ProjectID      string `json:"projectId"`

	Title    string     `json:"title"`
	Content  string     `json:"content,omitempty"`
	DueAt    *time.Time `json:"dueAt,omitempty"`
	Priority int        `json:"priority"`
	Tags     []string   `json:"tags,omitempty"`

	TaskType TaskType `json:"taskType"`

	IsCalendarEvent  bool            `json:"isCalendarEvent"`
	StartAt          *time.Time      `json:"startAt,omitempty"`
	EndAt            *time.Time      `json:"endAt,omitempty"`
	IsAllDay         bool            `json:"isAllDay"`
	Reminders        []time.Duration `json:"reminders,omitempty"`
	CountdownEnabled bool            `json:"countdownEnabled"`

	SyncState SyncState  `json:"syncState"`
	SyncedAt  *time.Time `json:"syncedAt,omitempty"`
	SyncError string     `json:"syncError,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
