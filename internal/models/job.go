// internal/models/job.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// EffortLevel is the qualitative cost already invested in an application.
// It decides whether a rejection warrants a task at all.
type EffortLevel string

const (
	EffortLow    EffortLevel = "low"
	EffortMedium EffortLevel = "medium"
	EffortHigh   EffortLevel = "high"
)

// JobApplication is an application record owned by the external tracker.
// Read-only to this pipeline.
type JobApplication struct {
	ID            uuid.UUID   `json:"id"`
	CompanyName   string      `json:"companyName"`
	CompanyDomain string      `json:"companyDomain,omitempty"`
	PositionTitle string      `json:"positionTitle"`
	AppliedAt     time.Time   `json:"appliedAt"`
	EffortLevel   EffortLevel `json:"effortLevel,omitempty"`
	Status        string      `json:"status,omitempty"`
}
