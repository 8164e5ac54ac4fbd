// internal/models/review.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// ReviewStatus of a manual review queue entry.
type ReviewStatus string

const (
	ReviewPending    ReviewStatus = "pending"
	ReviewInProgress ReviewStatus = "in_progress"
	ReviewCompleted  ReviewStatus = "completed"
	ReviewSkipped    ReviewStatus = "skipped"
)

// Review reason codes.
const (
	ReviewReasonNoMatch           = "no_match_found"
	ReviewReasonLowConfidence     = "low_confidence_match"
	ReviewReasonAmbiguousCategory = "ambiguous_category"
)

// ManualReview is a queue entry for human resolution.
type ManualReview struct {
	ID      uuid.UUID `json:"id"`
	EmailID uuid.UUID `json:"emailId"`

	Reason        string                 `json:"reason"`
	ReasonDetails map[string]interface{} `json:"reasonDetails,omitempty"`

	Status   ReviewStatus `json:"status"`
	Priority int          `json:"priority"` // 1..10

	Resolved         bool       `json:"resolved"`
	ResolvedAt       *time.Time `json:"resolvedAt,omitempty"`
	ResolutionAction string     `json:"resolutionAction,omitempty"`
	ResolutionNotes  string     `json:"resolutionNotes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ResponseAnalytics is an append-only record of a company response, written
// for every rejection, interview invite, and offer regardless of match state.
type ResponseAnalytics struct {
	ID      uuid.UUID  `json:"id"`
	EmailID uuid.UUID  `json:"emailId"`
	JobID   *uuid.UUID `json:"jobId,omitempty"`

	ResponseType  string `json:"responseType"`
	CompanyName   string `json:"companyName,omitempty"`
	PositionTitle string `json:"positionTitle,omitempty"`

	EffortLevel EffortLevel `json:"effortLevel,omitempty"`

	ApplicationDate *time.Time `json:"applicationDate,omitempty"`
	ResponseDate    time.Time  `json:"responseDate"`
	DaysToResponse  *int       `json:"daysToResponse,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// CompanyBlocklistEntry tracks companies with repeated rejections.
type CompanyBlocklistEntry struct {
	ID          uuid.UUID `json:"id"`
	CompanyName string    `json:"companyName"`
	Domain      string    `json:"domain,omitempty"`

	Reason         string `json:"reason,omitempty"`
	RejectionCount int    `json:"rejectionCount"`
	Blocked        bool   `json:"blocked"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
