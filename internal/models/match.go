// internal/models/match.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchMethod records how an email-to-application link was determined.
type MatchMethod string

const (
	MatchMethodAuto             MatchMethod = "auto"
	MatchMethodAIDisambiguation MatchMethod = "ai_disambiguation"
	MatchMethodManual           MatchMethod = "manual"
	MatchMethodNone             MatchMethod = "unmatched"
)

// Signal score names used in MatchCandidate.SignalScores.
const (
	SignalCompanyName = "company_name_fuzzy"
	SignalDomain      = "domain_match"
	SignalPosition    = "position_title_fuzzy"
	SignalTimeline    = "timeline_proximity"
	SignalAIReasoning = "ai_reasoning"
)

// MatchCandidate is a scored potential link between an email and an
// application record. Ephemeral: recomputed per match attempt.
type MatchCandidate struct {
	JobID         uuid.UUID              `json:"jobId"`
	CompanyName   string                 `json:"companyName"`
	PositionTitle string                 `json:"positionTitle"`
	Score         float64                `json:"score"`
	SignalScores  map[string]interface{} `json:"signalScores"`
	AppliedAt     time.Time              `json:"appliedAt"`
	EffortLevel   EffortLevel            `json:"effortLevel,omitempty"`
}

// MatchDecision is the persisted outcome of one match attempt. A message has
// at most one active decision; manual resolutions supersede earlier ones.
type MatchDecision struct {
	ID      uuid.UUID  `json:"id"`
	EmailID uuid.UUID  `json:"emailId"`
	JobID   *uuid.UUID `json:"jobId,omitempty"` // nil when unmatched

	Score        float64                `json:"score"`
	Method       MatchMethod            `json:"method"`
	SignalScores map[string]interface{} `json:"signalScores,omitempty"`

	NeedsReview   bool       `json:"needsReview"`
	Reviewed      bool       `json:"reviewed"`
	ReviewedAt    *time.Time `json:"reviewedAt,omitempty"`
	ReviewerNotes string     `json:"reviewerNotes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
