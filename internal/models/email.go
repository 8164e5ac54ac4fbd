// internal/models/email.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailCategory is the closed set of classifications a message can receive.
type EmailCategory string

const (
	// Inbound
	CategoryInterviewInvite EmailCategory = "interview_invite"
	CategoryAssignment      EmailCategory = "assignment"
	CategoryRejection       EmailCategory = "rejection"
	CategoryOffer           EmailCategory = "offer"
	CategoryInfo            EmailCategory = "info"
	CategoryFollowUpNeeded  EmailCategory = "follow_up_needed"
	CategoryUnknown         EmailCategory = "unknown"

	// Outbound
	CategorySentApplication  EmailCategory = "sent_application"
	CategorySentAvailability EmailCategory = "sent_availability"
	CategorySentFollowUp     EmailCategory = "sent_follow_up"
	CategorySentDocuments    EmailCategory = "sent_documents"
)

// IsActionable reports whether the category warrants a work-list task.
func (c EmailCategory) IsActionable() bool {
	switch c {
	case CategoryInterviewInvite, CategoryAssignment, CategoryFollowUpNeeded:
		return true
	}
	return false
}

// IsResponse reports whether the category counts for response analytics.
func (c EmailCategory) IsResponse() bool {
	switch c {
	case CategoryRejection, CategoryInterviewInvite, CategoryOffer:
		return true
	}
	return false
}

// IsOutbound reports whether the category describes a sent message.
func (c EmailCategory) IsOutbound() bool {
	switch c {
	case CategorySentApplication, CategorySentAvailability, CategorySentFollowUp, CategorySentDocuments:
		return true
	}
	return false
}

// Sentiment of the classified message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Email is the stored message record. Immutable once classified.
type Email struct {
	ID             uuid.UUID `json:"id"`
	ProviderID     string    `json:"providerId"`
	ThreadID       string    `json:"threadId"`
	Subject        string    `json:"subject,omitempty"`
	SenderEmail    string    `json:"senderEmail,omitempty"`
	SenderName     string    `json:"senderName,omitempty"`
	RecipientEmail string    `json:"recipientEmail,omitempty"`
	ReceivedAt     time.Time `json:"receivedAt"`
	BodyText       string    `json:"bodyText,omitempty"`
	BodyHTML       string    `json:"bodyHtml,omitempty"`
	Outbound       bool      `json:"outbound"`

	// Classification snapshot, filled once by the pipeline
	Category   EmailCategory `json:"category,omitempty"`
	Sentiment  Sentiment     `json:"sentiment,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`

	Processed   bool       `json:"processed"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
	Error       string     `json:"error,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Body returns the best available body text.
func (e *Email) Body() string {
	if e.BodyText != "" {
		return e.BodyText
	}
	return e.BodyHTML
}

// MatchWindow returns subject plus body, which scoring compares against
// application fields. Callers truncate to their own window size.
func (e *Email) MatchWindow() string {
	return e.Subject + " " + e.Body()
}
