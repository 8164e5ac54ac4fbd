// internal/clients/agent/classify.go
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

// classificationBodyLimit caps how much body text goes into the prompt.
const classificationBodyLimit = 2000

var inboundCategories = []string{
	string(models.CategoryInterviewInvite),
	string(models.CategoryAssignment),
	string(models.CategoryRejection),
	string(models.CategoryOffer),
	string(models.CategoryInfo),
	string(models.CategoryFollowUpNeeded),
	string(models.CategoryUnknown),
}

var outboundCategories = []string{
	string(models.CategorySentApplication),
	string(models.CategorySentAvailability),
	string(models.CategorySentFollowUp),
	string(models.CategorySentDocuments),
	string(models.CategoryUnknown),
}

var classificationSchema = map[string]interface{}{
	"type":     "object",
	"required": []string{"category", "sentiment", "confidence"},
	"properties": map[string]interface{}{
		"category":  map[string]interface{}{"type": "string"},
		"sentiment": map[string]interface{}{
			"type": "string",
			"enum": []string{"positive", "negative", "neutral"},
		},
		"confidence": map[string]interface{}{
			"type":    "number",
			"minimum": 0,
			"maximum": 1,
		},
		"reasoning":      map[string]interface{}{"type": "string"},
		"extracted_data": map[string]interface{}{"type": "object"},
	},
}

type classificationPayload struct {
	Category      string                 `json:"category"`
	Sentiment     string                 `json:"sentiment"`
	Confidence    float64                `json:"confidence"`
	Reasoning     string                 `json:"reasoning"`
	ExtractedData map[string]interface{} `json:"extracted_data"`
}

// Classify asks the agent to categorize one email. Any failure degrades to
// the unknown classification; the caller never sees an error from here.
func (c *Client) Classify(ctx context.Context, email *models.Email) models.Classification {
	raw, err := c.complete(ctx, classifySystemPrompt(email.Outbound), classifyUserPrompt(email))
	if err != nil {
		c.logger.Warn("classification request failed", map[string]interface{}{
			"providerId": email.ProviderID,
			"error":      err.Error(),
		})
		return models.UnknownClassification("classifier unavailable: " + err.Error())
	}

	payload, err := parseClassification(raw, email.Outbound)
	if err != nil {
		c.logger.Warn("classification response rejected", map[string]interface{}{
			"providerId": email.ProviderID,
			"error":      err.Error(),
		})
		return models.UnknownClassification("malformed classifier response")
	}

	return models.Classification{
		Category:      models.EmailCategory(payload.Category),
		Sentiment:     models.Sentiment(payload.Sentiment),
		Confidence:    payload.Confidence,
		Reasoning:     payload.Reasoning,
		ExtractedData: payload.ExtractedData,
	}
}

func parseClassification(raw string, outbound bool) (*classificationPayload, error) {
	doc, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var generic map[string]interface{}
	if err := json.Unmarshal([]byte(doc), &generic); err != nil {
		return nil, fmt.Errorf("parse completion: %v", err)
	}

	schemaLoader := gojsonschema.NewGoLoader(classificationSchema)
	documentLoader := gojsonschema.NewGoLoader(generic)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validation error: %v", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("schema violation: %s", strings.Join(errs, "; "))
	}

	var payload classificationPayload
	if err := json.Unmarshal([]byte(doc), &payload); err != nil {
		return nil, fmt.Errorf("parse completion: %v", err)
	}

	if !validCategory(payload.Category, outbound) {
		return nil, fmt.Errorf("category %q outside the allowed set", payload.Category)
	}
	return &payload, nil
}

func validCategory(category string, outbound bool) bool {
	allowed := inboundCategories
	if outbound {
		allowed = outboundCategories
	}
	for _, c := range allowed {
		if c == category {
			return true
		}
	}
	return false
}

func classifySystemPrompt(outbound bool) string {
	var b strings.Builder
	b.WriteString("You classify job-search emails into exactly one category and respond with JSON only.\n\n")
	if outbound {
		b.WriteString("The email was SENT by the job seeker. Categories:\n")
		b.WriteString("- sent_application: an application or cover letter\n")
		b.WriteString("- sent_availability: proposing or confirming interview times\n")
		b.WriteString("- sent_follow_up: chasing a pending application or interview\n")
		b.WriteString("- sent_documents: sending requested documents\n")
		b.WriteString("- unknown: none of the above\n")
	} else {
		b.WriteString("The email was RECEIVED by the job seeker. Categories:\n")
		b.WriteString("- interview_invite: invitation to interview or schedule one\n")
		b.WriteString("- assignment: take-home task or assessment with a deadline\n")
		b.WriteString("- rejection: application declined\n")
		b.WriteString("- offer: job offer or offer discussion\n")
		b.WriteString("- info: status update needing no action\n")
		b.WriteString("- follow_up_needed: a question that needs a reply\n")
		b.WriteString("- unknown: not related to a job application\n")
	}
	b.WriteString("\nRespond with a single JSON object:\n")
	b.WriteString(`{"category": "...", "sentiment": "positive|negative|neutral", "confidence": 0.0-1.0, "reasoning": "...", "extracted_data": {}}`)
	b.WriteString("\n\nIn extracted_data include when present: interview_date and deadline as RFC3339 timestamps, ")
	b.WriteString("proposed_times as an array of RFC3339 timestamps, interviewer_name, meeting_link.")
	return b.String()
}

func classifyUserPrompt(email *models.Email) string {
	body := email.Body()
	if len(body) > classificationBodyLimit {
		body = body[:classificationBodyLimit]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", email.Subject)
	fmt.Fprintf(&b, "From: %s <%s>\n", email.SenderName, email.SenderEmail)
	fmt.Fprintf(&b, "Date: %s\n\n", email.ReceivedAt.Format("2006-01-02 15:04"))
	b.WriteString(body)
	return b.String()
}
