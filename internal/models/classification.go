// internal/models/classification.go
package models

// Extracted data keys produced by the classifier.
const (
	ExtractedInterviewDate = "interview_date"
	ExtractedDeadline      = "deadline"
	ExtractedProposedTimes = "proposed_times"
	ExtractedContactName   = "interviewer_name"
	ExtractedMeetingLink   = "meeting_link"
)

// Classification is the classifier's verdict for one email. Produced once,
// never mutated by the pipeline.
type Classification struct {
	Category      EmailCategory          `json:"category"`
	Sentiment     Sentiment              `json:"sentiment"`
	Confidence    float64                `json:"confidence"`
	Reasoning     string                 `json:"reasoning,omitempty"`
	ExtractedData map[string]interface{} `json:"extractedData,omitempty"`
}

// UnknownClassification is the conservative fallback when the classifier
// collaborator fails. Confidence zero routes the message to review.
func UnknownClassification(reason string) Classification {
	return Classification{
		Category:   CategoryUnknown,
		Sentiment:  SentimentNeutral,
		Confidence: 0,
		Reasoning:  reason,
	}
}

// ExtractedString returns the named extracted field if present and non-empty.
func (c Classification) ExtractedString(key string) (string, bool) {
	if c.ExtractedData == nil {
		return "", false
	}
	v, ok := c.ExtractedData[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// ExtractedStrings returns the named extracted field as a string slice.
func (c Classification) ExtractedStrings(key string) []string {
	if c.ExtractedData == nil {
		return nil
	}
	switch v := c.ExtractedData[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
