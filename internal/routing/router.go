// internal/routing/router.go
package routing

import (
	"time"

	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

// Reply windows applied as due dates on the quadrant task.
const (
	InterviewReplyWindow = 24 * time.Hour
	FollowUpReplyWindow  = 48 * time.Hour
)

// Route maps (category, sentiment, effort) to a routing decision. Pure and
// deterministic: no clock, no collaborators, total over the category enum.
//
// Eisenhower matrix:
//   - Q1 (urgent + important): interview_invite, offer
//   - Q2 (not urgent + important): assignment, follow_up_needed, high-effort rejection
//   - Q3 (urgent + not important): info, unknown
//   - Q4 (neither): low-effort rejection
func Route(classification models.Classification, effort models.EffortLevel) models.RoutingDecision {
	d := models.RoutingDecision{
		Quadrant:        models.QuadrantQ3,
		Priority:        3,
		MaterializeTask: true,
	}

	switch classification.Category {
	case models.CategoryInterviewInvite, models.CategoryOffer:
		d.Quadrant = models.QuadrantQ1
		d.Priority = 5
		_, hasDate := classification.ExtractedString(models.ExtractedInterviewDate)
		d.CreateCalendarEvent = hasDate
		d.EnableCountdown = hasDate
		if hasDate {
			d.Reminders = []time.Duration{-24 * time.Hour, -1 * time.Hour, -15 * time.Minute}
		} else {
			d.Reminders = []time.Duration{-24 * time.Hour}
		}
		if classification.Category == models.CategoryInterviewInvite {
			d.DueIn = InterviewReplyWindow
		}
		d.Reasoning = "urgent and important, requires immediate attention"

	case models.CategoryAssignment:
		d.Quadrant = models.QuadrantQ2
		d.Priority = 4
		_, hasDeadline := classification.ExtractedString(models.ExtractedDeadline)
		d.CreateCalendarEvent = hasDeadline
		d.EnableCountdown = hasDeadline
		if hasDeadline {
			d.Reminders = []time.Duration{-24 * time.Hour, -3 * time.Hour}
		}
		d.Reasoning = "important but not urgent, schedule properly"

	case models.CategoryFollowUpNeeded:
		d.Quadrant = models.QuadrantQ2
		d.Priority = 3
		d.Reminders = []time.Duration{-24 * time.Hour}
		d.DueIn = FollowUpReplyWindow
		d.Reasoning = "requires response but not urgent"

	case models.CategoryRejection:
		if effort == models.EffortHigh {
			d.Quadrant = models.QuadrantQ2
			d.Priority = 2
			d.Reasoning = "high effort rejection, worth reflecting on"
		} else {
			// Recorded for analytics only; never becomes a quadrant task.
			d.Quadrant = models.QuadrantQ4
			d.Priority = 1
			d.MaterializeTask = false
			d.Reasoning = "low effort rejection, just recording"
		}

	case models.CategoryInfo:
		d.Quadrant = models.QuadrantQ3
		d.Priority = 2
		d.Reasoning = "informational, quick acknowledgment may be needed"

	default:
		// unknown and outbound categories land in the Q3 default above
		d.Reasoning = "uncategorized, default routing"
	}

	d.Tags = []string{string(classification.Category)}
	switch classification.Sentiment {
	case models.SentimentPositive:
		d.Tags = append(d.Tags, "positive")
		if d.Priority < 5 {
			d.Priority++
		}
	case models.SentimentNegative:
		d.Tags = append(d.Tags, "negative")
	default:
		d.Tags = append(d.Tags, "neutral")
	}

	return d
}
