// internal/matching/engine.go
package matching

import (
	"context"

	"github.com/JanKonradK/Saturnus-Magister/internal/common/logger"
	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

// Thresholds drive the match decision policy.
type Thresholds struct {
	AutoMatch     float64 // score at or above: link without review
	Review        float64 // score at or above: link but flag for review
	AmbiguityBand float64 // top-two gap below this: too close to call
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		AutoMatch:     0.85,
		Review:        0.50,
		AmbiguityBand: 0.15,
	}
}

// Decision is the single outcome of a match attempt. Candidate is nil only
// when no candidate survived scoring; weak candidates are kept for review
// context rather than discarded.
type Decision struct {
	Candidate   *models.MatchCandidate
	Method      models.MatchMethod
	NeedsReview bool
	Reason      string
}

// Engine applies threshold policy over scored candidates. Runs without any
// network collaborator: the disambiguator is optional, and its absence just
// means ambiguous sets resolve to the top local candidate.
type Engine struct {
	scorer        *Scorer
	disambiguator *Disambiguator
	thresholds    Thresholds
	logger        logger.Logger
}

func NewEngine(scorer *Scorer, disambiguator *Disambiguator, thresholds Thresholds, log logger.Logger) *Engine {
	return &Engine{
		scorer:        scorer,
		disambiguator: disambiguator,
		thresholds:    thresholds,
		logger:        log.WithFields(map[string]interface{}{"component": "match-engine"}),
	}
}

// Decide scores the applications against the email and produces exactly one
// decision. Total: every candidate set, including empty, lands in one branch.
func (e *Engine) Decide(ctx context.Context, email *models.Email, jobs []models.JobApplication) Decision {
	candidates := e.scorer.FindCandidates(email, jobs)
	return e.DecideFromCandidates(ctx, email, candidates)
}

// DecideFromCandidates applies the threshold policy to pre-scored candidates,
// sorted by descending score. Exposed for the manual-review tooling, which
// scores once and decides repeatedly.
func (e *Engine) DecideFromCandidates(ctx context.Context, email *models.Email, candidates []models.MatchCandidate) Decision {
	if len(candidates) == 0 {
		return Decision{
			Method:      models.MatchMethodNone,
			NeedsReview: true,
			Reason:      models.ReviewReasonNoMatch,
		}
	}

	top := candidates[0]

	if top.Score >= e.thresholds.AutoMatch {
		return Decision{Candidate: &top, Method: models.MatchMethodAuto}
	}

	if len(candidates) > 1 && top.Score-candidates[1].Score < e.thresholds.AmbiguityBand {
		return e.resolveAmbiguous(ctx, email, candidates)
	}

	// Below the auto threshold the candidate is always kept: even a weak
	// link gives the reviewer context.
	return Decision{
		Candidate:   &top,
		Method:      models.MatchMethodAuto,
		NeedsReview: true,
		Reason:      models.ReviewReasonLowConfidence,
	}
}

func (e *Engine) resolveAmbiguous(ctx context.Context, email *models.Email, candidates []models.MatchCandidate) Decision {
	if e.disambiguator == nil {
		return Decision{
			Candidate:   &candidates[0],
			Method:      models.MatchMethodAuto,
			NeedsReview: true,
			Reason:      models.ReviewReasonLowConfidence,
		}
	}

	outcome := e.disambiguator.Disambiguate(ctx, email, candidates)
	best := outcome.Candidate

	if outcome.Disambiguated {
		e.logger.Debug("ambiguous match disambiguated", map[string]interface{}{
			"emailId": email.ID,
			"jobId":   best.JobID,
			"score":   best.Score,
		})
		return Decision{
			Candidate:   &best,
			Method:      models.MatchMethodAIDisambiguation,
			NeedsReview: best.Score < e.thresholds.AutoMatch,
			Reason:      reviewReasonIf(best.Score < e.thresholds.AutoMatch),
		}
	}

	return Decision{
		Candidate:   &best,
		Method:      models.MatchMethodAuto,
		NeedsReview: true,
		Reason:      models.ReviewReasonLowConfidence,
	}
}

func reviewReasonIf(needsReview bool) string {
	if needsReview {
		return models.ReviewReasonLowConfidence
	}
	return ""
}
