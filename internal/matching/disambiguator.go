// internal/matching/disambiguator.go
package matching

import (
	"context"

	"github.com/google/uuid"

	"github.com/JanKonradK/Saturnus-Magister/internal/common/logger"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/metrics"
	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

// maxRerankCandidates bounds how many candidates are sent to the ranking
// service.
const maxRerankCandidates = 5

// RerankResult is the ranking service's answer for an ambiguous candidate set.
type RerankResult struct {
	BestJobID     uuid.UUID `json:"bestJobId"`
	Confidence    float64   `json:"confidence"`
	Justification string    `json:"justification,omitempty"`
}

// Reranker is the external ranking collaborator.
type Reranker interface {
	Rerank(ctx context.Context, email *models.Email, candidates []models.MatchCandidate) (*RerankResult, error)
}

// Outcome makes every disambiguation branch visible at the call site: either
// the service picked a candidate, or we fell back to the top local one for
// the stated reason. Disambiguation never fails harder than a fallback.
type Outcome struct {
	Candidate      models.MatchCandidate
	Disambiguated  bool
	FallbackReason string
}

// Fallback reasons.
const (
	FallbackServiceError     = "service_error"
	FallbackUnknownCandidate = "unknown_candidate"
	FallbackTooFewCandidates = "too_few_candidates"
)

// Disambiguator resolves ambiguous candidate sets through the ranking
// service, reconciling its answer against the locally scored candidates.
type Disambiguator struct {
	reranker Reranker
	logger   logger.Logger
}

func NewDisambiguator(reranker Reranker, log logger.Logger) *Disambiguator {
	return &Disambiguator{
		reranker: reranker,
		logger:   log.WithFields(map[string]interface{}{"component": "disambiguator"}),
	}
}

// Disambiguate asks the ranking service to pick among the top candidates.
// candidates must be non-empty and sorted by descending score.
func (d *Disambiguator) Disambiguate(ctx context.Context, email *models.Email, candidates []models.MatchCandidate) Outcome {
	if len(candidates) < 2 {
		metrics.DisambiguationCalls.WithLabelValues(FallbackTooFewCandidates).Inc()
		return Outcome{Candidate: candidates[0], FallbackReason: FallbackTooFewCandidates}
	}

	top := candidates
	if len(top) > maxRerankCandidates {
		top = top[:maxRerankCandidates]
	}

	result, err := d.reranker.Rerank(ctx, email, top)
	if err != nil {
		d.logger.Warn("rerank call failed, using top local candidate", map[string]interface{}{
			"emailId": email.ID,
			"error":   err,
		})
		metrics.DisambiguationCalls.WithLabelValues(FallbackServiceError).Inc()
		return Outcome{Candidate: candidates[0], FallbackReason: FallbackServiceError}
	}

	for _, c := range top {
		if c.JobID == result.BestJobID {
			if result.Confidence > c.Score {
				c.Score = result.Confidence
			}
			annotated := make(map[string]interface{}, len(c.SignalScores)+1)
			for k, v := range c.SignalScores {
				annotated[k] = v
			}
			annotated[models.SignalAIReasoning] = result.Justification
			c.SignalScores = annotated
			metrics.DisambiguationCalls.WithLabelValues("disambiguated").Inc()
			return Outcome{Candidate: c, Disambiguated: true}
		}
	}

	d.logger.Warn("rerank returned unknown candidate, using top local candidate", map[string]interface{}{
		"emailId":   email.ID,
		"bestJobId": result.BestJobID,
	})
	metrics.DisambiguationCalls.WithLabelValues(FallbackUnknownCandidate).Inc()
	return Outcome{Candidate: candidates[0], FallbackReason: FallbackUnknownCandidate}
}
