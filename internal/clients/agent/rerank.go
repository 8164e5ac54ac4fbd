// internal/clients/agent/rerank.go
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JanKonradK/Saturnus-Magister/internal/matching"
	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

const rerankBodyLimit = 1500

type rerankPayload struct {
	BestJobID     string  `json:"best_job_id"`
	Confidence    float64 `json:"confidence"`
	Justification string  `json:"justification"`
}

// Rerank asks the agent to pick the best application among ambiguous
// candidates. Implements matching.Reranker; errors surface to the
// disambiguator, which falls back to the local ranking.
func (c *Client) Rerank(ctx context.Context, email *models.Email, candidates []models.MatchCandidate) (*matching.RerankResult, error) {
	raw, err := c.complete(ctx, rerankSystemPrompt, rerankUserPrompt(email, candidates))
	if err != nil {
		return nil, err
	}

	doc, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var payload rerankPayload
	if err := json.Unmarshal([]byte(doc), &payload); err != nil {
		return nil, fmt.Errorf("parse rerank response: %v", err)
	}

	jobID, err := uuid.Parse(payload.BestJobID)
	if err != nil {
		return nil, fmt.Errorf("rerank returned invalid job id %q", payload.BestJobID)
	}
	if payload.Confidence < 0 || payload.Confidence > 1 {
		return nil, fmt.Errorf("rerank confidence %v out of range", payload.Confidence)
	}

	return &matching.RerankResult{
		BestJobID:     jobID,
		Confidence:    payload.Confidence,
		Justification: payload.Justification,
	}, nil
}

const rerankSystemPrompt = `You match a job-search email to the most likely application it concerns.
You receive the email and a numbered list of candidate applications. Pick exactly one.
Respond with a single JSON object: {"best_job_id": "<uuid>", "confidence": 0.0-1.0, "justification": "..."}`

func rerankUserPrompt(email *models.Email, candidates []models.MatchCandidate) string {
	body := email.Body()
	if len(body) > rerankBodyLimit {
		body = body[:rerankBodyLimit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Email subject: %s\n", email.Subject)
	fmt.Fprintf(&b, "Email sender: %s\n\n", email.SenderEmail)
	b.WriteString(body)
	b.WriteString("\n\nCandidate applications:\n")
	for i, cand := range candidates {
		fmt.Fprintf(&b, "%d. job_id=%s company=%q position=%q applied=%s local_score=%.2f\n",
			i+1, cand.JobID, cand.CompanyName, cand.PositionTitle,
			cand.AppliedAt.Format("2006-01-02"), cand.Score)
	}
	return b.String()
}
