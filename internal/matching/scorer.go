// internal/matching/scorer.go
package matching

import (
	"sort"
	"strings"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

// Matching weights
const (
	CompanyNameWeight = 0.4
	DomainWeight      = 0.2
	PositionWeight    = 0.3
	TimelineWeight    = 0.1
)

// TimelineWindowDays bounds how far back an application still scores on
// timeline proximity. The decay is linear from 1.0 down to 0.0 at the window.
const TimelineWindowDays = 90

// matchWindowChars limits how much of subject+body is compared against
// application fields.
const matchWindowChars = 500

// noiseFloor drops candidates where no signal meaningfully matched.
const noiseFloor = 0.1

// Scorer computes weighted similarity scores between an email and
// application records. Stateless and safe for concurrent use.
type Scorer struct {
	lev *metrics.Levenshtein
}

func NewScorer() *Scorer {
	return &Scorer{lev: metrics.NewLevenshtein()}
}

// Similarity returns a [0,1] edit-distance ratio between needle and haystack,
// aligned at the best-matching window of the haystack. Comparing a short
// company name against a long body therefore scores the closest region, not
// the whole text. Symmetric-length inputs degenerate to a plain ratio.
func (s *Scorer) Similarity(needle, haystack string) float64 {
	a := []rune(strings.ToLower(strings.TrimSpace(needle)))
	b := []rune(strings.ToLower(strings.TrimSpace(haystack)))
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	if len(a) >= len(b) {
		return strutil.Similarity(string(a), string(b), s.lev)
	}

	best := 0.0
	for i := 0; i+len(a) <= len(b); i++ {
		sim := strutil.Similarity(string(a), string(b[i:i+len(a)]), s.lev)
		if sim > best {
			best = sim
		}
		if best == 1.0 {
			break
		}
	}
	return best
}

// TimelineScore decays linearly from 1.0 at the application date to 0.0 at
// TimelineWindowDays, and stays 0.0 beyond it.
func (s *Scorer) TimelineScore(appliedAt, receivedAt time.Time) float64 {
	days := receivedAt.Sub(appliedAt).Hours() / 24
	if days < 0 {
		days = -days
	}
	if days > TimelineWindowDays {
		return 0.0
	}
	return 1.0 - days/TimelineWindowDays
}

// ExtractDomain returns the lowercased domain of an email address, or empty.
func ExtractDomain(address string) string {
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return strings.ToLower(address[at+1:])
}

// Score computes the weighted aggregate for one email/application pair.
// Missing inputs contribute zero to their sub-score instead of erroring.
func (s *Scorer) Score(email *models.Email, job *models.JobApplication) models.MatchCandidate {
	window := email.MatchWindow()
	if runes := []rune(window); len(runes) > matchWindowChars {
		window = string(runes[:matchWindowChars])
	}
	senderDomain := ExtractDomain(email.SenderEmail)

	signals := map[string]interface{}{}
	total := 0.0

	if job.CompanyName != "" {
		companyScore := s.Similarity(job.CompanyName, window)
		signals[models.SignalCompanyName] = companyScore
		total += companyScore * CompanyNameWeight
	}

	if senderDomain != "" && job.CompanyDomain != "" {
		domainScore := 0.0
		companyDomain := strings.ToLower(job.CompanyDomain)
		if senderDomain == companyDomain || strings.Contains(senderDomain, companyDomain) {
			domainScore = 1.0
		}
		signals[models.SignalDomain] = domainScore
		total += domainScore * DomainWeight
	}

	if job.PositionTitle != "" {
		positionScore := s.Similarity(job.PositionTitle, window)
		signals[models.SignalPosition] = positionScore
		total += positionScore * PositionWeight
	}

	if !job.AppliedAt.IsZero() {
		timelineScore := s.TimelineScore(job.AppliedAt, email.ReceivedAt)
		signals[models.SignalTimeline] = timelineScore
		total += timelineScore * TimelineWeight
	}

	return models.MatchCandidate{
		JobID:         job.ID,
		CompanyName:   job.CompanyName,
		PositionTitle: job.PositionTitle,
		Score:         total,
		SignalScores:  signals,
		AppliedAt:     job.AppliedAt,
		EffortLevel:   job.EffortLevel,
	}
}

// FindCandidates scores every application against the email, drops anything
// at or below the noise floor, and orders by descending score. Ties go to the
// more recent application.
func (s *Scorer) FindCandidates(email *models.Email, jobs []models.JobApplication) []models.MatchCandidate {
	candidates := make([]models.MatchCandidate, 0, len(jobs))
	for i := range jobs {
		c := s.Score(email, &jobs[i])
		if c.Score > noiseFloor {
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].AppliedAt.After(candidates[j].AppliedAt)
	})

	return candidates
}
