// internal/matching/scorer_test.go
package matching

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

func TestSimilarity(t *testing.T) {
	s := NewScorer()

	tests := []struct {
		name     string
		needle   string
		haystack string
		check    func(t *testing.T, got float64)
	}{
		{
			name:     "identical strings score 1.0",
			needle:   "TechCorp",
			haystack: "TechCorp",
			check:    func(t *testing.T, got float64) { assert.Equal(t, 1.0, got) },
		},
		{
			name:     "case insensitive",
			needle:   "techcorp",
			haystack: "TECHCORP",
			check:    func(t *testing.T, got float64) { assert.Equal(t, 1.0, got) },
		},
		{
			name:     "name contained in long text scores 1.0",
			needle:   "TechCorp",
			haystack: "Thank you for applying. The TechCorp hiring team would like to schedule a call.",
			check:    func(t *testing.T, got float64) { assert.Equal(t, 1.0, got) },
		},
		{
			name:     "unrelated names score low",
			needle:   "Apple",
			haystack: "Google",
			check:    func(t *testing.T, got float64) { assert.Less(t, got, 0.5) },
		},
		{
			name:     "empty needle scores zero",
			needle:   "",
			haystack: "TechCorp",
			check:    func(t *testing.T, got float64) { assert.Equal(t, 0.0, got) },
		},
		{
			name:     "empty haystack scores zero",
			needle:   "TechCorp",
			haystack: "",
			check:    func(t *testing.T, got float64) { assert.Equal(t, 0.0, got) },
		},
		{
			name:     "near match scores high",
			needle:   "TechCorp",
			haystack: "Techcorp Inc careers",
			check:    func(t *testing.T, got float64) { assert.Greater(t, got, 0.8) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, s.Similarity(tt.needle, tt.haystack))
		})
	}
}

func TestTimelineScore(t *testing.T) {
	s := NewScorer()
	received := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		daysAgo  int
		expected float64
	}{
		{"same day", 0, 1.0},
		{"half the window", 45, 0.5},
		{"window boundary", 90, 0.0},
		{"beyond the window", 120, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applied := received.AddDate(0, 0, -tt.daysAgo)
			got := s.TimelineScore(applied, received)
			assert.InDelta(t, tt.expected, got, 0.001)
		})
	}

	t.Run("application after email still scores", func(t *testing.T) {
		applied := received.AddDate(0, 0, 9)
		got := s.TimelineScore(applied, received)
		assert.InDelta(t, 0.9, got, 0.001)
	})
}

func TestExtractDomain(t *testing.T) {
	assert.Equal(t, "techcorp.com", ExtractDomain("recruiting@TechCorp.com"))
	assert.Equal(t, "mail.techcorp.io", ExtractDomain("hr@mail.techcorp.io"))
	assert.Equal(t, "", ExtractDomain("not-an-address"))
	assert.Equal(t, "", ExtractDomain("trailing@"))
	assert.Equal(t, "", ExtractDomain(""))
}

func TestScore(t *testing.T) {
	s := NewScorer()
	received := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	email := &models.Email{
		Subject:     "Interview invitation from TechCorp",
		SenderEmail: "recruiting@techcorp.com",
		BodyText:    "We reviewed your application for the Backend Engineer role and would like to talk.",
		ReceivedAt:  received,
	}

	t.Run("strong match scores near the top", func(t *testing.T) {
		job := models.JobApplication{
			ID:            uuid.New(),
			CompanyName:   "TechCorp",
			CompanyDomain: "techcorp.com",
			PositionTitle: "Backend Engineer",
			AppliedAt:     received.AddDate(0, 0, -7),
		}
		c := s.Score(email, &job)

		assert.Greater(t, c.Score, 0.85)
		assert.Equal(t, 1.0, c.SignalScores[models.SignalDomain])
		assert.Equal(t, 1.0, c.SignalScores[models.SignalCompanyName])
	})

	t.Run("missing domain omits the signal", func(t *testing.T) {
		job := models.JobApplication{
			ID:          uuid.New(),
			CompanyName: "TechCorp",
			AppliedAt:   received.AddDate(0, 0, -7),
		}
		c := s.Score(email, &job)

		_, present := c.SignalScores[models.SignalDomain]
		assert.False(t, present)
	})

	t.Run("zero applied date omits timeline", func(t *testing.T) {
		job := models.JobApplication{
			ID:          uuid.New(),
			CompanyName: "TechCorp",
		}
		c := s.Score(email, &job)

		_, present := c.SignalScores[models.SignalTimeline]
		assert.False(t, present)
	})
}

func TestFindCandidates(t *testing.T) {
	s := NewScorer()
	received := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	email := &models.Email{
		Subject:     "Your TechCorp application",
		SenderEmail: "recruiting@techcorp.com",
		BodyText:    "Update on the Backend Engineer position.",
		ReceivedAt:  received,
	}

	strong := models.JobApplication{
		ID:            uuid.New(),
		CompanyName:   "TechCorp",
		CompanyDomain: "techcorp.com",
		PositionTitle: "Backend Engineer",
		AppliedAt:     received.AddDate(0, 0, -5),
	}
	unrelated := models.JobApplication{
		ID:            uuid.New(),
		CompanyName:   "Zylkor Dynamics",
		CompanyDomain: "zylkor.example",
		PositionTitle: "Quant Researcher",
		AppliedAt:     received.AddDate(0, 0, -80),
	}

	t.Run("orders by descending score and drops noise", func(t *testing.T) {
		got := s.FindCandidates(email, []models.JobApplication{unrelated, strong})
		require.NotEmpty(t, got)
		assert.Equal(t, strong.ID, got[0].JobID)
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
		}
	})

	t.Run("empty job list yields no candidates", func(t *testing.T) {
		got := s.FindCandidates(email, nil)
		assert.Empty(t, got)
	})

	t.Run("tie breaks toward the more recent application", func(t *testing.T) {
		// Both beyond the timeline window, so the timeline signal is zero
		// for each and the scores tie exactly.
		older := strong
		older.ID = uuid.New()
		older.AppliedAt = received.AddDate(0, 0, -200)
		newer := strong
		newer.ID = uuid.New()
		newer.AppliedAt = received.AddDate(0, 0, -100)

		got := s.FindCandidates(email, []models.JobApplication{older, newer})
		require.Len(t, got, 2)
		assert.Equal(t, got[0].Score, got[1].Score)
		assert.Equal(t, newer.ID, got[0].JobID)
	})
}
