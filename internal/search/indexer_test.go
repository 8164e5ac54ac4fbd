// internal/search/indexer_test.go
package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JanKonradK/Saturnus-Magister/internal/common/logger"
	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

func newTestIndexer(t *testing.T, handler http.HandlerFunc) *Indexer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return NewIndexer(client, "emails", logger.NewTestLogger(t))
}

func TestIndexEmail(t *testing.T) {
	email := &models.Email{
		ID:          uuid.New(),
		ProviderID:  "msg-1",
		Subject:     "Interview invitation",
		SenderEmail: "hr@techcorp.com",
		BodyText:    "We would like to invite you.",
		ReceivedAt:  time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}
	classification := models.Classification{
		Category:  models.CategoryInterviewInvite,
		Sentiment: models.SentimentPositive,
	}

	t.Run("indexes a matched email", func(t *testing.T) {
		var gotPath string
		var doc indexedEmail
		ix := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &doc))
			w.Header().Set("X-Elastic-Product", "Elasticsearch")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"result":"created"}`))
		})

		match := &models.MatchCandidate{CompanyName: "TechCorp", PositionTitle: "Backend Engineer"}
		require.NoError(t, ix.IndexEmail(context.Background(), email, classification, match))
		assert.Equal(t, "/emails/_doc/"+email.ID.String(), gotPath)
		assert.Equal(t, "TechCorp", doc.Company)
		assert.True(t, doc.Matched)
		assert.Equal(t, "interview_invite", doc.Category)
	})

	t.Run("unmatched email indexes without company", func(t *testing.T) {
		var doc indexedEmail
		ix := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &doc))
			w.Header().Set("X-Elastic-Product", "Elasticsearch")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"result":"created"}`))
		})

		require.NoError(t, ix.IndexEmail(context.Background(), email, classification, nil))
		assert.Empty(t, doc.Company)
		assert.False(t, doc.Matched)
	})

	t.Run("server error surfaces", func(t *testing.T) {
		ix := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Elastic-Product", "Elasticsearch")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"boom"}`))
		})

		assert.Error(t, ix.IndexEmail(context.Background(), email, classification, nil))
	})
}

func TestSearch(t *testing.T) {
	hits := `{
		"hits": {"hits": [
			{"_score": 2.4, "_source": {"email_id": "e1", "subject": "Interview invitation", "category": "interview_invite", "company": "TechCorp"}},
			{"_score": 1.1, "_source": {"email_id": "e2", "subject": "Thanks for applying", "category": "info"}}
		]}
	}`

	var gotQuery map[string]interface{}
	ix := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotQuery)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Write([]byte(hits))
	})

	results, err := ix.Search(context.Background(), "interview", models.CategoryInterviewInvite, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "e1", results[0].EmailID)
	assert.Equal(t, "TechCorp", results[0].Company)
	assert.InDelta(t, 2.4, results[0].Score, 1e-9)

	boolQuery := gotQuery["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.NotEmpty(t, boolQuery["filter"])
}
