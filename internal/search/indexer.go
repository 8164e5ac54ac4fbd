// internal/search/indexer.go
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "github.com/JanKonradK/Saturnus-Magister/internal/common/errors"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/logger"
	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

// Indexer mirrors processed emails into Elasticsearch for search. Indexing
// is best effort; the pipeline never fails a message over a search outage.
type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	return &Indexer{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "search"}),
	}
}

// indexedEmail is the search document shape.
type indexedEmail struct {
	EmailID     string    `json:"email_id"`
	ProviderID  string    `json:"provider_id"`
	Subject     string    `json:"subject"`
	SenderEmail string    `json:"sender_email"`
	Body        string    `json:"body"`
	Category    string    `json:"category"`
	Sentiment   string    `json:"sentiment"`
	Company     string    `json:"company,omitempty"`
	Position    string    `json:"position,omitempty"`
	Matched     bool      `json:"matched"`
	ReceivedAt  time.Time `json:"received_at"`
	IndexedAt   time.Time `json:"indexed_at"`
}

// IndexEmail writes the search document for a processed email. A nil match
// indexes the email as unmatched.
func (ix *Indexer) IndexEmail(ctx context.Context, email *models.Email, classification models.Classification, match *models.MatchCandidate) error {
	doc := indexedEmail{
		EmailID:     email.ID.String(),
		ProviderID:  email.ProviderID,
		Subject:     email.Subject,
		SenderEmail: email.SenderEmail,
		Body:        email.Body(),
		Category:    string(classification.Category),
		Sentiment:   string(classification.Sentiment),
		ReceivedAt:  email.ReceivedAt,
		IndexedAt:   time.Now().UTC(),
	}
	if match != nil {
		doc.Company = match.CompanyName
		doc.Position = match.PositionTitle
		doc.Matched = true
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return apperrors.NewSearchIndexFailedError(err)
	}

	req := esapi.IndexRequest{
		Index:      ix.index,
		DocumentID: email.ID.String(),
		Body:       strings.NewReader(string(body)),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return apperrors.NewSearchIndexFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewSearchIndexFailedError(fmt.Errorf("index response: %s", res.Status()))
	}
	return nil
}

// SearchResult is one hit from Search.
type SearchResult struct {
	EmailID  string  `json:"email_id"`
	Subject  string  `json:"subject"`
	Category string  `json:"category"`
	Company  string  `json:"company,omitempty"`
	Score    float64 `json:"score"`
}

// Search runs a full-text query over indexed emails, optionally filtered by
// category.
func (ix *Indexer) Search(ctx context.Context, query string, category models.EmailCategory, size int) ([]SearchResult, error) {
	must := []interface{}{
		map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"subject^3", "company^2", "position^2", "body"},
				"type":   "best_fields",
			},
		},
	}
	var filter []interface{}
	if category != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"category": string(category)},
		})
	}

	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
	}

	body, _ := json.Marshal(queryBody)
	req := esapi.SearchRequest{
		Index: []string{ix.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return nil, apperrors.NewSearchIndexFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewSearchIndexFailedError(fmt.Errorf("search response: %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Score  float64         `json:"_score"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchIndexFailedError(err)
	}

	results := make([]SearchResult, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		var r SearchResult
		if err := json.Unmarshal(hit.Source, &r); err != nil {
			continue
		}
		r.Score = hit.Score
		results = append(results, r)
	}
	return results, nil
}
