package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/arslanaka/GDPR-Explainer/internal/config"
	"github.com/arslanaka/GDPR-Explainer/internal/models"
	"github.com/arslanaka/GDPR-Explainer/internal/pkg/logger"
)

const snippetLength = 200

// Embedder turns query text into the vector the corpus was indexed with.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SearchService performs semantic search over the indexed GDPR articles in
// Qdrant. It never returns an error: embedding failures, transport failures
// and an open circuit breaker all degrade to an empty result list.
type SearchService struct {
	baseURL    string
	collection string
	embedder   Embedder
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logger.Logger
}

func NewSearchService(cfg config.QdrantConfig, embedder Embedder, log *logger.Logger) *SearchService {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "qdrant",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})

	log.Info("Search Service Initialized Successfully",
		"qdrant_url", cfg.URL,
		"collection", cfg.Collection)

	return &SearchService{
		baseURL:    cfg.URL,
		collection: cfg.Collection,
		embedder:   embedder,
		client:     &http.Client{Timeout: cfg.RequestTimeout},
		breaker:    breaker,
		logger:     log,
	}
}

type qdrantQueryRequest struct {
	Query       []float32 `json:"query"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type qdrantPoint struct {
	Score   float64                `json:"score"`
	Payload map[string]interface{} `json:"payload"`
}

type qdrantQueryResponse struct {
	Result struct {
		Points []qdrantPoint `json:"points"`
	} `json:"result"`
	Status string `json:"status"`
}

// Search returns up to limit hits ranked by descending relevance.
func (service *SearchService) Search(ctx context.Context, query string, limit int) []models.SearchHit {
	startTime := time.Now()

	vector, err := service.embedder.EmbedQuery(ctx, query)
	if err != nil {
		service.logger.LogService("search", "embed_query", time.Since(startTime), map[string]interface{}{
			"query_length": len(query),
		}, err)
		return []models.SearchHit{}
	}

	result, err := service.breaker.Execute(func() (interface{}, error) {
		return service.queryPoints(ctx, vector, limit)
	})
	if err != nil {
		service.logger.LogService("search", "query_points", time.Since(startTime), map[string]interface{}{
			"query_length":  len(query),
			"limit":         limit,
			"breaker_state": service.breaker.State().String(),
		}, err)
		return []models.SearchHit{}
	}

	hits := result.([]models.SearchHit)
	service.logger.LogService("search", "search", time.Since(startTime), map[string]interface{}{
		"query_length": len(query),
		"limit":        limit,
		"hits":         len(hits),
	}, nil)

	return hits
}

func (service *SearchService) queryPoints(ctx context.Context, vector []float32, limit int) ([]models.SearchHit, error) {
	body, err := json.Marshal(qdrantQueryRequest{
		Query:       vector,
		Limit:       limit,
		WithPayload: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling query request: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/query", service.baseURL, service.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := service.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Qdrant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Qdrant returned status %d", resp.StatusCode)
	}

	var queryResp qdrantQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	hits := make([]models.SearchHit, 0, len(queryResp.Result.Points))
	for _, point := range queryResp.Result.Points {
		hits = append(hits, models.SearchHit{
			ID:            payloadString(point.Payload, "id"),
			ArticleNumber: payloadInt(point.Payload, "article_number"),
			Title:         payloadString(point.Payload, "title"),
			TextSnippet:   truncateSnippet(payloadString(point.Payload, "text")),
			Score:         point.Score,
		})
	}

	return hits, nil
}

func (service *SearchService) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/collections/%s", service.baseURL, service.collection), nil)
	if err != nil {
		return err
	}

	resp, err := service.client.Do(req)
	if err != nil {
		return fmt.Errorf("search backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("search backend returned status %d", resp.StatusCode)
	}
	return nil
}

func truncateSnippet(text string) string {
	if text == "" {
		return ""
	}
	if len(text) <= snippetLength {
		return text
	}
	return text[:snippetLength] + "..."
}

func payloadString(payload map[string]interface{}, key string) string {
	value, _ := payload[key].(string)
	return value
}

func payloadInt(payload map[string]interface{}, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
