package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arslanaka/GDPR-Explainer/internal/config"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (e *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.vector, e.err
}

func newTestSearchService(t *testing.T, qdrantURL string, embedder Embedder) *SearchService {
	t.Helper()
	return NewSearchService(config.QdrantConfig{
		URL:            qdrantURL,
		Collection:     "gdpr_articles",
		RequestTimeout: 2 * time.Second,
	}, embedder, testLogger(t))
}

func TestSearchParsesQdrantHits(t *testing.T) {
	longText := strings.Repeat("a", 300)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/gdpr_articles/points/query" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"status": "ok",
			"result": {
				"points": [
					{"score": 0.92, "payload": {"id": "ART-32", "article_number": 32, "title": "Security of processing", "text": "%s"}},
					{"score": 0.81, "payload": {"id": "ART-25", "article_number": 25, "title": "Data protection by design", "text": "short"}}
				]
			}
		}`, longText)
	}))
	defer server.Close()

	service := newTestSearchService(t, server.URL, &fakeEmbedder{vector: []float32{0.1, 0.2}})
	hits := service.Search(context.Background(), "encryption", 5)

	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID != "ART-32" || hits[0].ArticleNumber != 32 || hits[0].Score != 0.92 {
		t.Errorf("unexpected first hit: %+v", hits[0])
	}
	if len(hits[0].TextSnippet) != snippetLength+3 || !strings.HasSuffix(hits[0].TextSnippet, "...") {
		t.Errorf("long text must be truncated to %d chars plus ellipsis, got %d", snippetLength, len(hits[0].TextSnippet))
	}
	if hits[1].TextSnippet != "short" {
		t.Errorf("short text must not be truncated: %q", hits[1].TextSnippet)
	}
}

func TestSearchReturnsEmptyOnEmbeddingFailure(t *testing.T) {
	service := newTestSearchService(t, "http://localhost:1", &fakeEmbedder{err: errors.New("no key")})

	hits := service.Search(context.Background(), "query", 5)
	if len(hits) != 0 {
		t.Errorf("embedding failure must yield empty results, got %d", len(hits))
	}
}

func TestSearchReturnsEmptyOnBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	service := newTestSearchService(t, server.URL, &fakeEmbedder{vector: []float32{0.1}})

	hits := service.Search(context.Background(), "query", 5)
	if len(hits) != 0 {
		t.Errorf("backend failure must yield empty results, got %d", len(hits))
	}
}

func TestSearchBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	service := newTestSearchService(t, server.URL, &fakeEmbedder{vector: []float32{0.1}})

	for i := 0; i < 10; i++ {
		service.Search(context.Background(), "query", 5)
	}

	// The breaker trips after 5 consecutive failures and stops hitting the
	// backend; every call still returns cleanly.
	if requests > 5 {
		t.Errorf("open breaker must short-circuit backend calls, saw %d requests", requests)
	}
}
