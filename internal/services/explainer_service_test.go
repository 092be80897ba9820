package services

import (
	"context"
	"strings"
	"testing"

	"github.com/arslanaka/GDPR-Explainer/internal/models"
)

type fakeArticleReader struct {
	details *models.ArticleDetails
	err     error
	calls   int
	lastID  string
}

func (r *fakeArticleReader) GetArticleDetails(ctx context.Context, articleID string) (*models.ArticleDetails, error) {
	r.calls++
	r.lastID = articleID
	return r.details, r.err
}

func TestExplainArticleNotFoundReturnsNil(t *testing.T) {
	graph := &fakeArticleReader{details: nil}
	service := NewExplainerService(graph, newMemoryCache(), testLogger(t))

	result, err := service.ExplainArticle(context.Background(), &fakeLLM{completeResponse: "x"}, "ART-999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil for unknown article, got %+v", result)
	}
}

func TestExplainArticleBuildsExplanationAndCaches(t *testing.T) {
	graph := &fakeArticleReader{details: &models.ArticleDetails{
		ID:     "ART-32",
		Number: 32,
		Title:  "Security of processing",
		Obligations: []models.Obligation{
			{Summary: "implement appropriate technical measures", Role: "Controller"},
		},
		Terms:      []models.Term{{Term: "pseudonymisation", Definition: "processing without attribution"}},
		Topics:     []string{"Security"},
		References: []models.ArticleRef{{ID: "ART-25", Number: 25}},
	}}
	llm := &fakeLLM{completeResponse: "Article 32 requires security measures."}
	cache := newMemoryCache()
	service := NewExplainerService(graph, cache, testLogger(t))

	result, err := service.ExplainArticle(context.Background(), llm, "ART-32")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Explanation != "Article 32 requires security measures." {
		t.Errorf("unexpected explanation: %q", result.Explanation)
	}
	if result.Context == nil || result.Context.ID != "ART-32" {
		t.Error("explanation must carry the graph context")
	}

	for _, fragment := range []string{
		"Security of processing",
		"- Controller must: implement appropriate technical measures",
		"- pseudonymisation: processing without attribution",
		"Article 25",
	} {
		if !strings.Contains(llm.lastPrompt, fragment) {
			t.Errorf("prompt missing %q", fragment)
		}
	}

	// Second call is served from cache.
	if _, err := service.ExplainArticle(context.Background(), llm, "ART-32"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if graph.calls != 1 || llm.completeCalls != 1 {
		t.Errorf("cached explanation must skip graph and LLM (graph %d, llm %d)", graph.calls, llm.completeCalls)
	}
}

func TestExplainerPromptPlaceholdersForEmptyContext(t *testing.T) {
	prompt := buildExplainerPrompt(&models.ArticleDetails{Title: "Scope"})

	for _, placeholder := range []string{
		"No specific obligations extracted.",
		"No specific terms defined.",
		"General",
		"None",
	} {
		if !strings.Contains(prompt, placeholder) {
			t.Errorf("prompt missing placeholder %q", placeholder)
		}
	}
}

func TestExplainArticlePropagatesLLMError(t *testing.T) {
	graph := &fakeArticleReader{details: &models.ArticleDetails{ID: "ART-5", Title: "Principles"}}
	llm := &fakeLLM{completeErr: context.DeadlineExceeded}
	service := NewExplainerService(graph, newMemoryCache(), testLogger(t))

	if _, err := service.ExplainArticle(context.Background(), llm, "ART-5"); err == nil {
		t.Error("LLM failure must propagate so the orchestrator can retry")
	}
}
