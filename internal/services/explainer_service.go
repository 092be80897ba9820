package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arslanaka/GDPR-Explainer/internal/models"
	"github.com/arslanaka/GDPR-Explainer/internal/pkg/logger"
)

// ArticleReader is the graph lookup the explainer depends on.
type ArticleReader interface {
	GetArticleDetails(ctx context.Context, articleID string) (*models.ArticleDetails, error)
}

// Cache is the subset of the cache store the core services consume.
type Cache interface {
	Get(ctx context.Context, namespace, identifier string, params map[string]string, target interface{}) bool
	Set(ctx context.Context, namespace, identifier string, data interface{}, params map[string]string) bool
}

const explainerPrompt = `You are a GDPR Expert AI. Your goal is to explain a specific GDPR Article clearly and concisely to a non-legal user.

Use the following structured context retrieved from the official legal text and knowledge graph:

**Article**: %s

**Obligations (What must be done)**:
%s

**Defined Terms**:
%s

**Related Topics**:
%s

**Cross-References**:
%s

---
**Instructions**:
1. **Summary**: Provide a plain English summary of what this article requires (2-3 sentences).
2. **Key Takeaways**: List the most important points as bullet points.
3. **Implications**: Briefly explain what this means for a company (e.g., "You must encrypt data" or "You need a DPO").
4. **Strict Constraint**: Do NOT hallucinate. Only use the provided context. If the context is empty, say "Insufficient information available."`

// ExplainerService turns the structured graph context of an article into a
// plain-language explanation.
type ExplainerService struct {
	graph  ArticleReader
	cache  Cache
	logger *logger.Logger
}

func NewExplainerService(graph ArticleReader, cache Cache, log *logger.Logger) *ExplainerService {
	return &ExplainerService{graph: graph, cache: cache, logger: log}
}

// ExplainArticle builds the explanation for one article using the given LLM
// client. Returns nil when the article is not in the graph. Completed
// explanations are cached per article and provider.
func (service *ExplainerService) ExplainArticle(ctx context.Context, llm LLMClient, articleID string) (*models.Explanation, error) {
	startTime := time.Now()
	cacheParams := map[string]string{"provider": llm.Provider()}

	var cached models.Explanation
	if service.cache.Get(ctx, "explanation", articleID, cacheParams, &cached) {
		return &cached, nil
	}

	details, err := service.graph.GetArticleDetails(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if details == nil {
		return nil, nil
	}

	prompt := buildExplainerPrompt(details)

	content, err := llm.Complete(ctx, prompt, 0.2)
	if err != nil {
		service.logger.LogService("explainer", "explain_article", time.Since(startTime), map[string]interface{}{
			"article_id": articleID,
			"provider":   llm.Provider(),
		}, err)
		return nil, err
	}

	explanation := &models.Explanation{
		ArticleID:   articleID,
		Explanation: content,
		Context:     details,
	}

	service.cache.Set(ctx, "explanation", articleID, explanation, cacheParams)

	service.logger.LogService("explainer", "explain_article", time.Since(startTime), map[string]interface{}{
		"article_id":         articleID,
		"provider":           llm.Provider(),
		"explanation_length": len(content),
	}, nil)

	return explanation, nil
}

func buildExplainerPrompt(details *models.ArticleDetails) string {
	obligationLines := make([]string, 0, len(details.Obligations))
	for _, o := range details.Obligations {
		obligationLines = append(obligationLines, fmt.Sprintf("- %s must: %s", o.Role, o.Summary))
	}
	obligations := strings.Join(obligationLines, "\n")
	if obligations == "" {
		obligations = "No specific obligations extracted."
	}

	termLines := make([]string, 0, len(details.Terms))
	for _, t := range details.Terms {
		termLines = append(termLines, fmt.Sprintf("- %s: %s", t.Term, t.Definition))
	}
	terms := strings.Join(termLines, "\n")
	if terms == "" {
		terms = "No specific terms defined."
	}

	topics := strings.Join(details.Topics, ", ")
	if topics == "" {
		topics = "General"
	}

	refLines := make([]string, 0, len(details.References))
	for _, r := range details.References {
		refLines = append(refLines, fmt.Sprintf("Article %d", r.Number))
	}
	references := strings.Join(refLines, ", ")
	if references == "" {
		references = "None"
	}

	return fmt.Sprintf(explainerPrompt, details.Title, obligations, terms, topics, references)
}
