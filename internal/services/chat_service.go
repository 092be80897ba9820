package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/arslanaka/GDPR-Explainer/internal/models"
	"github.com/arslanaka/GDPR-Explainer/internal/pkg/logger"
)

// Searcher is the semantic-search collaborator. It never fails: an unhealthy
// backend yields an empty slice.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) []models.SearchHit
}

// Explainer produces article explanations; nil result means the article does
// not exist.
type Explainer interface {
	ExplainArticle(ctx context.Context, llm LLMClient, articleID string) (*models.Explanation, error)
}

// LLMSelector resolves a provider name to a client, falling back to the
// default for unknown names.
type LLMSelector interface {
	Client(provider string) LLMClient
}

const routerPrompt = `You are the "GDPR Assistant" Router. Your job is to classify the user's query and extract parameters.

Available Tools:
1. **EXPLAIN_ARTICLE**: User asks to explain/summarize a specific article (e.g., "Explain Article 32", "What does Art 5 say?").
   - Parameter: ` + "`article_number`" + ` (integer, e.g., 32)
2. **TOPIC_SEARCH**: User asks for articles about a specific topic (e.g., "Show me articles about encryption", "Where is consent mentioned?").
   - Parameter: ` + "`topic`" + ` (string, inferred from query)
3. **GENERAL_QA**: User asks a general question that requires searching the text (e.g., "What are the fines for non-compliance?", "Can I process data of children?").
   - Parameter: ` + "`query`" + ` (the original user query)

Output JSON ONLY:
{
    "tool": "EXPLAIN_ARTICLE" | "TOPIC_SEARCH" | "GENERAL_QA",
    "parameters": { ... }
}

User Query: %s`

const qaPrompt = `You are a GDPR Expert. Answer the user's question based ONLY on the provided context.

IMPORTANT: Answer in the SAME LANGUAGE as the user's question. If the question is in German, answer in German.

Context:
%s

Question: %s

Answer (concise, citing articles):`

const (
	msgArticleNotFound  = "Could not find the specified article."
	msgModelUnavailable = "Error: The selected model is not available or the API key is invalid. Please check your settings."
	msgQuotaExceeded    = "Error: API quota exceeded. Please check your billing or credits."
	msgGenericFailure   = "Sorry, I encountered an error processing your request."
)

// ChatService owns the chat request lifecycle: cache probe, intent routing,
// strategy dispatch, chunk streaming, transcript caching and bounded retry.
type ChatService struct {
	llm       LLMSelector
	search    Searcher
	explainer Explainer
	cache     Cache
	logger    *logger.Logger

	maxAttempts int
	retryDelay  time.Duration
}

func NewChatService(llm LLMSelector, search Searcher, explainer Explainer, cache Cache, log *logger.Logger) *ChatService {
	return &ChatService{
		llm:         llm,
		search:      search,
		explainer:   explainer,
		cache:       cache,
		logger:      log,
		maxAttempts: 2,
		retryDelay:  time.Second,
	}
}

// ChatStream starts one orchestration run and returns the channel the run's
// chunks arrive on. The channel is closed when the run terminates. A run is
// not restartable; callers start a fresh run to repeat a request.
func (service *ChatService) ChatStream(ctx context.Context, req models.ChatRequest) <-chan models.ResponseChunk {
	out := make(chan models.ResponseChunk, 16)
	go service.run(ctx, req, out)
	return out
}

func (service *ChatService) run(ctx context.Context, req models.ChatRequest, out chan<- models.ResponseChunk) {
	defer close(out)

	model := req.Model
	if model == "" {
		model = "openai"
	}
	language := req.Language
	if language == "" {
		language = "en"
	}
	cacheParams := map[string]string{"model": model, "lang": language}

	// Cache hit replays the whole transcript; no collaborator is called.
	var cached models.CachedChat
	if service.cache.Get(ctx, "chat", req.Query, cacheParams, &cached) {
		service.logger.Info("Serving cached chat response", "query_length", len(req.Query))
		for _, chunk := range cached.Chunks {
			if !emit(ctx, out, chunk) {
				return
			}
		}
		return
	}

	var lastErr error
	for attempt := 1; attempt <= service.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(service.retryDelay):
			case <-ctx.Done():
				return
			}
		}

		err := service.attempt(ctx, req, model, cacheParams, out)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}

		lastErr = err
		service.logger.WithError(err).Warn("Chat attempt failed",
			"attempt", attempt,
			"max_attempts", service.maxAttempts)
	}

	emit(ctx, out, models.ResponseChunk{Type: models.ChunkTypeError, Content: classifyFailure(lastErr)})
}

// attempt runs classification plus one full branch. A nil return means the
// run terminated (successfully or with an in-band error chunk); a non-nil
// return asks the retry loop for another attempt.
func (service *ChatService) attempt(ctx context.Context, req models.ChatRequest, model string, cacheParams map[string]string, out chan<- models.ResponseChunk) error {
	llm := service.llm.Client(model)

	route, err := service.classifyQuery(ctx, llm, req.Query)
	if err != nil {
		return err
	}

	// Transcript-to-cache is per attempt: chunks already streamed by a failed
	// attempt stay on the wire but never reach the cache.
	transcript := make([]models.ResponseChunk, 0, 8)

	switch route.Tool {
	case models.RouteExplainArticle:
		if route.ArticleNumber > 0 {
			result, err := service.explainer.ExplainArticle(ctx, llm, fmt.Sprintf("ART-%d", route.ArticleNumber))
			if err != nil {
				return err
			}
			if result != nil {
				chunk := models.ResponseChunk{
					Type:        models.ChunkTypeExplanation,
					Content:     result.Explanation,
					RelatedData: result.Context,
				}
				if !emit(ctx, out, chunk) {
					return nil
				}
				transcript = append(transcript, chunk)
				service.cache.Set(ctx, "chat", req.Query, models.CachedChat{Chunks: transcript}, cacheParams)
				return nil
			}
		}

		// Not cached: a missing article is not a reusable answer.
		emit(ctx, out, models.ResponseChunk{Type: models.ChunkTypeError, Content: msgArticleNotFound})
		return nil

	case models.RouteTopicSearch:
		results := service.search.Search(ctx, route.Topic, 10)
		chunk := models.ResponseChunk{
			Type:    models.ChunkTypeSearchResults,
			Content: fmt.Sprintf("Here are the articles related to '%s':", route.Topic),
			Results: results,
		}
		if !emit(ctx, out, chunk) {
			return nil
		}
		transcript = append(transcript, chunk)
		service.cache.Set(ctx, "chat", req.Query, models.CachedChat{Chunks: transcript}, cacheParams)
		return nil

	default: // GENERAL_QA
		results := service.search.Search(ctx, route.Query, 5)

		// Sources go first so the client can render citations before the answer.
		sources := models.ResponseChunk{Type: models.ChunkTypeSources, Results: results}
		if !emit(ctx, out, sources) {
			return nil
		}
		transcript = append(transcript, sources)

		contextBlocks := make([]string, 0, len(results))
		for _, hit := range results {
			contextBlocks = append(contextBlocks,
				fmt.Sprintf("Article %d (%s):\n%s", hit.ArticleNumber, hit.Title, hit.TextSnippet))
		}

		prompt := fmt.Sprintf(qaPrompt, strings.Join(contextBlocks, "\n\n"), route.Query)
		tokens, err := llm.Stream(ctx, prompt, 0)
		if err != nil {
			return err
		}

		for token := range tokens {
			if token.Err != nil {
				return token.Err
			}
			if token.Content != "" {
				chunk := models.ResponseChunk{Type: models.ChunkTypeToken, Content: token.Content}
				if !emit(ctx, out, chunk) {
					return nil
				}
				transcript = append(transcript, chunk)
			}
			if token.Done {
				break
			}
		}

		service.cache.Set(ctx, "chat", req.Query, models.CachedChat{Chunks: transcript}, cacheParams)
		return nil
	}
}

type routePayload struct {
	Tool       string                 `json:"tool"`
	Parameters map[string]interface{} `json:"parameters"`
}

// classifyQuery makes one non-streaming LLM call and parses the strict-JSON
// route. Malformed output degrades to GENERAL_QA on the original query; only
// a failed LLM call is returned as an error (retried by the orchestrator).
func (service *ChatService) classifyQuery(ctx context.Context, llm LLMClient, query string) (models.RouteDecision, error) {
	fallback := models.RouteDecision{Tool: models.RouteGeneralQA, Query: query}

	raw, err := llm.Complete(ctx, fmt.Sprintf(routerPrompt, query), 0)
	if err != nil {
		return fallback, err
	}

	raw = stripCodeFences(raw)

	var payload routePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		service.logger.Warn("Router output is not valid JSON, falling back to GENERAL_QA",
			"response_length", len(raw))
		return fallback, nil
	}

	switch models.RouteTool(payload.Tool) {
	case models.RouteExplainArticle:
		number := toInt(payload.Parameters["article_number"])
		return models.RouteDecision{Tool: models.RouteExplainArticle, ArticleNumber: number}, nil

	case models.RouteTopicSearch:
		topic, _ := payload.Parameters["topic"].(string)
		if topic == "" {
			return fallback, nil
		}
		return models.RouteDecision{Tool: models.RouteTopicSearch, Topic: topic}, nil

	case models.RouteGeneralQA:
		extracted, _ := payload.Parameters["query"].(string)
		if extracted == "" {
			extracted = query
		}
		return models.RouteDecision{Tool: models.RouteGeneralQA, Query: extracted}, nil

	default:
		return fallback, nil
	}
}

func stripCodeFences(raw string) string {
	raw = strings.ReplaceAll(raw, "```json", "")
	raw = strings.ReplaceAll(raw, "```", "")
	return strings.TrimSpace(raw)
}

// classifyFailure maps the final error onto a user-facing message. This is
// best-effort string matching: the generation providers do not expose a
// stable error taxonomy.
func classifyFailure(err error) string {
	if err == nil {
		return msgGenericFailure
	}

	text := err.Error()
	if strings.Contains(text, "404") && strings.Contains(text, "models/") {
		return msgModelUnavailable
	}
	if strings.Contains(strings.ToLower(text), "quota") {
		return msgQuotaExceeded
	}
	return msgGenericFailure
}

// emit forwards one chunk, bailing out when the caller has gone away.
func emit(ctx context.Context, out chan<- models.ResponseChunk, chunk models.ResponseChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
