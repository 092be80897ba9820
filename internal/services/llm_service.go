package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/arslanaka/GDPR-Explainer/internal/config"
	"github.com/arslanaka/GDPR-Explainer/internal/pkg/logger"
)

// StreamToken is one fragment of a streamed completion. Done marks the end of
// the stream; Err carries a mid-stream failure.
type StreamToken struct {
	Content string
	Done    bool
	Err     error
}

// LLMClient is one text-completion provider. Complete returns the whole
// response; Stream yields fragments as they are produced.
type LLMClient interface {
	Provider() string
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
	Stream(ctx context.Context, prompt string, temperature float32) (<-chan StreamToken, error)
}

// LLMService selects a provider per request and owns the embedding client
// used by semantic search.
type LLMService struct {
	config  config.LLMConfig
	logger  *logger.Logger
	clients map[string]LLMClient
}

func NewLLMService(cfg config.LLMConfig, log *logger.Logger) (*LLMService, error) {
	service := &LLMService{
		config:  cfg,
		logger:  log,
		clients: make(map[string]LLMClient),
	}

	if cfg.OpenAIAPIKey != "" {
		service.clients["openai"] = newOpenAIClient(cfg, log)
	}

	if cfg.GeminiAPIKey != "" {
		gemini, err := newGeminiClient(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		service.clients["gemini"] = gemini
	}

	if len(service.clients) == 0 {
		return nil, errors.New("no LLM provider configured: set OPENAI_API_KEY or GOOGLE_API_KEY")
	}

	if _, ok := service.clients[cfg.DefaultProvider]; !ok {
		for name := range service.clients {
			log.Warn("Default LLM provider unavailable, falling back",
				"requested", cfg.DefaultProvider, "fallback", name)
			service.config.DefaultProvider = name
			break
		}
	}

	log.Info("LLM Service Initialized Successfully",
		"providers", len(service.clients),
		"default_provider", service.config.DefaultProvider)

	return service, nil
}

// Client returns the provider's client, falling back to the default for
// unknown or unconfigured providers.
func (service *LLMService) Client(provider string) LLMClient {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if client, ok := service.clients[provider]; ok {
		return client
	}
	if provider != "" {
		service.logger.Warn("Unknown LLM provider requested, using default",
			"requested", provider, "default", service.config.DefaultProvider)
	}
	return service.clients[service.config.DefaultProvider]
}

// EmbedQuery produces the query embedding for semantic search. Embeddings are
// always computed with OpenAI regardless of the chat provider, matching the
// model the corpus was indexed with.
func (service *LLMService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	client, ok := service.clients["openai"].(*openAIClient)
	if !ok {
		return nil, errors.New("embedding requires an OpenAI API key")
	}
	return client.embedQuery(ctx, text)
}

func (service *LLMService) HealthCheck(ctx context.Context) error {
	if len(service.clients) == 0 {
		return errors.New("no LLM provider configured")
	}
	return nil
}

// ---- OpenAI provider ----

type openAIClient struct {
	client         *openai.Client
	model          string
	embeddingModel openai.EmbeddingModel
	timeout        time.Duration
	logger         *logger.Logger
}

func newOpenAIClient(cfg config.LLMConfig, log *logger.Logger) *openAIClient {
	return &openAIClient{
		client:         openai.NewClient(cfg.OpenAIAPIKey),
		model:          cfg.OpenAIModel,
		embeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
		timeout:        cfg.RequestTimeout,
		logger:         log,
	}
}

func (c *openAIClient) Provider() string {
	return "openai"
}

func (c *openAIClient) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	startTime := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		c.logger.LogService("openai", "complete", time.Since(startTime), map[string]interface{}{
			"prompt_length": len(prompt),
			"model":         c.model,
		}, err)
		return "", fmt.Errorf("openai completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	c.logger.LogService("openai", "complete", time.Since(startTime), map[string]interface{}{
		"prompt_length":   len(prompt),
		"response_length": len(content),
		"model":           c.model,
	}, nil)

	return content, nil
}

func (c *openAIClient) Stream(ctx context.Context, prompt string, temperature float32) (<-chan StreamToken, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		Stream:      true,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai stream failed: %w", err)
	}

	ch := make(chan StreamToken, 64)
	go func() {
		defer close(ch)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				ch <- StreamToken{Done: true}
				return
			}
			if err != nil {
				ch <- StreamToken{Done: true, Err: fmt.Errorf("openai stream failed: %w", err)}
				return
			}

			if len(resp.Choices) == 0 {
				continue
			}
			if delta := resp.Choices[0].Delta.Content; delta != "" {
				select {
				case ch <- StreamToken{Content: delta}:
				case <-ctx.Done():
					ch <- StreamToken{Done: true, Err: ctx.Err()}
					return
				}
			}
		}
	}()

	return ch, nil
}

func (c *openAIClient) embedQuery(ctx context.Context, text string) ([]float32, error) {
	startTime := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(reqCtx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.embeddingModel,
	})
	if err != nil {
		c.logger.LogService("openai", "embed_query", time.Since(startTime), map[string]interface{}{
			"text_length": len(text),
		}, err)
		return nil, fmt.Errorf("embedding failed: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response is empty")
	}

	return resp.Data[0].Embedding, nil
}

// ---- Gemini provider ----

type geminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *logger.Logger
}

func newGeminiClient(cfg config.LLMConfig, log *logger.Logger) (*geminiClient, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &geminiClient{
		client:  client,
		model:   cfg.GeminiModel,
		timeout: cfg.RequestTimeout,
		logger:  log,
	}, nil
}

func (c *geminiClient) Provider() string {
	return "gemini"
}

func (c *geminiClient) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	startTime := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.client.Models.GenerateContent(reqCtx, c.model, genai.Text(prompt),
		&genai.GenerateContentConfig{Temperature: &temperature})
	if err != nil {
		c.logger.LogService("gemini", "complete", time.Since(startTime), map[string]interface{}{
			"prompt_length": len(prompt),
			"model":         c.model,
		}, err)
		return "", fmt.Errorf("gemini completion failed: %w", err)
	}

	content := geminiText(result)
	if content == "" {
		return "", errors.New("gemini completion returned no candidates")
	}

	c.logger.LogService("gemini", "complete", time.Since(startTime), map[string]interface{}{
		"prompt_length":   len(prompt),
		"response_length": len(content),
		"model":           c.model,
	}, nil)

	return content, nil
}

func (c *geminiClient) Stream(ctx context.Context, prompt string, temperature float32) (<-chan StreamToken, error) {
	ch := make(chan StreamToken, 64)

	go func() {
		defer close(ch)

		for result, err := range c.client.Models.GenerateContentStream(ctx, c.model, genai.Text(prompt),
			&genai.GenerateContentConfig{Temperature: &temperature}) {
			if err != nil {
				ch <- StreamToken{Done: true, Err: fmt.Errorf("gemini stream failed: %w", err)}
				return
			}

			if fragment := geminiText(result); fragment != "" {
				select {
				case ch <- StreamToken{Content: fragment}:
				case <-ctx.Done():
					ch <- StreamToken{Done: true, Err: ctx.Err()}
					return
				}
			}
		}

		ch <- StreamToken{Done: true}
	}()

	return ch, nil
}

func geminiText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 {
		return ""
	}

	candidate := result.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	text := ""
	for _, part := range candidate.Content.Parts {
		text += part.Text
	}
	return text
}
