// Package llm generates per-chunk ontology proposals through an
// OpenAI-compatible chat completion API.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/ontorag/ontorag/internal/domain"
)

const (
	// DefaultBaseURL points at OpenRouter, which proxies the models
	// used for extraction behind an OpenAI-compatible API.
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "anthropic/claude-3.5-sonnet"

	maxAttempts      = 3
	retryBaseBackoff = 1500 * time.Millisecond
	temperature      = 0.2
)

var (
	// ErrNoAPIKey is returned when no API key is configured
	ErrNoAPIKey = errors.New("OpenRouter API key not set")
	// ErrEmptyChunk is returned when the chunk has no text
	ErrEmptyChunk = errors.New("chunk text cannot be empty")
	// ErrNoCompletion is returned when the API returns no choices
	ErrNoCompletion = errors.New("no completion returned")
)

// Proposer generates an ontology proposal for a single chunk.
type Proposer interface {
	ProposeChunk(ctx context.Context, schemaCard string, chunk domain.Chunk) (*domain.ChunkProposal, error)
}

// ChatAPI defines the interface for chat completion calls
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client wraps a chat completion API with rate limiting and retries
type Client struct {
	api     ChatAPI
	model   string
	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// RequestsPerSecond caps the request rate. Zero means one
	// request per second.
	RequestsPerSecond float64
}

// headerTransport adds the attribution headers OpenRouter uses for
// request routing and ranking.
type headerTransport struct {
	base http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("HTTP-Referer", "https://github.com/ontorag/ontorag")
	req.Header.Set("X-Title", "ontorag")
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// NewClient creates a proposal client against the configured endpoint.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = cfg.BaseURL
	apiCfg.HTTPClient = &http.Client{
		Transport: &headerTransport{},
		Timeout:   120 * time.Second,
	}

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		sleep:   sleepCtx,
	}, nil
}

// NewClientWithAPI allows injecting the chat API in tests.
func NewClientWithAPI(api ChatAPI, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		api:     api,
		model:   model,
		limiter: rate.NewLimiter(rate.Inf, 1),
		sleep:   sleepCtx,
	}
}

// ProposeChunk asks the model for ontology additions grounded in one
// chunk. Transport failures and unparseable payloads are retried with
// increasing backoff; a response that parses but violates the proposal
// contract is not retried.
func (c *Client) ProposeChunk(ctx context.Context, schemaCard string, chunk domain.Chunk) (*domain.ChunkProposal, error) {
	if strings.TrimSpace(chunk.Text) == "" {
		return nil, ErrEmptyChunk
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(schemaCard, chunk)},
		},
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt+1) * retryBaseBackoff
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = fmt.Errorf("chat completion failed: %w", err)
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = ErrNoCompletion
			continue
		}

		proposal, err := parseProposal(resp.Choices[0].Message.Content)
		if err != nil {
			lastErr = err
			continue
		}

		// The chunk identity is authoritative regardless of what the
		// model echoed back.
		proposal.ChunkID = chunk.ChunkID
		if err := domain.ValidateChunkProposal(proposal); err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "proposal violates contract", err)
		}
		return proposal, nil
	}
	return nil, fmt.Errorf("proposal generation failed after %d attempts: %w", maxAttempts, lastErr)
}

func parseProposal(content string) (*domain.ChunkProposal, error) {
	var proposal domain.ChunkProposal
	if err := json.Unmarshal([]byte(StripCodeFences(content)), &proposal); err != nil {
		return nil, fmt.Errorf("failed to parse proposal JSON: %w", err)
	}
	return &proposal, nil
}

// StripCodeFences removes a surrounding markdown code fence, which
// some models wrap around JSON output even when asked not to.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
