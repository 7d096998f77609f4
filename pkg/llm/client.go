// Package llm is an HTTP chat-completions client: strict JSON-schema
// response_format, max_completion_tokens, optional reasoning_effort, and
// usage fields including reasoning-token accounting (§8.3 environment
// configuration). It implements pkg/retrylog.Generator.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/neg-0/overwatch/pkg/retrylog"
)

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client. baseURL should not have a trailing slash.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Schema is a strict JSON schema for response_format.
type Schema struct {
	Name   string      `json:"name"`
	Strict bool        `json:"strict"`
	Schema interface{} `json:"schema"`
}

// chatMessage is the wire shape of one conversation turn.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string `json:"type"`
	JSONSchema Schema `json:"json_schema"`
}

type chatRequest struct {
	Model               string          `json:"model"`
	Messages            []chatMessage   `json:"messages"`
	MaxCompletionTokens int             `json:"max_completion_tokens"`
	ReasoningEffort     string          `json:"reasoning_effort,omitempty"`
	ResponseFormat      *responseFormat `json:"response_format,omitempty"`
}

type usage struct {
	PromptTokens            int `json:"prompt_tokens"`
	CompletionTokens        int `json:"completion_tokens"`
	CompletionTokensDetails struct {
		ReasoningTokens int `json:"reasoning_tokens"`
	} `json:"completion_tokens_details"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   usage        `json:"usage"`
}

// schemaKey attaches a Schema to a retrylog.GenerateRequest via context so callers
// that need a strict JSON schema for a particular artifact can supply one
// without widening retrylog's transport-agnostic request type.
type schemaKey struct{}

// WithSchema returns a context carrying a strict JSON schema for the next
// Generate call made with it.
func WithSchema(ctx context.Context, schema Schema) context.Context {
	return context.WithValue(ctx, schemaKey{}, schema)
}

func schemaFrom(ctx context.Context) (Schema, bool) {
	s, ok := ctx.Value(schemaKey{}).(Schema)
	return s, ok
}

// Generate implements retrylog.Generator.
func (c *Client) Generate(ctx context.Context, req retrylog.GenerateRequest) (retrylog.GenerateResponse, error) {
	messages := make([]chatMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	body := chatRequest{
		Model:               req.Model,
		Messages:            messages,
		MaxCompletionTokens: req.TokenBudget,
		ReasoningEffort:     req.ReasoningEffort,
	}
	if schema, ok := schemaFrom(ctx); ok {
		body.ResponseFormat = &responseFormat{Type: "json_schema", JSONSchema: schema}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return retrylog.GenerateResponse{}, fmt.Errorf("llm: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return retrylog.GenerateResponse{}, fmt.Errorf("llm: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return retrylog.GenerateResponse{}, fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return retrylog.GenerateResponse{}, fmt.Errorf("llm: upstream status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return retrylog.GenerateResponse{}, fmt.Errorf("llm: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return retrylog.GenerateResponse{}, fmt.Errorf("llm: empty choices")
	}

	return retrylog.GenerateResponse{
		Content:      parsed.Choices[0].Message.Content,
		PromptTokens: parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}, nil
}
