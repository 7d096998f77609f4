package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/neg-0/overwatch/pkg/retrylog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_SendsMaxCompletionTokensAndParsesUsage(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		resp := chatResponse{
			Choices: []chatChoice{{Message: chatMessage{Role: "assistant", Content: "hello world"}, FinishReason: "stop"}},
		}
		resp.Usage.PromptTokens = 42
		resp.Usage.CompletionTokens = 7
		resp.Usage.CompletionTokensDetails.ReasoningTokens = 3
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := New(server.URL, "test-key")
	out, err := c.Generate(context.Background(), retrylog.GenerateRequest{
		Model:       "flagship",
		Messages:    []retrylog.Message{{Role: "user", Content: "hi"}},
		TokenBudget: 8000,
	})

	require.NoError(t, err)
	assert.Equal(t, "hello world", out.Content)
	assert.Equal(t, 42, out.PromptTokens)
	assert.Equal(t, 7, out.OutputTokens)
	assert.Equal(t, 8000, captured.MaxCompletionTokens)
}

func TestGenerate_AttachesStrictSchemaFromContext(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(chatResponse{Choices: []chatChoice{{Message: chatMessage{Content: "{}"}}}})
	}))
	defer server.Close()

	c := New(server.URL, "k")
	ctx := WithSchema(context.Background(), Schema{Name: "ato", Strict: true, Schema: map[string]any{"type": "object"}})
	_, err := c.Generate(ctx, retrylog.GenerateRequest{Model: "m", TokenBudget: 1000})

	require.NoError(t, err)
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_schema", captured.ResponseFormat.Type)
	assert.Equal(t, "ato", captured.ResponseFormat.JSONSchema.Name)
}

func TestGenerate_UpstreamErrorStatusReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL, "k")
	_, err := c.Generate(context.Background(), retrylog.GenerateRequest{Model: "m", TokenBudget: 1000})
	assert.Error(t, err)
}

func TestGenerate_EmptyChoicesIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse{})
	}))
	defer server.Close()

	c := New(server.URL, "k")
	_, err := c.Generate(context.Background(), retrylog.GenerateRequest{Model: "m", TokenBudget: 1000})
	assert.Error(t, err)
}
