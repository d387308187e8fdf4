package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-epub/internal/domain/ai"
	"github.com/bryanwahyu/automaton-epub/internal/domain/checks"
)

var diags = []checks.Diagnostic{
	{Code: "ERROR(RSC-005)", Severity: checks.SeverityError, Rule: "RSC-005", Path: "OEBPS/a.xhtml", Line: 3, Message: "bad"},
}

func TestAdvise_WithoutKeyUsesHeuristic(t *testing.T) {
	c := NewClient("", "")
	assert.Equal(t, "heuristic", c.ModelName())

	out, err := c.Advise(context.Background(), "book.epub", diags)
	require.NoError(t, err)
	assert.Contains(t, out, `"package":"book.epub"`)
}

func TestAdvise_NoDiagnostics(t *testing.T) {
	_, err := NewClient("", "").Advise(context.Background(), "book.epub", nil)
	assert.ErrorIs(t, err, ai.ErrNothingToAdvise)
}

func TestAdvise_CallsChatCompletion(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"advice\":\"ok\"}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("k", "gpt-4o-mini", srv.URL)
	out, err := c.Advise(context.Background(), "book.epub", diags)
	require.NoError(t, err)
	assert.Equal(t, `{"advice":"ok"}`, out)
	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.EqualValues(t, maxTokens, got["max_tokens"])
}

func TestAdvise_QuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota","type":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	_, err := NewClientWithBaseURL("k", "o3-mini", srv.URL).Advise(context.Background(), "book.epub", diags)
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
}

func TestReasoning(t *testing.T) {
	assert.True(t, reasoning("o3-2025-04-16"))
	assert.True(t, reasoning("gpt-5-mini"))
	assert.False(t, reasoning("gpt-4o-mini"))
}
