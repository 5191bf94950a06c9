package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standards-engine/retrieval/pkg/httpclient"
)

func TestNewOpenAIClient_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIClient("", "gpt-4o-mini", "")
	assert.Error(t, err)
}

func TestOpenAIClient_CompleteReturnsFirstChoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)

		resp := chatResponse{Choices: []struct {
			Message chatMessage `json:"message"`
		}{{Message: chatMessage{Role: "assistant", Content: "16A"}}}}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client, err := NewOpenAIClient("test-key", "gpt-4o-mini", server.URL)
	require.NoError(t, err)

	answer, err := client.Complete(context.Background(), []Message{
		{Role: "system", Content: "Answer in the language of the question."},
		{Role: "user", Content: "What is the current for 2.5mm2 cable?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "16A", answer)
}

func TestOpenAIClient_CompleteRequiresMessages(t *testing.T) {
	client, err := NewOpenAIClient("test-key", "gpt-4o-mini", "http://example.invalid")
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), nil)
	assert.Error(t, err)
}

func TestOpenAIClient_CompleteSurfacesNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient("test-key", "gpt-4o-mini", server.URL)
	require.NoError(t, err)
	client.http = httpclient.New(
		httpclient.WithMaxRetries(1),
		httpclient.WithBaseDelay(5*time.Millisecond),
		httpclient.WithMaxDelay(10*time.Millisecond),
	)

	_, err = client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.Error(t, err)
}
