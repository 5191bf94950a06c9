package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/standards-engine/retrieval/pkg/apperrors"
	"github.com/standards-engine/retrieval/pkg/httpclient"
)

// OpenAIClient calls the OpenAI (or an OpenAI-compatible, e.g.
// DeepSeek-adjacent) chat completions endpoint, mirroring
// pkg/embed.OpenAIProvider's httpclient wiring.
type OpenAIClient struct {
	http        *httpclient.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float64
}

// NewOpenAIClient constructs a chat-completion client. baseURL defaults
// to the public OpenAI API; pass a different URL for DeepSeek or other
// OpenAI-compatible chat endpoints.
func NewOpenAIClient(apiKey, model, baseURL string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, apperrors.Config("llm client requires an API key", nil)
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAIClient{
		http: httpclient.New(
			httpclient.WithMaxRetries(3),
			httpclient.WithBaseDelay(500*time.Millisecond),
			httpclient.WithMaxDelay(8*time.Second),
			httpclient.WithHeaderParser(httpclient.ParseOpenAIRateLimitHeaders),
		),
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		temperature: 0.2,
	}, nil
}

func (c *OpenAIClient) ModelName() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends messages to the chat completions endpoint and returns
// the first choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", apperrors.Config("llm completion requires at least one message", nil)
	}

	wire := make([]chatMessage, len(messages))
	for i, m := range messages {
		wire[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	body, err := json.Marshal(chatRequest{Model: c.model, Messages: wire, Temperature: c.temperature})
	if err != nil {
		return "", apperrors.Provider("failed to encode chat completion request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", apperrors.Provider("failed to build chat completion request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperrors.Provider("chat completion request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.Provider("failed to read chat completion response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.Provider(fmt.Sprintf("chat completion API returned status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", apperrors.Provider("failed to decode chat completion response", err)
	}
	if len(parsed.Choices) == 0 {
		return "", apperrors.Provider("chat completion response carried no choices", nil)
	}

	return parsed.Choices[0].Message.Content, nil
}

var _ Client = (*OpenAIClient)(nil)
