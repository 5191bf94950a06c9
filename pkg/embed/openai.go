package embed

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

// OpenAIProvider calls the OpenAI (or an OpenAI-compatible, e.g.
// DeepSeek-adjacent) embeddings endpoint.
//
// Direct descendant of pkg/embedders.OpenAIEmbedder, rebuilt on
// pkg/httpclient instead of a hand-rolled retry loop.
type OpenAIProvider struct {
	http      *httpclient.Client
	apiKey    string
	baseURL   string
	model     string
	dimension int
	batchSize int
}

// defaultDimensions mirrors the teacher's per-model default table.
var defaultDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// NewOpenAIProvider constructs a provider. baseURL defaults to the public
// OpenAI API; pass a different URL for DeepSeek/LlamaCloud-compatible
// embedding endpoints.
func NewOpenAIProvider(apiKey, model, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, apperrors.Config("embedding provider requires an API key", nil)
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	dim, ok := defaultDimensions[model]
	if !ok {
		dim = 1536
	}

	return &OpenAIProvider{
		http: httpclient.New(
			httpclient.WithMaxRetries(3),
			httpclient.WithBaseDelay(500*time.Millisecond),
			httpclient.WithMaxDelay(8*time.Second),
			httpclient.WithHeaderParser(httpclient.ParseOpenAIRateLimitHeaders),
		),
		apiKey:    apiKey,
		baseURL:   baseURL,
		model:     model,
		dimension: dim,
		batchSize: 100,
	}, nil
}

func (p *OpenAIProvider) Dimension() int   { return p.dimension }
func (p *OpenAIProvider) ModelName() string { return p.model }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// EmbedBatch splits texts into batchSize-sized request bodies and issues
// one HTTP call per batch; oversize batches are never the caller's
// problem, only the stored text is left untruncated.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += p.batchSize {
		end := start + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := p.embedOne(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		results = append(results, vectors...)
	}

	return results, nil
}

func (p *OpenAIProvider) embedOne(ctx context.Context, batch []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: p.model, Input: batch})
	if err != nil {
		return nil, apperrors.Provider("failed to encode embedding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Provider("failed to build embedding request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, apperrors.Provider("embedding request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Provider("failed to read embedding response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Provider(fmt.Sprintf("embedding API returned status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var parsed embedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, apperrors.Provider("failed to decode embedding response", err)
	}
	if len(parsed.Data) != len(batch) {
		return nil, apperrors.Consistency(fmt.Sprintf("embedding response returned %d vectors for %d inputs", len(parsed.Data), len(batch)), nil)
	}

	vectors := make([][]float32, len(batch))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			continue
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

var _ Provider = (*OpenAIProvider)(nil)
