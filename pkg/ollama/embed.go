// Package ollama provides the Ollama-backed embedding adapter.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
)

// ErrEmbedding marks embedding-provider failures: unreachable model,
// malformed output, wrong dimensionality, NaN components. Callers must
// treat it as fatal for the request, never substitute a zero vector.
var ErrEmbedding = errors.New("embedding failure")

// EmbedClient converts text to vectors via Ollama's HTTP API and
// validates the result against the corpus dimensionality.
type EmbedClient struct {
	baseURL string
	model   string
	dims    int
	client  *http.Client
}

// NewEmbedClient creates an embedding client. dims is the corpus's
// fixed vector dimensionality; responses of any other length fail.
func NewEmbedClient(baseURL, model string, dims int) *EmbedClient {
	return &EmbedClient{
		baseURL: baseURL,
		model:   model,
		dims:    dims,
		client:  &http.Client{},
	}
}

type embedReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResp struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns the embedding vector for text.
func (c *EmbedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	body, _ := json.Marshal(embedReq{Model: c.model, Prompt: text})
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrEmbedding, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrEmbedding, resp.StatusCode)
	}

	var result embedResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrEmbedding, err)
	}

	if c.dims > 0 && len(result.Embedding) != c.dims {
		return nil, fmt.Errorf("%w: got %d dimensions, want %d", ErrEmbedding, len(result.Embedding), c.dims)
	}

	out := make([]float32, len(result.Embedding))
	for i, v := range result.Embedding {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite component at %d", ErrEmbedding, i)
		}
		out[i] = float32(v)
	}
	return out, nil
}
