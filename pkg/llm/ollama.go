package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// OllamaClient generates answers via Ollama's streaming chat API. The
// stream is drained under the caller's context deadline: a stalled
// stream surfaces as a context error, not a hung request.
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaClient creates an Ollama chat client.
func NewOllamaClient(baseURL, model string) *OllamaClient {
	return &OllamaClient{baseURL: baseURL, model: model, client: &http.Client{}}
}

type ollamaChatReq struct {
	Model    string            `json:"model"`
	Messages []ollamaMessage   `json:"messages"`
	Stream   bool              `json:"stream"`
	Options  map[string]any    `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Generate runs a chat completion and returns the accumulated text.
func (c *OllamaClient) Generate(ctx context.Context, req Request) (string, error) {
	opts := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		opts["num_predict"] = req.MaxTokens
	}
	if len(req.StopSequences) > 0 {
		opts["stop"] = req.StopSequences
	}

	body, _ := json.Marshal(ollamaChatReq{
		Model: c.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		Stream:  true,
		Options: opts,
	})

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("llm: ollama chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: ollama chat: status %d", resp.StatusCode)
	}

	var b strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var chunk ollamaChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		b.WriteString(chunk.Message.Content)
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		// Body reads are cut off by the context deadline; treat the
		// partial stream as a failure, the synthesizer degrades.
		return "", fmt.Errorf("llm: drain stream: %w", err)
	}

	return truncateAtStop(b.String(), req.StopSequences), nil
}

// truncateAtStop cuts text at the earliest stop sequence. Providers
// usually honor stop hints themselves; this is the local guarantee.
func truncateAtStop(text string, stops []string) string {
	cut := len(text)
	for _, s := range stops {
		if s == "" {
			continue
		}
		if idx := strings.Index(text, s); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return text[:cut]
}
