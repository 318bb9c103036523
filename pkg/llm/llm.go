// Package llm abstracts the generative model providers. The engine only
// sees the Generator interface; Ollama and Gemini implementations are
// selected by configuration.
package llm

import "context"

// Request is a single constrained generation call.
type Request struct {
	System        string
	Prompt        string
	MaxTokens     int
	Temperature   float32
	StopSequences []string
}

// Generator produces text from a prompt. Implementations must respect
// the token budget and the context deadline; stream-backed providers
// drain their stream fully before returning.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
