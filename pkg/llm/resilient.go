package llm

import (
	"context"

	"github.com/FolioAI/folio-mvp/pkg/resilience"
)

// ResilientGenerator wraps a Generator with a circuit breaker so a
// flapping provider fails fast instead of tying up request handlers.
type ResilientGenerator struct {
	inner   Generator
	breaker *resilience.Breaker
}

// WithBreaker decorates g with b.
func WithBreaker(g Generator, b *resilience.Breaker) *ResilientGenerator {
	return &ResilientGenerator{inner: g, breaker: b}
}

// Generate implements Generator.
func (r *ResilientGenerator) Generate(ctx context.Context, req Request) (string, error) {
	var out string
	err := r.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.inner.Generate(ctx, req)
		return err
	})
	return out, err
}
