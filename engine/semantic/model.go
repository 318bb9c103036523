// Package semantic owns vector storage and candidate lookup. Two
// implementations exist: a Qdrant-backed store for deployments and an
// in-memory exhaustive-scan store for tests and tiny corpora. Both hand
// candidates back with their stored vectors so the orchestrator ranks
// identically regardless of which is configured.
package semantic

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Candidate is one stored vector returned from a lookup, with enough
// payload to identify the backing skill record.
type Candidate struct {
	ID      string
	Vector  []float32
	Payload map[string]string
}

// VectorRecord is a vector plus payload to persist.
type VectorRecord struct {
	ID        string
	Embedding []float32
	Payload   map[string]any
}

// NormalizeVector converts the various shapes a stored embedding blob
// arrives in ([]float32, []float64, []any of numbers, raw little-endian
// float32 bytes) into the canonical []float32 the scoring code expects.
// Everything downstream of the store boundary only ever sees this form.
func NormalizeVector(v any) ([]float32, error) {
	switch tv := v.(type) {
	case []float32:
		return tv, nil
	case []float64:
		out := make([]float32, len(tv))
		for i, f := range tv {
			out[i] = float32(f)
		}
		return out, nil
	case []any:
		out := make([]float32, len(tv))
		for i, e := range tv {
			switch n := e.(type) {
			case float64:
				out[i] = float32(n)
			case float32:
				out[i] = n
			case int64:
				out[i] = float32(n)
			default:
				return nil, fmt.Errorf("semantic: vector element %d has type %T", i, e)
			}
		}
		return out, nil
	case []byte:
		if len(tv)%4 != 0 {
			return nil, fmt.Errorf("semantic: vector blob length %d not a multiple of 4", len(tv))
		}
		out := make([]float32, len(tv)/4)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(tv[i*4:]))
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("semantic: nil vector")
	default:
		return nil, fmt.Errorf("semantic: unsupported vector type %T", v)
	}
}
