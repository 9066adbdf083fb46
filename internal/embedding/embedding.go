// Package embedding defines the vector-embedding port the learning
// engine may optionally use. No concrete provider ships in core (spec
// §1 explicit non-goal); search() scoring never depends on one being
// configured.
package embedding

import "context"

// Provider turns text into a dense vector. Implementations are external
// collaborators (e.g. an HTTP call to a hosted embedding model).
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
