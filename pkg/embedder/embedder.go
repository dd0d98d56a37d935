// Package embedder defines the narrow external-collaborator interface the
// search-mode transports and RPC search operation consume to turn free
// text into a query vector. Embedding generation itself is out of scope —
// see SPEC_FULL.md §1.
package embedder

import "context"

// SearchEmbedder turns a text query into an embedding vector comparable to
// the vectors tools register at load time.
type SearchEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
