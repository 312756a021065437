package domain

import "context"

// Record is one indexed transcript chunk with its precomputed embedding.
// Records are built once at store construction and never mutated afterwards.
type Record struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]string
}

// SearchResult is a matching record with its distance to the query vector.
// Distance is 1 - cosine similarity, so lower means closer.
type SearchResult struct {
	ID       string
	Text     string
	Metadata map[string]string
	Distance float64
}

// Mode reports which backend a subsystem resolved to at construction.
// Once a subsystem demotes to fallback it never re-promotes.
type Mode string

const (
	ModePrimary  Mode = "primary"
	ModeFallback Mode = "fallback"
)

// Health is a point-in-time report for a store backend.
type Health struct {
	Status     string
	Mode       Mode
	Collection string
	Count      int
}

// CollectionInfo summarizes the active collection.
type CollectionInfo struct {
	Name  string
	Count int
	Mode  Mode
}

// Embedder converts free text into a fixed-size numeric vector.
// All vectors produced by one embedder instance share a dimension.
type Embedder interface {
	Name() string
	Mode() Mode
	Dimension() int
	Encode(ctx context.Context, text string) ([]float32, error)
	EncodeAll(ctx context.Context, texts []string) ([][]float32, error)
	EncodeBatch(ctx context.Context, texts []string, batchSize int) ([][]float32, error)
}

// Store serves nearest-neighbor search over an immutable corpus of records.
type Store interface {
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
	SearchWithFilter(ctx context.Context, vector []float32, topK int, where map[string]string) ([]SearchResult, error)
	Get(ctx context.Context, ids []string) ([]Record, error)
	Peek(ctx context.Context, limit int) ([]Record, error)
	Count() int
	Mode() Mode
	Info() CollectionInfo
	Health() Health
}

// TextExtractor pulls text out of an image, typically via a remote OCR call.
type TextExtractor interface {
	Extract(ctx context.Context, image []byte) (string, error)
}
