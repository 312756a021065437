// Package service composes the embedding provider, the corpus store and the
// OCR bridge into the retrieval engine the serving layer calls in-process.
package service

import (
	"context"
	"fmt"
	"strings"

	"videoqa/internal/domain"
	"videoqa/internal/ocr"
)

// DefaultTopK is used when a caller does not request a result count.
const DefaultTopK = 5

// Answer is the retrieval output handed to the downstream text-generation
// collaborator: the ranked chunks plus their concatenated context.
type Answer struct {
	Query   string
	OCRText string
	Results []domain.SearchResult
	Context string
}

// SystemHealth aggregates the per-subsystem modes and counts.
type SystemHealth struct {
	EmbedderName string
	EmbedderMode domain.Mode
	Store        domain.Health
}

// Engine is the hybrid retrieval engine. It holds no mutable cross-request
// state; all calls are synchronous and safe for concurrent use.
type Engine struct {
	embedder  domain.Embedder
	store     domain.Store
	extractor domain.TextExtractor
	topK      int
}

// New assembles an engine. The extractor may be nil when no OCR backend is
// configured; image queries then fail with a clear error.
func New(embedder domain.Embedder, store domain.Store, extractor domain.TextExtractor, topK int) *Engine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Engine{embedder: embedder, store: store, extractor: extractor, topK: topK}
}

// Ask embeds the query and retrieves the topK most similar chunks.
func (e *Engine) Ask(ctx context.Context, query string, topK int) (*Answer, error) {
	if topK <= 0 {
		topK = e.topK
	}
	vector, err := e.embedder.Encode(ctx, query)
	if err != nil {
		return nil, err
	}
	results, err := e.store.Search(ctx, vector, topK)
	if err != nil {
		return nil, err
	}
	return &Answer{
		Query:   query,
		Results: results,
		Context: buildContext(results),
	}, nil
}

// AskImage extracts text from the image, merges it with the optional user
// question and retrieves matching chunks. OCR soft errors (transient,
// retry-exhausted) propagate typed so the caller can suggest a retry.
func (e *Engine) AskImage(ctx context.Context, image []byte, question string, topK int) (*Answer, error) {
	if e.extractor == nil {
		return nil, fmt.Errorf("ocr is not configured")
	}
	extracted, err := e.extractor.Extract(ctx, image)
	if err != nil {
		return nil, err
	}

	query := mergeQuery(extracted, question)
	if strings.TrimSpace(query) == "" {
		// nothing recognized and nothing asked: still a valid OCR outcome
		return &Answer{OCRText: extracted}, nil
	}

	answer, err := e.Ask(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	answer.OCRText = extracted
	return answer, nil
}

// Health reports the resolved mode of each subsystem.
func (e *Engine) Health() SystemHealth {
	return SystemHealth{
		EmbedderName: e.embedder.Name(),
		EmbedderMode: e.embedder.Mode(),
		Store:        e.store.Health(),
	}
}

// mergeQuery combines recognized text with the user's question. The
// NoTextFound sentinel carries no searchable content and is dropped.
func mergeQuery(extracted, question string) string {
	if extracted == ocr.NoTextFound {
		extracted = ""
	}
	if question == "" {
		return extracted
	}
	if extracted == "" {
		return question
	}
	return extracted + " " + question
}

// buildContext concatenates the retrieved chunk texts for the downstream
// generator.
func buildContext(results []domain.SearchResult) string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Text)
	}
	return strings.Join(texts, "\n\n")
}
