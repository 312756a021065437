// Package embedding converts text into fixed-size vectors for similarity
// search. A Provider resolves to one of two backends at construction: a
// remote learned model, or a deterministic hashing fallback when the model
// cannot be loaded.
package embedding

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"videoqa/internal/domain"
)

// ErrEmptyInput is returned when the input text is empty or every element
// of a batch is blank. It is never retried.
var ErrEmptyInput = errors.New("input text cannot be empty")

// DefaultBatchSize bounds how many inputs are sent per remote request.
const DefaultBatchSize = 32

// Config configures a Provider.
type Config struct {
	Model       string
	BaseURL     string
	APIKeyEnv   string
	Timeout     time.Duration
	FallbackDim int
}

// remoteEncoder is the slice of remoteClient the provider depends on,
// narrow enough to fake in tests.
type remoteEncoder interface {
	embed(ctx context.Context, texts []string) ([][]float32, error)
	probe(ctx context.Context) (int, error)
}

// Provider embeds text through the learned model when it loaded, or through
// the hash fallback otherwise. The mode is fixed once at construction and
// never re-checked per request; a demotion is logged once and is invisible
// to callers thereafter.
type Provider struct {
	mode     domain.Mode
	remote   remoteEncoder
	fallback *HashEmbedder
	dim      int
	name     string
}

// NewProvider builds a Provider, probing the remote model endpoint once.
// It never fails: any init problem demotes permanently to the fallback.
func NewProvider(ctx context.Context, cfg Config) *Provider {
	p := &Provider{
		mode:     domain.ModePrimary,
		fallback: NewHashEmbedder(cfg.FallbackDim),
		name:     cfg.Model,
	}

	client, err := newRemoteClient(RemoteConfig{
		BaseURL:   cfg.BaseURL,
		APIKeyEnv: cfg.APIKeyEnv,
		Model:     cfg.Model,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return p.demote(err)
	}
	dim, err := client.probe(ctx)
	if err != nil {
		return p.demote(err)
	}

	p.remote = client
	p.dim = dim
	log.Printf("embedding: model %q loaded, dimension %d", cfg.Model, dim)
	return p
}

func (p *Provider) demote(cause error) *Provider {
	p.mode = domain.ModeFallback
	p.remote = nil
	p.dim = p.fallback.Dimension()
	p.name = "fallback-hash-embedding"
	log.Printf("embedding: model unavailable (%v), using fallback hash embeddings", cause)
	return p
}

// Name returns the active model name.
func (p *Provider) Name() string { return p.name }

// Mode reports which backend the provider resolved to.
func (p *Provider) Mode() domain.Mode { return p.mode }

// Dimension returns the fixed length of produced vectors.
func (p *Provider) Dimension() int { return p.dim }

// Encode embeds a single text.
func (p *Provider) Encode(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	vectors, err := p.encode(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EncodeAll embeds a batch of texts, preserving input order. The batch is
// rejected only when it is empty or every element is blank; blank elements
// inside a non-blank batch embed to the zero vector in fallback mode.
func (p *Provider) EncodeAll(ctx context.Context, texts []string) ([][]float32, error) {
	if allBlank(texts) {
		return nil, ErrEmptyInput
	}
	return p.encode(ctx, texts)
}

// EncodeBatch embeds texts in slices of batchSize. The batch size affects
// throughput only: output values and ordering are identical for any size.
func (p *Provider) EncodeBatch(ctx context.Context, texts []string, batchSize int) ([][]float32, error) {
	if allBlank(texts) {
		return nil, ErrEmptyInput
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := p.encode(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (p *Provider) encode(ctx context.Context, texts []string) ([][]float32, error) {
	if p.mode == domain.ModePrimary {
		return p.remote.embed(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = p.fallback.Encode(t)
	}
	return vectors, nil
}

func allBlank(texts []string) bool {
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			return false
		}
	}
	return true
}
