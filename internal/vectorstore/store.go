// Package vectorstore serves nearest-neighbor search over the transcript
// corpus. The primary backend is a persistent chromem-go collection; when it
// cannot be opened the store falls back to an in-memory corpus loaded from a
// CSV of precomputed embeddings. The mode is decided once at construction
// and never revisited.
package vectorstore

import (
	"errors"
	"log"

	"videoqa/internal/domain"
)

var (
	// ErrEmptyQuery is returned for an empty query vector.
	ErrEmptyQuery = errors.New("query embedding cannot be empty")

	// ErrInvalidTopK is returned when fewer than one result is requested.
	ErrInvalidTopK = errors.New("topK must be at least 1")

	// ErrEmptyCorpus means the fallback CSV yielded no usable records. The
	// store cannot serve and construction fails.
	ErrEmptyCorpus = errors.New("no valid embeddings found in fallback corpus")
)

// defaultPeekLimit is the sample size Peek uses when no limit is given.
const defaultPeekLimit = 10

// Config locates the primary index and the fallback corpus.
type Config struct {
	// Path is the directory of the persistent chromem-go database.
	Path string
	// Collection is the name of the indexed transcript collection.
	Collection string
	// CSVPath is the fallback corpus of precomputed (text, embedding) rows.
	CSVPath string
}

// New opens the primary index, or falls back to the CSV corpus when the
// index cannot be opened. Fallback demotion is permanent for the process
// lifetime and logged once; a failing fallback load is fatal.
func New(cfg Config) (domain.Store, error) {
	primary, err := newChromemStore(cfg.Path, cfg.Collection)
	if err == nil {
		log.Printf("vectorstore: index connected, %d chunks in %q", primary.Count(), cfg.Collection)
		return primary, nil
	}

	log.Printf("vectorstore: index unavailable (%v), falling back to CSV corpus %s", err, cfg.CSVPath)
	fallback, err := newCSVStore(cfg.CSVPath, cfg.Collection)
	if err != nil {
		return nil, err
	}
	log.Printf("vectorstore: fallback corpus loaded with %d records", fallback.Count())
	return fallback, nil
}

func validateQuery(vector []float32, topK int) error {
	if len(vector) == 0 {
		return ErrEmptyQuery
	}
	if topK < 1 {
		return ErrInvalidTopK
	}
	return nil
}
