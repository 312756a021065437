package vectorstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/philippgille/chromem-go"

	"videoqa/internal/domain"
)

// chromemStore is the primary backend: a persistent chromem-go collection
// queried read-only through its native cosine metric.
type chromemStore struct {
	db         *chromem.DB
	coll       *chromem.Collection
	collection string
}

func newChromemStore(path, collection string) (*chromemStore, error) {
	if path == "" {
		return nil, fmt.Errorf("index path is required")
	}
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open index at %s: %w", path, err)
	}
	coll := db.GetCollection(collection, nil)
	if coll == nil {
		return nil, fmt.Errorf("collection %q not found in %s", collection, path)
	}
	return &chromemStore{db: db, coll: coll, collection: collection}, nil
}

// Search returns up to topK nearest neighbors. When the collection holds
// fewer records than requested, the available ones are returned without
// error (chromem itself rejects over-asking, so topK is clamped first).
func (s *chromemStore) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	return s.SearchWithFilter(ctx, vector, topK, nil)
}

// SearchWithFilter forwards the metadata where-filter to the index natively.
func (s *chromemStore) SearchWithFilter(ctx context.Context, vector []float32, topK int, where map[string]string) ([]domain.SearchResult, error) {
	if err := validateQuery(vector, topK); err != nil {
		return nil, err
	}

	if count := s.coll.Count(); topK > count {
		topK = count
	}
	if topK == 0 {
		return nil, nil
	}

	docs, err := s.coll.QueryEmbedding(ctx, vector, topK, where, nil)
	if err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(docs))
	for _, doc := range docs {
		results = append(results, domain.SearchResult{
			ID:       doc.ID,
			Text:     doc.Content,
			Metadata: doc.Metadata,
			Distance: 1 - float64(doc.Similarity),
		})
	}
	return results, nil
}

// Get fetches records by id. Unknown ids are skipped.
func (s *chromemStore) Get(ctx context.Context, ids []string) ([]domain.Record, error) {
	records := make([]domain.Record, 0, len(ids))
	for _, id := range ids {
		doc, err := s.coll.GetByID(ctx, id)
		if err != nil {
			continue
		}
		records = append(records, domain.Record{
			ID:        doc.ID,
			Text:      doc.Content,
			Embedding: doc.Embedding,
			Metadata:  doc.Metadata,
		})
	}
	return records, nil
}

// Peek returns up to limit records, defaulting to 10. The indexed corpus
// assigns sequential 0-based string ids, so peek walks them from "0";
// records outside that convention are not reachable this way.
func (s *chromemStore) Peek(ctx context.Context, limit int) ([]domain.Record, error) {
	if limit <= 0 {
		limit = defaultPeekLimit
	}
	if count := s.coll.Count(); limit > count {
		limit = count
	}
	records := make([]domain.Record, 0, limit)
	for i := 0; i < limit; i++ {
		doc, err := s.coll.GetByID(ctx, strconv.Itoa(i))
		if err != nil {
			continue
		}
		records = append(records, domain.Record{
			ID:        doc.ID,
			Text:      doc.Content,
			Embedding: doc.Embedding,
			Metadata:  doc.Metadata,
		})
	}
	return records, nil
}

func (s *chromemStore) Count() int { return s.coll.Count() }

func (s *chromemStore) Mode() domain.Mode { return domain.ModePrimary }

func (s *chromemStore) Info() domain.CollectionInfo {
	return domain.CollectionInfo{
		Name:  s.collection,
		Count: s.coll.Count(),
		Mode:  domain.ModePrimary,
	}
}

func (s *chromemStore) Health() domain.Health {
	return domain.Health{
		Status:     "healthy",
		Mode:       domain.ModePrimary,
		Collection: s.collection,
		Count:      s.coll.Count(),
	}
}
