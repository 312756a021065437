package vectorstore

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"videoqa/internal/domain"
	"videoqa/internal/similarity"
)

// csvStore is the fallback backend: a static CSV of precomputed
// (text, embedding) rows held in memory and ranked by brute-force cosine
// similarity. The record set is built once and read-only afterwards, so
// concurrent searches need no locking.
type csvStore struct {
	records    []domain.Record
	collection string
}

func newCSVStore(path, collection string) (*csvStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fallback corpus %s: %w", path, err)
	}
	defer f.Close()

	records, err := loadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCorpus, path)
	}
	return &csvStore{records: records, collection: collection}, nil
}

// loadRecords parses the corpus CSV. Required columns are "text" and
// "embeddings" (a numeric list literal); rows with missing or unparseable
// fields are skipped silently. Surviving rows get sequential 0-based ids in
// load order.
func loadRecords(r io.Reader) ([]domain.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	var records []domain.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		text := strings.TrimSpace(field(row, cols, "text"))
		rawEmbedding := field(row, cols, "embeddings")
		if text == "" || rawEmbedding == "" {
			continue
		}
		embedding, ok := parseVector(rawEmbedding)
		if !ok {
			continue
		}

		metadata := map[string]string{}
		if v := field(row, cols, "index"); v != "" {
			metadata["index"] = v
		}
		if v := field(row, cols, "chunk_num"); v != "" {
			metadata["chunk_num"] = v
		}

		records = append(records, domain.Record{
			ID:        strconv.Itoa(len(records)),
			Text:      text,
			Embedding: embedding,
			Metadata:  metadata,
		})
	}

	if len(records) == 0 {
		return nil, ErrEmptyCorpus
	}
	return records, nil
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseVector decodes a textual list literal like "[0.1, -0.2, 0.3]".
func parseVector(raw string) ([]float32, bool) {
	var values []float32
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &values); err != nil {
		return nil, false
	}
	if len(values) == 0 {
		return nil, false
	}
	return values, true
}

// Search scores every record against the query vector and returns the topK
// most similar. A dimension-mismatched query scores -1 against every record
// rather than failing. Ties keep load order.
func (s *csvStore) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if err := validateQuery(vector, topK); err != nil {
		return nil, err
	}

	scores := make([]float64, len(s.records))
	for i, rec := range s.records {
		scores[i] = similarity.Cosine(vector, rec.Embedding)
	}

	top := similarity.TopK(scores, topK)
	results := make([]domain.SearchResult, 0, len(top))
	for _, i := range top {
		rec := s.records[i]
		results = append(results, domain.SearchResult{
			ID:       rec.ID,
			Text:     rec.Text,
			Metadata: rec.Metadata,
			Distance: 1 - scores[i],
		})
	}
	return results, nil
}

// SearchWithFilter ignores the filter in fallback mode and behaves as an
// unfiltered Search. Metadata filtering is a capability of the primary
// index that this backend does not emulate; degraded operation trades it
// away silently.
func (s *csvStore) SearchWithFilter(ctx context.Context, vector []float32, topK int, where map[string]string) ([]domain.SearchResult, error) {
	return s.Search(ctx, vector, topK)
}

// Get fetches records by id. Unknown ids are skipped.
func (s *csvStore) Get(ctx context.Context, ids []string) ([]domain.Record, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var records []domain.Record
	for _, rec := range s.records {
		if _, ok := want[rec.ID]; ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Peek returns up to limit records in load order, defaulting to 10.
func (s *csvStore) Peek(ctx context.Context, limit int) ([]domain.Record, error) {
	if limit <= 0 {
		limit = defaultPeekLimit
	}
	if limit > len(s.records) {
		limit = len(s.records)
	}
	out := make([]domain.Record, limit)
	copy(out, s.records[:limit])
	return out, nil
}

func (s *csvStore) Count() int { return len(s.records) }

func (s *csvStore) Mode() domain.Mode { return domain.ModeFallback }

func (s *csvStore) Info() domain.CollectionInfo {
	return domain.CollectionInfo{
		Name:  s.collection,
		Count: len(s.records),
		Mode:  domain.ModeFallback,
	}
}

func (s *csvStore) Health() domain.Health {
	return domain.Health{
		Status:     "healthy",
		Mode:       domain.ModeFallback,
		Collection: s.collection,
		Count:      len(s.records),
	}
}
