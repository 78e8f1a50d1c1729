package knowledge

import (
	"context"
	"sort"

	"sdrsolar/platform/ai/embeddings"
	"sdrsolar/platform/apperr"
	"sdrsolar/platform/config"
	"sdrsolar/platform/qdrant"
)

// Service answers a lead's question by combining BM25 lexical scoring with
// Qdrant's server-side cosine similarity.
type Service struct {
	repo       Repository
	embedder   *embeddings.Client
	vectors    *qdrant.Client
	alpha      float64
	topK       int
	minScore   float64
}

// New constructs the hybrid Knowledge Store service.
func New(repo Repository, embedder *embeddings.Client, vectors *qdrant.Client, cfg config.ConversationConfig) *Service {
	return &Service{
		repo:     repo,
		embedder: embedder,
		vectors:  vectors,
		alpha:    cfg.GetHybridAlpha(),
		topK:     cfg.GetKnowledgeTopK(),
		minScore: cfg.GetKnowledgeMinScore(),
	}
}

// Search answers a free-text question with the best-matching chunks,
// ranked by hybrid score descending, filtered to a configured minimum.
func (s *Service) Search(ctx context.Context, query string) ([]Result, error) {
	chunks, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list knowledge chunks", err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "embed query", err)
	}

	cosineByID, err := s.cosineScores(ctx, vector, len(chunks))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "vector search", err)
	}

	lexical := newLexicalIndex(chunks).score(query)
	lexicalNorm := normalizeScores(lexical)

	byID := make(map[string]Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}

	results := make([]Result, 0, len(chunks))
	for id, chunk := range byID {
		cosine := cosineByID[id]
		lex := lexicalNorm[id]
		hybrid := s.alpha*cosine + (1-s.alpha)*lex
		results = append(results, Result{
			Chunk:        chunk,
			CosineScore:  cosine,
			LexicalScore: lex,
			HybridScore:  hybrid,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].HybridScore > results[j].HybridScore
	})

	filtered := make([]Result, 0, s.topK)
	for _, r := range results {
		if r.HybridScore < s.minScore {
			continue
		}
		filtered = append(filtered, r)
		if len(filtered) >= s.topK {
			break
		}
	}
	return filtered, nil
}

func (s *Service) cosineScores(ctx context.Context, vector []float32, limit int) (map[string]float64, error) {
	hits, err := s.vectors.Search(ctx, vector, limit)
	if err != nil {
		return nil, err
	}
	scores := make(map[string]float64, len(hits))
	for _, hit := range hits {
		id, ok := hit.ID.(string)
		if !ok {
			continue
		}
		scores[id] = hit.Score
	}
	return scores, nil
}

// Ingest stores a new chunk and its embedding in both Postgres (source of
// truth, full text) and Qdrant (vector search), grounded on the same
// two-write pattern the media pipeline uses for objects plus metadata.
func (s *Service) Ingest(ctx context.Context, chunk Chunk) (Chunk, error) {
	vector, err := s.embedder.Embed(ctx, chunk.SearchableText())
	if err != nil {
		return Chunk{}, apperr.Wrap(apperr.KindInternal, "embed chunk", err)
	}
	chunk.Embedding = vector

	saved, err := s.repo.Save(ctx, chunk)
	if err != nil {
		return Chunk{}, apperr.Wrap(apperr.KindInternal, "save knowledge chunk", err)
	}

	if err := s.vectors.Upsert(ctx, saved.ID, saved.Embedding, map[string]interface{}{
		"topic_key": saved.TopicKey,
		"category":  saved.Category,
	}); err != nil {
		return Chunk{}, apperr.Wrap(apperr.KindInternal, "upsert knowledge vector", err)
	}
	return saved, nil
}

// Reindex recomputes and re-upserts the embedding for every stored chunk,
// for an operator to run after switching embedding models or after a
// Qdrant collection was rebuilt from scratch.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	chunks, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "list knowledge chunks", err)
	}

	for _, chunk := range chunks {
		vector, err := s.embedder.Embed(ctx, chunk.SearchableText())
		if err != nil {
			return 0, apperr.Wrap(apperr.KindInternal, "embed chunk", err)
		}
		chunk.Embedding = vector

		saved, err := s.repo.Save(ctx, chunk)
		if err != nil {
			return 0, apperr.Wrap(apperr.KindInternal, "save knowledge chunk", err)
		}
		if err := s.vectors.Upsert(ctx, saved.ID, saved.Embedding, map[string]interface{}{
			"topic_key": saved.TopicKey,
			"category":  saved.Category,
		}); err != nil {
			return 0, apperr.Wrap(apperr.KindInternal, "upsert knowledge vector", err)
		}
	}
	return len(chunks), nil
}
