// Command backfill-embeddings re-embeds and re-upserts every stored
// knowledge chunk, for an operator to run after switching embedding
// models or after the Qdrant collection was rebuilt from scratch.
package main

import (
	"context"

	"sdrsolar/internal/knowledge"
	"sdrsolar/platform/ai/embeddings"
	"sdrsolar/platform/config"
	"sdrsolar/platform/db"
	"sdrsolar/platform/logger"
	"sdrsolar/platform/qdrant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	log := logger.New(cfg.Env)

	if !cfg.IsEmbeddingEnabled() || !cfg.IsQdrantEnabled() {
		log.Error("embeddings and qdrant must both be configured to backfill embeddings")
		return
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	embedder := embeddings.NewClient(embeddings.Config{BaseURL: cfg.GetEmbeddingAPIURL(), APIKey: cfg.GetEmbeddingAPIKey()})
	vectors := qdrant.NewClient(qdrant.Config{BaseURL: cfg.GetQdrantURL(), APIKey: cfg.GetQdrantAPIKey(), Collection: cfg.GetQdrantCollection()})
	repo := knowledge.NewRepository(pool)
	svc := knowledge.New(repo, embedder, vectors, cfg)

	count, err := svc.Reindex(ctx)
	if err != nil {
		log.Error("backfill failed", "error", err)
		panic("backfill failed: " + err.Error())
	}
	log.Info("backfill complete", "chunks_reindexed", count)
}
