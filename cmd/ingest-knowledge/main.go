// Command ingest-knowledge loads a YAML knowledge corpus file into
// Postgres and Qdrant, for an operator bootstrapping or refreshing the
// Q&A base the Knowledge Store agent searches over.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync/atomic"

	"sdrsolar/internal/knowledge"
	"sdrsolar/platform/ai/embeddings"
	"sdrsolar/platform/config"
	"sdrsolar/platform/db"
	"sdrsolar/platform/logger"
	"sdrsolar/platform/qdrant"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// ingestConcurrency bounds how many chunks are embedded and upserted at
// once, capping fan-out over per-item external API calls the same way
// other bounded worker pools in this module do.
const ingestConcurrency = 5

type corpusEntry struct {
	TopicKey         string   `yaml:"topic_key"`
	QuestionText     string   `yaml:"question"`
	SynonymQuestions []string `yaml:"synonyms"`
	AnswerText       string   `yaml:"answer"`
	Category         string   `yaml:"category"`
	Tags             []string `yaml:"tags"`
}

func main() {
	path := flag.String("path", "", "path to a YAML knowledge corpus file")
	flag.Parse()
	if *path == "" && flag.NArg() > 0 {
		*path = flag.Arg(0)
	}
	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: ingest-knowledge [-path] corpus.yaml")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	log := logger.New(cfg.Env)

	if !cfg.IsEmbeddingEnabled() || !cfg.IsQdrantEnabled() {
		log.Error("embeddings and qdrant must both be configured to ingest knowledge")
		os.Exit(1)
	}

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Error("failed to read corpus file", "path", *path, "error", err)
		os.Exit(1)
	}

	var entries []corpusEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		log.Error("failed to parse corpus file", "path", *path, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	embedder := embeddings.NewClient(embeddings.Config{BaseURL: cfg.GetEmbeddingAPIURL(), APIKey: cfg.GetEmbeddingAPIKey()})
	vectors := qdrant.NewClient(qdrant.Config{BaseURL: cfg.GetQdrantURL(), APIKey: cfg.GetQdrantAPIKey(), Collection: cfg.GetQdrantCollection()})
	repo := knowledge.NewRepository(pool)
	svc := knowledge.New(repo, embedder, vectors, cfg)

	var ingested atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ingestConcurrency)

	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			chunk := knowledge.Chunk{
				TopicKey:         entry.TopicKey,
				QuestionText:     entry.QuestionText,
				SynonymQuestions: entry.SynonymQuestions,
				AnswerText:       entry.AnswerText,
				Category:         entry.Category,
				Tags:             entry.Tags,
			}
			if _, err := svc.Ingest(gctx, chunk); err != nil {
				log.Error("failed to ingest chunk", "topic_key", entry.TopicKey, "error", err)
				return nil
			}
			ingested.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	log.Info("knowledge ingestion complete", "ingested", ingested.Load(), "total", len(entries))
}
