package knowledge

import (
	"context"
	"errors"

	"sdrsolar/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Repository persists the knowledge corpus. Vector search happens in
// Qdrant (see Service); Postgres is the source of truth for chunk text
// and is what ListAll hydrates the lexical index from.
type Repository interface {
	ListAll(ctx context.Context) ([]Chunk, error)
	Save(ctx context.Context, chunk Chunk) (Chunk, error)
	GetByTopicKey(ctx context.Context, topicKey string) (Chunk, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a pgx-backed knowledge Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) ListAll(ctx context.Context) ([]Chunk, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, topic_key, question_text, synonym_questions, answer_text, embedding, category, tags, created_at, updated_at
		FROM knowledge_chunks ORDER BY topic_key ASC
	`)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list knowledge chunks", err)
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk)
	}
	return out, rows.Err()
}

func (r *pgRepository) GetByTopicKey(ctx context.Context, topicKey string) (Chunk, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, topic_key, question_text, synonym_questions, answer_text, embedding, category, tags, created_at, updated_at
		FROM knowledge_chunks WHERE topic_key = $1
	`, topicKey)
	return scanChunk(row)
}

func (r *pgRepository) Save(ctx context.Context, chunk Chunk) (Chunk, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO knowledge_chunks (topic_key, question_text, synonym_questions, answer_text, embedding, category, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (topic_key) DO UPDATE SET
			question_text     = $2,
			synonym_questions = $3,
			answer_text       = $4,
			embedding         = $5,
			category          = $6,
			tags              = $7,
			updated_at        = now()
		RETURNING id, topic_key, question_text, synonym_questions, answer_text, embedding, category, tags, created_at, updated_at
	`,
		chunk.TopicKey, chunk.QuestionText, chunk.SynonymQuestions, chunk.AnswerText,
		pgvector.NewVector(chunk.Embedding), chunk.Category, chunk.Tags,
	)
	return scanChunk(row)
}

// row is the subset of pgx.Rows/pgx.Row shared by Scan.
type row interface {
	Scan(dest ...any) error
}

func scanChunk(r row) (Chunk, error) {
	var c Chunk
	var vector pgvector.Vector
	err := r.Scan(&c.ID, &c.TopicKey, &c.QuestionText, &c.SynonymQuestions, &c.AnswerText,
		&vector, &c.Category, &c.Tags, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Chunk{}, apperr.NotFound("knowledge chunk not found")
		}
		return Chunk{}, apperr.Wrap(apperr.KindInternal, "scan knowledge chunk", err)
	}
	c.Embedding = vector.Slice()
	return c, nil
}
