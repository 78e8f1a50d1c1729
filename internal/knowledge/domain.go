// Package knowledge answers lead questions from a curated Q&A corpus using
// hybrid lexical + vector retrieval.
package knowledge

import "time"

// Chunk is a single retrievable unit of the knowledge corpus: a canonical
// question, its accepted synonyms, and the answer to surface.
type Chunk struct {
	ID               string
	TopicKey         string
	QuestionText     string
	SynonymQuestions []string
	AnswerText       string
	Embedding        []float32
	Category         string
	Tags             []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SearchableText is the text indexed for lexical scoring: the question
// plus its synonyms, which is where a lead's phrasing is most likely to
// overlap.
func (c Chunk) SearchableText() string {
	text := c.QuestionText
	for _, s := range c.SynonymQuestions {
		text += " " + s
	}
	return text
}

// Result is a scored retrieval hit.
type Result struct {
	Chunk        Chunk
	CosineScore  float64
	LexicalScore float64
	HybridScore  float64
}
