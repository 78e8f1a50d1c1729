package knowledge

import (
	"math"
	"strings"
)

// BM25 Okapi constants. No corpus search library sits in the dependency
// graph this module was grounded on, so scoring is a direct Okapi BM25
// implementation over the in-memory chunk corpus.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// lexicalIndex is a tiny in-memory BM25 index built fresh per search; the
// corpus of qualification Q&A chunks is small enough that rebuilding per
// query is cheaper than maintaining a persistent inverted index.
type lexicalIndex struct {
	docs       [][]string
	chunkIDs   []string
	df         map[string]int
	avgDocLen  float64
	totalDocs  int
}

func newLexicalIndex(chunks []Chunk) *lexicalIndex {
	idx := &lexicalIndex{df: make(map[string]int)}
	var totalLen int
	for _, c := range chunks {
		tokens := tokenize(c.SearchableText())
		idx.docs = append(idx.docs, tokens)
		idx.chunkIDs = append(idx.chunkIDs, c.ID)
		totalLen += len(tokens)
		for term := range uniqueTerms(tokens) {
			idx.df[term]++
		}
	}
	idx.totalDocs = len(chunks)
	if idx.totalDocs > 0 {
		idx.avgDocLen = float64(totalLen) / float64(idx.totalDocs)
	}
	return idx
}

// score returns BM25 relevance of the query against every indexed chunk,
// keyed by chunk ID. Scores are unnormalized; callers combine them with a
// vector score after min-max normalizing within the candidate set.
func (idx *lexicalIndex) score(query string) map[string]float64 {
	queryTerms := uniqueTerms(tokenize(query))
	scores := make(map[string]float64, idx.totalDocs)

	for i, doc := range idx.docs {
		docLen := float64(len(doc))
		termFreq := termFrequencies(doc)

		var score float64
		for term := range queryTerms {
			tf, ok := termFreq[term]
			if !ok {
				continue
			}
			df := idx.df[term]
			idf := math.Log(1 + (float64(idx.totalDocs)-float64(df)+0.5)/(float64(df)+0.5))
			denom := float64(tf) + bm25K1*(1-bm25B+bm25B*docLen/idx.avgDocLen)
			score += idf * (float64(tf) * (bm25K1 + 1)) / denom
		}
		scores[idx.chunkIDs[i]] = score
	}
	return scores
}

func tokenize(s string) []string {
	lower := strings.ToLower(s)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == 'ã' || r == 'á' || r == 'é' || r == 'í' || r == 'ó' || r == 'ú' || r == 'ç' || r == 'õ' || r == 'â' || r == 'ê')
	})
}

func uniqueTerms(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func termFrequencies(tokens []string) map[string]int {
	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	return freq
}

// normalizeScores min-max normalizes a score map into [0, 1]. A map with a
// single distinct value (or no variance) normalizes to all zeros.
func normalizeScores(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return scores
	}
	min, max := math.MaxFloat64, -math.MaxFloat64
	for _, v := range scores {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	out := make(map[string]float64, len(scores))
	spread := max - min
	for k, v := range scores {
		if spread == 0 {
			out[k] = 0
			continue
		}
		out[k] = (v - min) / spread
	}
	return out
}
