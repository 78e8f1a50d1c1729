package knowledge

import "testing"

func TestLexicalIndexScoresExactMatchHighest(t *testing.T) {
	chunks := []Chunk{
		{ID: "solar-plant", QuestionText: "Como funciona uma usina propria de energia solar?"},
		{ID: "billing", QuestionText: "Qual o valor medio da minha conta de luz?"},
		{ID: "unrelated", QuestionText: "Qual o horario de atendimento?"},
	}

	idx := newLexicalIndex(chunks)
	scores := idx.score("usina propria energia solar")

	if scores["solar-plant"] <= scores["billing"] {
		t.Errorf("expected solar-plant to outscore billing: solar=%v billing=%v", scores["solar-plant"], scores["billing"])
	}
	if scores["solar-plant"] <= scores["unrelated"] {
		t.Errorf("expected solar-plant to outscore unrelated: solar=%v unrelated=%v", scores["solar-plant"], scores["unrelated"])
	}
}

func TestNormalizeScoresProducesZeroToOneRange(t *testing.T) {
	raw := map[string]float64{"a": 1, "b": 3, "c": 5}
	norm := normalizeScores(raw)

	if norm["a"] != 0 {
		t.Errorf("min value should normalize to 0, got %v", norm["a"])
	}
	if norm["c"] != 1 {
		t.Errorf("max value should normalize to 1, got %v", norm["c"])
	}
	if norm["b"] <= norm["a"] || norm["b"] >= norm["c"] {
		t.Errorf("middle value should fall strictly between bounds, got %v", norm["b"])
	}
}

func TestNormalizeScoresHandlesNoVariance(t *testing.T) {
	raw := map[string]float64{"a": 2, "b": 2}
	norm := normalizeScores(raw)
	for k, v := range norm {
		if v != 0 {
			t.Errorf("no-variance scores should normalize to 0, got %s=%v", k, v)
		}
	}
}

func TestSearchableTextIncludesSynonyms(t *testing.T) {
	c := Chunk{QuestionText: "Quanto custa?", SynonymQuestions: []string{"Qual o preco?"}}
	text := c.SearchableText()
	if text != "Quanto custa? Qual o preco?" {
		t.Errorf("unexpected searchable text: %q", text)
	}
}
