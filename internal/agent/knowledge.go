package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/adk/model"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"sdrsolar/internal/knowledge"
)

// KnowledgeResult is the answer-with-sources decision, grounded on the
// teacher's advisor.go/responder.go pattern.
type KnowledgeResult struct {
	Answer  string
	Sources []string // topic keys of the chunks the answer drew from
}

type respondWithSourcesInput struct {
	Answer     string   `json:"answer"`
	TopicKeys  []string `json:"topicKeys"`
}

type respondWithSourcesOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// KnowledgeAgent answers a lead's question from the curated Q&A corpus,
// retrieving candidates itself via hybrid search before handing them to
// the model as grounding context.
type KnowledgeAgent struct {
	rt     *runtime
	search *knowledge.Service
	mu     sync.Mutex
	result KnowledgeResult
}

// NewKnowledgeAgent builds the agent with its single RespondWithSources
// tool and a reference to the hybrid search service used to ground prompts.
func NewKnowledgeAgent(llm model.LLM, search *knowledge.Service) (*KnowledgeAgent, error) {
	a := &KnowledgeAgent{search: search}

	respondTool, err := functiontool.New(functiontool.Config{
		Name:        "RespondWithSources",
		Description: "Records the answer to give the lead, citing the topic keys of the knowledge chunks it was grounded on.",
	}, func(ctx tool.Context, in respondWithSourcesInput) (respondWithSourcesOutput, error) {
		return a.handleRespond(in)
	})
	if err != nil {
		return nil, fmt.Errorf("build RespondWithSources tool: %w", err)
	}

	rt, err := newRuntime("KnowledgeAgent",
		"Answers lead questions from the curated solar Q&A corpus.",
		"Answer only from the provided knowledge chunks. If nothing is relevant, say you'll have a specialist follow up, and call RespondWithSources with an empty topicKeys list.",
		llm, []tool.Tool{respondTool})
	if err != nil {
		return nil, err
	}
	a.rt = rt
	return a, nil
}

func (a *KnowledgeAgent) handleRespond(in respondWithSourcesInput) (respondWithSourcesOutput, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result = KnowledgeResult{Answer: in.Answer, Sources: in.TopicKeys}
	return respondWithSourcesOutput{Success: true, Message: "recorded"}, nil
}

// Run retrieves grounding chunks for question, builds a grounded prompt,
// and returns the model's recorded answer.
func (a *KnowledgeAgent) Run(ctx context.Context, leadID, question string) (KnowledgeResult, error) {
	hits, err := a.search.Search(ctx, question)
	if err != nil {
		return KnowledgeResult{}, fmt.Errorf("knowledge search: %w", err)
	}

	a.mu.Lock()
	a.result = KnowledgeResult{}
	a.mu.Unlock()

	promptText := buildKnowledgePrompt(question, hits)
	if err := a.rt.runPrompt(ctx, leadID, promptText); err != nil {
		return KnowledgeResult{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result, nil
}

func buildKnowledgePrompt(question string, hits []knowledge.Result) string {
	var b strings.Builder
	b.WriteString("Lead question: ")
	b.WriteString(question)
	b.WriteString("\n\nKnowledge chunks:\n")
	for _, h := range hits {
		fmt.Fprintf(&b, "- [%s] Q: %s\n  A: %s\n", h.Chunk.TopicKey, h.Chunk.QuestionText, h.Chunk.AnswerText)
	}
	return b.String()
}
