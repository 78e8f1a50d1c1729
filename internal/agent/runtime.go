// Package agent implements the specialist subagents that analyze a
// conversation turn and return a typed decision for the orchestrator to
// apply: QualificationAgent, KnowledgeAgent, CalendarAgent, CRMAgent,
// BillAnalyzerAgent and FollowUpAgent. No subagent ever sends a message
// to the lead directly; they only report what happened.
package agent

import (
	"context"
	"fmt"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/genai"

	"github.com/google/uuid"
)

// runtime bundles the ADK agent/runner/session scaffolding every subagent
// needs.
type runtime struct {
	appName        string
	agent          agent.Agent
	runner         *runner.Runner
	sessionService session.Service
}

func newRuntime(appName, description, instruction string, llm model.LLM, tools []tool.Tool) (*runtime, error) {
	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        appName,
		Model:       llm,
		Description: description,
		Instruction: instruction,
		Tools:       tools,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s agent: %w", appName, err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s runner: %w", appName, err)
	}

	return &runtime{appName: appName, agent: adkAgent, runner: r, sessionService: sessionService}, nil
}

// runPrompt sends promptText through the agent in a fresh session scoped
// to leadID, draining the response stream; tool calls mutate whatever
// closure state the caller captured, there is no return value here.
func (rt *runtime) runPrompt(ctx context.Context, leadID, promptText string) error {
	sessionID := uuid.New().String()
	userID := rt.appName + "-" + leadID

	_, err := rt.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   rt.appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return fmt.Errorf("create %s session: %w", rt.appName, err)
	}
	defer func() {
		_ = rt.sessionService.Delete(ctx, &session.DeleteRequest{
			AppName:   rt.appName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	userMessage := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: promptText}},
	}

	runConfig := agent.RunConfig{StreamingMode: agent.StreamingModeNone}
	for event := range rt.runner.Run(ctx, userID, sessionID, userMessage, runConfig) {
		_ = event
	}
	return nil
}
