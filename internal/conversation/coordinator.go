package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
	"google.golang.org/genai"

	"github.com/google/uuid"

	leadsdomain "sdrsolar/internal/leads/domain"
)

const coordinatorAppName = "ConversationCoordinator"

const coordinatorInstruction = `You are Ana, a friendly solar-energy sales development rep chatting over WhatsApp.
You qualify leads by gathering: their name, which solar solution fits them, their monthly
electricity bill, whether they already have a competing proposal, and eventually a meeting slot.
Write warm, short, natural Portuguese messages - never more than a couple of sentences.
Never ask for CPF, RG, or banking details.
Call RespondToLead exactly once with your reply and whatever slots you learned this turn.`

// coordinatorDecision is the structured response the coordinator records
// for the orchestrator to apply: the reply text plus any slot updates,
// a stage suggestion, and a next-action hint.
type coordinatorDecision struct {
	Reply           string
	Slots           leadsdomain.Slots
	StageSuggestion leadsdomain.QualificationStage
	NextActionHint  string
}

type respondToLeadInput struct {
	Reply                   string   `json:"reply"`
	Name                    string   `json:"name,omitempty"`
	Solution                string   `json:"solution,omitempty"`
	MonthlyBillAmount       float64  `json:"monthlyBillAmount,omitempty"`
	CompetitorName          string   `json:"competitorName,omitempty"`
	CompetitorDiscountPct   float64  `json:"competitorDiscountPct,omitempty"`
	CompetitorDecisionKnown bool     `json:"competitorDecisionKnown,omitempty"`
	EngagementLevel         string   `json:"engagementLevel,omitempty"`
	StageSuggestion         string   `json:"stageSuggestion,omitempty"`
	NextActionHint          string   `json:"nextActionHint,omitempty"`
}

type respondToLeadOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// coordinator is the conversation's own small ADK runtime: distinct from
// every internal/agent specialist, it handles any turn that isn't routed
// to a subagent by intent classification, producing the persona-driven
// reply plus any slot extraction and stage suggestion for that turn.
type coordinator struct {
	appName        string
	agent          agent.Agent
	runner         *runner.Runner
	sessionService session.Service

	mu     sync.Mutex
	result coordinatorDecision
}

func newCoordinator(llm model.LLM) (*coordinator, error) {
	c := &coordinator{appName: coordinatorAppName}

	respondTool, err := functiontool.New(functiontool.Config{
		Name:        "RespondToLead",
		Description: "Records the reply to send the lead this turn, along with any slots learned and a stage suggestion.",
	}, func(ctx tool.Context, in respondToLeadInput) (respondToLeadOutput, error) {
		return c.handleRespond(in)
	})
	if err != nil {
		return nil, fmt.Errorf("build RespondToLead tool: %w", err)
	}

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        coordinatorAppName,
		Model:       llm,
		Description: "Drives the qualification conversation when no specialist subagent is a better fit for the turn.",
		Instruction: coordinatorInstruction,
		Tools:       []tool.Tool{respondTool},
	})
	if err != nil {
		return nil, fmt.Errorf("create coordinator agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        coordinatorAppName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("create coordinator runner: %w", err)
	}

	c.agent = adkAgent
	c.runner = r
	c.sessionService = sessionService
	return c, nil
}

func (c *coordinator) handleRespond(in respondToLeadInput) (respondToLeadOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slots := leadsdomain.Slots{
		Name:                    in.Name,
		Solution:                leadsdomain.Solution(strings.ToUpper(in.Solution)),
		MonthlyBillAmount:       in.MonthlyBillAmount,
		CompetitorName:          in.CompetitorName,
		CompetitorDiscountPct:   in.CompetitorDiscountPct,
		CompetitorDecisionKnown: in.CompetitorDecisionKnown,
		EngagementLevel:         leadsdomain.EngagementLevel(strings.ToUpper(in.EngagementLevel)),
	}
	if !leadsdomain.IsKnownSolution(slots.Solution) {
		slots.Solution = leadsdomain.SolutionUnknown
	}

	c.result = coordinatorDecision{
		Reply:           in.Reply,
		Slots:           slots,
		StageSuggestion: leadsdomain.QualificationStage(strings.ToUpper(in.StageSuggestion)),
		NextActionHint:  in.NextActionHint,
	}
	return respondToLeadOutput{Success: true, Message: "recorded"}, nil
}

// run sends promptText to the coordinator model in a fresh session
// scoped to leadID, and returns whatever RespondToLead recorded,
// falling back to a safe apology if the model never called its tool.
func (c *coordinator) run(ctx context.Context, leadID, promptText string) (coordinatorDecision, error) {
	c.mu.Lock()
	c.result = coordinatorDecision{}
	c.mu.Unlock()

	sessionID := uuid.New().String()
	userID := c.appName + "-" + leadID

	_, err := c.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   c.appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return coordinatorDecision{}, fmt.Errorf("create coordinator session: %w", err)
	}
	defer func() {
		_ = c.sessionService.Delete(ctx, &session.DeleteRequest{
			AppName:   c.appName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	userMessage := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: promptText}},
	}
	runConfig := agent.RunConfig{StreamingMode: agent.StreamingModeNone}
	for event := range c.runner.Run(ctx, userID, sessionID, userMessage, runConfig) {
		_ = event
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result.Reply == "" {
		return coordinatorDecision{
			Reply: "Desculpa, tive um problema por aqui. Pode repetir sua mensagem?",
		}, nil
	}
	return c.result, nil
}
