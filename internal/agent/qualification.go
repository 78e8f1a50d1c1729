package agent

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/adk/model"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"sdrsolar/internal/leads/domain"
)

// QualificationDecisionKind tags the shape of QualificationResult.Payload:
// one decision per turn.
type QualificationDecisionKind string

const (
	QualificationAdvance    QualificationDecisionKind = "ADVANCE"
	QualificationBlocked    QualificationDecisionKind = "BLOCKED"
	QualificationDisqualify QualificationDecisionKind = "DISQUALIFY"
)

// QualificationResult is the tagged-union decision the orchestrator applies
// to the lead's stage and slots after a turn.
type QualificationResult struct {
	Kind          QualificationDecisionKind
	NextStage     domain.QualificationStage
	Slots         domain.Slots
	BlockedReason string
	Reply         string
}

type recordQualificationInput struct {
	Decision      string `json:"decision"` // ADVANCE, BLOCKED, DISQUALIFY
	NextStage     string `json:"nextStage"`
	Name          string `json:"name,omitempty"`
	Solution      string `json:"solution,omitempty"`
	BillAmount    float64 `json:"billAmount,omitempty"`
	Competitor    string `json:"competitorName,omitempty"`
	CompetitorPct float64 `json:"competitorDiscountPct,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Reply         string `json:"reply"`
}

type recordQualificationOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// QualificationAgent validates slot-saturation invariants and decides
// whether the lead advances, stays blocked, or is disqualified.
type QualificationAgent struct {
	rt     *runtime
	mu     sync.Mutex
	result QualificationResult
}

// NewQualificationAgent builds the agent with its single decision tool:
// one tool, one decision per run.
func NewQualificationAgent(llm model.LLM) (*QualificationAgent, error) {
	a := &QualificationAgent{}

	recordTool, err := functiontool.New(functiontool.Config{
		Name: "RecordQualificationDecision",
		Description: "Records the qualification decision for this turn: whether the lead advances to the next stage, " +
			"remains blocked on a missing slot, or is disqualified, plus any slots extracted from the message.",
	}, func(ctx tool.Context, in recordQualificationInput) (recordQualificationOutput, error) {
		return a.handleRecord(in)
	})
	if err != nil {
		return nil, fmt.Errorf("build RecordQualificationDecision tool: %w", err)
	}

	rt, err := newRuntime("QualificationAgent",
		"Validates qualification slot invariants and advances the funnel stage.",
		"You are the Qualification specialist. Decide ADVANCE, BLOCKED, or DISQUALIFY for this turn and call RecordQualificationDecision exactly once.",
		llm, []tool.Tool{recordTool})
	if err != nil {
		return nil, err
	}
	a.rt = rt
	return a, nil
}

func (a *QualificationAgent) handleRecord(in recordQualificationInput) (recordQualificationOutput, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	slots := domain.Slots{
		Name:                  in.Name,
		Solution:              domain.Solution(in.Solution),
		MonthlyBillAmount:     in.BillAmount,
		CompetitorName:        in.Competitor,
		CompetitorDiscountPct: in.CompetitorPct,
	}

	switch QualificationDecisionKind(in.Decision) {
	case QualificationAdvance, QualificationBlocked, QualificationDisqualify:
		a.result = QualificationResult{
			Kind:          QualificationDecisionKind(in.Decision),
			NextStage:     domain.QualificationStage(in.NextStage),
			Slots:         slots,
			BlockedReason: in.Reason,
			Reply:         in.Reply,
		}
		return recordQualificationOutput{Success: true, Message: "recorded"}, nil
	default:
		return recordQualificationOutput{Success: false, Message: "unknown decision kind"}, fmt.Errorf("unknown qualification decision %q", in.Decision)
	}
}

// Run evaluates one conversation turn for leadID and returns the decision
// recorded by the tool call, falling back to BLOCKED if the model never
// called the tool.
func (a *QualificationAgent) Run(ctx context.Context, leadID, promptText string) (QualificationResult, error) {
	a.mu.Lock()
	a.result = QualificationResult{}
	a.mu.Unlock()

	if err := a.rt.runPrompt(ctx, leadID, promptText); err != nil {
		return QualificationResult{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.result.Kind == "" {
		return QualificationResult{Kind: QualificationBlocked, BlockedReason: "agent did not record a decision"}, nil
	}
	return a.result, nil
}
