package agent

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/adk/model"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"sdrsolar/internal/crm"
	"sdrsolar/internal/leads/domain"
)

// CRMResult reports the note and optional task the CRMAgent recorded; the
// stage sync that Run performs before the prompt is not part of it.
type CRMResult struct {
	NoteText string
	Task     *crm.Task
}

type submitCRMUpdateInput struct {
	NoteText  string `json:"noteText"`
	TaskTitle string `json:"taskTitle,omitempty"`
	TaskDueAt string `json:"taskDueAt,omitempty"`
}

type submitCRMUpdateOutput struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CRMAgent decides what to record in the external CRM for this turn and
// pushes it through the best-effort crm.Client; a CRM outage here never
// fails Run, since crm.Client logs and swallows its own failures.
type CRMAgent struct {
	rt     *runtime
	client *crm.Client

	mu     sync.Mutex
	lead   domain.Lead
	result CRMResult
}

func NewCRMAgent(llm model.LLM, client *crm.Client) (*CRMAgent, error) {
	a := &CRMAgent{client: client}

	submitTool, err := functiontool.New(functiontool.Config{
		Name:        "SubmitCRMUpdate",
		Description: "Records a note (and optionally a follow-up task) to push into the external CRM for this lead.",
	}, func(ctx tool.Context, in submitCRMUpdateInput) (submitCRMUpdateOutput, error) {
		return a.handleSubmit(ctx, in)
	})
	if err != nil {
		return nil, fmt.Errorf("build SubmitCRMUpdate tool: %w", err)
	}

	rt, err := newRuntime("CRMAgent",
		"Summarizes this turn into a CRM note and, if warranted, a task.",
		"Write a short note for the sales team's CRM summarizing this turn. Only include a task when a human needs to act. Call SubmitCRMUpdate exactly once.",
		llm, []tool.Tool{submitTool})
	if err != nil {
		return nil, err
	}
	a.rt = rt
	return a, nil
}

func (a *CRMAgent) handleSubmit(ctx context.Context, in submitCRMUpdateInput) (submitCRMUpdateOutput, error) {
	a.mu.Lock()
	lead := a.lead
	a.mu.Unlock()

	var task *crm.Task
	if in.TaskTitle != "" {
		task = &crm.Task{Title: in.TaskTitle, DueAt: in.TaskDueAt}
	}

	a.client.AddNote(ctx, lead, in.NoteText)
	if task != nil {
		a.client.CreateTask(ctx, lead, *task)
	}

	a.mu.Lock()
	a.result = CRMResult{NoteText: in.NoteText, Task: task}
	a.mu.Unlock()

	return submitCRMUpdateOutput{Status: "ok", Message: "recorded"}, nil
}

// Run syncs the lead's current stage snapshot to the CRM, then summarizes
// one turn for lead into a CRM note/task. The stage sync always runs,
// whether or not the model goes on to write a note.
func (a *CRMAgent) Run(ctx context.Context, lead domain.Lead, promptText string) (CRMResult, error) {
	a.mu.Lock()
	a.lead = lead
	a.result = CRMResult{}
	a.mu.Unlock()

	a.client.SyncLead(ctx, lead)
	a.client.AdvanceStage(ctx, lead, lead.Stage)

	if err := a.rt.runPrompt(ctx, lead.ID, promptText); err != nil {
		return CRMResult{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result, nil
}
