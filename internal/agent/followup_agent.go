package agent

import (
	"context"
	"time"

	"sdrsolar/internal/followup"
	"sdrsolar/internal/leads/domain"
)

// followUpAgentReengage30m/24h are the two reengagement horizons: a quick
// nudge if the lead goes quiet mid-funnel, and a longer nurture touch if
// that nudge also goes unanswered.
const (
	followUpAgentReengage30m = 30 * time.Minute
	followUpAgentReengage24h = 24 * time.Hour
)

// FollowUpResult reports what, if anything, the FollowUpAgent scheduled.
type FollowUpResult struct {
	Scheduled bool
	FollowUp  followup.FollowUp
}

// FollowUpAgent decides whether this turn should schedule a future
// reengagement follow-up. It only ever schedules — sending is the
// executor's job (internal/followup), never this agent's.
// Unlike the other subagents this one is deterministic: the decision
// depends only on stage and elapsed time, not on model judgment, so it's
// grounded directly on internal/scheduler/tasks.go's plain struct-building
// task payloads rather than the ADK runner shape.
type FollowUpAgent struct {
	repo followup.Repository
}

func NewFollowUpAgent(repo followup.Repository) *FollowUpAgent {
	return &FollowUpAgent{repo: repo}
}

// Run schedules a reengagement follow-up for lead if its stage is still
// active (non-terminal), canceling the lead's pending follow-ups first so a
// lead never accumulates duplicates; for a terminal stage it only cancels.
func (a *FollowUpAgent) Run(ctx context.Context, lead domain.Lead, now time.Time) (FollowUpResult, error) {
	if domain.IsTerminal(lead.Stage) {
		_, err := a.repo.CancelPendingForLead(ctx, lead.ID)
		return FollowUpResult{}, err
	}

	kind, dueAt := followup.KindReengage30m, now.Add(followUpAgentReengage30m)
	if lead.Stage == domain.StageScheduling || lead.Stage == domain.StageScheduled {
		kind, dueAt = followup.KindReengage24h, now.Add(followUpAgentReengage24h)
	}

	if _, err := a.repo.CancelPendingForLead(ctx, lead.ID); err != nil {
		return FollowUpResult{}, err
	}

	created, err := a.repo.Create(ctx, followup.FollowUp{
		LeadID: lead.ID,
		Kind:   kind,
		DueAt:  dueAt,
		Status: followup.StatusPending,
	})
	if err != nil {
		return FollowUpResult{}, err
	}
	return FollowUpResult{Scheduled: true, FollowUp: created}, nil
}
