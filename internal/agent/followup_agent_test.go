package agent

import (
	"context"
	"testing"
	"time"

	"sdrsolar/internal/followup"
	"sdrsolar/internal/leads/domain"
)

type fakeFollowUpRepo struct {
	created   []followup.FollowUp
	canceled  []string
}

func (f *fakeFollowUpRepo) Create(ctx context.Context, fu followup.FollowUp) (followup.FollowUp, error) {
	fu.ID = "fu-1"
	f.created = append(f.created, fu)
	return fu, nil
}

func (f *fakeFollowUpRepo) ClaimAndProcess(ctx context.Context, now time.Time, batch int, fn func(ctx context.Context, claim *followup.Claim, items []followup.FollowUp) error) error {
	return nil
}

func (f *fakeFollowUpRepo) CancelPendingForLead(ctx context.Context, leadID string) (int, error) {
	f.canceled = append(f.canceled, leadID)
	return 0, nil
}

func TestFollowUpAgentSchedulesShortReengageMidFunnel(t *testing.T) {
	repo := &fakeFollowUpRepo{}
	a := NewFollowUpAgent(repo)

	lead := domain.Lead{ID: "lead-1", Stage: domain.StageDiscoveringSolution}
	result, err := a.Run(context.Background(), lead, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Scheduled {
		t.Fatal("expected a follow-up to be scheduled")
	}
	if result.FollowUp.Kind != followup.KindReengage30m {
		t.Errorf("expected KindReengage30m, got %s", result.FollowUp.Kind)
	}
}

func TestFollowUpAgentSchedulesLongReengageNearScheduling(t *testing.T) {
	repo := &fakeFollowUpRepo{}
	a := NewFollowUpAgent(repo)

	lead := domain.Lead{ID: "lead-2", Stage: domain.StageScheduling}
	result, err := a.Run(context.Background(), lead, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FollowUp.Kind != followup.KindReengage24h {
		t.Errorf("expected KindReengage24h, got %s", result.FollowUp.Kind)
	}
}

func TestFollowUpAgentCancelsPendingForTerminalStage(t *testing.T) {
	repo := &fakeFollowUpRepo{}
	a := NewFollowUpAgent(repo)

	lead := domain.Lead{ID: "lead-3", Stage: domain.StageWon}
	result, err := a.Run(context.Background(), lead, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Scheduled {
		t.Fatal("expected no follow-up scheduled for a terminal stage")
	}
	if len(repo.canceled) != 1 || repo.canceled[0] != "lead-3" {
		t.Errorf("expected CancelPendingForLead to be called for lead-3, got %v", repo.canceled)
	}
}
