package crm

import (
	"testing"

	"sdrsolar/internal/leads/domain"
)

func TestCRMStageMapsEveryKnownStage(t *testing.T) {
	stages := []domain.QualificationStage{
		domain.StageInitial, domain.StageIdentifying, domain.StageDiscoveringSolution,
		domain.StageCapturingBill, domain.StageCheckingCompetitor, domain.StageScheduling,
		domain.StageScheduled, domain.StageAbandoned, domain.StageWon, domain.StageLost,
	}
	for _, stage := range stages {
		if got := crmStage(stage); got == "" {
			t.Errorf("crmStage(%s) returned empty string", stage)
		}
	}
}

func TestCRMStageFallsBackToNewForUnknownStage(t *testing.T) {
	if got := crmStage(domain.QualificationStage("SOMETHING_NEW")); got != "new" {
		t.Errorf("crmStage(unknown) = %q, want \"new\"", got)
	}
}
