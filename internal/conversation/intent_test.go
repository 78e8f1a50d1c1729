package conversation

import (
	"strings"
	"testing"

	leadsdomain "sdrsolar/internal/leads/domain"
)

func TestClassifyIntentCalendar(t *testing.T) {
	got := classifyIntent("Será que dá pra agendar uma visita essa semana?")
	if got != delegationCalendar {
		t.Errorf("got %v, want %v", got, delegationCalendar)
	}
}

func TestClassifyIntentKnowledge(t *testing.T) {
	got := classifyIntent("Como funciona a garantia do sistema e o financiamento?")
	if got != delegationKnowledge {
		t.Errorf("got %v, want %v", got, delegationKnowledge)
	}
}

func TestClassifyIntentBill(t *testing.T) {
	got := classifyIntent("minha fatura de energia veio muito cara esse mês")
	if got != delegationBill {
		t.Errorf("got %v, want %v", got, delegationBill)
	}
}

func TestClassifyIntentNoneForSmallTalk(t *testing.T) {
	got := classifyIntent("Oi, tudo bem?")
	if got != delegationNone {
		t.Errorf("got %v, want %v", got, delegationNone)
	}
}

func TestClassifyIntentComplexFallsToKnowledge(t *testing.T) {
	longText := strings.Repeat("eu queria entender melhor como isso tudo funciona na prática ", 4)
	got := classifyIntent(longText)
	if got != delegationKnowledge {
		t.Errorf("expected a long message to route to knowledge, got %v", got)
	}
}

func TestShouldUseFollowUpAgent(t *testing.T) {
	if !shouldUseFollowUpAgent(leadsdomain.StageDiscoveringSolution) {
		t.Error("expected DISCOVERING_SOLUTION to warrant a follow-up")
	}
	if shouldUseFollowUpAgent(leadsdomain.StageScheduled) {
		t.Error("did not expect SCHEDULED to warrant a reengagement follow-up")
	}
}
