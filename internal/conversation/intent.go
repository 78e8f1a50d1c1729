package conversation

import (
	"strings"
	"unicode"

	leadsdomain "sdrsolar/internal/leads/domain"
)

// delegation is which specialist subagent (if any) should handle this
// turn instead of the coordinator's own model call.
type delegation string

const (
	delegationNone      delegation = ""
	delegationCalendar  delegation = "CALENDAR"
	delegationFollowUp  delegation = "FOLLOW_UP"
	delegationBill      delegation = "BILL"
	delegationKnowledge delegation = "KNOWLEDGE"
)

// keyword sets scored as an intent-category vote: tally each delegation's
// keyword hits and route to the highest count.
var (
	calendarKeywords = []string{
		"agendar", "agenda", "marcar", "horário", "horario", "reunião", "reuniao",
		"visita", "disponibilidade", "remarcar", "reagendar",
	}
	billKeywords = []string{
		"conta de luz", "fatura", "kwh", "conta de energia", "valor da conta", "boleto de luz",
	}
	competitorKeywords = []string{
		"outra empresa", "concorrente", "já tenho", "ja tenho", "proposta de",
	}
	knowledgeDeepKeywords = []string{
		"como funciona", "o que é", "o que e", "garantia", "manutenção", "manutencao",
		"financiamento", "instalação", "instalacao", "payback", "retorno do investimento",
	}
)

const (
	complexityLongMessageChars = 220
	complexityQuestionMarks    = 2
)

// classifyIntent scores an inbound message against each keyword set and
// returns the best-matching delegation, or delegationNone if nothing
// scores and the turn isn't otherwise complex enough to route away from
// the coordinator.
func classifyIntent(text string) delegation {
	lower := strings.ToLower(text)

	scores := map[delegation]int{
		delegationCalendar:  countKeywords(lower, calendarKeywords),
		delegationBill:      countKeywords(lower, billKeywords),
		delegationKnowledge: countKeywords(lower, knowledgeDeepKeywords) + countKeywords(lower, competitorKeywords),
	}

	best := delegationNone
	bestScore := 0
	for d, score := range scores {
		if score > bestScore {
			best = d
			bestScore = score
		}
	}
	if best != delegationNone {
		return best
	}
	if isComplex(text) {
		return delegationKnowledge
	}
	return delegationNone
}

func countKeywords(text string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			count++
		}
	}
	return count
}

// isComplex flags a turn as worth a grounded knowledge lookup rather
// than a plain coordinator reply: a long message or one asking several
// questions at once tends to need more than small talk.
func isComplex(text string) bool {
	if len([]rune(text)) >= complexityLongMessageChars {
		return true
	}
	return strings.Count(text, "?") >= complexityQuestionMarks
}

// shouldUseFollowUpAgent reports whether the post-processing step
// should hand this turn to the FollowUpAgent: the lead's stage is one
// of the two the coordinator uses to schedule a reengagement nudge.
func shouldUseFollowUpAgent(stage leadsdomain.QualificationStage) bool {
	return stage == leadsdomain.StageDiscoveringSolution || stage == leadsdomain.StageCapturingBill
}

// isWordBoundary reports whether r is not a letter/digit, so a matched
// term doesn't count if it's glued to surrounding word characters.
func isWordBoundary(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
