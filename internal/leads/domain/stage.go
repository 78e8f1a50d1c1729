// Package domain provides core business rules for the leads bounded context:
// the qualification stage machine, slot invariants, and scoring inputs.
package domain

// QualificationStage is a lead's position in the qualification funnel.
type QualificationStage string

const (
	StageInitial             QualificationStage = "INITIAL"
	StageIdentifying         QualificationStage = "IDENTIFYING"
	StageDiscoveringSolution QualificationStage = "DISCOVERING_SOLUTION"
	StageCapturingBill       QualificationStage = "CAPTURING_BILL"
	StageCheckingCompetitor  QualificationStage = "CHECKING_COMPETITOR"
	StageScheduling          QualificationStage = "SCHEDULING"
	StageScheduled           QualificationStage = "SCHEDULED"
	StageAbandoned           QualificationStage = "ABANDONED"
	StageWon                 QualificationStage = "WON"
	StageLost                QualificationStage = "LOST"
)

var knownStages = map[QualificationStage]struct{}{
	StageInitial:             {},
	StageIdentifying:         {},
	StageDiscoveringSolution: {},
	StageCapturingBill:       {},
	StageCheckingCompetitor:  {},
	StageScheduling:          {},
	StageScheduled:           {},
	StageAbandoned:           {},
	StageWon:                 {},
	StageLost:                {},
}

var terminalStages = map[QualificationStage]bool{
	StageAbandoned: true,
	StageWon:       true,
	StageLost:      true,
}

// stageOrder gives each non-terminal stage its forward position in the
// funnel. Stages absent from this map (terminal ones) have no forward
// ordering and are handled separately by IsTerminal.
var stageOrder = map[QualificationStage]int{
	StageInitial:             0,
	StageIdentifying:         1,
	StageDiscoveringSolution: 2,
	StageCapturingBill:       3,
	StageCheckingCompetitor:  4,
	StageScheduling:          5,
	StageScheduled:           6,
}

func IsKnownStage(stage QualificationStage) bool {
	_, ok := knownStages[stage]
	return ok
}

// IsTerminal returns true for stages the orchestrator must no longer advance.
func IsTerminal(stage QualificationStage) bool {
	return terminalStages[stage]
}

// ValidateStageTransition enforces the monotone-forward-progress invariant:
// stage transitions never move backward through the funnel, with the single
// named exception of a confirmed meeting reverting to SCHEDULING for
// rescheduling.
//
// Returns a non-empty reason string when the transition must be rejected.
func ValidateStageTransition(from, to QualificationStage) string {
	if from == to {
		return ""
	}
	if !IsKnownStage(from) || !IsKnownStage(to) {
		return "unknown qualification stage"
	}
	if IsTerminal(from) {
		return "cannot transition out of a terminal stage"
	}
	if from == StageScheduled && to == StageScheduling {
		return "" // reschedule path
	}
	if IsTerminal(to) {
		return "" // any non-terminal stage may end in abandonment or loss
	}
	fromRank, fromOK := stageOrder[from]
	toRank, toOK := stageOrder[to]
	if !fromOK || !toOK {
		return "unknown qualification stage ordering"
	}
	if toRank < fromRank {
		return "qualification stage may not move backward"
	}
	return ""
}
