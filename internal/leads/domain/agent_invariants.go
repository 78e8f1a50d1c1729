package domain

import "strings"

// HasNonEmptyValue returns true when s is non-blank after trimming.
func HasNonEmptyValue(s string) bool {
	return strings.TrimSpace(s) != ""
}

// ValidateSlotSaturation enforces the slot-saturation invariants: a stage
// advance requires the slot that gates it to already be populated.
// Returns a non-empty reason when the advance must be blocked.
func ValidateSlotSaturation(to QualificationStage, slots Slots) string {
	switch to {
	case StageDiscoveringSolution:
		if !HasNonEmptyValue(slots.Name) {
			return "cannot advance to DISCOVERING_SOLUTION without a name"
		}
	case StageCapturingBill:
		if slots.Solution == SolutionUnknown {
			return "cannot advance to CAPTURING_BILL without a chosen solution"
		}
	case StageCheckingCompetitor:
		if slots.MonthlyBillAmount <= 0 {
			return "cannot advance to CHECKING_COMPETITOR without a bill amount"
		}
	case StageScheduling:
		if !slots.CompetitorDecisionKnown {
			return "cannot advance to SCHEDULING before a competitor decision"
		}
	case StageScheduled:
		if slots.ConfirmedSlotAt == nil || len(slots.AttendeeEmails) == 0 {
			return "cannot advance to SCHEDULED without a confirmed slot and attendee emails"
		}
	}
	return ""
}
