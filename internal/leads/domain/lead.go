package domain

import "time"

// Lead is a prospective customer identified by phone number.
type Lead struct {
	ID                    string
	Phone                 string
	DisplayName           string
	Email                 string
	Stage                 QualificationStage
	Solution              Solution
	MonthlyBillAmount     float64
	CompetitorName        string
	CompetitorDiscountPct float64
	QualificationScore    float64
	Temperature           Temperature
	CRMExternalID         string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Slots is the working-memory extracted from conversation, persisted on the
// AgentSession and consulted by slot extraction, scoring, and stage-advance
// invariants. A slot is never overwritten by extraction once non-empty,
// unless the user explicitly corrects it.
type Slots struct {
	Name                    string
	Solution                Solution
	MonthlyBillAmount       float64
	CompetitorName          string
	CompetitorDiscountPct   float64
	CompetitorDecisionKnown bool
	ConfirmedSlotAt         *time.Time
	AttendeeEmails          []string
	EngagementLevel         EngagementLevel
}

// EngagementLevel is a coarse heuristic over message length/question density
// used as a scoring input.
type EngagementLevel string

const (
	EngagementLow    EngagementLevel = "LOW"
	EngagementMedium EngagementLevel = "MEDIUM"
	EngagementHigh   EngagementLevel = "HIGH"
)

// Merge applies non-empty fields from patch onto s, never overwriting an
// already-populated field unless explicit is true (the user corrected it).
func (s Slots) Merge(patch Slots, explicit bool) Slots {
	out := s
	if patch.Name != "" && (explicit || out.Name == "") {
		out.Name = patch.Name
	}
	if patch.Solution != SolutionUnknown && (explicit || out.Solution == SolutionUnknown) {
		out.Solution = patch.Solution
	}
	if patch.MonthlyBillAmount > 0 && (explicit || out.MonthlyBillAmount == 0) {
		out.MonthlyBillAmount = patch.MonthlyBillAmount
	}
	if patch.CompetitorDecisionKnown && (explicit || !out.CompetitorDecisionKnown) {
		out.CompetitorDecisionKnown = true
		out.CompetitorName = patch.CompetitorName
		out.CompetitorDiscountPct = patch.CompetitorDiscountPct
	}
	if patch.ConfirmedSlotAt != nil && (explicit || out.ConfirmedSlotAt == nil) {
		out.ConfirmedSlotAt = patch.ConfirmedSlotAt
	}
	if len(patch.AttendeeEmails) > 0 && (explicit || len(out.AttendeeEmails) == 0) {
		out.AttendeeEmails = patch.AttendeeEmails
	}
	if patch.EngagementLevel != "" {
		out.EngagementLevel = patch.EngagementLevel
	}
	return out
}
