// Package crm adapts lead state to an external CRM system (C11): create,
// update, note, and task operations, all best-effort and non-blocking —
// a CRM outage must never stall the qualification conversation.
package crm

import "sdrsolar/internal/leads/domain"

// Task is a follow-up action recorded against a lead in the CRM, distinct
// from this system's own FollowUp scheduling.
type Task struct {
	Title   string
	DueAt   string
	Details string
}

// stageMapping is the single source of truth translating this system's
// qualification stages into the external CRM's pipeline stage names.
// Centralizing it here means no other package ever hardcodes a CRM stage
// string.
var stageMapping = map[domain.QualificationStage]string{
	domain.StageInitial:             "new",
	domain.StageIdentifying:         "contacted",
	domain.StageDiscoveringSolution: "qualifying",
	domain.StageCapturingBill:       "qualifying",
	domain.StageCheckingCompetitor:  "qualifying",
	domain.StageScheduling:          "meeting_scheduling",
	domain.StageScheduled:           "meeting_scheduled",
	domain.StageAbandoned:           "lost",
	domain.StageWon:                 "won",
	domain.StageLost:                "lost",
}

func crmStage(stage domain.QualificationStage) string {
	if mapped, ok := stageMapping[stage]; ok {
		return mapped
	}
	return "new"
}
