// Package followup implements the background Follow-up Executor (C8): a
// periodic loop that drains due reengagement and reminder messages and
// sends them through the conversation's humanized sender.
package followup

import "time"

// Kind identifies what triggered a follow-up and which template applies.
type Kind string

const (
	KindReengage30m Kind = "REENGAGE_30M"
	KindReengage24h Kind = "REENGAGE_24H"
	KindNurture     Kind = "NURTURE"
	KindReminder24h Kind = "REMINDER_24H"
	KindReminder2h  Kind = "REMINDER_2H"
	KindReminder30m Kind = "REMINDER_30M"
)

// Status is a FollowUp's lifecycle state. A row leaves PENDING for SENT or
// CANCELED; a failed send puts it back to PENDING with its attempt count
// raised, and the failure that reaches maxAttempts cancels it instead.
// The executor never writes FAILED.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusSent     Status = "SENT"
	StatusCanceled Status = "CANCELED"
	StatusFailed   Status = "FAILED"
)

// maxAttempts is the number of failed sends after which a row is
// CANCELED outright.
const maxAttempts = 3

// FollowUp is a scheduled reengagement or meeting reminder.
type FollowUp struct {
	ID           string
	LeadID       string
	Kind         Kind
	DueAt        time.Time
	Status       Status
	TemplateKey  string
	AttemptCount int
	LastError    string
}

// isReengagement reports whether this follow-up reengages a dormant lead,
// as opposed to reminding about a confirmed meeting. Reengagement rows are
// canceled outright once a lead reaches a terminal stage; reminder rows are
// owned by the calendar loop instead.
func (f FollowUp) isReengagement() bool {
	switch f.Kind {
	case KindReengage30m, KindReengage24h, KindNurture:
		return true
	default:
		return false
	}
}
