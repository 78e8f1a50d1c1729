// Package calendar implements the Calendar Sync & Reminder Loop (C9): a
// periodic reconciliation against an external calendar provider plus a
// 24h/2h/30m meeting-reminder tick.
package calendar

import "time"

// Status is a CalendarEvent's lifecycle state.
type Status string

const (
	StatusConfirmed   Status = "CONFIRMED"
	StatusRescheduled Status = "RESCHEDULED"
	StatusCanceled    Status = "CANCELED"
)

// maxReminderAttempts bounds per-threshold retries on send failure.
const maxReminderAttempts = 3

// Event mirrors one scheduled meeting between a lead and the sales team.
type Event struct {
	ID                  string
	LeadID              string
	ExternalEventID     string
	StartAt             time.Time
	EndAt               time.Time
	AttendeeEmails      []string
	Reminder24hSent     bool
	Reminder2hSent      bool
	Reminder30mSent     bool
	Reminder24hAttempts int
	Reminder2hAttempts  int
	Reminder30mAttempts int
	Status              Status
}

// reminderWindow names one of the three fixed thresholds a reminder fires
// at as a meeting approaches.
type reminderWindow struct {
	kind     string
	lead     time.Duration
	sent     func(Event) bool
	attempts func(Event) int
}

var reminderWindows = []reminderWindow{
	{"24h", 24 * time.Hour, func(e Event) bool { return e.Reminder24hSent }, func(e Event) int { return e.Reminder24hAttempts }},
	{"2h", 2 * time.Hour, func(e Event) bool { return e.Reminder2hSent }, func(e Event) int { return e.Reminder2hAttempts }},
	{"30m", 30 * time.Minute, func(e Event) bool { return e.Reminder30mSent }, func(e Event) int { return e.Reminder30mAttempts }},
}
