// Package events defines this module's domain events, re-exporting the
// bus infrastructure from platform/events so every handler and publisher
// shares one Event/Bus type regardless of which package it imports.
package events

import (
	"encoding/json"
	"time"

	platformevents "sdrsolar/platform/events"
)

// Event, Handler, HandlerFunc, and Bus are re-exports: internal modules
// only ever see this package, but the types are identical to
// platform/events' so InMemoryBus satisfies Bus without an adapter.
type (
	Event       = platformevents.Event
	BaseEvent   = platformevents.BaseEvent
	Handler     = platformevents.Handler
	HandlerFunc = platformevents.HandlerFunc
	Bus         = platformevents.Bus
)

var NewBaseEvent = platformevents.NewBaseEvent

// =============================================================================
// Lead & Conversation Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created from an inbound message.
type LeadCreated struct {
	BaseEvent
	LeadID string `json:"leadId"`
	Phone  string `json:"phone"`
	Source string `json:"source"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// StageAdvanced is published when a lead's qualification stage changes.
type StageAdvanced struct {
	BaseEvent
	LeadID     string `json:"leadId"`
	FromStage  string `json:"fromStage"`
	ToStage    string `json:"toStage"`
}

func (e StageAdvanced) EventName() string { return "leads.stage.advanced" }

// LeadDisqualified is published when a lead is marked lost or disqualified.
type LeadDisqualified struct {
	BaseEvent
	LeadID string `json:"leadId"`
	Reason string `json:"reason"`
}

func (e LeadDisqualified) EventName() string { return "leads.lead.disqualified" }

// MeetingScheduled is published when the calendar agent books a meeting slot.
type MeetingScheduled struct {
	BaseEvent
	LeadID    string    `json:"leadId"`
	EventID   string    `json:"eventId"`
	StartTime time.Time `json:"startTime"`
}

func (e MeetingScheduled) EventName() string { return "calendar.meeting.scheduled" }

// MeetingMissed is published when a scheduled meeting's window elapses
// without a confirmed check-in.
type MeetingMissed struct {
	BaseEvent
	LeadID  string `json:"leadId"`
	EventID string `json:"eventId"`
}

func (e MeetingMissed) EventName() string { return "calendar.meeting.missed" }

// FollowUpDue is published by the follow-up executor when a scheduled
// follow-up's due time is reached and claimed for delivery.
type FollowUpDue struct {
	BaseEvent
	LeadID     string `json:"leadId"`
	FollowUpID string `json:"followUpId"`
	Kind       string `json:"kind"`
}

func (e FollowUpDue) EventName() string { return "followup.due" }

// CRMSyncFailed is published when a CRM push exhausts its retry budget.
type CRMSyncFailed struct {
	BaseEvent
	LeadID string `json:"leadId"`
	Reason string `json:"reason"`
}

func (e CRMSyncFailed) EventName() string { return "crm.sync.failed" }

// AnalyticsOutboxDue is published when a claimed notification-outbox row
// reaches the front of the queue. Handlers forward it to whatever
// analytics sink the deployment wires up (a dashboard, a data warehouse
// loader); the event itself only carries the already-durable outbox
// record's identity and kind.
type AnalyticsOutboxDue struct {
	BaseEvent
	OutboxID string          `json:"outboxId"`
	LeadID   string          `json:"leadId,omitempty"`
	Kind     string          `json:"kind"`
	Payload  json.RawMessage `json:"payload"`
}

func (e AnalyticsOutboxDue) EventName() string { return "notification.outbox.due" }
