package outbox

import (
	"context"

	"sdrsolar/internal/events"
	"sdrsolar/platform/logger"
)

// Subscriber persists select domain events as durable outbox rows, so the
// scheduler's dispatcher/worker pair can fan them out to an analytics
// sink on its own schedule instead of on the publishing goroutine.
type Subscriber struct {
	repo *Repository
	log  *logger.Logger
}

// NewSubscriber builds a Subscriber and registers its handlers on bus.
// Call once at bootstrap, after both repo and bus exist.
func NewSubscriber(repo *Repository, bus events.Bus, log *logger.Logger) *Subscriber {
	s := &Subscriber{repo: repo, log: log}
	bus.Subscribe("calendar.meeting.scheduled", events.HandlerFunc(s.handleMeetingScheduled))
	bus.Subscribe("leads.stage.advanced", events.HandlerFunc(s.handleStageAdvanced))
	bus.Subscribe("crm.sync.failed", events.HandlerFunc(s.handleCRMSyncFailed))
	return s
}

func (s *Subscriber) handleMeetingScheduled(ctx context.Context, e events.Event) error {
	evt, ok := e.(events.MeetingScheduled)
	if !ok {
		return nil
	}
	_, err := s.repo.Insert(ctx, InsertParams{
		LeadID:   evt.LeadID,
		Kind:     "meeting_scheduled",
		Template: "meeting_scheduled",
		Payload:  evt,
	})
	return s.logInsertErr(err, evt.EventName())
}

func (s *Subscriber) handleStageAdvanced(ctx context.Context, e events.Event) error {
	evt, ok := e.(events.StageAdvanced)
	if !ok {
		return nil
	}
	_, err := s.repo.Insert(ctx, InsertParams{
		LeadID:   evt.LeadID,
		Kind:     "stage_advanced",
		Template: "stage_advanced",
		Payload:  evt,
	})
	return s.logInsertErr(err, evt.EventName())
}

func (s *Subscriber) handleCRMSyncFailed(ctx context.Context, e events.Event) error {
	evt, ok := e.(events.CRMSyncFailed)
	if !ok {
		return nil
	}
	_, err := s.repo.Insert(ctx, InsertParams{
		LeadID:   evt.LeadID,
		Kind:     "crm_sync_failed",
		Template: "crm_sync_failed",
		Payload:  evt,
	})
	return s.logInsertErr(err, evt.EventName())
}

func (s *Subscriber) logInsertErr(err error, eventName string) error {
	if err != nil {
		s.log.Warn("outbox insert failed", "event", eventName, "error", err)
	}
	return err
}
