package calendar

import (
	"context"
	"fmt"
	"time"

	leadsdomain "sdrsolar/internal/leads/domain"
	leadsrepo "sdrsolar/internal/leads/repository"
	"sdrsolar/internal/metrics"
	"sdrsolar/platform/config"
	"sdrsolar/platform/logger"
)

// Sender delivers a reminder message to a lead, through the same
// humanized, per-lead-serialized send path as every other outbound
// message.
type Sender interface {
	SendFollowUp(ctx context.Context, lead leadsdomain.Lead, text string) error
}

// Service runs the two periodic loops: calendar sync and meeting
// reminders.
type Service struct {
	repo         Repository
	provider     *Provider
	leads        leadsrepo.Repository
	sender       Sender
	syncInterval time.Duration
	tickInterval time.Duration
	log          *logger.Logger
	metrics      *metrics.Registry
}

func New(repo Repository, provider *Provider, leads leadsrepo.Repository, sender Sender, cfg config.CalendarConfig, reg *metrics.Registry, log *logger.Logger) *Service {
	return &Service{
		repo:         repo,
		provider:     provider,
		leads:        leads,
		sender:       sender,
		syncInterval: cfg.GetCalendarSyncInterval(),
		tickInterval: cfg.GetReminderTickInterval(),
		log:          log,
		metrics:      reg,
	}
}

// Run blocks, driving both loops on independent tickers until ctx is
// canceled.
func (s *Service) Run(ctx context.Context) {
	syncTicker := time.NewTicker(s.syncInterval)
	reminderTicker := time.NewTicker(s.tickInterval)
	defer syncTicker.Stop()
	defer reminderTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-syncTicker.C:
			if err := s.syncOnce(ctx); err != nil {
				s.log.Warn("calendar sync failed", "error", err)
			}
		case <-reminderTicker.C:
			if err := s.remindOnce(ctx); err != nil {
				s.log.Warn("calendar reminder tick failed", "error", err)
			}
		}
	}
}

// syncOnce reconciles every upcoming local event against the provider.
// Remote always wins: a time/attendee change or cancellation on the
// provider side overwrites the local row, and the divergence is logged.
func (s *Service) syncOnce(ctx context.Context) error {
	if s.provider == nil {
		return nil
	}
	events, err := s.repo.ListUpcoming(ctx, time.Now())
	if err != nil {
		s.countSync("error")
		return fmt.Errorf("list upcoming events: %w", err)
	}

	for _, e := range events {
		remote, err := s.provider.GetEvent(ctx, e.ExternalEventID)
		if err != nil {
			s.log.Warn("calendar sync: provider lookup failed", "event_id", e.ID, "error", err)
			continue
		}
		if remote.StartAt.Equal(e.StartAt) && remote.EndAt.Equal(e.EndAt) && !remote.Canceled {
			continue
		}
		s.log.Info("calendar sync: remote diverged from local, remote wins",
			"event_id", e.ID, "local_start", e.StartAt, "remote_start", remote.StartAt, "canceled", remote.Canceled)
		if err := s.repo.ApplyRemote(ctx, e.ID, remote); err != nil {
			s.log.Warn("calendar sync: apply remote failed", "event_id", e.ID, "error", err)
		}
	}
	s.countSync("ok")
	return nil
}

func (s *Service) countSync(outcome string) {
	if s.metrics != nil {
		s.metrics.CalendarSyncRuns.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countReminder(outcome string) {
	if s.metrics != nil {
		s.metrics.RemindersSent.WithLabelValues(outcome).Inc()
	}
}

// remindOnce sends any reminder whose threshold the current tick has
// crossed. The sent flag is set only after — never before — the caller's
// claim transaction commits a successful send, so a crash between send and
// commit causes at most a duplicate reminder, never a silently skipped one.
func (s *Service) remindOnce(ctx context.Context) error {
	now := time.Now()
	return s.repo.ClaimReminderCandidates(ctx, now, func(ctx context.Context, claim *ReminderClaim, events []Event) error {
		for _, e := range events {
			for _, w := range reminderWindows {
				if w.sent(e) {
					continue
				}
				if e.StartAt.Sub(now) > w.lead {
					continue
				}
				if w.attempts(e) >= maxReminderAttempts {
					continue
				}
				if err := s.sendReminder(ctx, claim, e, w); err != nil {
					s.log.Warn("reminder send failed", "event_id", e.ID, "window", w.kind, "error", err)
				}
			}
		}
		return nil
	})
}

func (s *Service) sendReminder(ctx context.Context, claim *ReminderClaim, e Event, w reminderWindow) error {
	lead, err := s.leads.GetLeadByID(ctx, e.LeadID)
	if err != nil {
		return fmt.Errorf("lookup lead for reminder: %w", err)
	}

	text := renderReminder(lead, e, w.kind)
	if err := s.sender.SendFollowUp(ctx, lead, text); err != nil {
		s.countReminder("failed")
		if markErr := claim.MarkAttempt(ctx, e.ID, w.kind); markErr != nil {
			return markErr
		}
		return err
	}
	s.countReminder("sent")
	return claim.MarkSent(ctx, e.ID, w.kind)
}

func renderReminder(lead leadsdomain.Lead, e Event, window string) string {
	name := lead.DisplayName
	if name == "" {
		name = "tudo bem"
	}
	when := e.StartAt.Format("02/01 às 15:04")
	switch window {
	case "24h":
		return fmt.Sprintf("Oi %s! Passando para lembrar da nossa reunião amanhã, %s. Confirma presença?", name, when)
	case "2h":
		return fmt.Sprintf("Oi %s, nossa reunião é daqui a pouco, %s. Até já!", name, when)
	default:
		return fmt.Sprintf("Oi %s, nossa reunião começa em 30 minutos (%s).", name, when)
	}
}
