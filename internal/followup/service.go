package followup

import (
	"context"
	"fmt"
	"time"

	"sdrsolar/internal/events"
	"sdrsolar/internal/metrics"
	leadsdomain "sdrsolar/internal/leads/domain"
	leadsrepo "sdrsolar/internal/leads/repository"
	"sdrsolar/platform/config"
	"sdrsolar/platform/logger"
)

// Sender delivers a follow-up message to a lead. The conversation
// package's humanized sender implements this; follow-up sends never
// interleave with a live reply for the same lead because both go through
// its per-lead serialization.
type Sender interface {
	SendFollowUp(ctx context.Context, lead leadsdomain.Lead, text string) error
}

// Service runs the periodic Follow-up Executor.
type Service struct {
	repo       Repository
	leads      leadsrepo.Repository
	sender     Sender
	bus        events.Bus
	tick       time.Duration
	batch      int
	quietStart int
	quietEnd   int
	log        *logger.Logger
	metrics    *metrics.Registry
}

func New(repo Repository, leads leadsrepo.Repository, sender Sender, bus events.Bus, cfg config.FollowUpConfig, reg *metrics.Registry, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		leads:      leads,
		sender:     sender,
		bus:        bus,
		tick:       cfg.GetFollowUpTickInterval(),
		batch:      cfg.GetFollowUpBatchSize(),
		quietStart: cfg.GetQuietHoursStart(),
		quietEnd:   cfg.GetQuietHoursEnd(),
		log:        log,
		metrics:    reg,
	}
}

// Run blocks, ticking until ctx is canceled.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := s.runOnce(ctx); err != nil {
			s.log.Warn("followup tick failed", "error", err)
		}
	}
}

// runOnce executes one pass of claim, render, send, and status-update.
func (s *Service) runOnce(ctx context.Context) error {
	now := time.Now()

	return s.repo.ClaimAndProcess(ctx, now, s.batch, func(ctx context.Context, claim *Claim, items []FollowUp) error {
		for _, item := range items {
			if err := s.processOne(ctx, claim, now, item); err != nil {
				s.log.Warn("followup item failed", "id", item.ID, "error", err)
			}
		}
		return nil
	})
}

func (s *Service) processOne(ctx context.Context, claim *Claim, now time.Time, item FollowUp) error {
	s.bus.Publish(ctx, events.FollowUpDue{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     item.LeadID,
		FollowUpID: item.ID,
		Kind:       string(item.Kind),
	})

	lead, err := s.leads.GetLeadByID(ctx, item.LeadID)
	if err != nil {
		s.countFailed(item.Kind)
		return claim.MarkFailed(ctx, item.ID, fmt.Sprintf("lookup lead: %v", err))
	}

	// Step 4: reengagements for leads that already reached a terminal
	// stage are stale intent; drop them instead of sending.
	if item.isReengagement() && leadsdomain.IsTerminal(lead.Stage) {
		return claim.Cancel(ctx, item.ID)
	}

	// Step 3: quiet hours push the send to the next window opening
	// instead of delivering it, leaving the row PENDING.
	if inQuietHours(now, s.quietStart, s.quietEnd) {
		return claim.Reschedule(ctx, item.ID, nextQuietHoursEnd(now, s.quietEnd))
	}

	text := renderTemplate(item, lead)
	if err := s.sender.SendFollowUp(ctx, lead, text); err != nil {
		s.countFailed(item.Kind)
		return claim.MarkFailed(ctx, item.ID, err.Error())
	}
	s.countProcessed(item.Kind)
	return claim.MarkSent(ctx, item.ID)
}

func (s *Service) countProcessed(kind Kind) {
	if s.metrics != nil {
		s.metrics.FollowUpsProcessed.WithLabelValues(string(kind)).Inc()
	}
}

func (s *Service) countFailed(kind Kind) {
	if s.metrics != nil {
		s.metrics.FollowUpsFailed.WithLabelValues(string(kind)).Inc()
	}
}

// inQuietHours reports whether t's local clock time falls in [start, end)
// wrapped across midnight (e.g. 20 -> 8 spans 20:00 through 07:59).
func inQuietHours(t time.Time, start, end int) bool {
	hour := t.Hour()
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// nextQuietHoursEnd returns the next occurrence of the quiet window's
// closing hour, today if t is already past midnight within the window or
// tomorrow if the window hasn't opened yet relative to end-of-day wrap.
func nextQuietHoursEnd(t time.Time, end int) time.Time {
	candidate := time.Date(t.Year(), t.Month(), t.Day(), end, 0, 0, 0, t.Location())
	if !candidate.After(t) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}
