// Package conversation implements the Conversation Orchestrator (C7): the
// single entry point an inbound message passes through on its way to a
// reply, a stage advance, and whatever side effects that turn warrants.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/adk/model"

	"sdrsolar/internal/agent"
	"sdrsolar/internal/conversation/humanize"
	"sdrsolar/internal/events"
	leadsdomain "sdrsolar/internal/leads/domain"
	leadsrepo "sdrsolar/internal/leads/repository"
	"sdrsolar/internal/leads/scoring"
	"sdrsolar/internal/media"
	"sdrsolar/platform/config"
	"sdrsolar/platform/logger"
)

// Orchestrator runs HandleInbound for every message the webhook intake
// accepts, serializing per lead phone number.
type Orchestrator struct {
	repo        leadsrepo.Repository
	scorer      *scoring.Service
	media       *media.Pipeline
	sender      *humanize.Sender
	coordinator *coordinator
	bus         events.Bus
	log         *logger.Logger

	qualification *agent.QualificationAgent
	knowledge     *agent.KnowledgeAgent
	calendarAgent *agent.CalendarAgent
	crmAgent      *agent.CRMAgent
	billAnalyzer  *agent.BillAnalyzerAgent
	followUp      *agent.FollowUpAgent

	historyLimit int
	trimTurns    int

	mu        sync.Mutex
	leadLocks map[string]*sync.Mutex
}

// Deps bundles every collaborator the orchestrator needs; constructed
// once in bootstrap and handed to New. CoordinatorLLM is the model the
// orchestrator's own coordinator subagent uses for turns no specialist
// subagent claims.
type Deps struct {
	Repo          leadsrepo.Repository
	Scorer        *scoring.Service
	Media         *media.Pipeline
	Sender        *humanize.Sender
	Qualification *agent.QualificationAgent
	Knowledge     *agent.KnowledgeAgent
	Calendar      *agent.CalendarAgent
	CRM           *agent.CRMAgent
	BillAnalyzer  *agent.BillAnalyzerAgent
	FollowUp      *agent.FollowUpAgent
	Bus           events.Bus
	CoordinatorLLM model.LLM
	Config        config.ConversationConfig
	Log           *logger.Logger
}

func New(d Deps) (*Orchestrator, error) {
	coord, err := newCoordinator(d.CoordinatorLLM)
	if err != nil {
		return nil, fmt.Errorf("build conversation coordinator: %w", err)
	}
	return &Orchestrator{
		repo:          d.Repo,
		scorer:        d.Scorer,
		media:         d.Media,
		sender:        d.Sender,
		coordinator:   coord,
		bus:           d.Bus,
		log:           d.Log,
		qualification: d.Qualification,
		knowledge:     d.Knowledge,
		calendarAgent: d.Calendar,
		crmAgent:      d.CRM,
		billAnalyzer:  d.BillAnalyzer,
		followUp:      d.FollowUp,
		historyLimit:  d.Config.GetHistoryFetchLimit(),
		trimTurns:     d.Config.GetSessionTrimTurns(),
		leadLocks:     make(map[string]*sync.Mutex),
	}, nil
}

// HandleInbound runs the full nine-step pipeline for one inbound message:
// resolve lead/session, classify media, load context, guard rails,
// delegation, model call, post-process, reply, side effects. At most one
// HandleInbound runs at a time for a given lead phone.
func (o *Orchestrator) HandleInbound(ctx context.Context, in InboundMessage) error {
	lock := o.leadLock(in.Phone)
	lock.Lock()
	defer lock.Unlock()

	defer o.recoverPanic(in.Phone)

	// Step 1: resolve/create lead + conversation; load AgentSession.
	lead, err := o.repo.UpsertLeadByPhone(ctx, in.Phone, leadsrepo.LeadPatch{DisplayName: nonEmptyPtr(in.DisplayName)})
	if err != nil {
		return fmt.Errorf("resolve lead: %w", err)
	}
	conv, err := o.repo.GetOrCreateConversation(ctx, lead.ID)
	if err != nil {
		return fmt.Errorf("resolve conversation: %w", err)
	}
	session, err := o.repo.GetAgentSession(ctx, conv.ID)
	if err != nil {
		return fmt.Errorf("load agent session: %w", err)
	}
	session = session.TrimTurns(o.trimTurns)

	// Step 2: classify content; media goes through the ingestion pipeline
	// first so the rest of the turn sees normal text.
	effectiveText := in.Text
	var mediaFallback string
	if in.ContentType != leadsdomain.ContentText && in.MediaMessageID != "" {
		result := o.media.Ingest(ctx, in.MediaMessageID)
		switch {
		case result.Fallback != "":
			mediaFallback = result.Fallback
		case result.Transcript != "":
			effectiveText = result.Transcript
		case result.ExtractedText != "":
			effectiveText = result.ExtractedText
		}
		if result.Kind == media.KindImage || result.Kind == media.KindDocument {
			if analysis, err := o.billAnalyzer.Run(ctx, lead.ID, effectiveText); err == nil && analysis.MonthlyAmount > 0 {
				session.Slots = session.Slots.Merge(leadsdomain.Slots{MonthlyBillAmount: analysis.MonthlyAmount}, false)
			}
		}
	}

	if err := o.recordInbound(ctx, conv.ID, in, effectiveText); err != nil {
		return fmt.Errorf("record inbound message: %w", err)
	}

	if mediaFallback != "" {
		return o.reply(ctx, lead, mediaFallback)
	}
	if strings.TrimSpace(effectiveText) == "" {
		return nil
	}

	// Step 3: load context — last N messages plus working-memory slots.
	history, err := o.repo.GetConversationHistory(ctx, conv.ID, o.historyLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	// Step 4: guard rails, deterministic and pre-model.
	if term, hit := matchesForbiddenTerm(effectiveText); hit {
		o.log.Warn("guard rail triggered", "lead_id", lead.ID, "term", term)
		return o.reply(ctx, lead, guardRailRefusal)
	}

	// Step 5/6: delegation decision, then the model (or subagent) call.
	outcome, err := o.runTurn(ctx, lead, session.Slots, effectiveText, history)
	if err != nil {
		o.log.Error("conversation turn failed", "lead_id", lead.ID, "error", err)
		return o.reply(ctx, lead, "Desculpa, tive um probleminha aqui. Pode me mandar de novo?")
	}

	// Step 7: post-process — merge slots, advance stage, persist.
	session.Slots = session.Slots.Merge(outcome.slots, false)
	nextStage := lead.Stage
	if outcome.stageSuggestion != "" && outcome.stageSuggestion != lead.Stage {
		if reason := leadsdomain.ValidateStageTransition(lead.Stage, outcome.stageSuggestion); reason != "" {
			o.log.Warn("rejected stage transition", "lead_id", lead.ID, "from", lead.Stage, "to", outcome.stageSuggestion, "reason", reason)
		} else if reason := leadsdomain.ValidateSlotSaturation(outcome.stageSuggestion, session.Slots); reason != "" {
			o.log.Warn("blocked stage advance on slot saturation", "lead_id", lead.ID, "to", outcome.stageSuggestion, "reason", reason)
		} else {
			nextStage = outcome.stageSuggestion
		}
	}

	previousStage := lead.Stage
	scoreResult := o.scorer.Score(session.Slots)
	lead, err = o.repo.UpsertLeadByPhone(ctx, lead.Phone, leadsrepo.LeadPatch{
		Stage:                 &nextStage,
		Solution:              &session.Slots.Solution,
		MonthlyBillAmount:     &session.Slots.MonthlyBillAmount,
		CompetitorName:        &session.Slots.CompetitorName,
		CompetitorDiscountPct: &session.Slots.CompetitorDiscountPct,
		QualificationScore:    &scoreResult.Score,
		Temperature:           &scoreResult.Temperature,
	})
	if err != nil {
		return fmt.Errorf("persist lead: %w", err)
	}

	if err := o.repo.SaveAgentSession(ctx, session); err != nil {
		return fmt.Errorf("persist agent session: %w", err)
	}

	if nextStage != previousStage {
		o.bus.Publish(ctx, events.StageAdvanced{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			FromStage: string(previousStage),
			ToStage:   string(nextStage),
		})
		if nextStage == leadsdomain.StageLost {
			reason := outcome.disqualifyReason
			if reason == "" {
				reason = "disqualified during qualification"
			}
			o.bus.Publish(ctx, events.LeadDisqualified{
				BaseEvent: events.NewBaseEvent(),
				LeadID:    lead.ID,
				Reason:    reason,
			})
		}
	}

	// Step 8: emit the reply via the Humanized Sender.
	if outcome.reply != "" {
		if err := o.reply(ctx, lead, outcome.reply); err != nil {
			return err
		}
	}

	// Step 9: schedule side effects.
	o.scheduleSideEffects(ctx, lead, nextStage)

	return nil
}

type turnOutcome struct {
	reply            string
	slots            leadsdomain.Slots
	stageSuggestion  leadsdomain.QualificationStage
	disqualifyReason string
}

// runTurn applies the intent-classification delegation decision: a
// matching specialist subagent runs first, and only if nothing matches
// does the coordinator's own model call handle the turn.
func (o *Orchestrator) runTurn(ctx context.Context, lead leadsdomain.Lead, slots leadsdomain.Slots, text string, history []leadsdomain.Message) (turnOutcome, error) {
	switch classifyIntent(text) {
	case delegationCalendar:
		result, err := o.calendarAgent.Run(ctx, lead.ID, text)
		if err != nil {
			return turnOutcome{}, err
		}
		if result.Kind == agent.CalendarBooked || result.Kind == agent.CalendarRescheduled {
			o.bus.Publish(ctx, events.MeetingScheduled{
				BaseEvent: events.NewBaseEvent(),
				LeadID:    lead.ID,
				EventID:   result.Event.ID,
				StartTime: result.Event.StartAt,
			})
		}
		return turnOutcome{reply: result.Reply, stageSuggestion: calendarStageFor(result.Kind)}, nil

	case delegationKnowledge:
		result, err := o.knowledge.Run(ctx, lead.ID, text)
		if err != nil {
			return turnOutcome{}, err
		}
		return turnOutcome{reply: result.Answer}, nil

	case delegationBill:
		qr, err := o.qualification.Run(ctx, lead.ID, buildQualificationPrompt(slots, text, history))
		if err != nil {
			return turnOutcome{}, err
		}
		out := turnOutcome{reply: qr.Reply, slots: qr.Slots, stageSuggestion: qr.NextStage}
		if qr.Kind == agent.QualificationDisqualify {
			out.disqualifyReason = qr.BlockedReason
		}
		return out, nil

	default:
		decision, err := o.coordinator.run(ctx, lead.ID, buildCoordinatorPrompt(slots, text, history))
		if err != nil {
			return turnOutcome{}, err
		}
		return turnOutcome{reply: decision.Reply, slots: decision.Slots, stageSuggestion: decision.StageSuggestion}, nil
	}
}

func calendarStageFor(kind agent.CalendarResultKind) leadsdomain.QualificationStage {
	switch kind {
	case agent.CalendarBooked, agent.CalendarRescheduled:
		return leadsdomain.StageScheduled
	case agent.CalendarProposed:
		return leadsdomain.StageScheduling
	default:
		return ""
	}
}

func buildCoordinatorPrompt(slots leadsdomain.Slots, text string, history []leadsdomain.Message) string {
	var b strings.Builder
	b.WriteString("Known slots so far:\n")
	fmt.Fprintf(&b, "- name: %q\n- solution: %s\n- monthly bill: %.2f\n- competitor: %q (%.1f%% discount)\n",
		slots.Name, slots.Solution, slots.MonthlyBillAmount, slots.CompetitorName, slots.CompetitorDiscountPct)
	b.WriteString("\nRecent turns:\n")
	for _, m := range history {
		b.WriteString(string(m.Direction))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("\nLead just said: ")
	b.WriteString(text)
	return b.String()
}

func buildQualificationPrompt(slots leadsdomain.Slots, text string, history []leadsdomain.Message) string {
	return buildCoordinatorPrompt(slots, text, history)
}

// scheduleSideEffects hands off to the CRM/follow-up subagents that don't
// belong to the live reply path: a lead already linked to a CRM record
// gets a CRM sync, a lead in a stage where shouldUseFollowUpAgent holds
// gets a reengagement row scheduled, and a terminal lead has its pending
// follow-ups canceled.
func (o *Orchestrator) scheduleSideEffects(ctx context.Context, lead leadsdomain.Lead, stage leadsdomain.QualificationStage) {
	if lead.CRMExternalID != "" {
		if _, err := o.crmAgent.Run(ctx, lead, "Summarize this lead's current status for the CRM."); err != nil {
			o.log.Warn("crm agent run failed", "lead_id", lead.ID, "error", err)
		}
	}

	if shouldUseFollowUpAgent(stage) || leadsdomain.IsTerminal(stage) {
		if _, err := o.followUp.Run(ctx, lead, time.Now()); err != nil {
			o.log.Warn("follow-up scheduling failed", "lead_id", lead.ID, "error", err)
		}
	}
}

func (o *Orchestrator) recordInbound(ctx context.Context, conversationID string, in InboundMessage, effectiveText string) error {
	_, err := o.repo.AppendMessage(ctx, leadsdomain.Message{
		ConversationID:   conversationID,
		Direction:        leadsdomain.DirectionInbound,
		ContentType:      in.ContentType,
		Content:          effectiveText,
		Timestamp:        time.Now(),
		GatewayMessageID: in.GatewayMessageID,
	})
	if err != nil {
		return err
	}
	return o.repo.TouchConversation(ctx, conversationID, leadsdomain.ConversationActive)
}

// reply sends text through the Humanized Sender and records it as an
// outbound message.
func (o *Orchestrator) reply(ctx context.Context, lead leadsdomain.Lead, text string) error {
	if err := o.sender.Send(ctx, lead, text); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	conv, err := o.repo.GetOrCreateConversation(ctx, lead.ID)
	if err != nil {
		return err
	}
	_, err = o.repo.AppendMessage(ctx, leadsdomain.Message{
		ConversationID: conv.ID,
		Direction:      leadsdomain.DirectionOutbound,
		ContentType:    leadsdomain.ContentText,
		Content:        text,
		Timestamp:      time.Now(),
	})
	return err
}

func (o *Orchestrator) leadLock(phone string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.leadLocks[phone]
	if !ok {
		lock = &sync.Mutex{}
		o.leadLocks[phone] = lock
	}
	return lock
}

// recoverPanic: a panicking turn is logged and swallowed rather than crashing the
// webhook handler that triggered it.
func (o *Orchestrator) recoverPanic(phone string) {
	if r := recover(); r != nil {
		o.log.Error("conversation turn panicked", "phone", phone, "recovered", r)
	}
}

func nonEmptyPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
