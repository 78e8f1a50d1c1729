package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"sdrsolar/internal/calendar"
)

// CalendarResultKind tags a CalendarAgent turn: find matching slots, then act.
type CalendarResultKind string

const (
	CalendarProposed CalendarResultKind = "PROPOSED"
	CalendarBooked    CalendarResultKind = "BOOKED"
	CalendarRescheduled CalendarResultKind = "RESCHEDULED"
)

// CalendarResult is the outcome of one CalendarAgent turn.
type CalendarResult struct {
	Kind    CalendarResultKind
	Slots   []calendar.Slot
	Event   calendar.Event
	Reply   string
}

const meetingDuration = 30 * time.Minute
const slotProposalCount = 3

type findSlotsInput struct {
	FromISO8601 string `json:"fromIso8601,omitempty"`
}

type findSlotsOutput struct {
	Slots []calendar.Slot `json:"slots"`
}

type confirmBookingInput struct {
	SlotIndex      int      `json:"slotIndex"`
	AttendeeEmails []string `json:"attendeeEmails"`
	Reply          string   `json:"reply"`
}

type confirmBookingOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CalendarAgent proposes open slots and books the one the lead confirms,
// canceling any prior non-terminal meeting for the lead first (reschedule
// semantics), generalized from dispatcher.go's find-then-act tool pair.
type CalendarAgent struct {
	rt       *runtime
	provider *calendar.Provider
	repo     calendar.Repository

	mu         sync.Mutex
	leadID     string
	lastSlots  []calendar.Slot
	result     CalendarResult
}

func NewCalendarAgent(llm model.LLM, provider *calendar.Provider, repo calendar.Repository) (*CalendarAgent, error) {
	a := &CalendarAgent{provider: provider, repo: repo}

	findTool, err := functiontool.New(functiontool.Config{
		Name:        "FindOpenSlots",
		Description: "Looks up open meeting slots with the sales team starting from the given time (or now if omitted).",
	}, func(ctx tool.Context, in findSlotsInput) (findSlotsOutput, error) {
		return a.handleFindSlots(ctx, in)
	})
	if err != nil {
		return nil, fmt.Errorf("build FindOpenSlots tool: %w", err)
	}

	confirmTool, err := functiontool.New(functiontool.Config{
		Name:        "ConfirmBooking",
		Description: "Books the slot at slotIndex from the most recent FindOpenSlots call for the given attendee emails, canceling any prior pending meeting for this lead.",
	}, func(ctx tool.Context, in confirmBookingInput) (confirmBookingOutput, error) {
		return a.handleConfirm(ctx, in)
	})
	if err != nil {
		return nil, fmt.Errorf("build ConfirmBooking tool: %w", err)
	}

	rt, err := newRuntime("CalendarAgent",
		"Proposes and books meeting slots with the sales team.",
		"Find open slots with FindOpenSlots, present them, then call ConfirmBooking once the lead picks one and you have an attendee email.",
		llm, []tool.Tool{findTool, confirmTool})
	if err != nil {
		return nil, err
	}
	a.rt = rt
	return a, nil
}

func (a *CalendarAgent) handleFindSlots(ctx context.Context, in findSlotsInput) (findSlotsOutput, error) {
	from := time.Now()
	if in.FromISO8601 != "" {
		if parsed, err := time.Parse(time.RFC3339, in.FromISO8601); err == nil {
			from = parsed
		}
	}

	slots, err := a.provider.FindSlots(ctx, from, meetingDuration, slotProposalCount)
	if err != nil {
		return findSlotsOutput{}, err
	}

	a.mu.Lock()
	a.lastSlots = slots
	a.result = CalendarResult{Kind: CalendarProposed, Slots: slots}
	a.mu.Unlock()

	return findSlotsOutput{Slots: slots}, nil
}

func (a *CalendarAgent) handleConfirm(ctx context.Context, in confirmBookingInput) (confirmBookingOutput, error) {
	a.mu.Lock()
	slots := a.lastSlots
	leadID := a.leadID
	a.mu.Unlock()

	if in.SlotIndex < 0 || in.SlotIndex >= len(slots) {
		return confirmBookingOutput{Success: false, Message: "slotIndex out of range, call FindOpenSlots again"}, fmt.Errorf("slot index %d out of range", in.SlotIndex)
	}
	slot := slots[in.SlotIndex]

	kind := CalendarBooked
	if _, err := a.repo.GetNonTerminalByLeadID(ctx, leadID); err == nil {
		if err := a.repo.CancelNonTerminalForLead(ctx, leadID); err != nil {
			return confirmBookingOutput{Success: false, Message: "failed to cancel prior meeting"}, err
		}
		kind = CalendarRescheduled
	}

	remote, err := a.provider.CreateEvent(ctx, slot, in.AttendeeEmails)
	if err != nil {
		return confirmBookingOutput{Success: false, Message: "failed to create calendar event"}, err
	}

	event, err := a.repo.Create(ctx, calendar.Event{
		LeadID:          leadID,
		ExternalEventID: remote.ExternalEventID,
		StartAt:         slot.StartAt,
		EndAt:           slot.EndAt,
		AttendeeEmails:  in.AttendeeEmails,
		Status:          calendar.StatusConfirmed,
	})
	if err != nil {
		return confirmBookingOutput{Success: false, Message: "failed to persist meeting"}, err
	}

	a.mu.Lock()
	a.result = CalendarResult{Kind: kind, Event: event, Reply: in.Reply}
	a.mu.Unlock()

	return confirmBookingOutput{Success: true, Message: "booked"}, nil
}

// Run finds or books a meeting slot for leadID within one conversation
// turn, per promptText.
func (a *CalendarAgent) Run(ctx context.Context, leadID, promptText string) (CalendarResult, error) {
	a.mu.Lock()
	a.leadID = leadID
	a.lastSlots = nil
	a.result = CalendarResult{}
	a.mu.Unlock()

	if err := a.rt.runPrompt(ctx, leadID, promptText); err != nil {
		return CalendarResult{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result, nil
}
