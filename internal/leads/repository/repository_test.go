package repository

import (
	"testing"

	"sdrsolar/internal/leads/domain"
)

func TestNullableTextReturnsNilForEmptyString(t *testing.T) {
	if got := nullableText(""); got != nil {
		t.Errorf("nullableText(\"\") = %v, want nil", got)
	}
	if got := nullableText("abc"); got != "abc" {
		t.Errorf("nullableText(%q) = %v, want %q", "abc", got, "abc")
	}
}

func TestSlotsRoundTripThroughJSON(t *testing.T) {
	slots := domain.Slots{
		Name:                    "Joao",
		Solution:                domain.SolutionOwnPlant,
		MonthlyBillAmount:       850,
		CompetitorDecisionKnown: true,
		CompetitorName:          "Origo",
		CompetitorDiscountPct:   10,
		AttendeeEmails:          []string{"joao@exemplo.com"},
		EngagementLevel:         domain.EngagementHigh,
	}

	data, err := marshalSlots(slots)
	if err != nil {
		t.Fatalf("marshalSlots: %v", err)
	}

	var got domain.Slots
	if err := unmarshalSlots(data, &got); err != nil {
		t.Fatalf("unmarshalSlots: %v", err)
	}

	if got.Name != slots.Name || got.Solution != slots.Solution || got.MonthlyBillAmount != slots.MonthlyBillAmount {
		t.Errorf("round-tripped slots = %+v, want %+v", got, slots)
	}
	if len(got.AttendeeEmails) != 1 || got.AttendeeEmails[0] != "joao@exemplo.com" {
		t.Errorf("round-tripped attendee emails = %v", got.AttendeeEmails)
	}
}

func TestUnmarshalSlotsIgnoresEmptyPayload(t *testing.T) {
	var slots domain.Slots
	if err := unmarshalSlots(nil, &slots); err != nil {
		t.Fatalf("unmarshalSlots(nil) should be a no-op, got error: %v", err)
	}
}
