package calendar

import (
	"testing"
	"time"

	leadsdomain "sdrsolar/internal/leads/domain"
)

func TestReminderWindowsFireInDescendingOrder(t *testing.T) {
	if len(reminderWindows) != 3 {
		t.Fatalf("expected 3 reminder windows, got %d", len(reminderWindows))
	}
	if reminderWindows[0].lead <= reminderWindows[1].lead {
		t.Errorf("expected windows ordered from longest to shortest lead time")
	}
	if reminderWindows[1].lead <= reminderWindows[2].lead {
		t.Errorf("expected windows ordered from longest to shortest lead time")
	}
}

func TestReminderWindowSentAccessors(t *testing.T) {
	e := Event{Reminder24hSent: true, Reminder2hAttempts: 2}
	if !reminderWindows[0].sent(e) {
		t.Error("24h window should report sent=true")
	}
	if reminderWindows[1].sent(e) {
		t.Error("2h window should report sent=false")
	}
	if reminderWindows[1].attempts(e) != 2 {
		t.Errorf("2h attempts = %d, want 2", reminderWindows[1].attempts(e))
	}
}

func TestRenderReminderVariesByWindow(t *testing.T) {
	lead := leadsdomain.Lead{DisplayName: "Ana"}
	e := Event{StartAt: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)}

	got24 := renderReminder(lead, e, "24h")
	got2 := renderReminder(lead, e, "2h")
	got30 := renderReminder(lead, e, "30m")

	if got24 == got2 || got2 == got30 || got24 == got30 {
		t.Error("expected distinct copy per reminder window")
	}
}
