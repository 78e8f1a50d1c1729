package followup

import (
	"testing"
	"time"
)

func TestInQuietHoursWrapsMidnight(t *testing.T) {
	loc := time.UTC
	cases := []struct {
		hour int
		want bool
	}{
		{19, false},
		{20, true},
		{23, true},
		{0, true},
		{7, true},
		{8, false},
		{12, false},
	}
	for _, c := range cases {
		ts := time.Date(2026, 1, 1, c.hour, 0, 0, 0, loc)
		if got := inQuietHours(ts, 20, 8); got != c.want {
			t.Errorf("inQuietHours(hour=%d) = %v, want %v", c.hour, got, c.want)
		}
	}
}

func TestInQuietHoursDisabledWhenStartEqualsEnd(t *testing.T) {
	ts := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)
	if inQuietHours(ts, 9, 9) {
		t.Fatal("expected quiet hours disabled when start == end")
	}
}

func TestNextQuietHoursEndRollsToNextDay(t *testing.T) {
	ts := time.Date(2026, 1, 1, 22, 30, 0, 0, time.UTC)
	got := nextQuietHoursEnd(ts, 8)
	want := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("nextQuietHoursEnd = %v, want %v", got, want)
	}
}

func TestNextQuietHoursEndLaterSameDay(t *testing.T) {
	ts := time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC)
	got := nextQuietHoursEnd(ts, 8)
	want := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("nextQuietHoursEnd = %v, want %v", got, want)
	}
}

func TestFollowUpIsReengagement(t *testing.T) {
	cases := []struct {
		kind Kind
		want bool
	}{
		{KindReengage30m, true},
		{KindReengage24h, true},
		{KindNurture, true},
		{KindReminder24h, false},
		{KindReminder2h, false},
		{KindReminder30m, false},
	}
	for _, c := range cases {
		f := FollowUp{Kind: c.kind}
		if got := f.isReengagement(); got != c.want {
			t.Errorf("FollowUp{Kind: %s}.isReengagement() = %v, want %v", c.kind, got, c.want)
		}
	}
}
