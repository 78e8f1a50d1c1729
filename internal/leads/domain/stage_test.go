package domain

import "testing"

func TestValidateStageTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     QualificationStage
		to       QualificationStage
		wantFail bool
	}{
		{"same stage is a no-op", StageIdentifying, StageIdentifying, false},
		{"forward one step", StageInitial, StageIdentifying, false},
		{"forward skipping steps", StageInitial, StageScheduling, false},
		{"backward is rejected", StageCapturingBill, StageIdentifying, true},
		{"terminal is a dead end", StageLost, StageIdentifying, true},
		{"any stage may end in lost", StageCheckingCompetitor, StageLost, false},
		{"any stage may end in abandoned", StageDiscoveringSolution, StageAbandoned, false},
		{"reschedule loop is allowed", StageScheduled, StageScheduling, false},
		{"scheduled forward to won", StageScheduled, StageWon, false},
		{"unknown stage rejected", QualificationStage("BOGUS"), StageIdentifying, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reason := ValidateStageTransition(tc.from, tc.to)
			if tc.wantFail && reason == "" {
				t.Errorf("ValidateStageTransition(%q, %q) should have failed", tc.from, tc.to)
			}
			if !tc.wantFail && reason != "" {
				t.Errorf("ValidateStageTransition(%q, %q) unexpected failure: %s", tc.from, tc.to, reason)
			}
		})
	}
}

func TestClassifyTemperature(t *testing.T) {
	tests := []struct {
		score float64
		want  Temperature
	}{
		{0, TemperatureCold},
		{39.9, TemperatureCold},
		{40, TemperatureWarm},
		{79.9, TemperatureWarm},
		{80, TemperatureHot},
		{100, TemperatureHot},
	}

	for _, tc := range tests {
		got := ClassifyTemperature(tc.score, 40, 80)
		if got != tc.want {
			t.Errorf("ClassifyTemperature(%v) = %v, want %v", tc.score, got, tc.want)
		}
	}
}

func TestSlotsMergeNeverOverwritesWithoutExplicitCorrection(t *testing.T) {
	base := Slots{Name: "Joao"}
	patch := Slots{Name: "Carlos"}

	merged := base.Merge(patch, false)
	if merged.Name != "Joao" {
		t.Errorf("Merge without explicit correction overwrote Name: got %q", merged.Name)
	}

	corrected := base.Merge(patch, true)
	if corrected.Name != "Carlos" {
		t.Errorf("Merge with explicit correction did not apply patch: got %q", corrected.Name)
	}
}
