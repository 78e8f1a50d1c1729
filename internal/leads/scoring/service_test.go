package scoring

import (
	"testing"
	"time"

	"sdrsolar/internal/leads/domain"
)

type stubScoringConfig struct {
	minBill float64
	hotMin  float64
}

func (c stubScoringConfig) GetMinBillThreshold() float64 { return c.minBill }
func (c stubScoringConfig) GetHotScoreMin() float64      { return c.hotMin }

func TestScoreBillExactlyAtThresholdAdvances(t *testing.T) {
	svc := New(stubScoringConfig{minBill: 250, hotMin: 75})

	result := svc.Score(domain.Slots{MonthlyBillAmount: 250})
	if result.Factors["bill"] <= 0 {
		t.Fatalf("bill exactly at MIN_BILL_THRESHOLD should contribute a positive factor, got %v", result.Factors["bill"])
	}
}

func TestScoreClampedToHundred(t *testing.T) {
	svc := New(stubScoringConfig{minBill: 250, hotMin: 75})
	now := time.Now()

	result := svc.Score(domain.Slots{
		Name:                    "Joao",
		Solution:                domain.SolutionOwnPlant,
		MonthlyBillAmount:       5000,
		CompetitorDecisionKnown: true,
		ConfirmedSlotAt:         &now,
		AttendeeEmails:          []string{"joao@exemplo.com"},
		EngagementLevel:         domain.EngagementHigh,
	})

	if result.Score > 100 {
		t.Fatalf("score must be clamped to 100, got %v", result.Score)
	}
}

func TestScoreBoundaryTemperatures(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  domain.Temperature
	}{
		{"exactly 40 is warm", 40, domain.TemperatureWarm},
		{"exactly 80 is hot", 80, domain.TemperatureHot},
		{"39 is cold", 39, domain.TemperatureCold},
	}

	svc := New(stubScoringConfig{minBill: 250, hotMin: 80})
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.ClassifyTemperature(tc.score, 40, svc.hotScoreMin)
			if got != tc.want {
				t.Errorf("ClassifyTemperature(%v) = %v, want %v", tc.score, got, tc.want)
			}
		})
	}
}

func TestScoreCompetitorFactors(t *testing.T) {
	svc := New(stubScoringConfig{minBill: 250, hotMin: 75})

	noCompetitor := svc.Score(domain.Slots{CompetitorDecisionKnown: true})
	if noCompetitor.Factors["competitor"] != weightCompetitorNone {
		t.Errorf("no competitor should score %v, got %v", weightCompetitorNone, noCompetitor.Factors["competitor"])
	}

	beatenCompetitor := svc.Score(domain.Slots{
		CompetitorDecisionKnown: true,
		CompetitorName:          "Origo",
		CompetitorDiscountPct:   5,
	})
	if beatenCompetitor.Factors["competitor"] != weightCompetitorBeaten {
		t.Errorf("beatable competitor should score %v, got %v", weightCompetitorBeaten, beatenCompetitor.Factors["competitor"])
	}

	strongCompetitor := svc.Score(domain.Slots{
		CompetitorDecisionKnown: true,
		CompetitorName:          "Origo",
		CompetitorDiscountPct:   25,
	})
	if strongCompetitor.Factors["competitor"] != 0 {
		t.Errorf("strong competitor discount should score 0, got %v", strongCompetitor.Factors["competitor"])
	}
}
