// Package scoring computes a lead's qualification_score and temperature
// from its current slots.
package scoring

import (
	"sdrsolar/internal/leads/domain"
	"sdrsolar/platform/config"
)

// scoreVersion tracks the scoring model for debugging and analysis.
// Bump this when changing scoring logic significantly.
const scoreVersion = "sdr-v1"

// Weight caps for each additive factor. The absolute thresholds are left
// configurable via MIN_BILL_THRESHOLD / HOT_SCORE_MIN and the weights
// below.
const (
	weightName             = 10.0
	weightBillMax          = 40.0
	weightSolutionPreferred = 20.0
	weightSolutionKnown     = 10.0
	weightCompetitorNone    = 15.0
	weightCompetitorBeaten  = 20.0

	engagementLow    = 2.0
	engagementMedium = 5.0
	engagementHigh   = 10.0

	// billCeilingMultiple is the multiple of MinBillThreshold at which the
	// bill factor saturates at weightBillMax.
	billCeilingMultiple = 3.0

	// competitorBeatenThresholdPct is the competitor discount percentage
	// below which the prospect's current deal is considered weak.
	competitorBeatenThresholdPct = 10.0

	// preferredSolutions (below) lists the solutions the sales motion is
	// built around; any other known solution still scores but at the lower tier.
)

var preferredSolutions = map[domain.Solution]bool{
	domain.SolutionOwnPlant:  true,
	domain.SolutionLotRental: true,
}

// Result is the outcome of a scoring pass: the clamped score, its
// temperature classification, and a breakdown for observability.
type Result struct {
	Score       float64
	Temperature domain.Temperature
	Factors     map[string]float64
}

// Service computes qualification scores from slots. It holds no state
// beyond configuration and is safe for concurrent use.
type Service struct {
	minBillThreshold float64
	hotScoreMin      float64
	warmScoreMin     float64
}

// New constructs a scoring Service from the ambient ScoringConfig.
func New(cfg config.ScoringConfig) *Service {
	return &Service{
		minBillThreshold: cfg.GetMinBillThreshold(),
		hotScoreMin:      cfg.GetHotScoreMin(),
		warmScoreMin:     40,
	}
}

// Score computes the additive score:
//
//	score = w_name(10 if name) + w_bill(up to 40, linear in amount, full at 3x MIN_BILL_THRESHOLD)
//	      + w_solution(20 if preferred solution else 10 if known)
//	      + w_competitor(15 if none; 20 if competitor exists and their pct < threshold)
//	      + w_engagement(2/5/10 by low/medium/high)
func (s *Service) Score(slots domain.Slots) Result {
	factors := make(map[string]float64, 5)

	if domain.HasNonEmptyValue(slots.Name) {
		factors["name"] = weightName
	}

	factors["bill"] = s.scoreBill(slots.MonthlyBillAmount)
	factors["solution"] = s.scoreSolution(slots.Solution)
	factors["competitor"] = s.scoreCompetitor(slots)
	factors["engagement"] = s.scoreEngagement(slots.EngagementLevel)

	total := 0.0
	for _, v := range factors {
		total += v
	}
	total = domain.ClampScore(total)

	return Result{
		Score:       total,
		Temperature: domain.ClassifyTemperature(total, s.warmScoreMin, s.hotScoreMin),
		Factors:     factors,
	}
}

func (s *Service) scoreBill(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	ceiling := s.minBillThreshold * billCeilingMultiple
	if ceiling <= 0 {
		return weightBillMax
	}
	fraction := amount / ceiling
	if fraction > 1 {
		fraction = 1
	}
	return weightBillMax * fraction
}

func (s *Service) scoreSolution(solution domain.Solution) float64 {
	if solution == domain.SolutionUnknown {
		return 0
	}
	if preferredSolutions[solution] {
		return weightSolutionPreferred
	}
	return weightSolutionKnown
}

func (s *Service) scoreCompetitor(slots domain.Slots) float64 {
	if !slots.CompetitorDecisionKnown {
		return 0
	}
	if !domain.HasNonEmptyValue(slots.CompetitorName) {
		return weightCompetitorNone
	}
	if slots.CompetitorDiscountPct < competitorBeatenThresholdPct {
		return weightCompetitorBeaten
	}
	return 0
}

func (s *Service) scoreEngagement(level domain.EngagementLevel) float64 {
	switch level {
	case domain.EngagementHigh:
		return engagementHigh
	case domain.EngagementMedium:
		return engagementMedium
	case domain.EngagementLow:
		return engagementLow
	default:
		return 0
	}
}
