// Package domain contains the core domain types for the risk context.
package domain

import "github.com/shopspring/decimal"

// Level classifies the severity of a flagged risk.
type Level string

const (
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Score weights per level.
const (
	WeightCritical = 100
	WeightHigh     = 25
	WeightMedium   = 5
)

// Risk is a single flagged rule violation.
type Risk struct {
	Level  Level
	Reason string
}

// Recommendation is a banded label derived purely from the score.
type Recommendation string

const (
	RecommendationRejectCritical Recommendation = "reject-critical"
	RecommendationRejectHigh     Recommendation = "reject-high"
	RecommendationCautionMedium  Recommendation = "caution-medium"
	RecommendationProceedLow     Recommendation = "proceed-low"
	RecommendationProceedMinimal Recommendation = "proceed-minimal"
)

// RecommendationForScore maps a score to its band. Boundaries are
// inclusive at 100, 50, 25 and 10.
func RecommendationForScore(score int) Recommendation {
	switch {
	case score >= 100:
		return RecommendationRejectCritical
	case score >= 50:
		return RecommendationRejectHigh
	case score >= 25:
		return RecommendationCautionMedium
	case score >= 10:
		return RecommendationProceedLow
	default:
		return RecommendationProceedMinimal
	}
}

// Assessment is the outcome of scoring one opportunity.
type Assessment struct {
	Approved       bool
	Score          int
	Risks          []Risk
	Recommendation Recommendation
}

// NewAssessment computes score, approval and recommendation from the
// flagged risks. Approval requires score < 50 and no critical risk; a
// single critical vetoes regardless of score.
func NewAssessment(risks []Risk) Assessment {
	var score, criticals int
	for _, r := range risks {
		switch r.Level {
		case LevelCritical:
			score += WeightCritical
			criticals++
		case LevelHigh:
			score += WeightHigh
		case LevelMedium:
			score += WeightMedium
		}
	}

	return Assessment{
		Approved:       score < 50 && criticals == 0,
		Score:          score,
		Risks:          risks,
		Recommendation: RecommendationForScore(score),
	}
}

// DailyStats accumulates trade outcomes for one calendar day. Owned by
// the scorer; reset lazily when the date rolls over.
type DailyStats struct {
	Day              string // YYYY-MM-DD
	TradeCount       int
	CumulativeProfit decimal.Decimal
	CumulativeLoss   decimal.Decimal
}

// NewDailyStats creates zeroed stats for a day key.
func NewDailyStats(day string) DailyStats {
	return DailyStats{
		Day:              day,
		CumulativeProfit: decimal.Zero,
		CumulativeLoss:   decimal.Zero,
	}
}

// Record applies one trade result. Profits and losses accumulate in
// separate counters; loss is stored as a positive magnitude.
func (s *DailyStats) Record(profit decimal.Decimal) {
	s.TradeCount++
	if profit.IsPositive() {
		s.CumulativeProfit = s.CumulativeProfit.Add(profit)
	} else {
		s.CumulativeLoss = s.CumulativeLoss.Add(profit.Abs())
	}
}
