package app

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	arbdomain "github.com/LaurieHoff/MEVBot/business/arbitrage/domain"
	"github.com/LaurieHoff/MEVBot/business/risk/domain"
	"github.com/LaurieHoff/MEVBot/internal/logger"
	"github.com/LaurieHoff/MEVBot/internal/token"
)

func defaultConfig() ScorerConfig {
	return ScorerConfig{
		MinProfitThreshold:    decimal.NewFromFloat(0.01), // 1%
		MaxSlippageTolerance:  decimal.NewFromFloat(0.5),  // 0.5%
		MaxGasPriceGwei:       decimal.NewFromInt(100),
		MaxTradeSize:          decimal.NewFromInt(1),
		MaxDailyLoss:          decimal.NewFromFloat(0.5),
		SuspiciousProfitBound: decimal.NewFromInt(10),
	}
}

func opportunityWithProfit(t *testing.T, profitPercent string) arbdomain.Opportunity {
	t.Helper()
	weth := token.New("WETH", common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), 18)
	dai := token.New("DAI", common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), 18)

	p, err := decimal.NewFromString(profitPercent)
	if err != nil {
		t.Fatalf("invalid profit fixture: %s", profitPercent)
	}

	return arbdomain.Opportunity{
		PoolA:         arbdomain.PoolLeg{PoolAddress: common.HexToAddress("0xA1"), Exchange: "uniswap", Price: decimal.NewFromInt(1800)},
		PoolB:         arbdomain.PoolLeg{PoolAddress: common.HexToAddress("0xA2"), Exchange: "sushiswap", Price: decimal.NewFromInt(1900)},
		Token0:        weth,
		Token1:        dai,
		ProfitPercent: p,
		DetectedAt:    time.Now(),
	}
}

func newTestScorer(t *testing.T, now func() time.Time) *Scorer {
	t.Helper()
	s, err := NewScorer(defaultConfig(), logger.NewNop(), now)
	if err != nil {
		t.Fatalf("NewScorer() error = %v", err)
	}
	return s
}

func TestAssessTradeRisk_IdealTrade(t *testing.T) {
	s := newTestScorer(t, nil)

	got := s.AssessTradeRisk(context.Background(),
		opportunityWithProfit(t, "5.4"),
		decimal.NewFromFloat(0.5), // within trade ceiling
		decimal.NewFromInt(40),    // gas below ceiling
	)

	if !got.Approved {
		t.Fatalf("Approved = false, risks = %+v", got.Risks)
	}
	if got.Score != 0 {
		t.Errorf("Score = %d, want 0", got.Score)
	}
	if got.Recommendation != domain.RecommendationProceedMinimal {
		t.Errorf("Recommendation = %s, want proceed-minimal", got.Recommendation)
	}
}

func TestAssessTradeRisk_GasAboveCeiling(t *testing.T) {
	s := newTestScorer(t, nil)

	got := s.AssessTradeRisk(context.Background(),
		opportunityWithProfit(t, "5.4"),
		decimal.NewFromFloat(0.5),
		decimal.NewFromInt(150),
	)

	if len(got.Risks) != 1 || got.Risks[0].Level != domain.LevelHigh {
		t.Fatalf("Risks = %+v, want single high gas risk", got.Risks)
	}
	if got.Score != 25 {
		t.Errorf("Score = %d, want 25", got.Score)
	}
	// A lone high risk scores 25: flagged but still approved.
	if !got.Approved {
		t.Error("Approved = false, want true for score below 50")
	}
}

func TestAssessTradeRisk_StackedHighsReject(t *testing.T) {
	s := newTestScorer(t, nil)

	// Gas above ceiling and trade size above ceiling: 25 + 25 = 50.
	got := s.AssessTradeRisk(context.Background(),
		opportunityWithProfit(t, "5.4"),
		decimal.NewFromInt(5),
		decimal.NewFromInt(150),
	)

	if got.Score != 50 {
		t.Fatalf("Score = %d, want 50", got.Score)
	}
	if got.Approved {
		t.Error("Approved = true at score 50, want rejected")
	}
	if got.Recommendation != domain.RecommendationRejectHigh {
		t.Errorf("Recommendation = %s, want reject-high", got.Recommendation)
	}
}

func TestAssessTradeRisk_ThinMargin(t *testing.T) {
	s := newTestScorer(t, nil)

	// 0.3% profit: below the 1% minimum (high) and within the 0.5%
	// slippage tolerance (medium).
	got := s.AssessTradeRisk(context.Background(),
		opportunityWithProfit(t, "0.3"),
		decimal.NewFromFloat(0.5),
		decimal.NewFromInt(40),
	)

	if got.Score != 30 {
		t.Errorf("Score = %d, want 30", got.Score)
	}
	if len(got.Risks) != 2 {
		t.Errorf("len(Risks) = %d, want 2", len(got.Risks))
	}
}

func TestAssessTradeRisk_SuspiciousProfit(t *testing.T) {
	s := newTestScorer(t, nil)

	got := s.AssessTradeRisk(context.Background(),
		opportunityWithProfit(t, "15"),
		decimal.NewFromFloat(0.5),
		decimal.NewFromInt(40),
	)

	if len(got.Risks) != 1 || got.Risks[0].Level != domain.LevelMedium {
		t.Fatalf("Risks = %+v, want single medium manipulation risk", got.Risks)
	}
	if !got.Approved {
		t.Error("Approved = false, want true for lone medium risk")
	}
}

func TestAssessTradeRisk_DailyLossVetoes(t *testing.T) {
	s := newTestScorer(t, nil)
	ctx := context.Background()

	// Lose the full daily ceiling.
	s.RecordTradeResult(ctx, decimal.NewFromInt(1), decimal.NewFromFloat(-0.5), decimal.Zero)

	got := s.AssessTradeRisk(ctx,
		opportunityWithProfit(t, "5.4"),
		decimal.NewFromFloat(0.5),
		decimal.NewFromInt(40),
	)

	if got.Approved {
		t.Error("Approved = true with tripped daily loss, want rejected")
	}

	var critical bool
	for _, r := range got.Risks {
		if r.Level == domain.LevelCritical {
			critical = true
		}
	}
	if !critical {
		t.Errorf("Risks = %+v, want a critical daily loss entry", got.Risks)
	}
}

func TestShouldHaltTrading_RollsOverAtMidnight(t *testing.T) {
	current := time.Date(2026, 8, 26, 23, 0, 0, 0, time.UTC)
	s := newTestScorer(t, func() time.Time { return current })
	ctx := context.Background()

	if s.ShouldHaltTrading(ctx) {
		t.Fatal("ShouldHaltTrading() = true with zero losses")
	}

	s.RecordTradeResult(ctx, decimal.NewFromInt(1), decimal.NewFromFloat(-0.5), decimal.Zero)

	if !s.ShouldHaltTrading(ctx) {
		t.Fatal("ShouldHaltTrading() = false after losing the daily ceiling")
	}

	// Next calendar day: window resets lazily on access.
	current = current.Add(2 * time.Hour)

	if s.ShouldHaltTrading(ctx) {
		t.Error("ShouldHaltTrading() = true after date rollover")
	}

	stats := s.DailyStats()
	if stats.TradeCount != 0 || !stats.CumulativeLoss.IsZero() || !stats.CumulativeProfit.IsZero() {
		t.Errorf("stats after rollover = %+v, want zeroed", stats)
	}
	if stats.Day != "2026-08-27" {
		t.Errorf("Day = %s, want 2026-08-27", stats.Day)
	}
}

func TestRecordTradeResult_AccumulatesBothSides(t *testing.T) {
	s := newTestScorer(t, nil)
	ctx := context.Background()

	s.RecordTradeResult(ctx, decimal.NewFromInt(1), decimal.NewFromFloat(0.03), decimal.NewFromFloat(0.002))
	s.RecordTradeResult(ctx, decimal.NewFromInt(1), decimal.NewFromFloat(-0.01), decimal.NewFromFloat(0.002))

	stats := s.DailyStats()
	if stats.TradeCount != 2 {
		t.Errorf("TradeCount = %d, want 2", stats.TradeCount)
	}
	if !stats.CumulativeProfit.Equal(decimal.NewFromFloat(0.03)) {
		t.Errorf("CumulativeProfit = %s, want 0.03", stats.CumulativeProfit)
	}
	if !stats.CumulativeLoss.Equal(decimal.NewFromFloat(0.01)) {
		t.Errorf("CumulativeLoss = %s, want 0.01", stats.CumulativeLoss)
	}
}
