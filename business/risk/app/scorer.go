// Package app contains the application services for the risk context.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	arbdomain "github.com/LaurieHoff/MEVBot/business/arbitrage/domain"
	"github.com/LaurieHoff/MEVBot/business/risk/domain"
	"github.com/LaurieHoff/MEVBot/internal/logger"
)

const (
	tracerName = "business.risk"
	meterName  = "business.risk"

	dayKeyFormat = "2006-01-02"
)

// ScorerConfig holds the static thresholds the scorer evaluates against.
type ScorerConfig struct {
	MinProfitThreshold    decimal.Decimal // fraction, e.g. 0.01 for 1%
	MaxSlippageTolerance  decimal.Decimal // percent
	MaxGasPriceGwei       decimal.Decimal
	MaxTradeSize          decimal.Decimal // ETH
	MaxDailyLoss          decimal.Decimal // ETH
	SuspiciousProfitBound decimal.Decimal // percent, flags likely manipulation
}

type scorerMetrics struct {
	assessments metric.Int64Counter
	rejections  metric.Int64Counter
	haltChecks  metric.Int64Counter
}

// Scorer evaluates opportunities against risk rules and owns the daily
// trading stats behind the loss circuit breaker. All methods are safe
// for concurrent use, though in practice only the scan loop calls them.
type Scorer struct {
	cfg    ScorerConfig
	logger logger.LoggerInterface
	now    func() time.Time

	mu    sync.Mutex
	stats domain.DailyStats

	tracer  trace.Tracer
	metrics *scorerMetrics
}

// NewScorer creates a scorer. now may be nil, defaulting to time.Now;
// tests inject a fixed clock to drive date rollover.
func NewScorer(cfg ScorerConfig, log logger.LoggerInterface, now func() time.Time) (*Scorer, error) {
	if now == nil {
		now = time.Now
	}

	s := &Scorer{
		cfg:    cfg,
		logger: log,
		now:    now,
		stats:  domain.NewDailyStats(now().Format(dayKeyFormat)),
		tracer: otel.Tracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return s, nil
}

func (s *Scorer) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &scorerMetrics{}

	s.metrics.assessments, err = meter.Int64Counter(
		"risk_assessments_total",
		metric.WithDescription("Total risk assessments performed"),
	)
	if err != nil {
		return err
	}

	s.metrics.rejections, err = meter.Int64Counter(
		"risk_rejections_total",
		metric.WithDescription("Assessments that rejected the trade"),
	)
	if err != nil {
		return err
	}

	s.metrics.haltChecks, err = meter.Int64Counter(
		"trading_halt_checks_total",
		metric.WithDescription("Daily loss circuit breaker checks"),
	)
	if err != nil {
		return err
	}

	return nil
}

// AssessTradeRisk scores one opportunity at the proposed trade size and
// prevailing gas price. Rejections are normal negative decisions, not
// errors.
func (s *Scorer) AssessTradeRisk(ctx context.Context, opp arbdomain.Opportunity, tradeAmount, gasPriceGwei decimal.Decimal) domain.Assessment {
	ctx, span := s.tracer.Start(ctx, "risk.assess",
		trace.WithAttributes(
			attribute.String("pair", opp.Pair()),
			attribute.String("profit_percent", opp.ProfitPercent.String()),
		),
	)
	defer span.End()

	s.mu.Lock()
	s.rollWindowLocked()
	dailyLoss := s.stats.CumulativeLoss
	s.mu.Unlock()

	minProfitPercent := s.cfg.MinProfitThreshold.Mul(decimal.NewFromInt(100))

	var risks []domain.Risk

	if opp.ProfitPercent.LessThan(minProfitPercent) {
		risks = append(risks, domain.Risk{
			Level:  domain.LevelHigh,
			Reason: fmt.Sprintf("profit %s%% below minimum %s%%", opp.ProfitPercent.StringFixed(4), minProfitPercent),
		})
	}

	if opp.ProfitPercent.LessThan(s.cfg.MaxSlippageTolerance) {
		risks = append(risks, domain.Risk{
			Level:  domain.LevelMedium,
			Reason: fmt.Sprintf("margin %s%% within slippage tolerance %s%%", opp.ProfitPercent.StringFixed(4), s.cfg.MaxSlippageTolerance),
		})
	}

	if gasPriceGwei.GreaterThan(s.cfg.MaxGasPriceGwei) {
		risks = append(risks, domain.Risk{
			Level:  domain.LevelHigh,
			Reason: fmt.Sprintf("gas price %s gwei above ceiling %s gwei", gasPriceGwei, s.cfg.MaxGasPriceGwei),
		})
	}

	if tradeAmount.GreaterThan(s.cfg.MaxTradeSize) {
		risks = append(risks, domain.Risk{
			Level:  domain.LevelHigh,
			Reason: fmt.Sprintf("trade size %s above ceiling %s", tradeAmount, s.cfg.MaxTradeSize),
		})
	}

	if dailyLoss.GreaterThanOrEqual(s.cfg.MaxDailyLoss) {
		risks = append(risks, domain.Risk{
			Level:  domain.LevelCritical,
			Reason: fmt.Sprintf("daily loss %s at or above ceiling %s", dailyLoss, s.cfg.MaxDailyLoss),
		})
	}

	if opp.ProfitPercent.GreaterThan(s.cfg.SuspiciousProfitBound) {
		risks = append(risks, domain.Risk{
			Level:  domain.LevelMedium,
			Reason: fmt.Sprintf("profit %s%% suspiciously high, possible manipulation", opp.ProfitPercent.StringFixed(4)),
		})
	}

	assessment := domain.NewAssessment(risks)

	s.metrics.assessments.Add(ctx, 1)
	if !assessment.Approved {
		s.metrics.rejections.Add(ctx, 1,
			metric.WithAttributes(attribute.String("recommendation", string(assessment.Recommendation))))

		reasons := make([]string, len(assessment.Risks))
		for i, r := range assessment.Risks {
			reasons[i] = fmt.Sprintf("%s: %s", r.Level, r.Reason)
		}
		s.logger.Info(ctx, "risk rejected",
			"pair", opp.Pair(),
			"route", opp.Route(),
			"score", assessment.Score,
			"recommendation", string(assessment.Recommendation),
			"reasons", reasons,
		)
	}

	span.SetAttributes(
		attribute.Int("score", assessment.Score),
		attribute.Bool("approved", assessment.Approved),
		attribute.String("recommendation", string(assessment.Recommendation)),
	)

	return assessment
}

// RecordTradeResult feeds a completed trade into the daily stats.
func (s *Scorer) RecordTradeResult(ctx context.Context, amount, profit, gasUsed decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollWindowLocked()
	s.stats.Record(profit)

	s.logger.Info(ctx, "trade recorded",
		"amount", amount.String(),
		"profit", profit.String(),
		"gas_used", gasUsed.String(),
		"daily_trades", s.stats.TradeCount,
		"daily_profit", s.stats.CumulativeProfit.String(),
		"daily_loss", s.stats.CumulativeLoss.String(),
	)
}

// ShouldHaltTrading reports whether the daily loss circuit breaker has
// tripped. The scan loop checks this before every cycle and skips the
// whole cycle when true.
func (s *Scorer) ShouldHaltTrading(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.haltChecks.Add(ctx, 1)
	s.rollWindowLocked()

	return s.stats.CumulativeLoss.GreaterThanOrEqual(s.cfg.MaxDailyLoss)
}

// DailyStats returns a copy of the current day's stats.
func (s *Scorer) DailyStats() domain.DailyStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollWindowLocked()
	return s.stats
}

// Config returns the thresholds the scorer was built with.
func (s *Scorer) Config() ScorerConfig {
	return s.cfg
}

// rollWindowLocked resets the stats when the calendar date has changed.
// Callers must hold s.mu.
func (s *Scorer) rollWindowLocked() {
	day := s.now().Format(dayKeyFormat)
	if day != s.stats.Day {
		s.stats = domain.NewDailyStats(day)
	}
}
