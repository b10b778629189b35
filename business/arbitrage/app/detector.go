// Package app contains the application services for the arbitrage context.
package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/LaurieHoff/MEVBot/business/arbitrage/domain"
	marketdomain "github.com/LaurieHoff/MEVBot/business/market/domain"
	"github.com/LaurieHoff/MEVBot/internal/logger"
)

const (
	tracerName = "business.arbitrage"
	meterName  = "business.arbitrage"
)

// noiseFloorPercent filters divergences indistinguishable from rounding
// and fee noise before the configured threshold is applied.
var noiseFloorPercent = decimal.NewFromFloat(0.1)

// DetectorConfig holds configuration for the detector.
type DetectorConfig struct {
	MinProfitThreshold decimal.Decimal // fraction, e.g. 0.01 for 1%
}

type detectorMetrics struct {
	scans         metric.Int64Counter
	opportunities metric.Int64Counter
	pairsCompared metric.Int64Counter
}

// Detector finds price divergences between pools sharing a token pair.
// The comparison is O(n²) over cached pools, which is fine for the tens
// of pools this scans.
type Detector struct {
	config DetectorConfig
	logger logger.LoggerInterface

	tracer  trace.Tracer
	metrics *detectorMetrics
}

// NewDetector creates a detector.
func NewDetector(cfg DetectorConfig, log logger.LoggerInterface) (*Detector, error) {
	d := &Detector{
		config: cfg,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}

	if err := d.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return d, nil
}

func (d *Detector) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	d.metrics = &detectorMetrics{}

	d.metrics.scans, err = meter.Int64Counter(
		"detector_scans_total",
		metric.WithDescription("Total detector runs"),
	)
	if err != nil {
		return err
	}

	d.metrics.opportunities, err = meter.Int64Counter(
		"opportunities_detected_total",
		metric.WithDescription("Opportunities over the profit threshold"),
	)
	if err != nil {
		return err
	}

	d.metrics.pairsCompared, err = meter.Int64Counter(
		"pool_pairs_compared_total",
		metric.WithDescription("Pool pairs compared for shared token sets"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Detect compares every unordered pool pair in the observation set and
// returns opportunities above the threshold, sorted by descending profit.
// Ties keep input encounter order.
func (d *Detector) Detect(ctx context.Context, observations []*marketdomain.PoolObservation) []domain.Opportunity {
	ctx, span := d.tracer.Start(ctx, "arbitrage.detect",
		trace.WithAttributes(attribute.Int("observations", len(observations))),
	)
	defer span.End()

	d.metrics.scans.Add(ctx, 1)

	minProfitPercent := d.config.MinProfitThreshold.Mul(decimal.NewFromInt(100))

	var out []domain.Opportunity
	for i := 0; i < len(observations); i++ {
		for j := i + 1; j < len(observations); j++ {
			d.metrics.pairsCompared.Add(ctx, 1)

			opp, ok := d.compare(observations[i], observations[j])
			if !ok {
				continue
			}
			if opp.ProfitPercent.LessThan(noiseFloorPercent) {
				continue
			}
			if !opp.ProfitPercent.GreaterThan(minProfitPercent) {
				continue
			}

			out = append(out, opp)

			d.logger.Debug(ctx, "opportunity detected",
				"pair", opp.Pair(),
				"route", opp.Route(),
				"profit_percent", opp.ProfitPercent.StringFixed(4),
			)
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].ProfitPercent.GreaterThan(out[b].ProfitPercent)
	})

	d.metrics.opportunities.Add(ctx, int64(len(out)))
	span.SetAttributes(attribute.Int("opportunities", len(out)))

	return out
}

// compare checks whether two observations reference the same unordered
// token set and builds the divergence. When the pools store the tokens
// in opposite order, b's price is reoriented to a's token0 so both legs
// quote token1 per token0 consistently.
func (d *Detector) compare(a, b *marketdomain.PoolObservation) (domain.Opportunity, bool) {
	priceB, ok := matchPrice(a, b)
	if !ok {
		return domain.Opportunity{}, false
	}

	legA := domain.PoolLeg{PoolAddress: a.Pool.Address, Exchange: a.Pool.Exchange, Price: a.Price0}
	legB := domain.PoolLeg{PoolAddress: b.Pool.Address, Exchange: b.Pool.Exchange, Price: priceB}

	return domain.NewOpportunity(legA, legB, a.Pool.Token0, a.Pool.Token1), true
}

// matchPrice returns b's price oriented as "a.Token1 per a.Token0", or
// false when the token sets differ.
func matchPrice(a, b *marketdomain.PoolObservation) (decimal.Decimal, bool) {
	switch {
	case a.Pool.Token0.Equals(b.Pool.Token0) && a.Pool.Token1.Equals(b.Pool.Token1):
		return b.Price0, true
	case a.Pool.Token0.Equals(b.Pool.Token1) && a.Pool.Token1.Equals(b.Pool.Token0):
		return b.Price1, true
	}
	return decimal.Zero, false
}
