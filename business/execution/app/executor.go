// Package app contains the application services for the execution context.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	arbdomain "github.com/LaurieHoff/MEVBot/business/arbitrage/domain"
	blockdomain "github.com/LaurieHoff/MEVBot/business/blockchain/domain"
	"github.com/LaurieHoff/MEVBot/business/execution/domain"
	"github.com/LaurieHoff/MEVBot/internal/logger"
)

const (
	tracerName = "business.execution"
	meterName  = "business.execution"
)

// Executor runs an approved opportunity. The simulated implementation
// below never touches the chain; a real one must honor the same
// contract: decide profitability net of gas and report the outcome.
type Executor interface {
	Execute(ctx context.Context, opp arbdomain.Opportunity, tradeAmount decimal.Decimal, gas *blockdomain.GasEstimate) (*domain.TradeResult, error)
}

type executorMetrics struct {
	executions metric.Int64Counter
	skipped    metric.Int64Counter
	profitETH  metric.Float64Counter
}

// SimulatedExecutor gates approved opportunities on profitability net of
// gas and fabricates a successful fill.
type SimulatedExecutor struct {
	minProfitThreshold decimal.Decimal // ETH
	logger             logger.LoggerInterface

	tracer  trace.Tracer
	metrics *executorMetrics
}

// NewSimulatedExecutor creates the stand-in executor.
func NewSimulatedExecutor(minProfitThreshold decimal.Decimal, log logger.LoggerInterface) (*SimulatedExecutor, error) {
	e := &SimulatedExecutor{
		minProfitThreshold: minProfitThreshold,
		logger:             log,
		tracer:             otel.Tracer(tracerName),
	}

	if err := e.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return e, nil
}

var _ Executor = (*SimulatedExecutor)(nil)

func (e *SimulatedExecutor) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	e.metrics = &executorMetrics{}

	e.metrics.executions, err = meter.Int64Counter(
		"trades_executed_total",
		metric.WithDescription("Simulated trades executed"),
	)
	if err != nil {
		return err
	}

	e.metrics.skipped, err = meter.Int64Counter(
		"trades_skipped_total",
		metric.WithDescription("Approved trades skipped as unprofitable net of gas"),
	)
	if err != nil {
		return err
	}

	e.metrics.profitETH, err = meter.Float64Counter(
		"simulated_profit_eth_total",
		metric.WithDescription("Cumulative simulated profit in ETH"),
		metric.WithUnit("ETH"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Execute estimates the trade's profit against gas cost and, when the
// net clears the minimum profit threshold, reports a simulated fill.
func (e *SimulatedExecutor) Execute(ctx context.Context, opp arbdomain.Opportunity, tradeAmount decimal.Decimal, gas *blockdomain.GasEstimate) (*domain.TradeResult, error) {
	ctx, span := e.tracer.Start(ctx, "execution.execute",
		trace.WithAttributes(
			attribute.String("pair", opp.Pair()),
			attribute.String("route", opp.Route()),
			attribute.String("amount", tradeAmount.String()),
		),
	)
	defer span.End()

	estimatedProfit := tradeAmount.Mul(opp.ProfitPercent).Div(decimal.NewFromInt(100))
	gasCost := gas.CostETH()

	result := &domain.TradeResult{
		Pair:            opp.Pair(),
		Route:           opp.Route(),
		Amount:          tradeAmount,
		EstimatedProfit: estimatedProfit,
		GasCost:         gasCost,
		ExecutedAt:      time.Now(),
	}

	if result.NetProfit().LessThan(e.minProfitThreshold) {
		result.Reason = fmt.Sprintf("net profit %s below threshold %s after gas %s",
			result.NetProfit(), e.minProfitThreshold, gasCost)

		e.metrics.skipped.Add(ctx, 1)
		span.SetAttributes(attribute.Bool("executed", false))
		e.logger.Debug(ctx, "trade skipped",
			"pair", result.Pair,
			"route", result.Route,
			"net_profit", result.NetProfit().String(),
			"gas_cost", gasCost.String(),
		)

		return result, nil
	}

	// Simulated fill: no transaction is built or broadcast.
	result.Success = true

	e.metrics.executions.Add(ctx, 1)
	profitF, _ := result.NetProfit().Float64()
	e.metrics.profitETH.Add(ctx, profitF)

	span.SetAttributes(
		attribute.Bool("executed", true),
		attribute.Float64("net_profit_eth", profitF),
	)
	e.logger.Info(ctx, "opportunity executed",
		"pair", result.Pair,
		"route", result.Route,
		"amount", tradeAmount.String(),
		"profit", result.EstimatedProfit.String(),
		"gas_cost", gasCost.String(),
		"net_profit", result.NetProfit().String(),
	)

	return result, nil
}
