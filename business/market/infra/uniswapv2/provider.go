package uniswapv2

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/LaurieHoff/MEVBot/business/market/app"
	"github.com/LaurieHoff/MEVBot/business/market/domain"
	"github.com/LaurieHoff/MEVBot/internal/apperror"
	"github.com/LaurieHoff/MEVBot/internal/circuitbreaker"
	"github.com/LaurieHoff/MEVBot/internal/logger"
	"github.com/LaurieHoff/MEVBot/internal/ratelimit"
)

const (
	tracerName = "business.market.uniswapv2"
	meterName  = "business.market.uniswapv2"
)

// Ensure Provider implements ReserveSource.
var _ app.ReserveSource = (*Provider)(nil)

type providerMetrics struct {
	callsTotal  metric.Int64Counter
	callLatency metric.Float64Histogram
	callErrors  metric.Int64Counter
}

// Provider reads pair reserves over JSON-RPC eth_call. Calls go through a
// rate limiter shared with the rest of the RPC surface and a circuit
// breaker per provider.
type Provider struct {
	client  *ethclient.Client
	pairABI abi.ABI
	limiter *ratelimit.Limiter

	logger logger.LoggerInterface
	cb     *circuitbreaker.CircuitBreaker[[]byte]

	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates a reserve source on top of an existing client.
func NewProvider(client *ethclient.Client, limiter *ratelimit.Limiter, log logger.LoggerInterface) (*Provider, error) {
	parsedABI, err := abi.JSON(strings.NewReader(PairABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pair ABI: %w", err)
	}

	p := &Provider{
		client:  client,
		pairABI: parsedABI,
		limiter: limiter,
		logger:  log,
		cb:      circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("uniswapv2-pair")),
		tracer:  otel.Tracer(tracerName),
	}

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return p, nil
}

func (p *Provider) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &providerMetrics{}

	p.metrics.callsTotal, err = meter.Int64Counter(
		"pair_calls_total",
		metric.WithDescription("Total pair contract calls"),
	)
	if err != nil {
		return err
	}

	p.metrics.callLatency, err = meter.Float64Histogram(
		"pair_call_latency_ms",
		metric.WithDescription("Pair contract call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.metrics.callErrors, err = meter.Int64Counter(
		"pair_call_errors_total",
		metric.WithDescription("Total pair contract call errors"),
	)
	if err != nil {
		return err
	}

	return nil
}

// FetchReserves calls getReserves on the pair contract.
func (p *Provider) FetchReserves(ctx context.Context, pool domain.WatchedPool) (domain.Reserves, error) {
	ctx, span := p.tracer.Start(ctx, "uniswapv2.get_reserves",
		trace.WithAttributes(
			attribute.String("pool", pool.Address.Hex()),
			attribute.String("pair", pool.Pair()),
			attribute.String("exchange", pool.Exchange),
		),
	)
	defer span.End()

	start := time.Now()
	p.metrics.callsTotal.Add(ctx, 1)

	result, err := p.call(ctx, pool.Address, "getReserves")
	p.metrics.callLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		p.metrics.callErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "call failed")
		return domain.Reserves{}, apperror.New(apperror.CodeReserveFetchFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("getReserves failed for %s", pool.Address.Hex())))
	}

	outputs, err := p.pairABI.Unpack("getReserves", result)
	if err != nil || len(outputs) < 3 {
		p.metrics.callErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, "decode failed")
		return domain.Reserves{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("failed to decode getReserves for %s", pool.Address.Hex())))
	}

	reserves := domain.Reserves{
		Reserve0:           outputs[0].(*big.Int),
		Reserve1:           outputs[1].(*big.Int),
		BlockTimestampLast: outputs[2].(uint32),
	}

	span.SetAttributes(
		attribute.String("reserve0", reserves.Reserve0.String()),
		attribute.String("reserve1", reserves.Reserve1.String()),
	)
	span.SetStatus(codes.Ok, "fetched")

	return reserves, nil
}

// FetchTokens reads token0/token1 from the pair contract. Used at startup
// to verify configured pools against the chain.
func (p *Provider) FetchTokens(ctx context.Context, pair common.Address) (common.Address, common.Address, error) {
	ctx, span := p.tracer.Start(ctx, "uniswapv2.get_tokens",
		trace.WithAttributes(attribute.String("pool", pair.Hex())),
	)
	defer span.End()

	var addrs [2]common.Address
	for i, method := range []string{"token0", "token1"} {
		result, err := p.call(ctx, pair, method)
		if err != nil {
			span.RecordError(err)
			return common.Address{}, common.Address{}, apperror.New(apperror.CodeContractCallFailed,
				apperror.WithCause(err),
				apperror.WithContext(fmt.Sprintf("%s() failed for %s", method, pair.Hex())))
		}

		outputs, err := p.pairABI.Unpack(method, result)
		if err != nil || len(outputs) < 1 {
			return common.Address{}, common.Address{}, apperror.New(apperror.CodeContractCallFailed,
				apperror.WithCause(err),
				apperror.WithContext(fmt.Sprintf("failed to decode %s for %s", method, pair.Hex())))
		}
		addrs[i] = outputs[0].(common.Address)
	}

	span.SetStatus(codes.Ok, "fetched")
	return addrs[0], addrs[1], nil
}

func (p *Provider) call(ctx context.Context, to common.Address, method string) ([]byte, error) {
	callData, err := p.pairABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return p.cb.Execute(func() ([]byte, error) {
		return p.client.CallContract(ctx, ethereum.CallMsg{
			To:   &to,
			Data: callData,
		}, nil)
	})
}
