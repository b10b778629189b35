// Package ethereum implements blockchain access on top of go-ethereum.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/LaurieHoff/MEVBot/business/blockchain/domain"
	"github.com/LaurieHoff/MEVBot/internal/apperror"
	"github.com/LaurieHoff/MEVBot/internal/cache"
	"github.com/LaurieHoff/MEVBot/internal/circuitbreaker"
	"github.com/LaurieHoff/MEVBot/internal/logger"
)

const (
	tracerName = "business.blockchain.ethereum"
	meterName  = "business.blockchain.ethereum"
)

// GasOracleConfig holds configuration for the gas oracle.
type GasOracleConfig struct {
	CacheTTL   time.Duration // how long a fetched price stays fresh
	HardCapWei *big.Int      // absolute ceiling; prices above it are clamped
	DefaultGas uint64        // fallback gas limit when estimation fails
}

// DefaultGasOracleConfig returns sensible defaults.
func DefaultGasOracleConfig() GasOracleConfig {
	hardCap := new(big.Int)
	hardCap.SetString("500000000000", 10) // 500 gwei

	return GasOracleConfig{
		CacheTTL:   12 * time.Second, // ~1 block
		HardCapWei: hardCap,
		DefaultGas: 250000,
	}
}

type gasOracleMetrics struct {
	fetches      metric.Int64Counter
	gasPriceGwei metric.Float64Gauge
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
}

// GasOracle fetches gas prices from an Ethereum node with caching and a
// circuit breaker around the RPC call.
type GasOracle struct {
	config GasOracleConfig
	logger logger.LoggerInterface
	client *ethclient.Client

	priceCache *cache.Cache[string, *domain.GasPrice]

	cb *circuitbreaker.CircuitBreaker[*big.Int]

	tracer  trace.Tracer
	metrics *gasOracleMetrics
}

// NewGasOracle creates a gas oracle backed by an existing client connection.
func NewGasOracle(client *ethclient.Client, cfg GasOracleConfig, log logger.LoggerInterface) (*GasOracle, error) {
	g := &GasOracle{
		config:     cfg,
		logger:     log,
		client:     client,
		priceCache: cache.New[string, *domain.GasPrice](time.Minute),
		cb:         circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("gas-oracle")),
		tracer:     otel.Tracer(tracerName),
	}

	if err := g.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return g, nil
}

func (g *GasOracle) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	g.metrics = &gasOracleMetrics{}

	g.metrics.fetches, err = meter.Int64Counter(
		"gas_price_fetches_total",
		metric.WithDescription("Total gas price fetch attempts"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	g.metrics.gasPriceGwei, err = meter.Float64Gauge(
		"gas_price_gwei",
		metric.WithDescription("Current gas price in gwei"),
		metric.WithUnit("gwei"),
	)
	if err != nil {
		return err
	}

	g.metrics.cacheHits, err = meter.Int64Counter(
		"gas_cache_hits_total",
		metric.WithDescription("Gas price cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	g.metrics.cacheMisses, err = meter.Int64Counter(
		"gas_cache_misses_total",
		metric.WithDescription("Gas price cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// GetGasPrice retrieves the current gas price, serving from cache when fresh.
func (g *GasOracle) GetGasPrice(ctx context.Context) (*domain.GasPrice, error) {
	ctx, span := g.tracer.Start(ctx, "gas.get_price")
	defer span.End()

	if price, found := g.priceCache.Get(ctx, "current"); found {
		g.metrics.cacheHits.Add(ctx, 1)
		span.AddEvent("cache_hit")
		return price, nil
	}

	g.metrics.cacheMisses.Add(ctx, 1)
	g.metrics.fetches.Add(ctx, 1)

	wei, err := g.cb.Execute(func() (*big.Int, error) {
		return g.client.SuggestGasPrice(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, apperror.New(apperror.CodeGasPriceFetchFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to get gas price"))
	}

	if g.config.HardCapWei != nil && wei.Cmp(g.config.HardCapWei) > 0 {
		span.AddEvent("gas_price_exceeded_cap",
			trace.WithAttributes(attribute.String("wei", wei.String())))
		g.logger.Warn(ctx, "gas price exceeds hard cap, clamping", "wei", wei.String())
		wei = g.config.HardCapWei
	}

	price := domain.NewGasPrice(wei)
	g.priceCache.Set(ctx, "current", price, g.config.CacheTTL)

	g.metrics.gasPriceGwei.Record(ctx, price.Gwei())
	span.SetAttributes(attribute.Float64("gwei", price.Gwei()))
	span.SetStatus(codes.Ok, "fetched")

	return price, nil
}

// Estimate returns a full gas estimate at the configured default gas limit.
func (g *GasOracle) Estimate(ctx context.Context, gasLimit uint64) (*domain.GasEstimate, error) {
	price, err := g.GetGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	if gasLimit == 0 {
		gasLimit = g.config.DefaultGas
	}
	return domain.NewGasEstimate(gasLimit, price), nil
}

// Close releases the price cache. The shared client is owned by the caller.
func (g *GasOracle) Close() error {
	g.priceCache.Close()
	return nil
}
