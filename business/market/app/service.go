package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/LaurieHoff/MEVBot/business/market/domain"
	"github.com/LaurieHoff/MEVBot/internal/logger"
)

const (
	tracerName = "business.market"
	meterName  = "business.market"
)

type serviceMetrics struct {
	refreshes      metric.Int64Counter
	refreshErrors  metric.Int64Counter
	refreshLatency metric.Float64Histogram
	poolsTracked   metric.Int64Gauge
}

// MarketService refreshes reserve observations for all watched pools and
// maintains the price cache the detector reads from.
type MarketService struct {
	source ReserveSource
	cache  *domain.PriceCache
	pools  []domain.WatchedPool
	logger logger.LoggerInterface

	tracer  trace.Tracer
	metrics *serviceMetrics
}

// NewMarketService creates the market service.
func NewMarketService(source ReserveSource, cache *domain.PriceCache, pools []domain.WatchedPool, log logger.LoggerInterface) (*MarketService, error) {
	s := &MarketService{
		source: source,
		cache:  cache,
		pools:  pools,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return s, nil
}

func (s *MarketService) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &serviceMetrics{}

	s.metrics.refreshes, err = meter.Int64Counter(
		"pool_refreshes_total",
		metric.WithDescription("Total pool reserve refresh attempts"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return err
	}

	s.metrics.refreshErrors, err = meter.Int64Counter(
		"pool_refresh_errors_total",
		metric.WithDescription("Pool reserve refreshes that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	s.metrics.refreshLatency, err = meter.Float64Histogram(
		"pool_refresh_latency_ms",
		metric.WithDescription("Latency of a full refresh cycle in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	s.metrics.poolsTracked, err = meter.Int64Gauge(
		"pools_tracked",
		metric.WithDescription("Number of pools with a cached observation"),
		metric.WithUnit("{pool}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Cache returns the price cache backing this service.
func (s *MarketService) Cache() *domain.PriceCache {
	return s.cache
}

// Pools returns the watched pool set.
func (s *MarketService) Pools() []domain.WatchedPool {
	return s.pools
}

// RefreshAll fetches reserves for every watched pool concurrently. Every
// pool is attempted; failures are joined into a single error while the
// successful observations still land in the cache. The returned count is
// the number of pools refreshed this call.
func (s *MarketService) RefreshAll(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "market.refresh_all",
		trace.WithAttributes(attribute.Int("pools", len(s.pools))),
	)
	defer span.End()

	start := time.Now()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, pool := range s.pools {
		wg.Add(1)
		go func(pool domain.WatchedPool) {
			defer wg.Done()

			if err := s.refreshOne(ctx, pool); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(pool)
	}

	wg.Wait()

	refreshed := len(s.pools) - len(errs)

	s.metrics.refreshLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	s.metrics.poolsTracked.Record(ctx, int64(s.cache.Len()))

	if len(errs) > 0 {
		span.SetStatus(codes.Error, "partial refresh")
		span.SetAttributes(attribute.Int("failed", len(errs)))
		s.logger.Warn(ctx, "pool refresh partially failed",
			"failed", len(errs),
			"total", len(s.pools),
		)
		return refreshed, errors.Join(errs...)
	}

	span.SetStatus(codes.Ok, "refreshed")
	return refreshed, nil
}

func (s *MarketService) refreshOne(ctx context.Context, pool domain.WatchedPool) error {
	s.metrics.refreshes.Add(ctx, 1,
		metric.WithAttributes(attribute.String("exchange", pool.Exchange)))

	reserves, err := s.source.FetchReserves(ctx, pool)
	if err != nil {
		s.metrics.refreshErrors.Add(ctx, 1,
			metric.WithAttributes(attribute.String("exchange", pool.Exchange)))
		return fmt.Errorf("pool %s (%s): %w", pool.Address.Hex(), pool.Pair(), err)
	}

	obs, err := domain.NewPoolObservation(pool, reserves)
	if err != nil {
		s.metrics.refreshErrors.Add(ctx, 1,
			metric.WithAttributes(attribute.String("exchange", pool.Exchange)))
		return err
	}

	s.cache.Put(obs)

	s.logger.Debug(ctx, "pool refreshed",
		"pool", pool.Address.Hex(),
		"pair", pool.Pair(),
		"exchange", pool.Exchange,
		"price0", obs.Price0.String(),
	)

	return nil
}
