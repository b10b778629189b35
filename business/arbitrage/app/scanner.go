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

	"github.com/LaurieHoff/MEVBot/business/arbitrage/domain"
	blockapp "github.com/LaurieHoff/MEVBot/business/blockchain/app"
	blockdomain "github.com/LaurieHoff/MEVBot/business/blockchain/domain"
	execapp "github.com/LaurieHoff/MEVBot/business/execution/app"
	marketapp "github.com/LaurieHoff/MEVBot/business/market/app"
	riskapp "github.com/LaurieHoff/MEVBot/business/risk/app"
	"github.com/LaurieHoff/MEVBot/internal/logger"
)

// ScannerConfig holds configuration for the scan loop.
type ScannerConfig struct {
	Interval         time.Duration
	TopN             int             // opportunities evaluated per cycle
	TradeAmount      decimal.Decimal // ETH committed per simulated trade
	GasLimit         uint64          // fixed per-trade gas limit
	MaxBackoffCycles int             // cap on consecutive delay doublings
}

type scannerMetrics struct {
	cycles        metric.Int64Counter
	cycleErrors   metric.Int64Counter
	haltedCycles  metric.Int64Counter
	cycleDuration metric.Float64Histogram
}

// Scanner drives the scan loop: refresh pools, detect divergences, gate
// each candidate through risk and execution. Cycles never overlap and a
// stop request is honored only between cycles.
type Scanner struct {
	market   *marketapp.MarketService
	detector *Detector
	scorer   *riskapp.Scorer
	executor execapp.Executor
	gas      blockapp.GasPricer
	reporter Reporter // optional
	config   ScannerConfig
	logger   logger.LoggerInterface

	// after is time.After unless a test injects a virtual clock.
	after func(d time.Duration) <-chan time.Time

	mu          sync.Mutex
	running     bool
	stop        chan struct{}
	done        chan struct{}
	cycleCount  int
	lastCycleAt time.Time
	lastErr     error
	lastOpps    []domain.Opportunity

	tracer  trace.Tracer
	metrics *scannerMetrics
}

// ScannerStatus is a point-in-time snapshot for the command surface.
type ScannerStatus struct {
	Running     bool
	Halted      bool
	CycleCount  int
	LastCycleAt time.Time
	LastError   error
}

// NewScanner wires the scan loop.
func NewScanner(
	market *marketapp.MarketService,
	detector *Detector,
	scorer *riskapp.Scorer,
	executor execapp.Executor,
	gas blockapp.GasPricer,
	cfg ScannerConfig,
	log logger.LoggerInterface,
) (*Scanner, error) {
	if cfg.TopN <= 0 {
		cfg.TopN = 3
	}
	if cfg.MaxBackoffCycles <= 0 {
		cfg.MaxBackoffCycles = 5
	}

	s := &Scanner{
		market:   market,
		detector: detector,
		scorer:   scorer,
		executor: executor,
		gas:      gas,
		config:   cfg,
		logger:   log,
		after:    time.After,
		tracer:   otel.Tracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return s, nil
}

func (s *Scanner) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &scannerMetrics{}

	s.metrics.cycles, err = meter.Int64Counter(
		"scan_cycles_total",
		metric.WithDescription("Completed scan cycles"),
	)
	if err != nil {
		return err
	}

	s.metrics.cycleErrors, err = meter.Int64Counter(
		"scan_cycle_errors_total",
		metric.WithDescription("Scan cycles that ended in error"),
	)
	if err != nil {
		return err
	}

	s.metrics.haltedCycles, err = meter.Int64Counter(
		"scan_cycles_halted_total",
		metric.WithDescription("Cycles skipped by the daily loss circuit breaker"),
	)
	if err != nil {
		return err
	}

	s.metrics.cycleDuration, err = meter.Float64Histogram(
		"scan_cycle_duration_ms",
		metric.WithDescription("Scan cycle duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// SetReporter attaches a presentation sink. Must be called before Start.
func (s *Scanner) SetReporter(r Reporter) {
	s.reporter = r
}

// Start launches the scan loop. It returns an error if already running.
func (s *Scanner) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scanner already running")
	}

	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(ctx, s.stop, s.done)

	s.logger.Info(ctx, "scanner started",
		"interval", s.config.Interval.String(),
		"top_n", s.config.TopN,
		"trade_amount", s.config.TradeAmount.String(),
	)

	return nil
}

// Stop asks the loop to exit and waits for the in-flight cycle to finish.
func (s *Scanner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// Running reports whether the loop is active.
func (s *Scanner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status returns a snapshot for the command surface.
func (s *Scanner) Status(ctx context.Context) ScannerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ScannerStatus{
		Running:     s.running,
		Halted:      s.scorer.ShouldHaltTrading(ctx),
		CycleCount:  s.cycleCount,
		LastCycleAt: s.lastCycleAt,
		LastError:   s.lastErr,
	}
}

// LastOpportunities returns the opportunities from the most recent cycle.
func (s *Scanner) LastOpportunities() []domain.Opportunity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Opportunity, len(s.lastOpps))
	copy(out, s.lastOpps)
	return out
}

func (s *Scanner) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	delay := s.config.Interval
	backoffs := 0

	for {
		err := s.cycle(ctx)

		s.mu.Lock()
		s.cycleCount++
		s.lastCycleAt = time.Now()
		s.lastErr = err
		s.mu.Unlock()

		if err != nil {
			s.metrics.cycleErrors.Add(ctx, 1)
			if backoffs < s.config.MaxBackoffCycles {
				delay *= 2
				backoffs++
			}
			s.logger.Error(ctx, "scan cycle failed",
				"error", err,
				"next_delay", delay.String(),
			)
		} else {
			delay = s.config.Interval
			backoffs = 0
		}

		select {
		case <-stop:
			s.logger.Info(ctx, "scanner stopped")
			return
		case <-ctx.Done():
			s.logger.Info(ctx, "scanner stopping", "reason", ctx.Err())
			return
		case <-s.after(delay):
		}
	}
}

// cycle executes one scan pass. Per-opportunity failures are logged and
// never abort the rest of the batch; a returned error means the whole
// cycle failed and triggers backoff.
func (s *Scanner) cycle(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "arbitrage.scan_cycle")
	defer span.End()

	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		s.metrics.cycles.Add(ctx, 1)
		s.metrics.cycleDuration.Record(ctx, float64(elapsed.Milliseconds()))
		s.logger.Debug(ctx, "scan cycle finished",
			"duration_ms", elapsed.Milliseconds(),
			"pools_cached", s.market.Cache().Len(),
		)
	}()

	if s.scorer.ShouldHaltTrading(ctx) {
		s.metrics.haltedCycles.Add(ctx, 1)
		span.SetAttributes(attribute.Bool("halted", true))
		s.logger.Warn(ctx, "trading halted by daily loss limit, skipping scan")
		return nil
	}

	// Partial refresh failures are tolerated, but detection needs at
	// least one fresh observation this cycle: running on a fully stale
	// cache would re-trade prices from before the outage.
	refreshed, err := s.market.RefreshAll(ctx)
	if refreshed == 0 {
		return fmt.Errorf("no pool refreshed: %w", err)
	}
	if err != nil {
		s.logger.Warn(ctx, "continuing with partially refreshed cache",
			"refreshed", refreshed,
			"error", err,
		)
	}

	opportunities := s.detector.Detect(ctx, s.market.Cache().All())

	s.mu.Lock()
	s.lastOpps = opportunities
	s.mu.Unlock()

	if s.reporter != nil {
		s.reporter.ReportOpportunities(opportunities)
	}

	if len(opportunities) == 0 {
		return nil
	}

	gasPrice, err := s.gas.GetGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("gas price unavailable: %w", err)
	}

	span.SetAttributes(
		attribute.Int("opportunities", len(opportunities)),
		attribute.Float64("gas_gwei", gasPrice.Gwei()),
	)

	top := opportunities
	if len(top) > s.config.TopN {
		top = top[:s.config.TopN]
	}

	for _, opp := range top {
		s.evaluate(ctx, opp, gasPrice)
	}

	return nil
}

func (s *Scanner) evaluate(ctx context.Context, opp domain.Opportunity, gasPrice *blockdomain.GasPrice) {
	assessment := s.scorer.AssessTradeRisk(ctx, opp, s.config.TradeAmount, gasPrice.GweiDecimal())
	if !assessment.Approved {
		return
	}

	estimate := blockdomain.NewGasEstimate(s.config.GasLimit, gasPrice)

	result, err := s.executor.Execute(ctx, opp, s.config.TradeAmount, estimate)
	if err != nil {
		s.logger.Error(ctx, "execution failed",
			"pair", opp.Pair(),
			"route", opp.Route(),
			"error", err,
		)
		return
	}

	if result.Success {
		s.scorer.RecordTradeResult(ctx, result.Amount, result.NetProfit(), result.GasCost)
		if s.reporter != nil {
			s.reporter.ReportTrade(*result)
		}
	}
}
