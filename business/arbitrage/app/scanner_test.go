package app

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/LaurieHoff/MEVBot/business/arbitrage/domain"
	blockdomain "github.com/LaurieHoff/MEVBot/business/blockchain/domain"
	execdomain "github.com/LaurieHoff/MEVBot/business/execution/domain"
	marketapp "github.com/LaurieHoff/MEVBot/business/market/app"
	marketdomain "github.com/LaurieHoff/MEVBot/business/market/domain"
	riskapp "github.com/LaurieHoff/MEVBot/business/risk/app"
	"github.com/LaurieHoff/MEVBot/internal/logger"
)

type stubSource struct {
	mu       sync.Mutex
	reserves map[common.Address]marketdomain.Reserves
	err      error                    // fails every pool when set
	fail     map[common.Address]error // fails individual pools
	calls    int
}

func (s *stubSource) FetchReserves(_ context.Context, pool marketdomain.WatchedPool) (marketdomain.Reserves, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return marketdomain.Reserves{}, s.err
	}
	if err, ok := s.fail[pool.Address]; ok {
		return marketdomain.Reserves{}, err
	}
	return s.reserves[pool.Address], nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubGas struct {
	gwei int64
}

func (g *stubGas) GetGasPrice(context.Context) (*blockdomain.GasPrice, error) {
	wei := new(big.Int).Mul(big.NewInt(g.gwei), big.NewInt(1_000_000_000))
	return blockdomain.NewGasPrice(wei), nil
}

type countingExecutor struct {
	mu    sync.Mutex
	calls int
}

func (e *countingExecutor) Execute(_ context.Context, opp domain.Opportunity, amount decimal.Decimal, gas *blockdomain.GasEstimate) (*execdomain.TradeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return &execdomain.TradeResult{
		Pair:            opp.Pair(),
		Route:           opp.Route(),
		Amount:          amount,
		EstimatedProfit: amount.Mul(opp.ProfitPercent).Div(decimal.NewFromInt(100)),
		GasCost:         gas.CostETH(),
		Success:         true,
		ExecutedAt:      time.Now(),
	}, nil
}

func (e *countingExecutor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type scannerFixture struct {
	scanner *Scanner
	source  *stubSource
	scorer  *riskapp.Scorer
	exec    *countingExecutor
}

func reservesAtPrice(price int64) marketdomain.Reserves {
	return marketdomain.Reserves{
		Reserve0: new(big.Int).Mul(big.NewInt(1000), e18),
		Reserve1: new(big.Int).Mul(big.NewInt(1000*price), e18),
	}
}

func newScannerFixture(t *testing.T, prices map[string]int64, cfg ScannerConfig) *scannerFixture {
	t.Helper()

	var pools []marketdomain.WatchedPool
	reserves := make(map[common.Address]marketdomain.Reserves)
	exchanges := []string{"uniswap", "sushiswap", "shibaswap", "pancakeswap"}

	i := 0
	for addr, price := range prices {
		pool := marketdomain.NewWatchedPool(common.HexToAddress(addr), weth, dai, exchanges[i%len(exchanges)])
		pools = append(pools, pool)
		reserves[pool.Address] = reservesAtPrice(price)
		i++
	}

	source := &stubSource{reserves: reserves}

	market, err := marketapp.NewMarketService(source, marketdomain.NewPriceCache(), pools, logger.NewNop())
	if err != nil {
		t.Fatalf("NewMarketService() error = %v", err)
	}

	detector, err := NewDetector(DetectorConfig{MinProfitThreshold: decimal.NewFromFloat(0.01)}, logger.NewNop())
	if err != nil {
		t.Fatalf("NewDetector() error = %v", err)
	}

	scorer, err := riskapp.NewScorer(riskapp.ScorerConfig{
		MinProfitThreshold:    decimal.NewFromFloat(0.01),
		MaxSlippageTolerance:  decimal.NewFromFloat(0.5),
		MaxGasPriceGwei:       decimal.NewFromInt(100),
		MaxTradeSize:          decimal.NewFromInt(1),
		MaxDailyLoss:          decimal.NewFromFloat(0.5),
		SuspiciousProfitBound: decimal.NewFromInt(10),
	}, logger.NewNop(), nil)
	if err != nil {
		t.Fatalf("NewScorer() error = %v", err)
	}

	exec := &countingExecutor{}

	scanner, err := NewScanner(market, detector, scorer, exec, &stubGas{gwei: 40}, cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("NewScanner() error = %v", err)
	}

	return &scannerFixture{scanner: scanner, source: source, scorer: scorer, exec: exec}
}

func defaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		Interval:         10 * time.Second,
		TopN:             3,
		TradeAmount:      decimal.NewFromFloat(0.5),
		GasLimit:         250_000,
		MaxBackoffCycles: 3,
	}
}

func TestCycle_DetectsAndExecutes(t *testing.T) {
	f := newScannerFixture(t, map[string]int64{
		"0xA1": 1800,
		"0xA2": 1900,
	}, defaultScannerConfig())

	if err := f.scanner.cycle(context.Background()); err != nil {
		t.Fatalf("cycle() error = %v", err)
	}

	if got := f.exec.callCount(); got != 1 {
		t.Errorf("executor calls = %d, want 1", got)
	}

	stats := f.scorer.DailyStats()
	if stats.TradeCount != 1 {
		t.Errorf("TradeCount = %d, want 1", stats.TradeCount)
	}
	if !stats.CumulativeProfit.IsPositive() {
		t.Errorf("CumulativeProfit = %s, want positive", stats.CumulativeProfit)
	}

	opps := f.scanner.LastOpportunities()
	if len(opps) != 1 {
		t.Fatalf("LastOpportunities() = %d, want 1", len(opps))
	}
	if p := opps[0].ProfitPercent.StringFixed(2); p != "5.41" {
		t.Errorf("ProfitPercent = %s, want 5.41", p)
	}
}

func TestCycle_TopNLimitsEvaluation(t *testing.T) {
	// Four venues for the same pair give six pairwise opportunities;
	// only the top three may reach the executor.
	f := newScannerFixture(t, map[string]int64{
		"0xA1": 1800,
		"0xA2": 1850,
		"0xA3": 1900,
		"0xA4": 1950,
	}, defaultScannerConfig())

	if err := f.scanner.cycle(context.Background()); err != nil {
		t.Fatalf("cycle() error = %v", err)
	}

	if got := f.exec.callCount(); got != 3 {
		t.Errorf("executor calls = %d, want 3", got)
	}
}

func TestCycle_HaltSkipsEverything(t *testing.T) {
	f := newScannerFixture(t, map[string]int64{
		"0xA1": 1800,
		"0xA2": 1900,
	}, defaultScannerConfig())

	// Trip the daily loss circuit breaker.
	f.scorer.RecordTradeResult(context.Background(), decimal.NewFromInt(1), decimal.NewFromFloat(-0.5), decimal.Zero)

	if err := f.scanner.cycle(context.Background()); err != nil {
		t.Fatalf("cycle() error = %v", err)
	}

	if got := f.source.callCount(); got != 0 {
		t.Errorf("reserve fetches while halted = %d, want 0", got)
	}
	if got := f.exec.callCount(); got != 0 {
		t.Errorf("executor calls while halted = %d, want 0", got)
	}
}

func TestCycle_EmptyCacheFails(t *testing.T) {
	f := newScannerFixture(t, map[string]int64{
		"0xA1": 1800,
		"0xA2": 1900,
	}, defaultScannerConfig())
	f.source.err = errors.New("rpc down")

	if err := f.scanner.cycle(context.Background()); err == nil {
		t.Fatal("cycle() expected error when no pool ever refreshed")
	}
}

func TestCycle_AllFetchesFailSkipsDetection(t *testing.T) {
	f := newScannerFixture(t, map[string]int64{
		"0xA1": 1800,
		"0xA2": 1900,
	}, defaultScannerConfig())

	// First cycle populates the cache and executes on the divergence.
	if err := f.scanner.cycle(context.Background()); err != nil {
		t.Fatalf("first cycle() error = %v", err)
	}
	if got := f.exec.callCount(); got != 1 {
		t.Fatalf("executor calls after first cycle = %d, want 1", got)
	}

	// RPC dies entirely: the warm cache must not be traded against, the
	// cycle fails and nothing new reaches the executor.
	f.source.mu.Lock()
	f.source.err = errors.New("rpc down")
	f.source.mu.Unlock()

	if err := f.scanner.cycle(context.Background()); err == nil {
		t.Fatal("cycle() expected error when no pool refreshed this cycle")
	}
	if got := f.exec.callCount(); got != 1 {
		t.Errorf("executor calls after all-fail cycle = %d, want 1", got)
	}
}

func TestCycle_PartialRefreshTolerated(t *testing.T) {
	f := newScannerFixture(t, map[string]int64{
		"0xA1": 1800,
		"0xA2": 1900,
	}, defaultScannerConfig())

	// First cycle populates both pools.
	if err := f.scanner.cycle(context.Background()); err != nil {
		t.Fatalf("first cycle() error = %v", err)
	}

	// One pool fails: the cycle continues on its stale observation and
	// the fresh one, and detection still runs.
	f.source.mu.Lock()
	f.source.fail = map[common.Address]error{
		common.HexToAddress("0xA1"): errors.New("execution reverted"),
	}
	f.source.mu.Unlock()

	if err := f.scanner.cycle(context.Background()); err != nil {
		t.Fatalf("second cycle() error = %v, want partial-failure tolerance", err)
	}
	if got := f.exec.callCount(); got != 2 {
		t.Errorf("executor calls = %d, want 2", got)
	}
}

func TestRun_BackoffDoublesOnError(t *testing.T) {
	f := newScannerFixture(t, map[string]int64{
		"0xA1": 1800,
	}, defaultScannerConfig())
	f.source.err = errors.New("rpc down")

	delays := make(chan time.Duration, 8)
	tick := make(chan time.Time)
	f.scanner.after = func(d time.Duration) <-chan time.Time {
		delays <- d
		return tick
	}

	if err := f.scanner.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	want := []time.Duration{
		20 * time.Second, // doubled once
		40 * time.Second,
		80 * time.Second,
		80 * time.Second, // capped after MaxBackoffCycles=3
	}
	for i, w := range want {
		select {
		case got := <-delays:
			if got != w {
				t.Errorf("delay %d = %s, want %s", i, got, w)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for cycle %d", i)
		}
		if i < len(want)-1 {
			tick <- time.Now()
		}
	}

	f.scanner.Stop()

	if f.scanner.Running() {
		t.Error("Running() = true after Stop()")
	}
}

func TestRun_DelayResetsAfterSuccess(t *testing.T) {
	f := newScannerFixture(t, map[string]int64{
		"0xA1": 1800,
		"0xA2": 1900,
	}, defaultScannerConfig())

	delays := make(chan time.Duration, 8)
	tick := make(chan time.Time)
	f.scanner.after = func(d time.Duration) <-chan time.Time {
		delays <- d
		return tick
	}

	// First cycle fails, cache still empty.
	f.source.err = errors.New("rpc down")

	if err := f.scanner.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if got := <-delays; got != 20*time.Second {
		t.Errorf("delay after failure = %s, want 20s", got)
	}

	// RPC recovers: next cycle succeeds and the delay resets.
	f.source.mu.Lock()
	f.source.err = nil
	f.source.mu.Unlock()
	tick <- time.Now()

	if got := <-delays; got != 10*time.Second {
		t.Errorf("delay after recovery = %s, want 10s", got)
	}

	f.scanner.Stop()
}

func TestStart_RejectsDoubleStart(t *testing.T) {
	f := newScannerFixture(t, map[string]int64{"0xA1": 1800}, defaultScannerConfig())

	tick := make(chan time.Time)
	f.scanner.after = func(time.Duration) <-chan time.Time { return tick }

	if err := f.scanner.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := f.scanner.Start(context.Background()); err == nil {
		t.Error("second Start() expected error")
	}

	f.scanner.Stop()
}
