// Package main is the entry point for the DEX arbitrage scanner.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	arbapp "github.com/LaurieHoff/MEVBot/business/arbitrage/app"
	arbinfra "github.com/LaurieHoff/MEVBot/business/arbitrage/infra"
	blockdomain "github.com/LaurieHoff/MEVBot/business/blockchain/domain"
	"github.com/LaurieHoff/MEVBot/business/blockchain/infra/ethereum"
	execapp "github.com/LaurieHoff/MEVBot/business/execution/app"
	marketapp "github.com/LaurieHoff/MEVBot/business/market/app"
	marketdomain "github.com/LaurieHoff/MEVBot/business/market/domain"
	"github.com/LaurieHoff/MEVBot/business/market/infra/uniswapv2"
	riskapp "github.com/LaurieHoff/MEVBot/business/risk/app"
	riskdomain "github.com/LaurieHoff/MEVBot/business/risk/domain"
	"github.com/LaurieHoff/MEVBot/internal/apm"
	"github.com/LaurieHoff/MEVBot/internal/config"
	"github.com/LaurieHoff/MEVBot/internal/health"
	"github.com/LaurieHoff/MEVBot/internal/logger"
	"github.com/LaurieHoff/MEVBot/internal/metrics"
	"github.com/LaurieHoff/MEVBot/internal/ratelimit"
	"github.com/LaurieHoff/MEVBot/internal/token"
	"github.com/LaurieHoff/MEVBot/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mevbot %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger. In TUI mode raw output is discarded and records are
	// mirrored into the console viewport through the bridge instead.
	logLevel := logger.ParseLevel(cfg.App.LogLevel)

	var log *logger.Logger
	bridge := &uiLogBridge{}
	if tuiMode {
		log = logger.New(io.Discard, logLevel, cfg.App.Name, bridge.emit)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting DEX arbitrage scanner",
			"version", version,
			"environment", cfg.App.Environment,
		)
	}

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	// Connect to the Ethereum node and verify the chain ID up front; a bot
	// pointed at the wrong network must not start scanning.
	client, err := ethereum.Dial(ctx, cfg.Ethereum.HTTPURL, int64(cfg.Ethereum.ChainID))
	if err != nil {
		return fmt.Errorf("failed to connect to ethereum node: %w", err)
	}
	defer client.Close()
	log.Info(ctx, "connected to ethereum node", "chain_id", cfg.Ethereum.ChainID)

	// Health check server on port 8081
	healthServer := health.NewServer(8081, version, log)
	healthServer.RegisterCheck("ethereum", ethereum.HealthCheck(client))
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	pools, err := buildWatchedPools(cfg.Pools)
	if err != nil {
		return err
	}
	if len(pools) == 0 {
		return fmt.Errorf("no pools configured; nothing to scan")
	}

	limiter := ratelimit.New(cfg.Ethereum.RPCRateLimit, cfg.Ethereum.RPCRateBurst)

	reserveSource, err := uniswapv2.NewProvider(client, limiter, log)
	if err != nil {
		return fmt.Errorf("failed to create reserve provider: %w", err)
	}

	if err := verifyPools(ctx, reserveSource, pools); err != nil {
		return fmt.Errorf("pool verification failed: %w", err)
	}
	log.Info(ctx, "verified configured pools against chain", "pools", len(pools))

	market, err := marketapp.NewMarketService(reserveSource, marketdomain.NewPriceCache(), pools, log)
	if err != nil {
		return fmt.Errorf("failed to create market service: %w", err)
	}

	detector, err := arbapp.NewDetector(arbapp.DetectorConfig{
		MinProfitThreshold: cfg.Risk.MinProfitThresholdDecimal(),
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create detector: %w", err)
	}

	scorer, err := riskapp.NewScorer(riskapp.ScorerConfig{
		MinProfitThreshold:    cfg.Risk.MinProfitThresholdDecimal(),
		MaxSlippageTolerance:  cfg.Risk.MaxSlippageToleranceDecimal(),
		MaxGasPriceGwei:       decimal.NewFromFloat(cfg.Risk.MaxGasPriceGwei),
		MaxTradeSize:          cfg.Risk.MaxTradeSizeDecimal(),
		MaxDailyLoss:          cfg.Risk.MaxDailyLossDecimal(),
		SuspiciousProfitBound: cfg.Risk.SuspiciousProfitBoundDecimal(),
	}, log, nil)
	if err != nil {
		return fmt.Errorf("failed to create risk scorer: %w", err)
	}

	executor, err := execapp.NewSimulatedExecutor(cfg.Risk.MinProfitThresholdDecimal(), log)
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}

	oracleCfg := ethereum.DefaultGasOracleConfig()
	oracleCfg.DefaultGas = cfg.Execution.GasLimit
	gasOracle, err := ethereum.NewGasOracle(client, oracleCfg, log)
	if err != nil {
		return fmt.Errorf("failed to create gas oracle: %w", err)
	}
	defer gasOracle.Close()

	scanner, err := arbapp.NewScanner(market, detector, scorer, executor, gasOracle, arbapp.ScannerConfig{
		Interval:         cfg.Scanner.Interval,
		TopN:             cfg.Scanner.TopN,
		TradeAmount:      cfg.Scanner.TradeAmountDecimal(),
		GasLimit:         cfg.Execution.GasLimit,
		MaxBackoffCycles: cfg.Scanner.MaxBackoffCycles,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create scanner: %w", err)
	}

	core := &botCore{
		scanner: scanner,
		scorer:  scorer,
		market:  market,
		gas:     gasOracle,
		log:     log,
	}

	if tuiMode {
		return runTUI(ctx, core, scanner, bridge)
	}
	return runCLI(ctx, scanner, log)
}

// buildWatchedPools resolves the configured pool entries against the
// well-known token registry. Unknown token symbols are a config error.
func buildWatchedPools(entries []config.PoolConfig) ([]marketdomain.WatchedPool, error) {
	registry := token.DefaultRegistry()

	pools := make([]marketdomain.WatchedPool, 0, len(entries))
	for i, p := range entries {
		token0, ok := registry.GetBySymbol(p.Token0)
		if !ok {
			return nil, fmt.Errorf("pools[%d]: unknown token symbol %q", i, p.Token0)
		}
		token1, ok := registry.GetBySymbol(p.Token1)
		if !ok {
			return nil, fmt.Errorf("pools[%d]: unknown token symbol %q", i, p.Token1)
		}
		pools = append(pools, marketdomain.NewWatchedPool(p.AddressHex(), token0, token1, p.Exchange))
	}
	return pools, nil
}

// verifyPools reads token0/token1 from each configured pair contract and
// checks they match the configured tokens. A pool that is unreachable or
// holds a different pair than configured is a startup failure.
func verifyPools(ctx context.Context, provider *uniswapv2.Provider, pools []marketdomain.WatchedPool) error {
	for _, pool := range pools {
		token0, token1, err := provider.FetchTokens(ctx, pool.Address)
		if err != nil {
			return fmt.Errorf("pool %s (%s): %w", pool.Address.Hex(), pool.Exchange, err)
		}
		if token0 != pool.Token0.Address() || token1 != pool.Token1.Address() {
			return fmt.Errorf("pool %s: on-chain pair %s/%s does not match configured %s/%s",
				pool.Address.Hex(), token0.Hex(), token1.Hex(),
				pool.Token0.Address().Hex(), pool.Token1.Address().Hex())
		}
	}
	return nil
}

func runCLI(ctx context.Context, scanner *arbapp.Scanner, log *logger.Logger) error {
	scanner.SetReporter(arbinfra.NewConsoleReporter())

	if err := scanner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scanner: %w", err)
	}
	log.Info(ctx, "scanner started, watching pools")

	<-ctx.Done()

	log.Info(ctx, "shutting down")
	scanner.Stop()

	return nil
}

func runTUI(ctx context.Context, core *botCore, scanner *arbapp.Scanner, bridge *uiLogBridge) error {
	program := tea.NewProgram(ui.NewModel(ctx, core), tea.WithAltScreen())
	bridge.attach(program)
	scanner.SetReporter(ui.NewReporter(program))

	// Quit the TUI when the surrounding context is cancelled (signals).
	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	if scanner.Running() {
		scanner.Stop()
	}
	return nil
}

// uiLogBridge mirrors log records into the TUI as LogMsg values. attach is
// called once the program exists; records emitted before that are dropped.
type uiLogBridge struct {
	mu      sync.Mutex
	program *tea.Program
}

func (b *uiLogBridge) attach(p *tea.Program) {
	b.mu.Lock()
	b.program = p
	b.mu.Unlock()
}

func (b *uiLogBridge) emit(level logger.Level, msg string, args ...any) {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p == nil {
		return
	}

	line := msg
	for i := 0; i+1 < len(args); i += 2 {
		line += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	p.Send(ui.LogMsg{Level: levelName(level), Message: line})
}

func levelName(level logger.Level) string {
	switch level {
	case logger.LevelDebug:
		return "debug"
	case logger.LevelWarn:
		return "warn"
	case logger.LevelError:
		return "error"
	default:
		return "info"
	}
}

// botCore adapts the wired services to the command surface the TUI drives.
type botCore struct {
	scanner *arbapp.Scanner
	scorer  *riskapp.Scorer
	market  *marketapp.MarketService
	gas     *ethereum.GasOracle
	log     *logger.Logger
}

func (c *botCore) StartScanner(ctx context.Context) error {
	return c.scanner.Start(ctx)
}

func (c *botCore) StopScanner() {
	c.scanner.Stop()
}

func (c *botCore) ScannerStatus(ctx context.Context) arbapp.ScannerStatus {
	return c.scanner.Status(ctx)
}

func (c *botCore) DailyStats() riskdomain.DailyStats {
	return c.scorer.DailyStats()
}

func (c *botCore) Pools() []marketdomain.WatchedPool {
	return c.market.Pools()
}

func (c *botCore) GasPrice(ctx context.Context) (*blockdomain.GasPrice, error) {
	return c.gas.GetGasPrice(ctx)
}

func (c *botCore) RiskConfig() riskapp.ScorerConfig {
	return c.scorer.Config()
}

func (c *botCore) SetLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
	c.log.SetLevel(logger.ParseLevel(level))
	return nil
}
