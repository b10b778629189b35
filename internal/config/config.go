// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Pools     []PoolConfig    `mapstructure:"pools"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EthereumConfig holds Ethereum node configuration.
type EthereumConfig struct {
	HTTPURL        string        `mapstructure:"http_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RPCRateLimit   float64       `mapstructure:"rpc_rate_limit"`
	RPCRateBurst   int           `mapstructure:"rpc_rate_burst"`
}

// PoolConfig describes one watched V2 pool.
type PoolConfig struct {
	Address  string `mapstructure:"address"`
	Token0   string `mapstructure:"token0"`
	Token1   string `mapstructure:"token1"`
	Exchange string `mapstructure:"exchange"`
}

// AddressHex returns the pool address as common.Address.
func (p *PoolConfig) AddressHex() common.Address {
	return common.HexToAddress(p.Address)
}

// ScannerConfig holds scan loop configuration.
type ScannerConfig struct {
	Interval         time.Duration `mapstructure:"interval"`
	TopN             int           `mapstructure:"top_n"`
	TradeAmount      float64       `mapstructure:"trade_amount"`
	MaxBackoffCycles int           `mapstructure:"max_backoff_cycles"`
}

// TradeAmountDecimal returns the per-cycle trade size as decimal.Decimal.
func (c *ScannerConfig) TradeAmountDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.TradeAmount)
}

// RiskConfig holds risk scoring thresholds.
type RiskConfig struct {
	MinProfitThreshold    float64 `mapstructure:"min_profit_threshold"`    // fractional, e.g. 0.01 = 1%
	MaxSlippageTolerance  float64 `mapstructure:"max_slippage_tolerance"`  // percent
	MaxGasPriceGwei       float64 `mapstructure:"max_gas_price_gwei"`
	MaxTradeSize          float64 `mapstructure:"max_trade_size"`
	MaxDailyLoss          float64 `mapstructure:"max_daily_loss"`
	SuspiciousProfitBound float64 `mapstructure:"suspicious_profit_bound"` // percent
}

// MinProfitThresholdDecimal returns the threshold as decimal.Decimal.
func (c *RiskConfig) MinProfitThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitThreshold)
}

// MaxSlippageToleranceDecimal returns the slippage tolerance as decimal.Decimal.
func (c *RiskConfig) MaxSlippageToleranceDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxSlippageTolerance)
}

// MaxGasPriceWei returns the gas ceiling in wei.
func (c *RiskConfig) MaxGasPriceWei() *big.Int {
	gwei := new(big.Float).SetFloat64(c.MaxGasPriceGwei)
	gwei.Mul(gwei, big.NewFloat(1e9))
	wei, _ := gwei.Int(nil)
	return wei
}

// MaxTradeSizeDecimal returns the per-trade ceiling as decimal.Decimal.
func (c *RiskConfig) MaxTradeSizeDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxTradeSize)
}

// MaxDailyLossDecimal returns the daily loss ceiling as decimal.Decimal.
func (c *RiskConfig) MaxDailyLossDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxDailyLoss)
}

// SuspiciousProfitBoundDecimal returns the manipulation heuristic bound.
func (c *RiskConfig) SuspiciousProfitBoundDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.SuspiciousProfitBound)
}

// ExecutionConfig holds simulated execution settings.
type ExecutionConfig struct {
	GasLimit uint64 `mapstructure:"gas_limit"` // fixed per-swap gas limit
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("MEV")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Config file is optional; env vars and defaults can carry the process.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "MEV_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "MEV_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "MEV_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	v.BindEnv("ethereum.http_url", "MEV_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.chain_id", "MEV_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Scanner
	v.BindEnv("scanner.interval", "MEV_SCAN_INTERVAL")
	v.BindEnv("scanner.top_n", "MEV_SCAN_TOP_N")
	v.BindEnv("scanner.trade_amount", "MEV_TRADE_AMOUNT")

	// Risk
	v.BindEnv("risk.min_profit_threshold", "MEV_MIN_PROFIT_THRESHOLD")
	v.BindEnv("risk.max_slippage_tolerance", "MEV_MAX_SLIPPAGE_TOLERANCE")
	v.BindEnv("risk.max_gas_price_gwei", "MEV_MAX_GAS_PRICE_GWEI")
	v.BindEnv("risk.max_trade_size", "MEV_MAX_TRADE_SIZE")
	v.BindEnv("risk.max_daily_loss", "MEV_MAX_DAILY_LOSS")

	// Telemetry
	v.BindEnv("telemetry.enabled", "MEV_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "MEV_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "MEV_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "mevbot")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Ethereum defaults
	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.request_timeout", "10s")
	v.SetDefault("ethereum.rpc_rate_limit", 10.0)
	v.SetDefault("ethereum.rpc_rate_burst", 5)

	// Scanner defaults
	v.SetDefault("scanner.interval", "10s")
	v.SetDefault("scanner.top_n", 3)
	v.SetDefault("scanner.trade_amount", 1.0)
	v.SetDefault("scanner.max_backoff_cycles", 5)

	// Risk defaults
	v.SetDefault("risk.min_profit_threshold", 0.01) // 1%
	v.SetDefault("risk.max_slippage_tolerance", 0.5)
	v.SetDefault("risk.max_gas_price_gwei", 100)
	v.SetDefault("risk.max_trade_size", 10)
	v.SetDefault("risk.max_daily_loss", 0.5)
	v.SetDefault("risk.suspicious_profit_bound", 10)

	// Execution defaults
	v.SetDefault("execution.gas_limit", 250_000)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "mevbot")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required")
	}
	if c.Scanner.Interval <= 0 {
		return fmt.Errorf("scanner.interval must be > 0")
	}
	if c.Scanner.TopN <= 0 {
		return fmt.Errorf("scanner.top_n must be > 0")
	}
	if c.Risk.MinProfitThreshold < 0 {
		return fmt.Errorf("risk.min_profit_threshold must be >= 0")
	}
	if c.Risk.MaxDailyLoss < 0 {
		return fmt.Errorf("risk.max_daily_loss must be >= 0")
	}
	if c.Execution.GasLimit == 0 {
		return fmt.Errorf("execution.gas_limit must be > 0")
	}
	for i, p := range c.Pools {
		if !common.IsHexAddress(p.Address) {
			return fmt.Errorf("invalid pools[%d].address: %s", i, p.Address)
		}
		if p.Token0 == "" || p.Token1 == "" {
			return fmt.Errorf("pools[%d] must name token0 and token1", i)
		}
		if p.Exchange == "" {
			return fmt.Errorf("pools[%d].exchange is required", i)
		}
	}
	return nil
}
