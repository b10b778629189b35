package app

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	arbdomain "github.com/LaurieHoff/MEVBot/business/arbitrage/domain"
	blockdomain "github.com/LaurieHoff/MEVBot/business/blockchain/domain"
	"github.com/LaurieHoff/MEVBot/internal/logger"
	"github.com/LaurieHoff/MEVBot/internal/token"
)

func testOpportunity(profitPercent string) arbdomain.Opportunity {
	weth := token.New("WETH", common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), 18)
	dai := token.New("DAI", common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), 18)
	p, _ := decimal.NewFromString(profitPercent)

	return arbdomain.Opportunity{
		PoolA:         arbdomain.PoolLeg{PoolAddress: common.HexToAddress("0xA1"), Exchange: "uniswap", Price: decimal.NewFromInt(1800)},
		PoolB:         arbdomain.PoolLeg{PoolAddress: common.HexToAddress("0xA2"), Exchange: "sushiswap", Price: decimal.NewFromInt(1900)},
		Token0:        weth,
		Token1:        dai,
		ProfitPercent: p,
		DetectedAt:    time.Now(),
	}
}

// gasEstimate builds an estimate at the given gwei price and gas limit.
func gasEstimate(gwei int64, gasLimit uint64) *blockdomain.GasEstimate {
	wei := new(big.Int).Mul(big.NewInt(gwei), big.NewInt(1_000_000_000))
	return blockdomain.NewGasEstimate(gasLimit, blockdomain.NewGasPrice(wei))
}

func TestExecute_ProfitableTrade(t *testing.T) {
	exec, err := NewSimulatedExecutor(decimal.NewFromFloat(0.01), logger.NewNop())
	if err != nil {
		t.Fatalf("NewSimulatedExecutor() error = %v", err)
	}

	// 5.4% of 1 ETH = 0.054 ETH gross; gas 250k @ 40 gwei = 0.01 ETH.
	result, err := exec.Execute(context.Background(), testOpportunity("5.4"), decimal.NewFromInt(1), gasEstimate(40, 250_000))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !result.Success {
		t.Fatalf("Success = false, reason = %s", result.Reason)
	}
	if !result.EstimatedProfit.Equal(decimal.NewFromFloat(0.054)) {
		t.Errorf("EstimatedProfit = %s, want 0.054", result.EstimatedProfit)
	}
	if !result.GasCost.Equal(decimal.NewFromFloat(0.01)) {
		t.Errorf("GasCost = %s, want 0.01", result.GasCost)
	}
	if !result.NetProfit().Equal(decimal.NewFromFloat(0.044)) {
		t.Errorf("NetProfit = %s, want 0.044", result.NetProfit())
	}
	if result.Route != "uniswap/sushiswap" {
		t.Errorf("Route = %s, want uniswap/sushiswap", result.Route)
	}
}

func TestExecute_GasErodesProfit(t *testing.T) {
	exec, err := NewSimulatedExecutor(decimal.NewFromFloat(0.01), logger.NewNop())
	if err != nil {
		t.Fatalf("NewSimulatedExecutor() error = %v", err)
	}

	// 1.2% of 1 ETH = 0.012 ETH gross; gas 250k @ 40 gwei = 0.01 ETH.
	// Net 0.002 is below the 0.01 threshold.
	result, err := exec.Execute(context.Background(), testOpportunity("1.2"), decimal.NewFromInt(1), gasEstimate(40, 250_000))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Success {
		t.Fatal("Success = true for trade eroded by gas")
	}
	if result.Reason == "" {
		t.Error("Reason is empty for a skipped trade")
	}
}

func TestExecute_NetExactlyAtThreshold(t *testing.T) {
	exec, err := NewSimulatedExecutor(decimal.NewFromFloat(0.044), logger.NewNop())
	if err != nil {
		t.Fatalf("NewSimulatedExecutor() error = %v", err)
	}

	// Net profit 0.044 equals the threshold: executes (>= comparison).
	result, err := exec.Execute(context.Background(), testOpportunity("5.4"), decimal.NewFromInt(1), gasEstimate(40, 250_000))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !result.Success {
		t.Errorf("Success = false at exact threshold, reason = %s", result.Reason)
	}
}
