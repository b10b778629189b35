// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/LaurieHoff/MEVBot/internal/token"
)

// PoolLeg is one side of a detected divergence.
type PoolLeg struct {
	PoolAddress common.Address
	Exchange    string
	Price       decimal.Decimal // token1 per token0
}

// Opportunity is a price divergence between two pools sharing a token
// pair. Derived fresh each scan cycle, never persisted.
type Opportunity struct {
	PoolA         PoolLeg
	PoolB         PoolLeg
	Token0        *token.Token
	Token1        *token.Token
	ProfitPercent decimal.Decimal
	DetectedAt    time.Time
}

// Pair returns the token pair symbol (e.g. "WETH-DAI").
func (o Opportunity) Pair() string {
	return o.Token0.Symbol() + "-" + o.Token1.Symbol()
}

// Route returns the two exchange labels joined for display and logging.
func (o Opportunity) Route() string {
	return o.PoolA.Exchange + "/" + o.PoolB.Exchange
}

// NewOpportunity computes the divergence between two legs.
//
//	profitPercent = |priceA - priceB| / ((priceA + priceB) / 2) * 100
func NewOpportunity(a, b PoolLeg, token0, token1 *token.Token) Opportunity {
	diff := a.Price.Sub(b.Price).Abs()
	avg := a.Price.Add(b.Price).Div(decimal.NewFromInt(2))

	return Opportunity{
		PoolA:         a,
		PoolB:         b,
		Token0:        token0,
		Token1:        token1,
		ProfitPercent: diff.Div(avg).Mul(decimal.NewFromInt(100)),
		DetectedAt:    time.Now(),
	}
}
