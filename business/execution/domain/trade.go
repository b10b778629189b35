// Package domain contains the core domain types for the execution context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeResult is the outcome of one execution attempt. Skipped trades
// carry Success=false and the reason; no partial states exist because
// the simulated path cannot fail mid-flight.
type TradeResult struct {
	Pair            string
	Route           string // "exchangeA/exchangeB"
	Amount          decimal.Decimal
	EstimatedProfit decimal.Decimal // ETH, net of nothing; gas is reported separately
	GasCost         decimal.Decimal // ETH
	Success         bool
	Reason          string
	ExecutedAt      time.Time
}

// NetProfit returns estimated profit minus gas cost.
func (r TradeResult) NetProfit() decimal.Decimal {
	return r.EstimatedProfit.Sub(r.GasCost)
}
