// Package domain contains the core domain types for the blockchain context.
package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

var weiPerETH = decimal.New(1, 18)

// GasPrice represents a gas price observation from the node.
type GasPrice struct {
	Wei       *big.Int
	Timestamp time.Time
}

// NewGasPrice creates a GasPrice from wei.
func NewGasPrice(wei *big.Int) *GasPrice {
	return &GasPrice{
		Wei:       new(big.Int).Set(wei),
		Timestamp: time.Now(),
	}
}

// Gwei returns the price in gwei.
func (p *GasPrice) Gwei() float64 {
	gwei := new(big.Float).SetInt(p.Wei)
	gwei.Quo(gwei, big.NewFloat(1e9))
	f, _ := gwei.Float64()
	return f
}

// GweiDecimal returns the price in gwei as a decimal.
func (p *GasPrice) GweiDecimal() decimal.Decimal {
	return decimal.NewFromBigInt(p.Wei, -9)
}

// GasEstimate represents the estimated gas cost for an operation.
type GasEstimate struct {
	GasLimit uint64
	Price    *GasPrice
}

// NewGasEstimate pairs a gas limit with the price it was estimated at.
func NewGasEstimate(gasLimit uint64, price *GasPrice) *GasEstimate {
	return &GasEstimate{GasLimit: gasLimit, Price: price}
}

// TotalWei returns gasLimit * gasPrice in wei.
func (e *GasEstimate) TotalWei() *big.Int {
	return new(big.Int).Mul(e.Price.Wei, new(big.Int).SetUint64(e.GasLimit))
}

// CostETH returns the total cost denominated in ETH.
func (e *GasEstimate) CostETH() decimal.Decimal {
	return decimal.NewFromBigInt(e.TotalWei(), 0).Div(weiPerETH)
}
