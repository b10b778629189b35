// Package domain contains the core domain types for the market context.
package domain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/LaurieHoff/MEVBot/internal/apperror"
	"github.com/LaurieHoff/MEVBot/internal/token"
)

// WatchedPool identifies a V2-style pool the scanner tracks.
type WatchedPool struct {
	Address  common.Address
	Token0   *token.Token
	Token1   *token.Token
	Exchange string // e.g. "uniswap", "sushiswap"
}

// NewWatchedPool creates a watched pool.
func NewWatchedPool(address common.Address, token0, token1 *token.Token, exchange string) WatchedPool {
	if token0 == nil || token1 == nil {
		panic("market: nil token in watched pool")
	}
	return WatchedPool{
		Address:  address,
		Token0:   token0,
		Token1:   token1,
		Exchange: exchange,
	}
}

// Pair returns the pair symbol (e.g. "WETH-USDC").
func (p WatchedPool) Pair() string {
	return p.Token0.Symbol() + "-" + p.Token1.Symbol()
}

// Reserves is a raw getReserves result.
type Reserves struct {
	Reserve0           *big.Int
	Reserve1           *big.Int
	BlockTimestampLast uint32
}

// PoolObservation is a validated reserve snapshot with derived spot prices.
type PoolObservation struct {
	Pool       WatchedPool
	Reserve0   *big.Int
	Reserve1   *big.Int
	Price0     decimal.Decimal // token1 per token0, decimal adjusted
	Price1     decimal.Decimal // token0 per token1
	ObservedAt time.Time
}

// NewPoolObservation validates reserves and derives spot prices. Pools
// with zero or negative reserves are rejected so they can never feed
// the detector.
func NewPoolObservation(pool WatchedPool, reserves Reserves) (*PoolObservation, error) {
	if reserves.Reserve0 == nil || reserves.Reserve1 == nil ||
		reserves.Reserve0.Sign() <= 0 || reserves.Reserve1.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeEmptyReserves,
			apperror.WithContext(fmt.Sprintf("pool %s (%s) has empty reserves", pool.Address.Hex(), pool.Pair())))
	}

	r0 := decimal.NewFromBigInt(reserves.Reserve0, -int32(pool.Token0.Decimals()))
	r1 := decimal.NewFromBigInt(reserves.Reserve1, -int32(pool.Token1.Decimals()))

	return &PoolObservation{
		Pool:       pool,
		Reserve0:   new(big.Int).Set(reserves.Reserve0),
		Reserve1:   new(big.Int).Set(reserves.Reserve1),
		Price0:     r1.Div(r0),
		Price1:     r0.Div(r1),
		ObservedAt: time.Now(),
	}, nil
}

// PriceOf returns the pool price quoted as "other token per t". It
// returns false when t is not part of the pool.
func (o *PoolObservation) PriceOf(t *token.Token) (decimal.Decimal, bool) {
	switch t.Address() {
	case o.Pool.Token0.Address():
		return o.Price0, true
	case o.Pool.Token1.Address():
		return o.Price1, true
	}
	return decimal.Zero, false
}
