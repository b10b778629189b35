package ui

import (
	"context"

	arbapp "github.com/LaurieHoff/MEVBot/business/arbitrage/app"
	blockdomain "github.com/LaurieHoff/MEVBot/business/blockchain/domain"
	marketdomain "github.com/LaurieHoff/MEVBot/business/market/domain"
	riskapp "github.com/LaurieHoff/MEVBot/business/risk/app"
	riskdomain "github.com/LaurieHoff/MEVBot/business/risk/domain"
)

// Core is the read/control surface the console talks to. The console
// must stay usable unchanged if the components behind it are swapped.
type Core interface {
	StartScanner(ctx context.Context) error
	StopScanner()
	ScannerStatus(ctx context.Context) arbapp.ScannerStatus
	DailyStats() riskdomain.DailyStats
	Pools() []marketdomain.WatchedPool
	GasPrice(ctx context.Context) (*blockdomain.GasPrice, error)
	RiskConfig() riskapp.ScorerConfig
	SetLogLevel(level string) error
}
