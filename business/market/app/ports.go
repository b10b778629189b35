// Package app contains the application services for the market context.
package app

import (
	"context"

	"github.com/LaurieHoff/MEVBot/business/market/domain"
)

// ReserveSource fetches current reserves for a watched pool.
type ReserveSource interface {
	FetchReserves(ctx context.Context, pool domain.WatchedPool) (domain.Reserves, error)
}
