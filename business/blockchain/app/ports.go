// Package app contains the application services for the blockchain context.
package app

import (
	"context"

	"github.com/LaurieHoff/MEVBot/business/blockchain/domain"
)

// GasPricer supplies current gas prices to the risk and execution layers.
type GasPricer interface {
	GetGasPrice(ctx context.Context) (*domain.GasPrice, error)
}
