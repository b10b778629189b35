package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/LaurieHoff/MEVBot/internal/apperror"
)

// Dial connects to an Ethereum JSON-RPC endpoint and verifies the chain ID
// when expectedChainID is non-zero.
func Dial(ctx context.Context, url string, expectedChainID int64) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("failed to connect to %s", url)))
	}

	if expectedChainID != 0 {
		chainID, err := client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, apperror.New(apperror.CodeEthereumRPCError,
				apperror.WithCause(err),
				apperror.WithContext("failed to query chain id"))
		}
		if chainID.Cmp(big.NewInt(expectedChainID)) != 0 {
			client.Close()
			return nil, apperror.New(apperror.CodeEthereumConnectionFailed,
				apperror.WithContext(fmt.Sprintf("unexpected chain id %s, want %d", chainID, expectedChainID)))
		}
	}

	return client, nil
}

// HealthCheck reports whether the node answers a block number query.
func HealthCheck(client *ethclient.Client) func(ctx context.Context) (bool, string) {
	return func(ctx context.Context) (bool, string) {
		n, err := client.BlockNumber(ctx)
		if err != nil {
			return false, err.Error()
		}
		return true, fmt.Sprintf("block %d", n)
	}
}
