// Package token provides typed ERC-20 token metadata and a registry of
// well-known mainnet tokens.
package token

import "github.com/ethereum/go-ethereum/common"

// Token represents ERC-20 token metadata. Identity is the contract address;
// the symbol is display metadata only.
type Token struct {
	symbol   string
	address  common.Address
	decimals uint8
}

// New creates a Token with the given parameters.
func New(symbol string, address common.Address, decimals uint8) *Token {
	if symbol == "" {
		panic("token: empty symbol")
	}
	if decimals > 30 {
		panic("token: suspicious decimals (>30)")
	}
	return &Token{symbol: symbol, address: address, decimals: decimals}
}

// Symbol returns the ticker symbol (e.g., "WETH", "USDC").
func (t *Token) Symbol() string {
	return t.symbol
}

// Address returns the token contract address.
func (t *Token) Address() common.Address {
	return t.address
}

// Decimals returns the number of decimal places.
func (t *Token) Decimals() uint8 {
	return t.decimals
}

// String returns a human-readable representation.
func (t *Token) String() string {
	return t.symbol
}

// Equals compares two tokens by contract address.
func (t *Token) Equals(other *Token) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.address == other.address
}
