package token

import "github.com/ethereum/go-ethereum/common"

// Well-known token addresses on Ethereum Mainnet
var (
	AddrWETH = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	AddrUSDC = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	AddrUSDT = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	AddrDAI  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	AddrWBTC = common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599")
)

// Well-known Tokens (pre-created instances)
var (
	WETH = New("WETH", AddrWETH, 18)
	USDC = New("USDC", AddrUSDC, 6)
	USDT = New("USDT", AddrUSDT, 6)
	DAI  = New("DAI", AddrDAI, 18)
	WBTC = New("WBTC", AddrWBTC, 8)
)

// DefaultRegistry returns a registry pre-populated with well-known tokens.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, t := range []*Token{WETH, USDC, USDT, DAI, WBTC} {
		r.Register(t)
	}
	return r
}
