package app

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LaurieHoff/MEVBot/business/market/domain"
	"github.com/LaurieHoff/MEVBot/internal/logger"
	"github.com/LaurieHoff/MEVBot/internal/token"
)

type fakeSource struct {
	reserves map[common.Address]domain.Reserves
	fail     map[common.Address]error
}

func (f *fakeSource) FetchReserves(_ context.Context, pool domain.WatchedPool) (domain.Reserves, error) {
	if err, ok := f.fail[pool.Address]; ok {
		return domain.Reserves{}, err
	}
	return f.reserves[pool.Address], nil
}

func testPools() []domain.WatchedPool {
	weth := token.New("WETH", common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), 18)
	dai := token.New("DAI", common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), 18)

	return []domain.WatchedPool{
		domain.NewWatchedPool(common.HexToAddress("0xA1"), weth, dai, "uniswap"),
		domain.NewWatchedPool(common.HexToAddress("0xA2"), weth, dai, "sushiswap"),
		domain.NewWatchedPool(common.HexToAddress("0xA3"), weth, dai, "shibaswap"),
	}
}

func reserves(r0, r1 int64) domain.Reserves {
	e18 := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return domain.Reserves{
		Reserve0: new(big.Int).Mul(big.NewInt(r0), e18),
		Reserve1: new(big.Int).Mul(big.NewInt(r1), e18),
	}
}

func newTestService(t *testing.T, source ReserveSource, pools []domain.WatchedPool) *MarketService {
	t.Helper()
	svc, err := NewMarketService(source, domain.NewPriceCache(), pools, logger.NewNop())
	if err != nil {
		t.Fatalf("NewMarketService() error = %v", err)
	}
	return svc
}

func TestRefreshAll_AllSucceed(t *testing.T) {
	pools := testPools()
	source := &fakeSource{
		reserves: map[common.Address]domain.Reserves{
			pools[0].Address: reserves(1000, 1800000),
			pools[1].Address: reserves(500, 950000),
			pools[2].Address: reserves(100, 185000),
		},
	}

	svc := newTestService(t, source, pools)

	refreshed, err := svc.RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("RefreshAll() error = %v", err)
	}
	if refreshed != 3 {
		t.Errorf("refreshed = %d, want 3", refreshed)
	}
	if svc.Cache().Len() != 3 {
		t.Errorf("cache size = %d, want 3", svc.Cache().Len())
	}

	obs, ok := svc.Cache().Get(pools[1].Address)
	if !ok {
		t.Fatal("pool 0xA2 missing from cache")
	}
	if obs.Price0.String() != "1900" {
		t.Errorf("Price0 = %s, want 1900", obs.Price0)
	}
}

func TestRefreshAll_PartialFailure(t *testing.T) {
	pools := testPools()
	rpcErr := errors.New("execution reverted")
	source := &fakeSource{
		reserves: map[common.Address]domain.Reserves{
			pools[0].Address: reserves(1000, 1800000),
			pools[2].Address: reserves(100, 185000),
		},
		fail: map[common.Address]error{
			pools[1].Address: rpcErr,
		},
	}

	svc := newTestService(t, source, pools)

	refreshed, err := svc.RefreshAll(context.Background())
	if err == nil {
		t.Fatal("RefreshAll() expected error for failing pool")
	}
	if !errors.Is(err, rpcErr) {
		t.Errorf("joined error does not wrap the pool failure: %v", err)
	}
	if refreshed != 2 {
		t.Errorf("refreshed = %d, want 2", refreshed)
	}

	// Successful pools still landed in the cache.
	if svc.Cache().Len() != 2 {
		t.Errorf("cache size = %d, want 2", svc.Cache().Len())
	}
	if _, ok := svc.Cache().Get(pools[1].Address); ok {
		t.Error("failed pool must not appear in the cache")
	}
}

func TestRefreshAll_ZeroReservesNeverCached(t *testing.T) {
	pools := testPools()[:1]
	source := &fakeSource{
		reserves: map[common.Address]domain.Reserves{
			pools[0].Address: {Reserve0: big.NewInt(0), Reserve1: big.NewInt(100)},
		},
	}

	svc := newTestService(t, source, pools)

	refreshed, err := svc.RefreshAll(context.Background())
	if err == nil {
		t.Fatal("RefreshAll() expected error for empty reserves")
	}
	if refreshed != 0 {
		t.Errorf("refreshed = %d, want 0", refreshed)
	}
	if svc.Cache().Len() != 0 {
		t.Errorf("cache size = %d, want 0", svc.Cache().Len())
	}
}
