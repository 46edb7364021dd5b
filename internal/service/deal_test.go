package service

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pricelock/usdescrow/internal/domain"
	"github.com/pricelock/usdescrow/internal/engine"
	"github.com/pricelock/usdescrow/internal/ledger"
	"github.com/pricelock/usdescrow/internal/oracle"
)

var serviceAssets = domain.AssetPair{
	Collateral:       domain.Asset{Symbol: "WBNB", Decimals: 18},
	CollateralNative: domain.Asset{Symbol: "BNB", Decimals: 18},
	Stable:           domain.Asset{Symbol: "USDT", Decimals: 18},
}

func newTestService(t *testing.T) (*DealService, *engine.Engine, *ledger.InMemory) {
	t.Helper()

	base := time.Unix(1_700_000_000, 0)

	feedA := oracle.NewStaticFeed()
	feedA.Set(big.NewInt(60_000_000_000), 8, base)
	feedB := oracle.NewStaticFeed()
	feedB.Set(big.NewInt(100_000_000), 8, base)

	adapter := oracle.NewAdapter(time.Hour)
	adapter.SetNowFunc(func() time.Time { return base })

	led := ledger.NewInMemory("BNB", "WBNB")
	eng := engine.New(engine.NewRegistry(), engine.Config{
		Oracle:        adapter,
		FeedA:         feedA,
		FeedB:         feedB,
		Ledger:        led,
		Assets:        serviceAssets,
		EscrowAccount: "escrow",
		Logger:        zerolog.Nop(),
	})
	eng.SetNowFunc(func() time.Time { return base })

	return NewDealService(eng), eng, led
}

func createDeal(t *testing.T, eng *engine.Engine) uint64 {
	t.Helper()
	deal, err := eng.CreateDeal(engine.CreateParams{
		PartyA:   "alice",
		PartyB:   "bob",
		Deadline: time.Unix(1_700_000_000, 0).Add(72 * time.Hour),
		USDA:     domain.USD(2_000_000_000),
		USDB:     domain.USD(2_000_000_000),
	})
	require.NoError(t, err)
	return deal.ID
}

func TestDealViewBeforeLock(t *testing.T) {
	svc, eng, _ := newTestService(t)
	id := createDeal(t, eng)

	view, err := svc.Get(id)
	require.NoError(t, err)

	require.Equal(t, domain.DealStatusOpen, view.Status)
	require.Equal(t, "20", view.USDA)
	require.False(t, view.PriceLocked)
	require.Nil(t, view.LockedAt)
	require.Nil(t, view.LockedPriceA)
	require.Nil(t, view.RequiredAmountA)
	require.Nil(t, view.CancelReason)
}

func TestDealViewAfterLock(t *testing.T) {
	svc, eng, led := newTestService(t)
	id := createDeal(t, eng)

	required, ok := new(big.Int).SetString("33333333333333334", 10)
	require.True(t, ok)
	led.Mint("alice", "BNB", required)
	require.NoError(t, eng.FundA(context.Background(), id, required))

	view, err := svc.Get(id)
	require.NoError(t, err)

	require.Equal(t, domain.DealStatusPartiallyFunded, view.Status)
	require.True(t, view.PriceLocked)
	require.NotNil(t, view.LockedAt)
	require.Equal(t, "60000000000", *view.LockedPriceA)
	require.Equal(t, "100000000", *view.LockedPriceB)
	require.Equal(t, "33333333333333334", *view.RequiredAmountA)
	require.Equal(t, "20000000000000000000", *view.RequiredAmountB)
	require.True(t, view.FundedA)
	require.False(t, view.FundedB)
}

func TestDealViewCancelReason(t *testing.T) {
	svc, eng, led := newTestService(t)
	id := createDeal(t, eng)

	required, _ := new(big.Int).SetString("33333333333333334", 10)
	led.Mint("alice", "BNB", required)
	require.NoError(t, eng.FundA(context.Background(), id, required))
	require.NoError(t, eng.Cancel(id, "alice"))

	view, err := svc.Get(id)
	require.NoError(t, err)

	require.Equal(t, domain.DealStatusCanceled, view.Status)
	require.NotNil(t, view.CancelReason)
	require.Equal(t, string(domain.CancelReasonParty), *view.CancelReason)
	require.NotNil(t, view.CanceledAt)
}

func TestDealViewNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Get(42)
	require.True(t, errors.Is(err, domain.ErrDealNotFound))
}

func TestListOrdering(t *testing.T) {
	svc, eng, _ := newTestService(t)
	first := createDeal(t, eng)
	second := createDeal(t, eng)

	views := svc.List()
	require.Len(t, views, 2)
	require.Equal(t, first, views[0].ID)
	require.Equal(t, second, views[1].ID)
}
