package services_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/services"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

func init() {
	logger.InitLogger("test")
}

var (
	testOwner    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testDelegate = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testUSDC     = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	testWETH     = common.HexToAddress("0x4200000000000000000000000000000000000006")
	testRouterA  = common.HexToAddress("0x2626664c2603336E57B271c5C0b26F421741e481")
	testRouterB  = common.HexToAddress("0xDef1C0ded9bec7F1a1670819833240f027b25EfF")
	testT0       = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

const testNetwork business.NetworkID = 8453

// fakeClock is a settable clock shared by services under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// grantTable is an in-memory GrantReader.
type grantTable struct {
	mu     sync.Mutex
	grants map[uuid.UUID]*business.PermissionGrant
}

func newGrantTable(grants ...*business.PermissionGrant) *grantTable {
	t := &grantTable{grants: make(map[uuid.UUID]*business.PermissionGrant)}
	for _, g := range grants {
		t.grants[g.ID] = g
	}
	return t
}

func (t *grantTable) GetGrant(_ context.Context, id uuid.UUID) (*business.PermissionGrant, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.grants[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", business.ErrGrantNotFound, id)
	}
	cp := *g
	return &cp, nil
}

func activeGrant(periodAmount int64, periodDuration, ttl time.Duration) *business.PermissionGrant {
	activated := testT0
	return &business.PermissionGrant{
		ID:             uuid.New(),
		Owner:          testOwner,
		Delegate:       testDelegate,
		PermissionType: business.PermissionTypeTrading,
		NetworkID:      testNetwork,
		Token:          testUSDC,
		PeriodAmount:   big.NewInt(periodAmount),
		PeriodDuration: periodDuration,
		Expiry:         testT0.Add(ttl),
		Status:         business.GrantStatusActive,
		CreatedAt:      testT0,
		UpdatedAt:      testT0,
		ActivatedAt:    &activated,
	}
}

// stubAdapter is a configurable liquidity adapter.
type stubAdapter struct {
	id        string
	routers   map[business.NetworkID]common.Address
	amountOut *big.Int
	gas       uint64
	delay     time.Duration
	err       error
	// payloadCalls overrides the calls returned by BuildPayload.
	payloadCalls []business.Call
	// enforcedMinimum overrides the payload's minimum output.
	enforcedMinimum *big.Int

	mu          sync.Mutex
	quoteCalls  int
	buildParams []business.BuildParams
}

func newStubAdapter(id string, router common.Address, amountOut int64, gas uint64) *stubAdapter {
	return &stubAdapter{
		id:        id,
		routers:   map[business.NetworkID]common.Address{testNetwork: router},
		amountOut: big.NewInt(amountOut),
		gas:       gas,
	}
}

func (a *stubAdapter) ID() string { return a.id }

func (a *stubAdapter) NetworkIDs() []business.NetworkID {
	ids := make([]business.NetworkID, 0, len(a.routers))
	for id := range a.routers {
		ids = append(ids, id)
	}
	return ids
}

func (a *stubAdapter) Router(networkID business.NetworkID) (common.Address, bool) {
	r, ok := a.routers[networkID]
	return r, ok
}

func (a *stubAdapter) SupportsPair(networkID business.NetworkID, tokenIn, tokenOut common.Address) bool {
	_, ok := a.routers[networkID]
	return ok && tokenIn != tokenOut
}

func (a *stubAdapter) Quote(ctx context.Context, req business.QuoteRequest) (*business.Quote, error) {
	a.mu.Lock()
	a.quoteCalls++
	a.mu.Unlock()

	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.err != nil {
		return nil, a.err
	}
	return &business.Quote{
		SourceID:     a.id,
		NetworkID:    req.NetworkID,
		TokenIn:      req.TokenIn,
		TokenOut:     req.TokenOut,
		AmountIn:     new(big.Int).Set(req.AmountIn),
		AmountOut:    new(big.Int).Set(a.amountOut),
		EstimatedGas: a.gas,
		Router:       a.routers[req.NetworkID],
		QuotedAt:     testT0,
	}, nil
}

func (a *stubAdapter) BuildPayload(_ context.Context, quote *business.Quote, params business.BuildParams) (*business.CallPayload, error) {
	a.mu.Lock()
	a.buildParams = append(a.buildParams, params)
	a.mu.Unlock()

	calls := a.payloadCalls
	if calls == nil {
		approve := business.SelectorID("approve(address,uint256)")
		swap := business.SelectorID("exactInputSingle((address,address,uint24,address,uint256,uint256,uint160))")
		calls = []business.Call{
			{Target: quote.TokenIn, Value: new(big.Int), Data: approve[:]},
			{Target: quote.Router, Value: new(big.Int), Data: swap[:]},
		}
	}
	minimum := params.AmountOutMinimum
	if a.enforcedMinimum != nil {
		minimum = a.enforcedMinimum
	}
	return &business.CallPayload{
		NetworkID:        quote.NetworkID,
		SourceID:         a.id,
		Calls:            calls,
		AmountOutMinimum: minimum,
	}, nil
}

func (a *stubAdapter) QuoteCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quoteCalls
}

// flakyBudgetStore fails the next commitFailures commits and releaseFailures releases.
type flakyBudgetStore struct {
	*services.MemoryBudgetStore

	mu              sync.Mutex
	commitFailures  int
	releaseFailures int
}

func newFlakyBudgetStore() *flakyBudgetStore {
	return &flakyBudgetStore{MemoryBudgetStore: services.NewMemoryBudgetStore()}
}

func (s *flakyBudgetStore) failNext(counter *int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if *counter == 0 {
		return false
	}
	*counter--
	return true
}

func (s *flakyBudgetStore) Commit(ctx context.Context, grantID, reservationID uuid.UUID) error {
	if s.failNext(&s.commitFailures) {
		return errors.New("budget store unavailable")
	}
	return s.MemoryBudgetStore.Commit(ctx, grantID, reservationID)
}

func (s *flakyBudgetStore) Release(ctx context.Context, grantID, reservationID uuid.UUID) error {
	if s.failNext(&s.releaseFailures) {
		return errors.New("budget store unavailable")
	}
	return s.MemoryBudgetStore.Release(ctx, grantID, reservationID)
}
