package services_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/cyphera/cyphera-agent/internal/db"
	"github.com/cyphera/cyphera-agent/internal/interfaces"
	"github.com/cyphera/cyphera-agent/internal/mocks"
	"github.com/cyphera/cyphera-agent/internal/registry"
	"github.com/cyphera/cyphera-agent/internal/services"
	"github.com/cyphera/cyphera-agent/internal/types/api/params"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var _ interfaces.GrantService = (*services.GrantService)(nil)

type grantFixture struct {
	clock    *fakeClock
	store    *db.MemoryStore
	resolver *services.ScopeResolver
	service  *services.GrantService
}

func newGrantFixture(t *testing.T) *grantFixture {
	t.Helper()
	tokens, err := registry.Parse([]byte(scopeRegistryYAML))
	require.NoError(t, err)
	resolver, err := services.NewScopeResolver(tokens, newScopeAdapters(t), services.DefaultPermissionTypes())
	require.NoError(t, err)

	f := &grantFixture{
		clock:    newFakeClock(testT0),
		store:    db.NewMemoryStore(),
		resolver: resolver,
	}
	f.service = services.NewGrantService(f.store, resolver, tokens, services.WithGrantClock(f.clock.Now))
	return f
}

func (f *grantFixture) createParams() params.CreateGrantParams {
	return params.CreateGrantParams{
		Owner:          testOwner,
		Delegate:       testDelegate,
		PermissionType: business.PermissionTypeTrading,
		NetworkID:      testNetwork,
		Token:          testUSDC,
		PeriodAmount:   big.NewInt(100),
		PeriodDuration: time.Hour,
		Expiry:         testT0.Add(time.Hour),
		Adjustable:     true,
	}
}

func (f *grantFixture) proof(t *testing.T) business.AuthorizationProof {
	t.Helper()
	scope, err := f.resolver.ResolveScope(business.PermissionTypeTrading, testNetwork)
	require.NoError(t, err)
	return business.AuthorizationProof{Data: []byte{0xde, 0xad, 0xbe, 0xef}, Scope: scope}
}

func (f *grantFixture) activeGrant(t *testing.T) *business.PermissionGrant {
	t.Helper()
	ctx := context.Background()
	grant, err := f.service.CreateGrant(ctx, f.createParams())
	require.NoError(t, err)
	grant, err = f.service.ActivateGrant(ctx, params.ActivateGrantParams{GrantID: grant.ID, Caller: testOwner, Proof: f.proof(t)})
	require.NoError(t, err)
	return grant
}

func TestGrantService_CreateGrant(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *params.CreateGrantParams)
		wantErr error
	}{
		{
			name:   "valid grant",
			mutate: func(p *params.CreateGrantParams) {},
		},
		{
			name:    "owner delegating to itself",
			mutate:  func(p *params.CreateGrantParams) { p.Delegate = p.Owner },
			wantErr: business.ErrInvalidRequest,
		},
		{
			name:    "zero period amount",
			mutate:  func(p *params.CreateGrantParams) { p.PeriodAmount = big.NewInt(0) },
			wantErr: business.ErrInvalidRequest,
		},
		{
			name:    "fractional period duration",
			mutate:  func(p *params.CreateGrantParams) { p.PeriodDuration = 1500 * time.Millisecond },
			wantErr: business.ErrInvalidRequest,
		},
		{
			name:    "expiry in the past",
			mutate:  func(p *params.CreateGrantParams) { p.Expiry = testT0.Add(-time.Second) },
			wantErr: business.ErrInvalidRequest,
		},
		{
			name:    "disabled permission type",
			mutate:  func(p *params.CreateGrantParams) { p.PermissionType = business.PermissionTypeGovernance },
			wantErr: business.ErrUnknownPermissionType,
		},
		{
			name:    "unsupported network",
			mutate:  func(p *params.CreateGrantParams) { p.NetworkID = 1 },
			wantErr: business.ErrUnsupportedNetwork,
		},
		{
			name:    "unregistered token",
			mutate:  func(p *params.CreateGrantParams) { p.Token = common.HexToAddress("0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb") },
			wantErr: business.ErrScopeViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGrantFixture(t)
			p := f.createParams()
			tt.mutate(&p)

			grant, err := f.service.CreateGrant(context.Background(), p)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, business.GrantStatusPending, grant.Status)
			assert.Equal(t, testOwner, grant.Owner)
			assert.Equal(t, "100", grant.PeriodAmount.String())
			assert.Equal(t, time.Hour, grant.PeriodDuration)
			assert.Nil(t, grant.Authorization)
		})
	}
}

func TestGrantService_ActivateGrant(t *testing.T) {
	ctx := context.Background()

	t.Run("owner activates with a valid proof", func(t *testing.T) {
		f := newGrantFixture(t)
		grant := f.activeGrant(t)
		assert.Equal(t, business.GrantStatusActive, grant.Status)
		require.NotNil(t, grant.Authorization)
		assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, grant.Authorization.Data)
		assert.True(t, grant.Authorization.Scope.ContainsTarget(testRouterA))
		require.NotNil(t, grant.ActivatedAt)

		loaded, err := f.service.GetGrant(ctx, grant.ID)
		require.NoError(t, err)
		assert.Equal(t, grant.Authorization.Scope, loaded.Authorization.Scope)

		_, err = f.service.ActivateGrant(ctx, params.ActivateGrantParams{GrantID: grant.ID, Caller: testOwner, Proof: f.proof(t)})
		assert.ErrorIs(t, err, business.ErrInvalidGrantTransition)
	})

	tests := []struct {
		name    string
		mutate  func(f *grantFixture, p *params.ActivateGrantParams)
		wantErr error
	}{
		{
			name:    "delegate cannot activate",
			mutate:  func(_ *grantFixture, p *params.ActivateGrantParams) { p.Caller = testDelegate },
			wantErr: business.ErrForbidden,
		},
		{
			name:    "missing proof",
			mutate:  func(_ *grantFixture, p *params.ActivateGrantParams) { p.Proof.Data = nil },
			wantErr: business.ErrInvalidRequest,
		},
		{
			name: "proof scope wider than the permission type",
			mutate: func(_ *grantFixture, p *params.ActivateGrantParams) {
				p.Proof.Scope = business.NewDelegationScope(append(p.Proof.Scope.Targets, testOwner), p.Proof.Scope.Selectors)
			},
			wantErr: business.ErrScopeViolation,
		},
		{
			name: "proof scope without the grant token",
			mutate: func(_ *grantFixture, p *params.ActivateGrantParams) {
				p.Proof.Scope = business.NewDelegationScope([]common.Address{testRouterA}, p.Proof.Scope.Selectors)
			},
			wantErr: business.ErrScopeViolation,
		},
		{
			name:    "grant already expired",
			mutate:  func(f *grantFixture, _ *params.ActivateGrantParams) { f.clock.Set(testT0.Add(2 * time.Hour)) },
			wantErr: business.ErrGrantNotActive,
		},
		{
			name:    "unknown grant",
			mutate:  func(_ *grantFixture, p *params.ActivateGrantParams) { p.GrantID = uuid.New() },
			wantErr: business.ErrGrantNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGrantFixture(t)
			grant, err := f.service.CreateGrant(ctx, f.createParams())
			require.NoError(t, err)

			p := params.ActivateGrantParams{GrantID: grant.ID, Caller: testOwner, Proof: f.proof(t)}
			tt.mutate(f, &p)

			_, err = f.service.ActivateGrant(ctx, p)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGrantService_RevokeGrant(t *testing.T) {
	ctx := context.Background()
	f := newGrantFixture(t)
	grant := f.activeGrant(t)

	_, err := f.service.RevokeGrant(ctx, grant.ID, testDelegate)
	assert.ErrorIs(t, err, business.ErrForbidden)

	revoked, err := f.service.RevokeGrant(ctx, grant.ID, testOwner)
	require.NoError(t, err)
	assert.Equal(t, business.GrantStatusRevoked, revoked.Status)
	require.NotNil(t, revoked.RevokedAt)

	again, err := f.service.RevokeGrant(ctx, grant.ID, testOwner)
	require.NoError(t, err)
	assert.Equal(t, business.GrantStatusRevoked, again.Status)
	assert.Equal(t, revoked.RevokedAt, again.RevokedAt)

	_, err = f.service.RevokeGrant(ctx, uuid.New(), testOwner)
	assert.ErrorIs(t, err, business.ErrGrantNotFound)
}

func TestGrantService_AdjustGrant(t *testing.T) {
	ctx := context.Background()
	f := newGrantFixture(t)
	grant := f.activeGrant(t)

	adjusted, err := f.service.AdjustGrant(ctx, params.AdjustGrantParams{GrantID: grant.ID, Caller: testOwner, NewPeriodAmount: big.NewInt(250)})
	require.NoError(t, err)
	assert.Equal(t, "250", adjusted.PeriodAmount.String())

	_, err = f.service.AdjustGrant(ctx, params.AdjustGrantParams{GrantID: grant.ID, Caller: testDelegate, NewPeriodAmount: big.NewInt(1)})
	assert.ErrorIs(t, err, business.ErrForbidden)

	_, err = f.service.AdjustGrant(ctx, params.AdjustGrantParams{GrantID: grant.ID, Caller: testOwner, NewPeriodAmount: big.NewInt(-1)})
	assert.ErrorIs(t, err, business.ErrInvalidRequest)

	p := f.createParams()
	p.Adjustable = false
	fixed, err := f.service.CreateGrant(ctx, p)
	require.NoError(t, err)
	_, err = f.service.AdjustGrant(ctx, params.AdjustGrantParams{GrantID: fixed.ID, Caller: testOwner, NewPeriodAmount: big.NewInt(5)})
	assert.ErrorIs(t, err, business.ErrGrantNotAdjustable)

	_, err = f.service.RevokeGrant(ctx, grant.ID, testOwner)
	require.NoError(t, err)
	_, err = f.service.AdjustGrant(ctx, params.AdjustGrantParams{GrantID: grant.ID, Caller: testOwner, NewPeriodAmount: big.NewInt(5)})
	assert.ErrorIs(t, err, business.ErrGrantNotActive)
}

func TestGrantService_LazyExpiry(t *testing.T) {
	ctx := context.Background()
	f := newGrantFixture(t)
	grant := f.activeGrant(t)

	f.clock.Set(testT0.Add(time.Hour + time.Second))
	loaded, err := f.service.GetGrant(ctx, grant.ID)
	require.NoError(t, err)
	assert.Equal(t, business.GrantStatusExpired, loaded.Status)

	row, err := f.store.GetGrant(ctx, grant.ID)
	require.NoError(t, err)
	assert.Equal(t, string(business.GrantStatusExpired), row.Status)

	_, err = f.service.RevokeGrant(ctx, grant.ID, testOwner)
	assert.ErrorIs(t, err, business.ErrInvalidGrantTransition)
}

func TestGrantService_ListGrants(t *testing.T) {
	ctx := context.Background()
	f := newGrantFixture(t)
	first := f.activeGrant(t)
	f.clock.Set(testT0.Add(time.Minute))
	second, err := f.service.CreateGrant(ctx, f.createParams())
	require.NoError(t, err)

	owner := testOwner
	grants, err := f.service.ListGrants(ctx, params.ListGrantsParams{Owner: &owner})
	require.NoError(t, err)
	require.Len(t, grants, 2)
	assert.Equal(t, second.ID, grants[0].ID)
	assert.Equal(t, first.ID, grants[1].ID)

	delegate := testDelegate
	grants, err = f.service.ListGrants(ctx, params.ListGrantsParams{Delegate: &delegate})
	require.NoError(t, err)
	assert.Len(t, grants, 2)

	stranger := common.HexToAddress("0x9999999999999999999999999999999999999999")
	grants, err = f.service.ListGrants(ctx, params.ListGrantsParams{Owner: &owner, Delegate: &stranger})
	require.NoError(t, err)
	assert.Empty(t, grants)

	_, err = f.service.ListGrants(ctx, params.ListGrantsParams{})
	assert.ErrorIs(t, err, business.ErrInvalidRequest)
}

// Create, activate and redeem against the same grant: 60 is confirmed, the
// following 50 exceeds the period amount and leaves consumption at 60.
func TestGrantLifecycle_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newGrantFixture(t)
	grant := f.activeGrant(t)

	f.clock.Set(testT0.Add(time.Minute))
	adapters := registry.NewAdapterRegistry()
	require.NoError(t, adapters.Register(newStubAdapter("uniswap_v3", testRouterA, 5000, 150000)))

	relay := mocks.NewMockRelay(gomock.NewController(t))
	relay.EXPECT().Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req business.SubmitRequest) (*business.SubmitReceipt, error) {
			return &business.SubmitReceipt{Reference: req.ExecutionID.String(), Status: business.RelayStatusConfirmed}, nil
		}).
		Times(1)

	ledger := services.NewBudgetLedger(f.service, services.NewMemoryBudgetStore(), services.WithLedgerClock(f.clock.Now))
	coordinator := services.NewExecutionCoordinator(
		f.service,
		f.resolver,
		services.NewQuoteAggregator(adapters),
		ledger,
		relay,
		nil,
		services.WithCoordinatorClock(f.clock.Now),
	)

	req := business.ExecutionRequest{
		GrantID:        grant.ID,
		TokenIn:        testUSDC,
		TokenOut:       testWETH,
		AmountIn:       big.NewInt(60),
		MaxSlippageBps: 100,
		Caller:         testDelegate,
	}
	result, err := coordinator.Redeem(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, business.ExecutionStateConfirmed, result.State)

	req.AmountIn = big.NewInt(50)
	_, err = coordinator.Redeem(ctx, req)
	assert.ErrorIs(t, err, business.ErrBudgetExceeded)

	budget, err := ledger.GetRemainingBudget(ctx, grant.ID)
	require.NoError(t, err)
	assert.Equal(t, "60", budget.Consumed.String())
	assert.Equal(t, "40", budget.Remaining.String())
	assert.Equal(t, testT0.Add(time.Hour), budget.WindowResetAt)

	f.clock.Set(testT0.Add(time.Hour + time.Second))
	_, err = coordinator.Redeem(ctx, req)
	assert.ErrorIs(t, err, business.ErrGrantNotActive)
}
