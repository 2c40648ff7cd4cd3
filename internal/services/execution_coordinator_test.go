package services_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/cyphera/cyphera-agent/internal/mocks"
	"github.com/cyphera/cyphera-agent/internal/registry"
	"github.com/cyphera/cyphera-agent/internal/services"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// activityLog records activity synchronously.
type activityLog struct {
	mu      sync.Mutex
	records []business.ActivityRecord
}

func (l *activityLog) Record(_ context.Context, record business.ActivityRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record)
}

func (l *activityLog) All() []business.ActivityRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]business.ActivityRecord(nil), l.records...)
}

type coordinatorHarness struct {
	grant       *business.PermissionGrant
	clock       *fakeClock
	adapter     *stubAdapter
	relay       *mocks.MockRelay
	store       *flakyBudgetStore
	ledger      *services.BudgetLedger
	activity    *activityLog
	reconciler  *services.Reconciler
	coordinator *services.ExecutionCoordinator
}

func newCoordinatorHarness(t *testing.T, periodAmount int64) *coordinatorHarness {
	t.Helper()

	resolver := newTestScopeResolver(t)
	scope, err := resolver.ResolveScope(business.PermissionTypeTrading, testNetwork)
	require.NoError(t, err)

	grant := activeGrant(periodAmount, time.Hour, time.Hour)
	grant.Authorization = &business.AuthorizationProof{Data: []byte("signed-delegation"), Scope: scope}

	h := &coordinatorHarness{
		grant:    grant,
		clock:    newFakeClock(testT0.Add(time.Minute)),
		adapter:  newStubAdapter("uniswap_v3", testRouterA, 1000, 120000),
		relay:    mocks.NewMockRelay(gomock.NewController(t)),
		store:    newFlakyBudgetStore(),
		activity: &activityLog{},
	}

	adapters := registry.NewAdapterRegistry()
	require.NoError(t, adapters.Register(h.adapter))

	grants := newGrantTable(grant)
	h.ledger = services.NewBudgetLedger(grants, h.store, services.WithLedgerClock(h.clock.Now))
	h.reconciler = services.NewReconciler(h.relay, h.ledger, h.activity, services.WithReconcilerClock(h.clock.Now))
	h.coordinator = services.NewExecutionCoordinator(
		grants,
		resolver,
		services.NewQuoteAggregator(adapters),
		h.ledger,
		h.relay,
		h.activity,
		services.WithCoordinatorClock(h.clock.Now),
		services.WithReconciliationQueue(h.reconciler),
		services.WithCoordinatorConfig(services.CoordinatorConfig{
			QuoteDeadline: time.Second,
			PollInterval:  time.Millisecond,
			MaxPolls:      3,
		}),
	)
	return h
}

func (h *coordinatorHarness) request(amountIn int64) business.ExecutionRequest {
	return business.ExecutionRequest{
		GrantID:        h.grant.ID,
		TokenIn:        testUSDC,
		TokenOut:       testWETH,
		AmountIn:       big.NewInt(amountIn),
		MaxSlippageBps: 50,
		Caller:         testDelegate,
	}
}

func (h *coordinatorHarness) consumed(t *testing.T) (string, bool) {
	t.Helper()
	remaining, err := h.ledger.GetRemainingBudget(context.Background(), h.grant.ID)
	require.NoError(t, err)
	return remaining.Consumed.String(), remaining.Reserved
}

func confirmedReceipt(req business.SubmitRequest) *business.SubmitReceipt {
	return &business.SubmitReceipt{Reference: "userop-" + req.ExecutionID.String()[:8], Status: business.RelayStatusConfirmed}
}

func TestExecutionCoordinator_RedeemWithinBudget(t *testing.T) {
	ctx := context.Background()
	h := newCoordinatorHarness(t, 100)

	var submitted business.SubmitRequest
	h.relay.EXPECT().Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req business.SubmitRequest) (*business.SubmitReceipt, error) {
			submitted = req
			return confirmedReceipt(req), nil
		}).
		Times(1)

	result, err := h.coordinator.Redeem(ctx, h.request(60))
	require.NoError(t, err)
	assert.Equal(t, business.ExecutionStatusSuccess, result.Status)
	assert.Equal(t, business.ExecutionStateConfirmed, result.State)
	assert.Equal(t, "uniswap_v3", result.SourceUsed)
	assert.Equal(t, "1000", result.AmountOut.String())
	assert.NotEmpty(t, result.ExternalReference)

	assert.Equal(t, h.grant.Owner, submitted.Owner)
	assert.Equal(t, []byte("signed-delegation"), submitted.AuthorizationProof)
	assert.Equal(t, "995", submitted.Payload.AmountOutMinimum.String())
	require.Len(t, h.adapter.buildParams, 1)
	assert.Equal(t, testOwner, h.adapter.buildParams[0].Recipient)

	consumed, reserved := h.consumed(t)
	assert.Equal(t, "60", consumed)
	assert.False(t, reserved)

	_, err = h.coordinator.Redeem(ctx, h.request(50))
	assert.ErrorIs(t, err, business.ErrBudgetExceeded)

	consumed, _ = h.consumed(t)
	assert.Equal(t, "60", consumed)

	records := h.activity.All()
	require.Len(t, records, 1)
	assert.Equal(t, business.ExecutionStatusSuccess, records[0].Status)
	assert.Equal(t, "60", records[0].AmountIn)
	assert.Equal(t, h.grant.Owner.Hex(), records[0].Owner)
}

func TestExecutionCoordinator_RelayFailureReleasesBudget(t *testing.T) {
	ctx := context.Background()
	h := newCoordinatorHarness(t, 100)

	gomock.InOrder(
		h.relay.EXPECT().Submit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req business.SubmitRequest) (*business.SubmitReceipt, error) {
				return confirmedReceipt(req), nil
			}),
		h.relay.EXPECT().Submit(gomock.Any(), gomock.Any()).
			Return(&business.SubmitReceipt{Reference: "userop-2", Status: business.RelayStatusFailed, Detail: "execution reverted"}, nil),
	)

	_, err := h.coordinator.Redeem(ctx, h.request(60))
	require.NoError(t, err)

	result, err := h.coordinator.Redeem(ctx, h.request(30))
	assert.ErrorIs(t, err, business.ErrExecutionFailed)
	require.NotNil(t, result)
	assert.Equal(t, business.ExecutionStatusFailed, result.Status)
	assert.Equal(t, "execution reverted", result.FailureReason)
	assert.Equal(t, "userop-2", result.ExternalReference)
	assert.False(t, result.ReconciliationPending)

	consumed, reserved := h.consumed(t)
	assert.Equal(t, "60", consumed)
	assert.False(t, reserved)

	records := h.activity.All()
	require.Len(t, records, 2)
	assert.Equal(t, business.ExecutionStatusFailed, records[1].Status)
	assert.Equal(t, "execution reverted", records[1].FailureReason)
}

func TestExecutionCoordinator_RejectedSubmissionReleases(t *testing.T) {
	h := newCoordinatorHarness(t, 100)

	h.relay.EXPECT().Submit(gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: invalid signature", business.ErrRelayRejected))

	result, err := h.coordinator.Redeem(context.Background(), h.request(40))
	assert.ErrorIs(t, err, business.ErrExecutionFailed)
	require.NotNil(t, result)
	assert.Contains(t, result.FailureReason, "invalid signature")

	consumed, reserved := h.consumed(t)
	assert.Equal(t, "0", consumed)
	assert.False(t, reserved)
}

func TestExecutionCoordinator_AmbiguousSubmitResolvedByPolling(t *testing.T) {
	h := newCoordinatorHarness(t, 100)

	var reference string
	h.relay.EXPECT().Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req business.SubmitRequest) (*business.SubmitReceipt, error) {
			reference = req.ExecutionID.String()
			return nil, errors.New("connection reset by peer")
		})
	gomock.InOrder(
		h.relay.EXPECT().PollStatus(gomock.Any(), gomock.Any()).
			Return(&business.RelayStatusResult{Status: business.RelayStatusPending}, nil),
		h.relay.EXPECT().PollStatus(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, ref string) (*business.RelayStatusResult, error) {
				assert.Equal(t, reference, ref)
				return &business.RelayStatusResult{Reference: ref, Status: business.RelayStatusConfirmed, TransactionHash: "0xabc"}, nil
			}),
	)

	result, err := h.coordinator.Redeem(context.Background(), h.request(25))
	require.NoError(t, err)
	assert.Equal(t, business.ExecutionStatusSuccess, result.Status)
	assert.Equal(t, "0xabc", result.ExternalReference)

	consumed, reserved := h.consumed(t)
	assert.Equal(t, "25", consumed)
	assert.False(t, reserved)
}

func TestExecutionCoordinator_UnknownOutcomeIsParked(t *testing.T) {
	ctx := context.Background()
	h := newCoordinatorHarness(t, 100)

	h.relay.EXPECT().Submit(gomock.Any(), gomock.Any()).
		Return(&business.SubmitReceipt{Reference: "userop-9", Status: business.RelayStatusPending}, nil)
	h.relay.EXPECT().PollStatus(gomock.Any(), "userop-9").
		Return(nil, errors.New("relay unreachable")).
		Times(3)

	result, err := h.coordinator.Redeem(ctx, h.request(30))
	var execErr *business.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.True(t, execErr.Ambiguous)
	assert.ErrorIs(t, err, business.ErrExecutionFailed)
	require.NotNil(t, result)
	assert.True(t, result.ReconciliationPending)
	assert.Equal(t, business.ExecutionStatusFailed, result.Status)

	// The reservation stays outstanding until the reconciler resolves it.
	consumed, reserved := h.consumed(t)
	assert.Equal(t, "30", consumed)
	assert.True(t, reserved)
	assert.Equal(t, 1, h.reconciler.Pending())
	assert.Empty(t, h.activity.All())

	_, err = h.coordinator.Redeem(ctx, h.request(10))
	assert.ErrorIs(t, err, business.ErrReservationInProgress)

	h.relay.EXPECT().PollStatus(gomock.Any(), "userop-9").
		Return(&business.RelayStatusResult{Reference: "userop-9", Status: business.RelayStatusConfirmed, TransactionHash: "0xdef"}, nil)

	assert.Equal(t, 1, h.reconciler.ReconcileOnce(ctx))
	assert.Equal(t, 0, h.reconciler.Pending())

	consumed, reserved = h.consumed(t)
	assert.Equal(t, "30", consumed)
	assert.False(t, reserved)

	records := h.activity.All()
	require.Len(t, records, 1)
	assert.Equal(t, business.ExecutionStatusSuccess, records[0].Status)
	assert.Equal(t, "0xdef", records[0].ExternalReference)
	assert.Equal(t, "1000", records[0].AmountOut)
}

func TestExecutionCoordinator_UnknownOutcomeLaterFailed(t *testing.T) {
	ctx := context.Background()
	h := newCoordinatorHarness(t, 100)

	h.relay.EXPECT().Submit(gomock.Any(), gomock.Any()).
		Return(&business.SubmitReceipt{Reference: "userop-9", Status: business.RelayStatusPending}, nil)
	h.relay.EXPECT().PollStatus(gomock.Any(), "userop-9").
		Return(&business.RelayStatusResult{Status: business.RelayStatusPending}, nil).
		Times(3)

	_, err := h.coordinator.Redeem(ctx, h.request(30))
	require.ErrorIs(t, err, business.ErrExecutionFailed)

	h.relay.EXPECT().PollStatus(gomock.Any(), "userop-9").
		Return(&business.RelayStatusResult{Status: business.RelayStatusFailed, Detail: "execution reverted"}, nil)
	assert.Equal(t, 1, h.reconciler.ReconcileOnce(ctx))

	consumed, reserved := h.consumed(t)
	assert.Equal(t, "0", consumed)
	assert.False(t, reserved)

	records := h.activity.All()
	require.Len(t, records, 1)
	assert.Equal(t, business.ExecutionStatusFailed, records[0].Status)
	assert.Equal(t, "0", records[0].AmountOut)
	assert.Equal(t, "execution reverted", records[0].FailureReason)
}

func TestExecutionCoordinator_CommitFailureSettledOnce(t *testing.T) {
	ctx := context.Background()
	h := newCoordinatorHarness(t, 100)
	h.store.commitFailures = 1

	h.relay.EXPECT().Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req business.SubmitRequest) (*business.SubmitReceipt, error) {
			return confirmedReceipt(req), nil
		})

	result, err := h.coordinator.Redeem(ctx, h.request(60))
	require.NoError(t, err)
	assert.Equal(t, business.ExecutionStatusSuccess, result.Status)
	assert.False(t, result.ReconciliationPending)

	consumed, reserved := h.consumed(t)
	assert.Equal(t, "60", consumed)
	assert.True(t, reserved)
	assert.Equal(t, 1, h.reconciler.Pending())

	records := h.activity.All()
	require.Len(t, records, 1)
	assert.Equal(t, business.ExecutionStatusSuccess, records[0].Status)
	assert.Equal(t, "1000", records[0].AmountOut)

	// Settles without polling the relay or recording again.
	assert.Equal(t, 1, h.reconciler.ReconcileOnce(ctx))
	assert.Equal(t, 0, h.reconciler.Pending())

	consumed, reserved = h.consumed(t)
	assert.Equal(t, "60", consumed)
	assert.False(t, reserved)
	assert.Len(t, h.activity.All(), 1)
}

func TestExecutionCoordinator_ReleaseFailureSettledOnce(t *testing.T) {
	ctx := context.Background()
	h := newCoordinatorHarness(t, 100)
	h.store.releaseFailures = 1

	h.relay.EXPECT().Submit(gomock.Any(), gomock.Any()).
		Return(&business.SubmitReceipt{Reference: "userop-3", Status: business.RelayStatusFailed, Detail: "execution reverted"}, nil)

	result, err := h.coordinator.Redeem(ctx, h.request(40))
	assert.ErrorIs(t, err, business.ErrExecutionFailed)
	require.NotNil(t, result)
	assert.Equal(t, 1, h.reconciler.Pending())

	assert.Equal(t, 1, h.reconciler.ReconcileOnce(ctx))

	consumed, reserved := h.consumed(t)
	assert.Equal(t, "0", consumed)
	assert.False(t, reserved)

	records := h.activity.All()
	require.Len(t, records, 1)
	assert.Equal(t, "execution reverted", records[0].FailureReason)
}

func TestExecutionCoordinator_ReleaseFailureBeforeSubmitIsParked(t *testing.T) {
	ctx := context.Background()
	h := newCoordinatorHarness(t, 100)
	h.store.releaseFailures = 1
	transferFrom := business.SelectorID("transferFrom(address,address,uint256)")
	h.adapter.payloadCalls = []business.Call{{Target: testUSDC, Value: new(big.Int), Data: transferFrom[:]}}

	result, err := h.coordinator.Redeem(ctx, h.request(10))
	assert.ErrorIs(t, err, business.ErrScopeViolation)
	assert.Nil(t, result)

	consumed, reserved := h.consumed(t)
	assert.Equal(t, "10", consumed)
	assert.True(t, reserved)
	assert.Equal(t, 1, h.reconciler.Pending())

	assert.Equal(t, 1, h.reconciler.ReconcileOnce(ctx))

	consumed, reserved = h.consumed(t)
	assert.Equal(t, "0", consumed)
	assert.False(t, reserved)
	assert.Len(t, h.activity.All(), 1)
}

func TestExecutionCoordinator_ConcurrentRedeemsOnOneGrant(t *testing.T) {
	h := newCoordinatorHarness(t, 100)

	submitted := make(chan struct{})
	release := make(chan struct{})
	h.relay.EXPECT().Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req business.SubmitRequest) (*business.SubmitReceipt, error) {
			close(submitted)
			<-release
			return confirmedReceipt(req), nil
		}).
		Times(1)

	type outcome struct {
		result *business.ExecutionResult
		err    error
	}
	outcomes := make(chan outcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			result, err := h.coordinator.Redeem(context.Background(), h.request(30))
			outcomes <- outcome{result, err}
		}()
	}

	// The redemption holding the reservation is parked in SUBMITTING.
	first := <-outcomes
	assert.ErrorIs(t, first.err, business.ErrReservationInProgress)
	assert.Nil(t, first.result)
	<-submitted

	close(release)
	second := <-outcomes
	require.NoError(t, second.err)
	assert.Equal(t, business.ExecutionStateConfirmed, second.result.State)

	consumed, reserved := h.consumed(t)
	assert.Equal(t, "30", consumed)
	assert.False(t, reserved)
	assert.Len(t, h.activity.All(), 1)
}

func TestExecutionCoordinator_RejectsBeforeSubmitting(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(h *coordinatorHarness, req *business.ExecutionRequest)
		wantErr error
	}{
		{
			name: "expired grant",
			mutate: func(h *coordinatorHarness, _ *business.ExecutionRequest) {
				h.clock.Set(h.grant.Expiry.Add(time.Second))
			},
			wantErr: business.ErrGrantNotActive,
		},
		{
			name: "caller is not the delegate",
			mutate: func(_ *coordinatorHarness, req *business.ExecutionRequest) {
				req.Caller = common.HexToAddress("0x9999999999999999999999999999999999999999")
			},
			wantErr: business.ErrForbidden,
		},
		{
			name: "token in differs from the grant token",
			mutate: func(_ *coordinatorHarness, req *business.ExecutionRequest) {
				req.TokenIn, req.TokenOut = testWETH, testUSDC
			},
			wantErr: business.ErrScopeViolation,
		},
		{
			name: "token out outside the authorized scope",
			mutate: func(_ *coordinatorHarness, req *business.ExecutionRequest) {
				req.TokenOut = common.HexToAddress("0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb")
			},
			wantErr: business.ErrScopeViolation,
		},
		{
			name: "recipient other than the owner",
			mutate: func(_ *coordinatorHarness, req *business.ExecutionRequest) {
				req.Recipient = testDelegate
			},
			wantErr: business.ErrScopeViolation,
		},
		{
			name: "unknown grant",
			mutate: func(h *coordinatorHarness, req *business.ExecutionRequest) {
				req.GrantID = activeGrant(1, time.Hour, time.Hour).ID
			},
			wantErr: business.ErrGrantNotFound,
		},
		{
			name: "zero amount",
			mutate: func(_ *coordinatorHarness, req *business.ExecutionRequest) {
				req.AmountIn = big.NewInt(0)
			},
			wantErr: business.ErrInvalidRequest,
		},
		{
			name: "payload call outside the authorized scope",
			mutate: func(h *coordinatorHarness, _ *business.ExecutionRequest) {
				swap := business.SelectorID(services.SigUniswapV3ExactInputSingle)
				h.adapter.payloadCalls = []business.Call{{Target: testOwner, Value: new(big.Int), Data: swap[:]}}
			},
			wantErr: business.ErrScopeViolation,
		},
		{
			name: "payload selector outside the authorized scope",
			mutate: func(h *coordinatorHarness, _ *business.ExecutionRequest) {
				transferFrom := business.SelectorID("transferFrom(address,address,uint256)")
				h.adapter.payloadCalls = []business.Call{{Target: testUSDC, Value: new(big.Int), Data: transferFrom[:]}}
			},
			wantErr: business.ErrScopeViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newCoordinatorHarness(t, 100)
			req := h.request(10)
			tt.mutate(h, &req)

			result, err := h.coordinator.Redeem(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)

			h.clock.Set(testT0.Add(time.Minute))
			consumed, reserved := h.consumed(t)
			assert.Equal(t, "0", consumed)
			assert.False(t, reserved)
		})
	}
}

func TestExecutionCoordinator_CancelledBeforeSubmit(t *testing.T) {
	h := newCoordinatorHarness(t, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.coordinator.Redeem(ctx, h.request(10))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, h.adapter.QuoteCalls())

	consumed, reserved := h.consumed(t)
	assert.Equal(t, "0", consumed)
	assert.False(t, reserved)
}

func TestExecutionCoordinator_AuthorizedScopeNoLongerValid(t *testing.T) {
	h := newCoordinatorHarness(t, 100)
	h.grant.Authorization.Scope = business.NewDelegationScope(
		append(h.grant.Authorization.Scope.Targets, testOwner),
		h.grant.Authorization.Scope.Selectors,
	)

	_, err := h.coordinator.Redeem(context.Background(), h.request(10))
	assert.ErrorIs(t, err, business.ErrScopeViolation)
}
