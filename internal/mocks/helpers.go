package mocks

import (
	"testing"

	"go.uber.org/mock/gomock"
)

// NewMockRelayForTest creates a new mock Relay for testing
func NewMockRelayForTest(t *testing.T) *MockRelay {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockRelay(ctrl)
}

// NewMockLiquidityAdapterForTest creates a new mock LiquidityAdapter for testing
func NewMockLiquidityAdapterForTest(t *testing.T) *MockLiquidityAdapter {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockLiquidityAdapter(ctrl)
}

// NewMockActivitySinkForTest creates a new mock ActivitySink for testing
func NewMockActivitySinkForTest(t *testing.T) *MockActivitySink {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockActivitySink(ctrl)
}

// NewMockGrantServiceForTest creates a new mock GrantService for testing
func NewMockGrantServiceForTest(t *testing.T) *MockGrantService {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockGrantService(ctrl)
}

// NewMockBudgetLedgerForTest creates a new mock BudgetLedger for testing
func NewMockBudgetLedgerForTest(t *testing.T) *MockBudgetLedger {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockBudgetLedger(ctrl)
}

// NewMockExecutionCoordinatorForTest creates a new mock ExecutionCoordinator for testing
func NewMockExecutionCoordinatorForTest(t *testing.T) *MockExecutionCoordinator {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockExecutionCoordinator(ctrl)
}

// NewMockScopeResolverForTest creates a new mock ScopeResolver for testing
func NewMockScopeResolverForTest(t *testing.T) *MockScopeResolver {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockScopeResolver(ctrl)
}
