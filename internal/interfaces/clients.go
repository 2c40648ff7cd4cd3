package interfaces

import (
	"context"

	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
)

// Relay signs and broadcasts execution payloads on behalf of the delegate.
// Submit errors wrapping business.ErrRelayRejected mean nothing was executed;
// any other error leaves the outcome unknown.
type Relay interface {
	Submit(ctx context.Context, req business.SubmitRequest) (*business.SubmitReceipt, error)
	PollStatus(ctx context.Context, reference string) (*business.RelayStatusResult, error)
}

// ActivitySink receives one record per terminal redemption outcome.
type ActivitySink interface {
	Name() string
	Emit(ctx context.Context, record business.ActivityRecord) error
}

// LiquidityAdapter wraps a single liquidity venue.
type LiquidityAdapter interface {
	ID() string
	NetworkIDs() []business.NetworkID
	// Router returns the contract the venue's swap calls target on a network.
	Router(networkID business.NetworkID) (common.Address, bool)
	SupportsPair(networkID business.NetworkID, tokenIn, tokenOut common.Address) bool
	Quote(ctx context.Context, req business.QuoteRequest) (*business.Quote, error)
	BuildPayload(ctx context.Context, quote *business.Quote, params business.BuildParams) (*business.CallPayload, error)
}

// ReferencePriceProvider returns USD reference prices keyed by token symbol.
type ReferencePriceProvider interface {
	GetUSDPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}

// SecretsProvider resolves secrets by ARN env var with a plain env var fallback.
type SecretsProvider interface {
	GetSecretString(ctx context.Context, secretArnEnvVar string, fallbackEnvVar string) (string, error)
}
