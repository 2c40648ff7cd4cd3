package uniswapv3

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/cyphera/cyphera-agent/internal/client/liquidity"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/registry"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// SourceID is the registry id of the Uniswap V3 source.
const SourceID = "uniswap_v3"

// Fee tiers tried when the registry entry lists none.
var defaultFeeTiers = []uint32{100, 500, 3000, 10000}

const quoterV2ABI = `[{"type":"function","name":"quoteExactInputSingle","stateMutability":"nonpayable",
"inputs":[{"name":"params","type":"tuple","components":[
  {"name":"tokenIn","type":"address"},
  {"name":"tokenOut","type":"address"},
  {"name":"amountIn","type":"uint256"},
  {"name":"fee","type":"uint24"},
  {"name":"sqrtPriceLimitX96","type":"uint160"}]}],
"outputs":[
  {"name":"amountOut","type":"uint256"},
  {"name":"sqrtPriceX96After","type":"uint160"},
  {"name":"initializedTicksCrossed","type":"uint32"},
  {"name":"gasEstimate","type":"uint256"}]}]`

const swapRouter02ABI = `[{"type":"function","name":"exactInputSingle","stateMutability":"payable",
"inputs":[{"name":"params","type":"tuple","components":[
  {"name":"tokenIn","type":"address"},
  {"name":"tokenOut","type":"address"},
  {"name":"fee","type":"uint24"},
  {"name":"recipient","type":"address"},
  {"name":"amountIn","type":"uint256"},
  {"name":"amountOutMinimum","type":"uint256"},
  {"name":"sqrtPriceLimitX96","type":"uint160"}]}],
"outputs":[{"name":"amountOut","type":"uint256"}]}]`

var (
	QuoterV2ABI     = liquidity.MustParseABI(quoterV2ABI)
	SwapRouter02ABI = liquidity.MustParseABI(swapRouter02ABI)
)

// QuoteExactInputSingleParams mirrors the QuoterV2 params tuple.
type QuoteExactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

// ExactInputSingleParams mirrors the SwapRouter02 params tuple.
type ExactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// ContractCaller is the read-only part of an RPC client. *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type routeData struct {
	Fee uint32 `json:"fee"`
}

// Adapter quotes through the on-chain QuoterV2 and swaps through SwapRouter02.
type Adapter struct {
	*liquidity.Venue
	callers map[business.NetworkID]ContractCaller
	now     func() time.Time
	logger  *zap.Logger
}

// AdapterOption configures an Adapter
type AdapterOption func(*Adapter)

// WithClock overrides the quote timestamp source.
func WithClock(now func() time.Time) AdapterOption {
	return func(a *Adapter) {
		a.now = now
	}
}

// NewAdapter enables the source on every registry network that has both a
// uniswap_v3 entry with a quoter and an RPC caller.
func NewAdapter(reg *registry.NetworkTokenRegistry, callers map[business.NetworkID]ContractCaller, opts ...AdapterOption) (*Adapter, error) {
	var networks []business.NetworkID
	for networkID := range callers {
		source, ok := reg.Source(networkID, SourceID)
		if !ok || source.Quoter == (common.Address{}) {
			continue
		}
		networks = append(networks, networkID)
	}
	if len(networks) == 0 {
		return nil, fmt.Errorf("%s: no network has both a quoter and an RPC client", SourceID)
	}
	venue, err := liquidity.NewVenue(SourceID, reg, networks...)
	if err != nil {
		return nil, err
	}

	a := &Adapter{
		Venue:   venue,
		callers: callers,
		now:     time.Now,
		logger:  logger.ForComponent(logger.ComponentAggregator).With(zap.String("source_id", SourceID)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Quote tries every configured fee tier and keeps the largest output.
func (a *Adapter) Quote(ctx context.Context, req business.QuoteRequest) (*business.Quote, error) {
	source, ok := a.Source(req.NetworkID)
	if !ok {
		return nil, fmt.Errorf("%s is not enabled on network %d", SourceID, req.NetworkID)
	}
	caller := a.callers[req.NetworkID]
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amount in must be positive")
	}

	tiers := source.FeeTiers
	if len(tiers) == 0 {
		tiers = defaultFeeTiers
	}

	var (
		bestOut *big.Int
		bestGas uint64
		bestFee uint32
		lastErr error
	)
	for _, fee := range tiers {
		amountOut, gas, err := a.quoteTier(ctx, caller, source.Quoter, req, fee)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Pools missing at a tier revert; other tiers may still quote.
			lastErr = err
			a.logger.Debug("Fee tier quote failed", zap.Uint32("fee", fee), zap.Error(err))
			continue
		}
		if bestOut == nil || amountOut.Cmp(bestOut) > 0 {
			bestOut, bestGas, bestFee = amountOut, gas, fee
		}
	}
	if bestOut == nil {
		return nil, fmt.Errorf("no pool quoted %s -> %s: %w", req.TokenIn.Hex(), req.TokenOut.Hex(), lastErr)
	}

	route, err := json.Marshal(routeData{Fee: bestFee})
	if err != nil {
		return nil, fmt.Errorf("failed to encode route: %w", err)
	}
	return &business.Quote{
		SourceID:     SourceID,
		NetworkID:    req.NetworkID,
		TokenIn:      req.TokenIn,
		TokenOut:     req.TokenOut,
		AmountIn:     new(big.Int).Set(req.AmountIn),
		AmountOut:    bestOut,
		EstimatedGas: bestGas,
		Router:       source.Router,
		RouteData:    route,
		QuotedAt:     a.now(),
	}, nil
}

func (a *Adapter) quoteTier(ctx context.Context, caller ContractCaller, quoter common.Address, req business.QuoteRequest, fee uint32) (*big.Int, uint64, error) {
	input, err := QuoterV2ABI.Pack("quoteExactInputSingle", QuoteExactInputSingleParams{
		TokenIn:           req.TokenIn,
		TokenOut:          req.TokenOut,
		AmountIn:          req.AmountIn,
		Fee:               new(big.Int).SetUint64(uint64(fee)),
		SqrtPriceLimitX96: new(big.Int),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to pack input: %w", err)
	}

	output, err := caller.CallContract(ctx, ethereum.CallMsg{To: &quoter, Data: input}, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to call quoter: %w", err)
	}

	values, err := QuoterV2ABI.Unpack("quoteExactInputSingle", output)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to unpack quoter output: %w", err)
	}
	if len(values) != 4 {
		return nil, 0, fmt.Errorf("unexpected quoter output length %d", len(values))
	}
	amountOut, ok := values[0].(*big.Int)
	if !ok || amountOut.Sign() <= 0 {
		return nil, 0, fmt.Errorf("quoter returned no output")
	}
	var gas uint64
	if g, ok := values[3].(*big.Int); ok && g.IsUint64() {
		gas = g.Uint64()
	}
	return amountOut, gas, nil
}

// BuildPayload encodes approve(router, amountIn) followed by exactInputSingle.
func (a *Adapter) BuildPayload(_ context.Context, quote *business.Quote, params business.BuildParams) (*business.CallPayload, error) {
	router, err := a.CheckQuote(quote)
	if err != nil {
		return nil, err
	}
	var route routeData
	if err := json.Unmarshal(quote.RouteData, &route); err != nil {
		return nil, fmt.Errorf("invalid route data: %w", err)
	}
	if params.AmountOutMinimum == nil {
		return nil, fmt.Errorf("amount out minimum is required")
	}

	approve, err := liquidity.ApproveCall(quote.TokenIn, router, quote.AmountIn)
	if err != nil {
		return nil, err
	}
	data, err := SwapRouter02ABI.Pack("exactInputSingle", ExactInputSingleParams{
		TokenIn:           quote.TokenIn,
		TokenOut:          quote.TokenOut,
		Fee:               new(big.Int).SetUint64(uint64(route.Fee)),
		Recipient:         params.Recipient,
		AmountIn:          quote.AmountIn,
		AmountOutMinimum:  params.AmountOutMinimum,
		SqrtPriceLimitX96: new(big.Int),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode exactInputSingle: %w", err)
	}

	return &business.CallPayload{
		NetworkID: quote.NetworkID,
		SourceID:  SourceID,
		Calls: []business.Call{
			approve,
			{Target: router, Value: new(big.Int), Data: data},
		},
		AmountOutMinimum: new(big.Int).Set(params.AmountOutMinimum),
	}, nil
}
