package oneinch

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"time"

	httpClient "github.com/cyphera/cyphera-agent/internal/client/http"
	"github.com/cyphera/cyphera-agent/internal/client/liquidity"
	"github.com/cyphera/cyphera-agent/internal/helpers"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/registry"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// SourceID is the registry id of the 1inch source.
const SourceID = "oneinch"

const (
	defaultBaseURL = "https://api.1inch.dev"
	requestTimeout = 5 * time.Second
)

// Router v6 entry points the swap endpoint returns calldata for.
const aggregationRouterABI = `[
{"type":"function","name":"swap","stateMutability":"payable","inputs":[
 {"name":"executor","type":"address"},
 {"name":"desc","type":"tuple","components":[
  {"name":"srcToken","type":"address"},{"name":"dstToken","type":"address"},
  {"name":"srcReceiver","type":"address"},{"name":"dstReceiver","type":"address"},
  {"name":"amount","type":"uint256"},{"name":"minReturnAmount","type":"uint256"},
  {"name":"flags","type":"uint256"}]},
 {"name":"data","type":"bytes"}],
 "outputs":[{"name":"returnAmount","type":"uint256"},{"name":"spentAmount","type":"uint256"}]},
{"type":"function","name":"unoswap","stateMutability":"nonpayable","inputs":[
 {"name":"token","type":"uint256"},{"name":"amount","type":"uint256"},
 {"name":"minReturn","type":"uint256"},{"name":"dex","type":"uint256"}],
 "outputs":[{"name":"returnAmount","type":"uint256"}]},
{"type":"function","name":"unoswap2","stateMutability":"nonpayable","inputs":[
 {"name":"token","type":"uint256"},{"name":"amount","type":"uint256"},
 {"name":"minReturn","type":"uint256"},{"name":"dex","type":"uint256"},
 {"name":"dex2","type":"uint256"}],
 "outputs":[{"name":"returnAmount","type":"uint256"}]}
]`

var (
	aggregationRouter = liquidity.MustParseABI(aggregationRouterABI)

	minReturnArgs = map[string]liquidity.MinOutputArg{
		"swap":     {Index: 1, Field: "MinReturnAmount"},
		"unoswap":  {Index: 2},
		"unoswap2": {Index: 2},
	}
)

// QuoteResponse is returned by the quote endpoint.
type QuoteResponse struct {
	DstAmount string `json:"dstAmount"`
	Gas       uint64 `json:"gas"`
}

// Tx is the transaction the swap endpoint asks the sender to execute.
type Tx struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	Gas      uint64 `json:"gas"`
	GasPrice string `json:"gasPrice"`
}

// SwapResponse is returned by the swap endpoint.
type SwapResponse struct {
	DstAmount string `json:"dstAmount"`
	Tx        Tx     `json:"tx"`
}

// Adapter prices and builds swaps through the 1inch aggregation API v6.
type Adapter struct {
	*liquidity.Venue
	baseURL string
	client  *httpClient.HTTPClient
	now     func() time.Time
	logger  *zap.Logger
}

// AdapterOption configures an Adapter
type AdapterOption func(*Adapter)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) AdapterOption {
	return func(a *Adapter) {
		a.baseURL = baseURL
	}
}

// WithClock overrides the quote timestamp source.
func WithClock(now func() time.Time) AdapterOption {
	return func(a *Adapter) {
		a.now = now
	}
}

func newClient(baseURL, apiKey string) *httpClient.HTTPClient {
	return httpClient.NewHTTPClient(
		httpClient.WithBaseURL(baseURL),
		httpClient.WithDefaultHeader("Authorization", "Bearer "+apiKey),
		httpClient.WithTimeout(requestTimeout),
		httpClient.WithLogger(logger.ForComponent(logger.ComponentAggregator)),
	)
}

// NewAdapter enables 1inch on every registry network that lists it.
func NewAdapter(reg *registry.NetworkTokenRegistry, apiKey string, opts ...AdapterOption) (*Adapter, error) {
	venue, err := liquidity.NewVenue(SourceID, reg)
	if err != nil {
		return nil, err
	}
	a := &Adapter{
		Venue:   venue,
		baseURL: defaultBaseURL,
		now:     time.Now,
		logger:  logger.ForComponent(logger.ComponentAggregator).With(zap.String("source_id", SourceID)),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.client = newClient(a.baseURL, apiKey)
	return a, nil
}

func path(networkID business.NetworkID, endpoint string) string {
	return fmt.Sprintf("/swap/v6.0/%d/%s", networkID, endpoint)
}

func (a *Adapter) pairOptions(tokenIn, tokenOut common.Address, amountIn *big.Int) []httpClient.RequestOption {
	return []httpClient.RequestOption{
		httpClient.WithQueryParam("src", tokenIn.Hex()),
		httpClient.WithQueryParam("dst", tokenOut.Hex()),
		httpClient.WithQueryParam("amount", amountIn.String()),
		httpClient.WithQueryParam("includeGas", "true"),
	}
}

func (a *Adapter) Quote(ctx context.Context, req business.QuoteRequest) (*business.Quote, error) {
	router, ok := a.Router(req.NetworkID)
	if !ok {
		return nil, fmt.Errorf("%s is not enabled on network %d", SourceID, req.NetworkID)
	}
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amount in must be positive")
	}

	var resp QuoteResponse
	if err := a.client.GetJSON(ctx, path(req.NetworkID, "quote"), &resp,
		a.pairOptions(req.TokenIn, req.TokenOut, req.AmountIn)...); err != nil {
		return nil, fmt.Errorf("failed to get 1inch quote: %w", err)
	}
	amountOut, err := helpers.ParsePositiveAmount(resp.DstAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid dstAmount: %w", err)
	}

	route, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode route: %w", err)
	}
	return &business.Quote{
		SourceID:     SourceID,
		NetworkID:    req.NetworkID,
		TokenIn:      req.TokenIn,
		TokenOut:     req.TokenOut,
		AmountIn:     new(big.Int).Set(req.AmountIn),
		AmountOut:    amountOut,
		EstimatedGas: resp.Gas,
		Router:       router,
		RouteData:    route,
		QuotedAt:     a.now(),
	}, nil
}

// BuildPayload requests swap calldata for the sender and checks it targets the
// registered router. The minReturn encoded in the calldata must meet
// params.AmountOutMinimum; when it does not, the swap is requested once more
// with the slippage that keeps the firm amount above it.
func (a *Adapter) BuildPayload(ctx context.Context, quote *business.Quote, params business.BuildParams) (*business.CallPayload, error) {
	router, err := a.CheckQuote(quote)
	if err != nil {
		return nil, err
	}
	floor := params.AmountOutMinimum
	if floor == nil {
		return nil, fmt.Errorf("amount out minimum is required")
	}

	swap, err := a.swap(ctx, quote, router, params, params.MaxSlippageBps)
	if err != nil {
		return nil, err
	}
	if swap.dstAmount.Cmp(floor) < 0 {
		return nil, fmt.Errorf("1inch swap %s is below the minimum %s", swap.dstAmount, floor)
	}
	if swap.minReturn.Cmp(floor) < 0 {
		slippage := liquidity.SlippageWithin(swap.dstAmount, floor)
		a.logger.Debug("Tightening 1inch slippage to meet the minimum",
			zap.String("enforced_minimum", swap.minReturn.String()),
			zap.String("required_minimum", floor.String()),
			zap.Uint32("slippage_bps", slippage))

		if swap, err = a.swap(ctx, quote, router, params, slippage); err != nil {
			return nil, err
		}
		if swap.minReturn.Cmp(floor) < 0 {
			return nil, fmt.Errorf("1inch calldata enforces %s, below the minimum %s", swap.minReturn, floor)
		}
	}

	approve, err := liquidity.ApproveCall(quote.TokenIn, router, quote.AmountIn)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Built 1inch payload",
		zap.String("dst_amount", swap.dstAmount.String()),
		zap.String("enforced_minimum", swap.minReturn.String()))

	return &business.CallPayload{
		NetworkID: quote.NetworkID,
		SourceID:  SourceID,
		Calls: []business.Call{
			approve,
			{Target: router, Value: swap.value, Data: swap.data},
		},
		AmountOutMinimum: swap.minReturn,
	}, nil
}

type firmSwap struct {
	data      []byte
	value     *big.Int
	dstAmount *big.Int
	minReturn *big.Int
}

func (a *Adapter) swap(ctx context.Context, quote *business.Quote, router common.Address, params business.BuildParams, slippageBps uint32) (*firmSwap, error) {
	opts := a.pairOptions(quote.TokenIn, quote.TokenOut, quote.AmountIn)
	opts = append(opts,
		httpClient.WithQueryParam("from", params.Sender.Hex()),
		httpClient.WithQueryParam("origin", params.Sender.Hex()),
		httpClient.WithQueryParam("receiver", params.Recipient.Hex()),
		// 1inch takes slippage in percent.
		httpClient.WithQueryParam("slippage", strconv.FormatFloat(float64(slippageBps)/100, 'f', -1, 64)),
		httpClient.WithQueryParam("disableEstimate", "true"),
	)

	var resp SwapResponse
	if err := a.client.GetJSON(ctx, path(quote.NetworkID, "swap"), &resp, opts...); err != nil {
		return nil, fmt.Errorf("failed to get 1inch swap: %w", err)
	}

	if !common.IsHexAddress(resp.Tx.To) || common.HexToAddress(resp.Tx.To) != router {
		return nil, fmt.Errorf("1inch swap targets %s, registered router is %s", resp.Tx.To, router.Hex())
	}
	data, err := hexutil.Decode(resp.Tx.Data)
	if err != nil || len(data) < 4 {
		return nil, fmt.Errorf("invalid 1inch calldata")
	}
	value := new(big.Int)
	if resp.Tx.Value != "" {
		if value, err = helpers.ParseAmount(resp.Tx.Value); err != nil {
			return nil, fmt.Errorf("invalid 1inch value: %w", err)
		}
	}
	dstAmount, err := helpers.ParsePositiveAmount(resp.DstAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid dstAmount: %w", err)
	}
	minReturn, err := liquidity.DecodeMinimumOutput(aggregationRouter, minReturnArgs, data)
	if err != nil {
		return nil, fmt.Errorf("1inch calldata: %w", err)
	}

	return &firmSwap{data: data, value: value, dstAmount: dstAmount, minReturn: minReturn}, nil
}
