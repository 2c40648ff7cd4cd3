package zeroex

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"time"

	httpClient "github.com/cyphera/cyphera-agent/internal/client/http"
	"github.com/cyphera/cyphera-agent/internal/client/liquidity"
	"github.com/cyphera/cyphera-agent/internal/constants"
	"github.com/cyphera/cyphera-agent/internal/helpers"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/registry"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// SourceID is the registry id of the 0x source.
const SourceID = "zeroex"

const (
	pricePath      = "/swap/v1/price"
	quotePath      = "/swap/v1/quote"
	requestTimeout = 5 * time.Second
)

// Exchange proxy features the swap API routes through.
const exchangeProxyABI = `[
{"type":"function","name":"transformERC20","stateMutability":"payable","inputs":[
 {"name":"inputToken","type":"address"},{"name":"outputToken","type":"address"},
 {"name":"inputTokenAmount","type":"uint256"},{"name":"minOutputTokenAmount","type":"uint256"},
 {"name":"transformations","type":"tuple[]","components":[{"name":"deploymentNonce","type":"uint32"},{"name":"data","type":"bytes"}]}],
 "outputs":[{"name":"outputTokenAmount","type":"uint256"}]},
{"type":"function","name":"sellToUniswap","stateMutability":"payable","inputs":[
 {"name":"tokens","type":"address[]"},{"name":"sellAmount","type":"uint256"},
 {"name":"minBuyAmount","type":"uint256"},{"name":"isSushi","type":"bool"}],
 "outputs":[{"name":"buyAmount","type":"uint256"}]},
{"type":"function","name":"sellTokenForTokenToUniswapV3","stateMutability":"nonpayable","inputs":[
 {"name":"encodedPath","type":"bytes"},{"name":"sellAmount","type":"uint256"},
 {"name":"minBuyAmount","type":"uint256"},{"name":"recipient","type":"address"}],
 "outputs":[{"name":"buyAmount","type":"uint256"}]},
{"type":"function","name":"multiplexBatchSellTokenForToken","stateMutability":"nonpayable","inputs":[
 {"name":"inputToken","type":"address"},{"name":"outputToken","type":"address"},
 {"name":"calls","type":"tuple[]","components":[{"name":"id","type":"uint8"},{"name":"sellAmount","type":"uint256"},{"name":"data","type":"bytes"}]},
 {"name":"sellAmount","type":"uint256"},{"name":"minBuyAmount","type":"uint256"}],
 "outputs":[{"name":"boughtAmount","type":"uint256"}]}
]`

var (
	exchangeProxy = liquidity.MustParseABI(exchangeProxyABI)

	minOutputArgs = map[string]liquidity.MinOutputArg{
		"transformERC20":                  {Index: 3},
		"sellToUniswap":                   {Index: 2},
		"sellTokenForTokenToUniswapV3":    {Index: 2},
		"multiplexBatchSellTokenForToken": {Index: 4},
	}
)

// 0x serves each chain from its own host.
var defaultHosts = map[business.NetworkID]string{
	1:     "https://api.0x.org",
	10:    "https://optimism.api.0x.org",
	137:   "https://polygon.api.0x.org",
	8453:  "https://base.api.0x.org",
	42161: "https://arbitrum.api.0x.org",
}

// PriceResponse is the indicative price returned by /swap/v1/price.
type PriceResponse struct {
	Price           string `json:"price"`
	BuyAmount       string `json:"buyAmount"`
	SellAmount      string `json:"sellAmount"`
	EstimatedGas    string `json:"estimatedGas"`
	AllowanceTarget string `json:"allowanceTarget"`
}

// QuoteResponse is the firm quote returned by /swap/v1/quote.
type QuoteResponse struct {
	PriceResponse
	GuaranteedPrice string `json:"guaranteedPrice"`
	To              string `json:"to"`
	Data            string `json:"data"`
	Value           string `json:"value"`
	Gas             string `json:"gas"`
}

// Adapter prices and builds swaps through the 0x swap API. The exchange
// proxy returned by the API must match the registered router.
type Adapter struct {
	*liquidity.Venue
	apiKey  string
	clients map[business.NetworkID]*httpClient.HTTPClient
	now     func() time.Time
	logger  *zap.Logger
}

// AdapterOption configures an Adapter
type AdapterOption func(*Adapter)

// WithBaseURL points a network at a different API host.
func WithBaseURL(networkID business.NetworkID, baseURL string) AdapterOption {
	return func(a *Adapter) {
		a.clients[networkID] = a.newClient(baseURL)
	}
}

// WithClock overrides the quote timestamp source.
func WithClock(now func() time.Time) AdapterOption {
	return func(a *Adapter) {
		a.now = now
	}
}

func (a *Adapter) newClient(baseURL string) *httpClient.HTTPClient {
	return httpClient.NewHTTPClient(
		httpClient.WithBaseURL(baseURL),
		httpClient.WithDefaultHeader("0x-api-key", a.apiKey),
		httpClient.WithTimeout(requestTimeout),
		httpClient.WithLogger(logger.ForComponent(logger.ComponentAggregator)),
	)
}

// NewAdapter enables 0x on the registry networks that list it and have an API host.
func NewAdapter(reg *registry.NetworkTokenRegistry, apiKey string, opts ...AdapterOption) (*Adapter, error) {
	a := &Adapter{
		apiKey:  apiKey,
		clients: make(map[business.NetworkID]*httpClient.HTTPClient),
		now:     time.Now,
		logger:  logger.ForComponent(logger.ComponentAggregator).With(zap.String("source_id", SourceID)),
	}
	for networkID, host := range defaultHosts {
		a.clients[networkID] = a.newClient(host)
	}
	for _, opt := range opts {
		opt(a)
	}

	networks := make([]business.NetworkID, 0, len(a.clients))
	for networkID := range a.clients {
		networks = append(networks, networkID)
	}
	venue, err := liquidity.NewVenue(SourceID, reg, networks...)
	if err != nil {
		return nil, err
	}
	a.Venue = venue
	return a, nil
}

func (a *Adapter) swapOptions(tokenIn, tokenOut common.Address, amountIn *big.Int, taker common.Address) []httpClient.RequestOption {
	opts := []httpClient.RequestOption{
		httpClient.WithQueryParam("sellToken", tokenIn.Hex()),
		httpClient.WithQueryParam("buyToken", tokenOut.Hex()),
		httpClient.WithQueryParam("sellAmount", amountIn.String()),
	}
	if taker != (common.Address{}) {
		opts = append(opts, httpClient.WithQueryParam("takerAddress", taker.Hex()))
	}
	return opts
}

// Quote fetches an indicative price.
func (a *Adapter) Quote(ctx context.Context, req business.QuoteRequest) (*business.Quote, error) {
	router, ok := a.Router(req.NetworkID)
	if !ok {
		return nil, fmt.Errorf("%s is not enabled on network %d", SourceID, req.NetworkID)
	}
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amount in must be positive")
	}

	var price PriceResponse
	if err := a.clients[req.NetworkID].GetJSON(ctx, pricePath, &price,
		a.swapOptions(req.TokenIn, req.TokenOut, req.AmountIn, req.Sender)...); err != nil {
		return nil, fmt.Errorf("failed to get 0x price: %w", err)
	}

	amountOut, err := helpers.ParsePositiveAmount(price.BuyAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid buyAmount: %w", err)
	}
	gas, _ := strconv.ParseUint(price.EstimatedGas, 10, 64)

	route, err := json.Marshal(price)
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
		EstimatedGas: gas,
		Router:       router,
		RouteData:    route,
		QuotedAt:     a.now(),
	}, nil
}

// BuildPayload fetches a firm quote for the sender and wraps its calldata
// after an approval of the router. The minimum output encoded in the calldata
// must meet params.AmountOutMinimum; when the venue's own slippage allowance
// undercuts it, the quote is requested once more with a tighter slippage.
func (a *Adapter) BuildPayload(ctx context.Context, quote *business.Quote, params business.BuildParams) (*business.CallPayload, error) {
	router, err := a.CheckQuote(quote)
	if err != nil {
		return nil, err
	}
	floor := params.AmountOutMinimum
	if floor == nil {
		return nil, fmt.Errorf("amount out minimum is required")
	}
	// The 0x v1 API always pays the taker.
	if params.Recipient != params.Sender {
		return nil, fmt.Errorf("%s cannot pay a recipient other than the sender", SourceID)
	}

	firm, err := a.firmQuote(ctx, quote, router, params.Sender, params.MaxSlippageBps)
	if err != nil {
		return nil, err
	}
	if firm.buyAmount.Cmp(floor) < 0 {
		return nil, fmt.Errorf("0x firm quote %s is below the minimum %s", firm.buyAmount, floor)
	}
	if firm.minOut.Cmp(floor) < 0 {
		slippage := liquidity.SlippageWithin(firm.buyAmount, floor)
		a.logger.Debug("Tightening 0x slippage to meet the minimum",
			zap.String("enforced_minimum", firm.minOut.String()),
			zap.String("required_minimum", floor.String()),
			zap.Uint32("slippage_bps", slippage))

		if firm, err = a.firmQuote(ctx, quote, router, params.Sender, slippage); err != nil {
			return nil, err
		}
		if firm.minOut.Cmp(floor) < 0 {
			return nil, fmt.Errorf("0x calldata enforces %s, below the minimum %s", firm.minOut, floor)
		}
	}

	approve, err := liquidity.ApproveCall(quote.TokenIn, router, quote.AmountIn)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Built 0x payload",
		zap.String("buy_amount", firm.buyAmount.String()),
		zap.String("enforced_minimum", firm.minOut.String()),
		zap.String("guaranteed_price", firm.guaranteedPrice))

	return &business.CallPayload{
		NetworkID: quote.NetworkID,
		SourceID:  SourceID,
		Calls: []business.Call{
			approve,
			{Target: router, Value: firm.value, Data: firm.data},
		},
		AmountOutMinimum: firm.minOut,
	}, nil
}

type firmSwap struct {
	data            []byte
	value           *big.Int
	buyAmount       *big.Int
	minOut          *big.Int
	guaranteedPrice string
}

func (a *Adapter) firmQuote(ctx context.Context, quote *business.Quote, router, taker common.Address, slippageBps uint32) (*firmSwap, error) {
	opts := a.swapOptions(quote.TokenIn, quote.TokenOut, quote.AmountIn, taker)
	opts = append(opts,
		httpClient.WithQueryParam("slippagePercentage", strconv.FormatFloat(float64(slippageBps)/constants.BasisPointsDenominator, 'f', -1, 64)),
		httpClient.WithQueryParam("skipValidation", "true"),
	)

	var resp QuoteResponse
	if err := a.clients[quote.NetworkID].GetJSON(ctx, quotePath, &resp, opts...); err != nil {
		return nil, fmt.Errorf("failed to get 0x quote: %w", err)
	}

	if !common.IsHexAddress(resp.To) || common.HexToAddress(resp.To) != router {
		return nil, fmt.Errorf("0x quote targets %s, registered router is %s", resp.To, router.Hex())
	}
	if resp.AllowanceTarget != "" && common.HexToAddress(resp.AllowanceTarget) != router {
		return nil, fmt.Errorf("0x allowance target %s is not the registered router", resp.AllowanceTarget)
	}
	data, err := hexutil.Decode(resp.Data)
	if err != nil || len(data) < 4 {
		return nil, fmt.Errorf("invalid 0x calldata")
	}
	value := new(big.Int)
	if resp.Value != "" {
		if value, err = helpers.ParseAmount(resp.Value); err != nil {
			return nil, fmt.Errorf("invalid 0x value: %w", err)
		}
	}
	buyAmount, err := helpers.ParsePositiveAmount(resp.BuyAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid buyAmount: %w", err)
	}
	minOut, err := liquidity.DecodeMinimumOutput(exchangeProxy, minOutputArgs, data)
	if err != nil {
		return nil, fmt.Errorf("0x calldata: %w", err)
	}

	return &firmSwap{
		data:            data,
		value:           value,
		buyAmount:       buyAmount,
		minOut:          minOut,
		guaranteedPrice: resp.GuaranteedPrice,
	}, nil
}
