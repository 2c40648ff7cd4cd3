package zeroex_test

import (
	"context"
	"encoding/json"
	"math"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/cyphera/cyphera-agent/internal/client/liquidity"
	"github.com/cyphera/cyphera-agent/internal/client/liquidity/zeroex"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/registry"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger("test")
}

var (
	usdc   = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	weth   = common.HexToAddress("0x4200000000000000000000000000000000000006")
	router = common.HexToAddress("0xDef1C0ded9bec7F1a1670819833240f027b25EfF")
	owner  = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

const registryYAML = `
networks:
  - chain_id: 8453
    name: base
    tokens:
      - symbol: USDC
        address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
        decimals: 6
      - symbol: WETH
        address: "0x4200000000000000000000000000000000000006"
        decimals: 18
    sources:
      - id: zeroex
        router: "0xDef1C0ded9bec7F1a1670819833240f027b25EfF"
`

const transformERC20 = "transformERC20(address,address,uint256,uint256,(uint32,bytes)[])"

var exchangeProxy = mustABI(`[{"type":"function","name":"transformERC20","stateMutability":"payable","inputs":[
 {"name":"inputToken","type":"address"},{"name":"outputToken","type":"address"},
 {"name":"inputTokenAmount","type":"uint256"},{"name":"minOutputTokenAmount","type":"uint256"},
 {"name":"transformations","type":"tuple[]","components":[{"name":"deploymentNonce","type":"uint32"},{"name":"data","type":"bytes"}]}],
 "outputs":[{"name":"outputTokenAmount","type":"uint256"}]}]`)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

type transformation struct {
	DeploymentNonce uint32
	Data            []byte
}

// fakeAPI answers like the 0x swap API: the firm calldata enforces
// buyAmount*(1-slippagePercentage) unless fixedMinimum is set.
type fakeAPI struct {
	t            *testing.T
	quoteTo      string
	buyAmount    string
	fixedMinimum *big.Int

	mu        sync.Mutex
	slippages []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	assert.Equal(f.t, "test-key", r.Header.Get("0x-api-key"))
	assert.Equal(f.t, usdc.Hex(), q.Get("sellToken"))
	assert.Equal(f.t, weth.Hex(), q.Get("buyToken"))
	assert.Equal(f.t, "500", q.Get("sellAmount"))

	switch r.URL.Path {
	case "/swap/v1/price":
		_ = json.NewEncoder(w).Encode(zeroex.PriceResponse{
			Price:           "2.1",
			BuyAmount:       "1050",
			SellAmount:      "500",
			EstimatedGas:    "150000",
			AllowanceTarget: router.Hex(),
		})
	case "/swap/v1/quote":
		assert.Equal(f.t, owner.Hex(), q.Get("takerAddress"))
		slippage := q.Get("slippagePercentage")
		f.mu.Lock()
		f.slippages = append(f.slippages, slippage)
		f.mu.Unlock()

		buy, _ := new(big.Int).SetString(f.buyAmount, 10)
		minimum := f.fixedMinimum
		if minimum == nil {
			fraction, err := strconv.ParseFloat(slippage, 64)
			assert.NoError(f.t, err)
			bps := int64(math.Round(fraction * 10000))
			minimum = new(big.Int).Mul(buy, big.NewInt(10000-bps))
			minimum.Quo(minimum, big.NewInt(10000))
		}
		data, err := exchangeProxy.Pack("transformERC20", usdc, weth, big.NewInt(500), minimum, []transformation{})
		assert.NoError(f.t, err)

		_ = json.NewEncoder(w).Encode(zeroex.QuoteResponse{
			PriceResponse: zeroex.PriceResponse{
				BuyAmount:       f.buyAmount,
				SellAmount:      "500",
				EstimatedGas:    "150000",
				AllowanceTarget: router.Hex(),
			},
			To:    f.quoteTo,
			Data:  hexutil.Encode(data),
			Value: "0",
		})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) requestedSlippages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.slippages...)
}

func newAdapter(t *testing.T, api *fakeAPI) *zeroex.Adapter {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	reg, err := registry.Parse([]byte(registryYAML))
	require.NoError(t, err)
	adapter, err := zeroex.NewAdapter(reg, "test-key", zeroex.WithBaseURL(8453, server.URL))
	require.NoError(t, err)
	return adapter
}

func TestAdapter_QuoteAndBuild(t *testing.T) {
	api := &fakeAPI{t: t, quoteTo: router.Hex(), buyAmount: "1060"}
	adapter := newAdapter(t, api)
	ctx := context.Background()

	assert.Equal(t, []business.NetworkID{8453}, adapter.NetworkIDs())

	quote, err := adapter.Quote(ctx, business.QuoteRequest{
		NetworkID: 8453,
		TokenIn:   usdc,
		TokenOut:  weth,
		AmountIn:  big.NewInt(500),
		Sender:    owner,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1050), quote.AmountOut.Int64())
	assert.Equal(t, uint64(150000), quote.EstimatedGas)
	assert.Equal(t, router, quote.Router)

	payload, err := adapter.BuildPayload(ctx, quote, business.BuildParams{
		Sender:           owner,
		Recipient:        owner,
		AmountOutMinimum: big.NewInt(1044),
		MaxSlippageBps:   50,
	})
	require.NoError(t, err)
	require.Len(t, payload.Calls, 2)
	assert.Equal(t, usdc, payload.Calls[0].Target)
	assert.Equal(t, router, payload.Calls[1].Target)
	id, ok := payload.Calls[1].SelectorID()
	require.True(t, ok)
	assert.Equal(t, business.SelectorID(transformERC20), id)
	assert.Equal(t, 0, payload.Calls[1].Value.Sign())
	// 1060 * 0.995, floored.
	assert.Equal(t, "1054", payload.AmountOutMinimum.String())
	assert.Equal(t, []string{"0.005"}, api.requestedSlippages())
}

func TestAdapter_BuildTightensSlippageToMeetMinimum(t *testing.T) {
	// The firm output sits between the required minimum and the indicative
	// quote, so the venue's 0.5% allowance would enforce only 1042.
	api := &fakeAPI{t: t, quoteTo: router.Hex(), buyAmount: "1048"}
	adapter := newAdapter(t, api)
	ctx := context.Background()

	quote, err := adapter.Quote(ctx, business.QuoteRequest{NetworkID: 8453, TokenIn: usdc, TokenOut: weth, AmountIn: big.NewInt(500), Sender: owner})
	require.NoError(t, err)

	payload, err := adapter.BuildPayload(ctx, quote, business.BuildParams{
		Sender:           owner,
		Recipient:        owner,
		AmountOutMinimum: big.NewInt(1044),
		MaxSlippageBps:   50,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"0.005", "0.0038"}, api.requestedSlippages())

	minimum, err := liquidity.DecodeMinimumOutput(exchangeProxy,
		map[string]liquidity.MinOutputArg{"transformERC20": {Index: 3}}, payload.Calls[1].Data)
	require.NoError(t, err)
	assert.Equal(t, "1044", minimum.String())
	assert.Equal(t, "1044", payload.AmountOutMinimum.String())
}

func TestAdapter_BuildRejects(t *testing.T) {
	ctx := context.Background()
	params := business.BuildParams{
		Sender:           owner,
		Recipient:        owner,
		AmountOutMinimum: big.NewInt(1044),
		MaxSlippageBps:   50,
	}
	req := business.QuoteRequest{NetworkID: 8453, TokenIn: usdc, TokenOut: weth, AmountIn: big.NewInt(500), Sender: owner}

	t.Run("unregistered target", func(t *testing.T) {
		adapter := newAdapter(t, &fakeAPI{t: t, quoteTo: "0x9999999999999999999999999999999999999999", buyAmount: "1048"})
		quote, err := adapter.Quote(ctx, req)
		require.NoError(t, err)
		_, err = adapter.BuildPayload(ctx, quote, params)
		assert.ErrorContains(t, err, "registered router")
	})

	t.Run("firm quote below minimum", func(t *testing.T) {
		adapter := newAdapter(t, &fakeAPI{t: t, quoteTo: router.Hex(), buyAmount: "1000"})
		quote, err := adapter.Quote(ctx, req)
		require.NoError(t, err)
		_, err = adapter.BuildPayload(ctx, quote, params)
		assert.ErrorContains(t, err, "below the minimum")
	})

	t.Run("calldata minimum stays below floor", func(t *testing.T) {
		api := &fakeAPI{t: t, quoteTo: router.Hex(), buyAmount: "1048", fixedMinimum: big.NewInt(1042)}
		adapter := newAdapter(t, api)
		quote, err := adapter.Quote(ctx, req)
		require.NoError(t, err)
		_, err = adapter.BuildPayload(ctx, quote, params)
		assert.ErrorContains(t, err, "calldata enforces 1042")
		assert.Len(t, api.requestedSlippages(), 2)
	})

	t.Run("foreign recipient", func(t *testing.T) {
		adapter := newAdapter(t, &fakeAPI{t: t, quoteTo: router.Hex(), buyAmount: "1048"})
		quote, err := adapter.Quote(ctx, req)
		require.NoError(t, err)
		foreign := params
		foreign.Recipient = common.HexToAddress("0x3333333333333333333333333333333333333333")
		_, err = adapter.BuildPayload(ctx, quote, foreign)
		assert.Error(t, err)
	})
}
