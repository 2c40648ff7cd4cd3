package uniswapv3_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/cyphera/cyphera-agent/internal/client/liquidity/uniswapv3"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/registry"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger("test")
}

var (
	usdc   = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	weth   = common.HexToAddress("0x4200000000000000000000000000000000000006")
	router = common.HexToAddress("0x2626664c2603336E57B271c5C0b26F421741e481")
	quoter = common.HexToAddress("0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a")
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
      - id: uniswap_v3
        router: "0x2626664c2603336E57B271c5C0b26F421741e481"
        quoter: "0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a"
        fee_tiers: [100, 500, 3000]
`

// fakeQuoter answers quoteExactInputSingle per fee tier and reverts for unknown tiers.
type fakeQuoter struct {
	t       *testing.T
	outputs map[uint64]int64
	calls   int
}

func (f *fakeQuoter) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	require.NotNil(f.t, call.To)
	assert.Equal(f.t, quoter, *call.To)

	method := uniswapv3.QuoterV2ABI.Methods["quoteExactInputSingle"]
	assert.Equal(f.t, method.ID, call.Data[:4])
	args, err := method.Inputs.Unpack(call.Data[4:])
	require.NoError(f.t, err)
	params := *abi.ConvertType(args[0], new(uniswapv3.QuoteExactInputSingleParams)).(*uniswapv3.QuoteExactInputSingleParams)

	out, ok := f.outputs[params.Fee.Uint64()]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return method.Outputs.Pack(big.NewInt(out), new(big.Int), uint32(1), big.NewInt(int64(100000+params.Fee.Uint64())))
}

func newAdapter(t *testing.T, outputs map[uint64]int64) (*uniswapv3.Adapter, *fakeQuoter) {
	t.Helper()
	reg, err := registry.Parse([]byte(registryYAML))
	require.NoError(t, err)
	caller := &fakeQuoter{t: t, outputs: outputs}
	adapter, err := uniswapv3.NewAdapter(reg, map[business.NetworkID]uniswapv3.ContractCaller{8453: caller})
	require.NoError(t, err)
	return adapter, caller
}

func TestAdapter_QuotePicksBestFeeTier(t *testing.T) {
	adapter, caller := newAdapter(t, map[uint64]int64{500: 1000, 3000: 1200})

	assert.Equal(t, []business.NetworkID{8453}, adapter.NetworkIDs())
	assert.True(t, adapter.SupportsPair(8453, usdc, weth))
	assert.False(t, adapter.SupportsPair(8453, usdc, usdc))
	assert.False(t, adapter.SupportsPair(1, usdc, weth))

	quote, err := adapter.Quote(context.Background(), business.QuoteRequest{
		NetworkID: 8453,
		TokenIn:   usdc,
		TokenOut:  weth,
		AmountIn:  big.NewInt(500),
		Sender:    owner,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, caller.calls)
	assert.Equal(t, uniswapv3.SourceID, quote.SourceID)
	assert.Equal(t, int64(1200), quote.AmountOut.Int64())
	assert.Equal(t, uint64(103000), quote.EstimatedGas)
	assert.Equal(t, router, quote.Router)
	assert.JSONEq(t, `{"fee":3000}`, string(quote.RouteData))
}

func TestAdapter_QuoteNoPool(t *testing.T) {
	adapter, _ := newAdapter(t, nil)

	_, err := adapter.Quote(context.Background(), business.QuoteRequest{
		NetworkID: 8453,
		TokenIn:   usdc,
		TokenOut:  weth,
		AmountIn:  big.NewInt(500),
	})
	assert.ErrorContains(t, err, "no pool quoted")
}

func TestAdapter_BuildPayload(t *testing.T) {
	adapter, _ := newAdapter(t, map[uint64]int64{500: 1000})
	ctx := context.Background()

	quote, err := adapter.Quote(ctx, business.QuoteRequest{NetworkID: 8453, TokenIn: usdc, TokenOut: weth, AmountIn: big.NewInt(500)})
	require.NoError(t, err)

	payload, err := adapter.BuildPayload(ctx, quote, business.BuildParams{
		Sender:           owner,
		Recipient:        owner,
		AmountOutMinimum: big.NewInt(995),
		MaxSlippageBps:   50,
	})
	require.NoError(t, err)
	require.Len(t, payload.Calls, 2)

	approve := payload.Calls[0]
	assert.Equal(t, usdc, approve.Target)
	id, ok := approve.SelectorID()
	require.True(t, ok)
	assert.Equal(t, business.SelectorID("approve(address,uint256)"), id)

	swap := payload.Calls[1]
	assert.Equal(t, router, swap.Target)
	id, ok = swap.SelectorID()
	require.True(t, ok)
	assert.Equal(t, business.SelectorID("exactInputSingle((address,address,uint24,address,uint256,uint256,uint160))"), id)

	args, err := uniswapv3.SwapRouter02ABI.Methods["exactInputSingle"].Inputs.Unpack(swap.Data[4:])
	require.NoError(t, err)
	params := *abi.ConvertType(args[0], new(uniswapv3.ExactInputSingleParams)).(*uniswapv3.ExactInputSingleParams)
	assert.Equal(t, owner, params.Recipient)
	assert.Equal(t, int64(500), params.Fee.Int64())
	assert.Equal(t, int64(500), params.AmountIn.Int64())
	assert.Equal(t, int64(995), params.AmountOutMinimum.Int64())
	assert.Equal(t, int64(995), payload.AmountOutMinimum.Int64())

	foreign := *quote
	foreign.SourceID = "zeroex"
	_, err = adapter.BuildPayload(ctx, &foreign, business.BuildParams{AmountOutMinimum: big.NewInt(1)})
	assert.Error(t, err)
}

func TestNewAdapter_RequiresCaller(t *testing.T) {
	reg, err := registry.Parse([]byte(registryYAML))
	require.NoError(t, err)
	_, err = uniswapv3.NewAdapter(reg, nil)
	assert.Error(t, err)
}
