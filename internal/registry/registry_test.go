package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRegistryYAML = `
networks:
  - chain_id: 8453
    name: base
    rpc_url: ${TEST_REGISTRY_RPC}
    tokens:
      - symbol: usdc
        address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
        decimals: 6
      - symbol: WETH
        address: "0x4200000000000000000000000000000000000006"
        decimals: 18
    sources:
      - id: uniswap_v3
        router: "0x2626664c2603336E57B271c5C0b26F421741e481"
        quoter: "0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a"
        fee_tiers: [500, 3000]
      - id: zeroex
        router: "0xDef1C0ded9bec7F1a1670819833240f027b25EfF"
        disabled: true
`

func TestParse(t *testing.T) {
	t.Setenv("TEST_REGISTRY_RPC", "https://base.example")

	r, err := Parse([]byte(testRegistryYAML))
	require.NoError(t, err)

	n, err := r.Network(8453)
	require.NoError(t, err)
	assert.Equal(t, "base", n.Name)
	assert.Equal(t, "https://base.example", n.RPCURL)
	require.Len(t, n.Tokens, 2)
	assert.Equal(t, "USDC", n.Tokens[0].Symbol)
	assert.Equal(t, uint8(6), n.Tokens[0].Decimals)

	require.Len(t, n.Sources, 1, "disabled sources are skipped")
	assert.Equal(t, "uniswap_v3", n.Sources[0].ID)
	assert.Equal(t, []uint32{500, 3000}, n.Sources[0].FeeTiers)

	tok, ok := r.Token(8453, common.HexToAddress("0x4200000000000000000000000000000000000006"))
	require.True(t, ok)
	assert.Equal(t, "WETH", tok.Symbol)

	routers := r.SourceRouters("uniswap_v3")
	assert.Equal(t, common.HexToAddress("0x2626664c2603336E57B271c5C0b26F421741e481"), routers[8453])
	assert.Empty(t, r.SourceRouters("zeroex"))

	_, err = r.Network(1)
	assert.True(t, errors.Is(err, business.ErrUnsupportedNetwork))
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "no networks",
			yaml: "networks: []",
			want: "registry has no networks",
		},
		{
			name: "missing chain id",
			yaml: "networks:\n  - name: x\n",
			want: "chain_id is required",
		},
		{
			name: "bad token address",
			yaml: "networks:\n  - chain_id: 1\n    tokens:\n      - symbol: A\n        address: nope\n",
			want: "invalid address",
		},
		{
			name: "duplicate symbol",
			yaml: `networks:
  - chain_id: 1
    tokens:
      - symbol: A
        address: "0x0000000000000000000000000000000000000001"
      - symbol: a
        address: "0x0000000000000000000000000000000000000002"
`,
			want: "duplicate token symbol",
		},
		{
			name: "zero router",
			yaml: `networks:
  - chain_id: 1
    sources:
      - id: x
        router: "0x0000000000000000000000000000000000000000"
`,
			want: "zero address",
		},
		{
			name: "duplicate network",
			yaml: "networks:\n  - chain_id: 1\n  - chain_id: 1\n",
			want: "duplicate network 1",
		},
		{
			name: "unknown field",
			yaml: "networks:\n  - chain_id: 1\n    colour: red\n",
			want: "decode registry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testRegistryYAML), 0o600))

	r, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []business.NetworkID{8453}, r.NetworkIDs())

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
