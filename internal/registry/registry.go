package registry

import (
	"bytes"
	"os"
	"sort"
	"strings"

	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const maxTokenDecimals = 36

// TokenConfig is a token listed on a network.
type TokenConfig struct {
	Symbol   string `yaml:"symbol"`
	Name     string `yaml:"name"`
	Address  string `yaml:"address"`
	Decimals uint8  `yaml:"decimals"`
	LogoURL  string `yaml:"logo_url"`
}

// SourceConfig is a liquidity source active on a network.
type SourceConfig struct {
	ID     string `yaml:"id"`
	Router string `yaml:"router"`
	// Quoter is the on-chain quoter contract, used by sources that price on-chain.
	Quoter   string   `yaml:"quoter"`
	FeeTiers []uint32 `yaml:"fee_tiers"`
	Disabled bool     `yaml:"disabled"`
}

// NetworkConfig is one network entry in the registry file.
type NetworkConfig struct {
	ChainID uint64         `yaml:"chain_id"`
	Name    string         `yaml:"name"`
	RPCURL  string         `yaml:"rpc_url"`
	Tokens  []TokenConfig  `yaml:"tokens"`
	Sources []SourceConfig `yaml:"sources"`
}

// File is the top-level layout of the registry file.
type File struct {
	Networks []NetworkConfig `yaml:"networks"`
}

// Token is a validated token entry.
type Token struct {
	Symbol   string
	Name     string
	Address  common.Address
	Decimals uint8
	LogoURL  string
}

// Source is a validated liquidity source entry.
type Source struct {
	ID       string
	Router   common.Address
	Quoter   common.Address
	FeeTiers []uint32
}

// Network is a validated network entry.
type Network struct {
	ID      business.NetworkID
	Name    string
	RPCURL  string
	Tokens  []Token
	Sources []Source
}

// NetworkTokenRegistry is the read-only per-network token and source table.
// It is validated at construction and never mutated afterwards.
type NetworkTokenRegistry struct {
	networks map[business.NetworkID]*Network
	order    []business.NetworkID
}

// LoadFile reads a registry from a YAML file. ${VAR} references are expanded from the environment.
func LoadFile(path string) (*NetworkTokenRegistry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read registry file %s", path)
	}
	return Parse(raw)
}

// Parse decodes and validates registry YAML.
func Parse(raw []byte) (*NetworkTokenRegistry, error) {
	var file File
	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(raw)))))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, errors.Wrap(err, "decode registry")
	}
	return New(file)
}

// New validates file and builds the registry.
func New(file File) (*NetworkTokenRegistry, error) {
	if len(file.Networks) == 0 {
		return nil, errors.New("registry has no networks")
	}

	r := &NetworkTokenRegistry{networks: make(map[business.NetworkID]*Network, len(file.Networks))}
	for _, nc := range file.Networks {
		network, err := buildNetwork(nc)
		if err != nil {
			return nil, errors.Wrapf(err, "network %d", nc.ChainID)
		}
		if _, exists := r.networks[network.ID]; exists {
			return nil, errors.Errorf("duplicate network %d", nc.ChainID)
		}
		r.networks[network.ID] = network
		r.order = append(r.order, network.ID)
	}
	return r, nil
}

func buildNetwork(nc NetworkConfig) (*Network, error) {
	if nc.ChainID == 0 {
		return nil, errors.New("chain_id is required")
	}
	network := &Network{
		ID:     business.NetworkID(nc.ChainID),
		Name:   nc.Name,
		RPCURL: nc.RPCURL,
	}

	symbols := make(map[string]struct{}, len(nc.Tokens))
	addresses := make(map[common.Address]struct{}, len(nc.Tokens))
	for _, tc := range nc.Tokens {
		addr, err := parseAddress(tc.Address)
		if err != nil {
			return nil, errors.Wrapf(err, "token %s", tc.Symbol)
		}
		symbol := strings.ToUpper(strings.TrimSpace(tc.Symbol))
		if symbol == "" {
			return nil, errors.Errorf("token %s has no symbol", tc.Address)
		}
		if tc.Decimals > maxTokenDecimals {
			return nil, errors.Errorf("token %s decimals %d out of range", symbol, tc.Decimals)
		}
		if _, dup := symbols[symbol]; dup {
			return nil, errors.Errorf("duplicate token symbol %s", symbol)
		}
		if _, dup := addresses[addr]; dup {
			return nil, errors.Errorf("duplicate token address %s", addr.Hex())
		}
		symbols[symbol] = struct{}{}
		addresses[addr] = struct{}{}
		network.Tokens = append(network.Tokens, Token{
			Symbol:   symbol,
			Name:     tc.Name,
			Address:  addr,
			Decimals: tc.Decimals,
			LogoURL:  tc.LogoURL,
		})
	}

	ids := make(map[string]struct{}, len(nc.Sources))
	for _, sc := range nc.Sources {
		if sc.ID == "" {
			return nil, errors.New("source id is required")
		}
		if _, dup := ids[sc.ID]; dup {
			return nil, errors.Errorf("duplicate source %s", sc.ID)
		}
		ids[sc.ID] = struct{}{}
		if sc.Disabled {
			continue
		}
		router, err := parseAddress(sc.Router)
		if err != nil {
			return nil, errors.Wrapf(err, "source %s router", sc.ID)
		}
		source := Source{ID: sc.ID, Router: router, FeeTiers: append([]uint32(nil), sc.FeeTiers...)}
		if sc.Quoter != "" {
			quoter, err := parseAddress(sc.Quoter)
			if err != nil {
				return nil, errors.Wrapf(err, "source %s quoter", sc.ID)
			}
			source.Quoter = quoter
		}
		network.Sources = append(network.Sources, source)
	}
	return network, nil
}

func parseAddress(value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, errors.Errorf("invalid address %q", value)
	}
	addr := common.HexToAddress(value)
	if addr == (common.Address{}) {
		return common.Address{}, errors.New("zero address")
	}
	return addr, nil
}

// Network returns the entry for id or ErrUnsupportedNetwork.
func (r *NetworkTokenRegistry) Network(id business.NetworkID) (*Network, error) {
	n, ok := r.networks[id]
	if !ok {
		return nil, errors.Wrapf(business.ErrUnsupportedNetwork, "network %d", id)
	}
	return n, nil
}

// Networks returns all entries in file order.
func (r *NetworkTokenRegistry) Networks() []*Network {
	out := make([]*Network, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.networks[id])
	}
	return out
}

// NetworkIDs returns the registered network ids in ascending order.
func (r *NetworkTokenRegistry) NetworkIDs() []business.NetworkID {
	ids := make([]business.NetworkID, 0, len(r.networks))
	for id := range r.networks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Token looks up a token on a network by address.
func (r *NetworkTokenRegistry) Token(id business.NetworkID, addr common.Address) (Token, bool) {
	n, ok := r.networks[id]
	if !ok {
		return Token{}, false
	}
	for _, t := range n.Tokens {
		if t.Address == addr {
			return t, true
		}
	}
	return Token{}, false
}

// TokenAddresses returns every token address registered on a network.
func (r *NetworkTokenRegistry) TokenAddresses(id business.NetworkID) ([]common.Address, error) {
	n, err := r.Network(id)
	if err != nil {
		return nil, err
	}
	out := make([]common.Address, 0, len(n.Tokens))
	for _, t := range n.Tokens {
		out = append(out, t.Address)
	}
	return out, nil
}

// Source looks up a source entry on a network.
func (r *NetworkTokenRegistry) Source(id business.NetworkID, sourceID string) (Source, bool) {
	n, ok := r.networks[id]
	if !ok {
		return Source{}, false
	}
	for _, s := range n.Sources {
		if s.ID == sourceID {
			return s, true
		}
	}
	return Source{}, false
}

// SourceRouters returns the router of every enabled source for sourceID, keyed by network.
func (r *NetworkTokenRegistry) SourceRouters(sourceID string) map[business.NetworkID]common.Address {
	out := make(map[business.NetworkID]common.Address)
	for id, n := range r.networks {
		for _, s := range n.Sources {
			if s.ID == sourceID {
				out[id] = s.Router
			}
		}
	}
	return out
}
