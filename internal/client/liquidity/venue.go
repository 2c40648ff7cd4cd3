// Package liquidity holds what the venue adapters share: the per-network
// router table taken from the registry and the ERC-20 approval call.
package liquidity

import (
	"fmt"
	"math/big"
	"reflect"
	"sort"
	"strings"

	"github.com/cyphera/cyphera-agent/internal/constants"
	"github.com/cyphera/cyphera-agent/internal/registry"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABI = `[{"type":"function","name":"approve","stateMutability":"nonpayable",
"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
"outputs":[{"name":"","type":"bool"}]}]`

var erc20 = MustParseABI(erc20ABI)

// MustParseABI parses an inline ABI definition and panics on error.
func MustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid ABI: %v", err))
	}
	return parsed
}

// Venue is the registry-backed part of a liquidity adapter: its id, the
// networks it is enabled on and the router it targets on each.
type Venue struct {
	id      string
	tokens  *registry.NetworkTokenRegistry
	sources map[business.NetworkID]registry.Source
	order   []business.NetworkID
}

// NewVenue collects the registry entries for source id. When networks is
// non-empty only those networks are kept.
func NewVenue(id string, reg *registry.NetworkTokenRegistry, networks ...business.NetworkID) (*Venue, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry is required")
	}
	allowed := make(map[business.NetworkID]struct{}, len(networks))
	for _, n := range networks {
		allowed[n] = struct{}{}
	}

	v := &Venue{
		id:      id,
		tokens:  reg,
		sources: make(map[business.NetworkID]registry.Source),
	}
	for _, networkID := range reg.NetworkIDs() {
		if len(allowed) > 0 {
			if _, ok := allowed[networkID]; !ok {
				continue
			}
		}
		source, ok := reg.Source(networkID, id)
		if !ok {
			continue
		}
		v.sources[networkID] = source
		v.order = append(v.order, networkID)
	}
	if len(v.order) == 0 {
		return nil, fmt.Errorf("source %s is not enabled on any registered network", id)
	}
	sort.Slice(v.order, func(i, j int) bool { return v.order[i] < v.order[j] })
	return v, nil
}

func (v *Venue) ID() string { return v.id }

func (v *Venue) NetworkIDs() []business.NetworkID {
	return append([]business.NetworkID(nil), v.order...)
}

func (v *Venue) Router(networkID business.NetworkID) (common.Address, bool) {
	s, ok := v.sources[networkID]
	if !ok {
		return common.Address{}, false
	}
	return s.Router, true
}

// Source returns the full registry entry for a network.
func (v *Venue) Source(networkID business.NetworkID) (registry.Source, bool) {
	s, ok := v.sources[networkID]
	return s, ok
}

// SupportsPair requires the venue on the network and both tokens registered there.
func (v *Venue) SupportsPair(networkID business.NetworkID, tokenIn, tokenOut common.Address) bool {
	if _, ok := v.sources[networkID]; !ok || tokenIn == tokenOut {
		return false
	}
	_, inOK := v.tokens.Token(networkID, tokenIn)
	_, outOK := v.tokens.Token(networkID, tokenOut)
	return inOK && outOK
}

// CheckQuote verifies a quote was produced by this venue for a network it serves.
func (v *Venue) CheckQuote(quote *business.Quote) (common.Address, error) {
	if quote == nil {
		return common.Address{}, fmt.Errorf("quote is nil")
	}
	if quote.SourceID != v.id {
		return common.Address{}, fmt.Errorf("quote from %s cannot be built by %s", quote.SourceID, v.id)
	}
	router, ok := v.Router(quote.NetworkID)
	if !ok {
		return common.Address{}, fmt.Errorf("%s is not enabled on network %d", v.id, quote.NetworkID)
	}
	return router, nil
}

// ApproveCall encodes token.approve(spender, amount).
func ApproveCall(token, spender common.Address, amount *big.Int) (business.Call, error) {
	data, err := erc20.Pack("approve", spender, amount)
	if err != nil {
		return business.Call{}, fmt.Errorf("failed to encode approve: %w", err)
	}
	return business.Call{Target: token, Value: new(big.Int), Data: data}, nil
}

// MinOutputArg locates the minimum-output argument of a router method. Field
// names the tuple field when the argument is a struct.
type MinOutputArg struct {
	Index int
	Field string
}

// DecodeMinimumOutput unpacks router calldata and returns the minimum output
// the call enforces on chain.
func DecodeMinimumOutput(router abi.ABI, args map[string]MinOutputArg, data []byte) (*big.Int, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("calldata too short")
	}
	method, err := router.MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("unknown router method 0x%x", data[:4])
	}
	loc, ok := args[method.Name]
	if !ok {
		return nil, fmt.Errorf("router method %s has no known minimum output", method.Name)
	}
	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", method.Name, err)
	}
	if loc.Index >= len(values) {
		return nil, fmt.Errorf("%s has no argument %d", method.Name, loc.Index)
	}

	value := values[loc.Index]
	if loc.Field != "" {
		field := reflect.ValueOf(value).FieldByName(loc.Field)
		if !field.IsValid() {
			return nil, fmt.Errorf("%s argument %d has no field %s", method.Name, loc.Index, loc.Field)
		}
		value = field.Interface()
	}
	minOut, ok := value.(*big.Int)
	if !ok || minOut == nil {
		return nil, fmt.Errorf("%s minimum output is not an integer", method.Name)
	}
	return minOut, nil
}

// SlippageWithin returns the largest slippage in basis points that keeps
// expected*(10000-bps)/10000 at or above floor. expected must be >= floor.
func SlippageWithin(expected, floor *big.Int) uint32 {
	if expected.Sign() <= 0 || expected.Cmp(floor) <= 0 {
		return 0
	}
	bps := new(big.Int).Sub(expected, floor)
	bps.Mul(bps, big.NewInt(constants.BasisPointsDenominator))
	bps.Quo(bps, expected)
	return uint32(bps.Uint64())
}
