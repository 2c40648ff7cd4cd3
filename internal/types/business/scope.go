package business

import (
	"bytes"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// PermissionType is a capability class a grant is issued for.
type PermissionType string

const (
	PermissionTypeTrading     PermissionType = "trading"
	PermissionTypeRebalancing PermissionType = "rebalancing"
	PermissionTypeStaking     PermissionType = "staking"
	PermissionTypeGovernance  PermissionType = "governance"
)

// PermissionTypeDefinition declares the network-independent operations a type permits.
type PermissionTypeDefinition struct {
	Type        PermissionType
	Description string
	// Selectors are canonical function signatures, e.g. "approve(address,uint256)".
	Selectors []string
	Enabled   bool
}

// DelegationScope is the set of contracts and function signatures a grant authorizes.
type DelegationScope struct {
	Targets   []common.Address `json:"targets"`
	Selectors []string         `json:"selectors"`
}

// NewDelegationScope deduplicates and sorts its inputs so equal scopes compare equal.
func NewDelegationScope(targets []common.Address, selectors []string) DelegationScope {
	targetSet := make(map[common.Address]struct{}, len(targets))
	for _, t := range targets {
		targetSet[t] = struct{}{}
	}
	sortedTargets := make([]common.Address, 0, len(targetSet))
	for t := range targetSet {
		sortedTargets = append(sortedTargets, t)
	}
	sort.Slice(sortedTargets, func(i, j int) bool {
		return bytes.Compare(sortedTargets[i].Bytes(), sortedTargets[j].Bytes()) < 0
	})

	selectorSet := make(map[string]struct{}, len(selectors))
	for _, s := range selectors {
		s = NormalizeSignature(s)
		if s != "" {
			selectorSet[s] = struct{}{}
		}
	}
	sortedSelectors := make([]string, 0, len(selectorSet))
	for s := range selectorSet {
		sortedSelectors = append(sortedSelectors, s)
	}
	sort.Strings(sortedSelectors)

	return DelegationScope{Targets: sortedTargets, Selectors: sortedSelectors}
}

// NormalizeSignature strips whitespace from a function signature.
func NormalizeSignature(signature string) string {
	return strings.Join(strings.Fields(signature), "")
}

// SelectorID returns the 4-byte function selector for a signature.
func SelectorID(signature string) [4]byte {
	var id [4]byte
	copy(id[:], crypto.Keccak256([]byte(NormalizeSignature(signature)))[:4])
	return id
}

// SelectorHex returns the 0x-prefixed selector for a signature.
func SelectorHex(signature string) string {
	id := SelectorID(signature)
	return "0x" + hex.EncodeToString(id[:])
}

// IsEmpty reports whether the scope authorizes no operations.
func (s DelegationScope) IsEmpty() bool {
	return len(s.Selectors) == 0
}

// ContainsTarget reports whether addr is an authorized target.
func (s DelegationScope) ContainsTarget(addr common.Address) bool {
	for _, t := range s.Targets {
		if t == addr {
			return true
		}
	}
	return false
}

// ContainsSelector reports whether signature is authorized.
func (s DelegationScope) ContainsSelector(signature string) bool {
	signature = NormalizeSignature(signature)
	for _, sel := range s.Selectors {
		if sel == signature {
			return true
		}
	}
	return false
}

// ContainsSelectorID reports whether any authorized signature hashes to id.
func (s DelegationScope) ContainsSelectorID(id [4]byte) bool {
	for _, sel := range s.Selectors {
		if SelectorID(sel) == id {
			return true
		}
	}
	return false
}

// IsSubsetOf reports whether every target and selector of s is present in other.
func (s DelegationScope) IsSubsetOf(other DelegationScope) bool {
	for _, t := range s.Targets {
		if !other.ContainsTarget(t) {
			return false
		}
	}
	for _, sel := range s.Selectors {
		if !other.ContainsSelector(sel) {
			return false
		}
	}
	return true
}

// Equal reports whether both scopes authorize exactly the same set.
func (s DelegationScope) Equal(other DelegationScope) bool {
	return s.IsSubsetOf(other) && other.IsSubsetOf(s)
}
