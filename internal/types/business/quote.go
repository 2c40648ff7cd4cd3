package business

import (
	"encoding/json"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// QuoteRequest asks a liquidity source to price amountIn of tokenIn in tokenOut.
type QuoteRequest struct {
	NetworkID NetworkID
	TokenIn   common.Address
	TokenOut  common.Address
	AmountIn  *big.Int
	// Sender is the account the tokens leave from. Some venues price per taker.
	Sender common.Address
}

// Quote is a liquidity source's priced offer. It is not persisted.
type Quote struct {
	SourceID     string
	NetworkID    NetworkID
	TokenIn      common.Address
	TokenOut     common.Address
	AmountIn     *big.Int
	AmountOut    *big.Int
	EstimatedGas uint64
	// Router is the contract the swap call will target.
	Router common.Address
	// RouteData is opaque, source-specific routing state consumed by BuildPayload.
	RouteData json.RawMessage
	QuotedAt  time.Time
}

// Call is one contract call in an execution payload.
type Call struct {
	Target common.Address `json:"target"`
	Value  *big.Int       `json:"value"`
	Data   []byte         `json:"data"`
}

// SelectorID returns the first four bytes of the call data.
func (c Call) SelectorID() ([4]byte, bool) {
	var id [4]byte
	if len(c.Data) < 4 {
		return id, false
	}
	copy(id[:], c.Data[:4])
	return id, true
}

// BuildParams carries the execution-time parameters for encoding a quote.
type BuildParams struct {
	Sender           common.Address
	Recipient        common.Address
	AmountOutMinimum *big.Int
	MaxSlippageBps   uint32
}

// CallPayload is the ordered list of calls the relay executes on the owner's behalf.
type CallPayload struct {
	NetworkID        NetworkID
	SourceID         string
	Calls            []Call
	AmountOutMinimum *big.Int
}
