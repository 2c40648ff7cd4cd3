package services

import (
	"context"
	"fmt"
	"math"
	"math/big"

	"github.com/cyphera/cyphera-agent/internal/constants"
	"github.com/cyphera/cyphera-agent/internal/interfaces"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/registry"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"go.uber.org/zap"
)

// PriceGuard drops quotes whose implied price strays too far from a reference price.
type PriceGuard struct {
	prices          interfaces.ReferencePriceProvider
	tokens          *registry.NetworkTokenRegistry
	maxDeviationBps uint32
	logger          *zap.Logger
}

// NewPriceGuard creates a guard. A zero maxDeviationBps disables it.
func NewPriceGuard(prices interfaces.ReferencePriceProvider, tokens *registry.NetworkTokenRegistry, maxDeviationBps uint32) *PriceGuard {
	return &PriceGuard{
		prices:          prices,
		tokens:          tokens,
		maxDeviationBps: maxDeviationBps,
		logger:          logger.ForComponent(logger.ComponentAggregator),
	}
}

// Filter returns the quotes within the allowed deviation. When a reference
// price is unavailable the quotes are returned unfiltered.
func (g *PriceGuard) Filter(ctx context.Context, req business.QuoteRequest, quotes []*business.Quote) []*business.Quote {
	if g == nil || g.maxDeviationBps == 0 || len(quotes) == 0 {
		return quotes
	}

	tokenIn, okIn := g.tokens.Token(req.NetworkID, req.TokenIn)
	tokenOut, okOut := g.tokens.Token(req.NetworkID, req.TokenOut)
	if !okIn || !okOut {
		return quotes
	}

	prices, err := g.prices.GetUSDPrices(ctx, []string{tokenIn.Symbol, tokenOut.Symbol})
	if err != nil {
		g.logger.Warn("Reference price unavailable, skipping price guard",
			zap.String("token_in", tokenIn.Symbol),
			zap.String("token_out", tokenOut.Symbol),
			zap.Error(err))
		return quotes
	}
	priceIn, priceOut := prices[tokenIn.Symbol], prices[tokenOut.Symbol]
	if priceIn <= 0 || priceOut <= 0 {
		return quotes
	}
	reference := priceIn / priceOut

	kept := make([]*business.Quote, 0, len(quotes))
	for _, q := range quotes {
		deviation, err := deviationBps(q, tokenIn.Decimals, tokenOut.Decimals, reference)
		if err != nil || deviation > float64(g.maxDeviationBps) {
			g.logger.Warn("Quote rejected by price guard",
				zap.String("source_id", q.SourceID),
				zap.Float64("deviation_bps", deviation),
				zap.Uint32("max_deviation_bps", g.maxDeviationBps),
				zap.Error(err))
			continue
		}
		kept = append(kept, q)
	}
	return kept
}

// deviationBps compares the quote's tokenOut-per-tokenIn price with reference.
func deviationBps(q *business.Quote, decimalsIn, decimalsOut uint8, reference float64) (float64, error) {
	if q.AmountIn == nil || q.AmountIn.Sign() <= 0 || q.AmountOut == nil {
		return 0, fmt.Errorf("quote has no amounts")
	}
	in := scaleDown(q.AmountIn, decimalsIn)
	out := scaleDown(q.AmountOut, decimalsOut)
	implied, _ := new(big.Float).Quo(out, in).Float64()
	return math.Abs(implied-reference) / reference * constants.BasisPointsDenominator, nil
}

func scaleDown(amount *big.Int, decimals uint8) *big.Float {
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	return new(big.Float).Quo(new(big.Float).SetInt(amount), scale)
}
