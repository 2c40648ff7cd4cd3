package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cyphera/cyphera-agent/internal/constants"
	"github.com/cyphera/cyphera-agent/internal/helpers"
	"github.com/cyphera/cyphera-agent/internal/interfaces"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/metrics"
	"github.com/cyphera/cyphera-agent/internal/registry"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"go.uber.org/zap"
)

// DefaultQuoteDeadline bounds a quote fan-out when the caller gives none.
const DefaultQuoteDeadline = constants.DefaultQuoteDeadlineMs * time.Millisecond

// QuoteAggregator fans quote requests out to every adapter on a network and
// keeps the best answer received before the deadline.
type QuoteAggregator struct {
	adapters *registry.AdapterRegistry
	guard    *PriceGuard
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// QuoteAggregatorOption configures a QuoteAggregator
type QuoteAggregatorOption func(*QuoteAggregator)

// WithPriceGuard enables reference price filtering.
func WithPriceGuard(guard *PriceGuard) QuoteAggregatorOption {
	return func(a *QuoteAggregator) {
		a.guard = guard
	}
}

// WithAggregatorMetrics records per-source latency and failures.
func WithAggregatorMetrics(m *metrics.Metrics) QuoteAggregatorOption {
	return func(a *QuoteAggregator) {
		a.metrics = m
	}
}

// NewQuoteAggregator creates a new quote aggregator
func NewQuoteAggregator(adapters *registry.AdapterRegistry, opts ...QuoteAggregatorOption) *QuoteAggregator {
	a := &QuoteAggregator{
		adapters: adapters,
		logger:   logger.ForComponent(logger.ComponentAggregator),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type quoteResult struct {
	index    int
	quote    *business.Quote
	err      error
	duration time.Duration
}

// GetBestQuote asks every adapter supporting the pair in parallel and returns
// the highest amountOut, then the lowest gas, then the earliest registered.
// Adapters that fail or miss the deadline are excluded.
func (a *QuoteAggregator) GetBestQuote(ctx context.Context, req business.QuoteRequest, deadline time.Duration) (*business.Quote, error) {
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return nil, business.InvalidRequestf("amount in must be positive")
	}
	if req.TokenIn == req.TokenOut {
		return nil, business.InvalidRequestf("token in and token out must differ")
	}
	if deadline <= 0 {
		deadline = DefaultQuoteDeadline
	}

	var candidates []interfaces.LiquidityAdapter
	for _, adapter := range a.adapters.ForNetwork(req.NetworkID) {
		if adapter.SupportsPair(req.NetworkID, req.TokenIn, req.TokenOut) {
			candidates = append(candidates, adapter)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no liquidity source supports %s -> %s on network %d",
			business.ErrNoRouteFound, req.TokenIn.Hex(), req.TokenOut.Hex(), req.NetworkID)
	}

	quoteCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	// Buffered so adapters finishing after the deadline never block.
	results := make(chan quoteResult, len(candidates))
	for i, adapter := range candidates {
		go func(i int, adapter interfaces.LiquidityAdapter) {
			start := time.Now()
			q, err := adapter.Quote(quoteCtx, req)
			results <- quoteResult{index: i, quote: q, err: err, duration: time.Since(start)}
		}(i, adapter)
	}

	quotes := make([]*business.Quote, len(candidates))
	answered := make([]bool, len(candidates))
	pending := len(candidates)
collect:
	for pending > 0 {
		select {
		case r := <-results:
			pending--
			answered[r.index] = true
			source := candidates[r.index].ID()
			a.metrics.ObserveQuote(source, r.duration)
			if r.err != nil {
				a.metrics.ObserveQuoteFailure(source, failureReason(r.err))
				a.logger.Warn("Liquidity source quote failed",
					zap.String("source_id", source),
					zap.Duration("duration", r.duration),
					zap.Error(r.err))
				continue
			}
			if r.quote == nil || r.quote.AmountOut == nil || r.quote.AmountOut.Sign() <= 0 {
				a.metrics.ObserveQuoteFailure(source, "empty")
				continue
			}
			r.quote.SourceID = source
			quotes[r.index] = r.quote
		case <-quoteCtx.Done():
			break collect
		}
	}

	for i, ok := range answered {
		if !ok {
			a.metrics.ObserveQuoteFailure(candidates[i].ID(), "timeout")
			a.logger.Warn("Liquidity source missed quote deadline",
				zap.String("source_id", candidates[i].ID()),
				zap.Duration("deadline", deadline))
		}
	}

	// Keep registration order so ties resolve deterministically.
	ordered := make([]*business.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q != nil {
			ordered = append(ordered, q)
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	// The reference price lookup shares the quote deadline.
	ordered = a.guard.Filter(quoteCtx, req, ordered)

	best := selectBestQuote(ordered)
	if best == nil {
		return nil, fmt.Errorf("%w: %d of %d liquidity sources answered before the deadline",
			business.ErrNoRouteFound, len(ordered), len(candidates))
	}

	a.logger.Info("Selected best quote",
		zap.String("source_id", best.SourceID),
		zap.String("amount_in", best.AmountIn.String()),
		zap.String("amount_out", best.AmountOut.String()),
		zap.Uint64("estimated_gas", best.EstimatedGas),
		zap.Int("quotes", len(ordered)))
	return best, nil
}

// selectBestQuote expects quotes in adapter registration order.
func selectBestQuote(quotes []*business.Quote) *business.Quote {
	var best *business.Quote
	for _, q := range quotes {
		if best == nil {
			best = q
			continue
		}
		switch q.AmountOut.Cmp(best.AmountOut) {
		case 1:
			best = q
		case 0:
			if q.EstimatedGas < best.EstimatedGas {
				best = q
			}
		}
	}
	return best
}

// BuildExecutionPayload asks the quote's source to encode its calls with
// amountOutMinimum = amountOut * (10000 - maxSlippageBps) / 10000.
func (a *QuoteAggregator) BuildExecutionPayload(ctx context.Context, quote *business.Quote, params business.BuildParams) (*business.CallPayload, error) {
	if quote == nil {
		return nil, business.InvalidRequestf("quote is required")
	}
	if params.MaxSlippageBps > constants.MaxSlippageBps {
		return nil, business.InvalidRequestf("max slippage %d bps exceeds %d bps", params.MaxSlippageBps, constants.MaxSlippageBps)
	}
	adapter, ok := a.adapters.Get(quote.SourceID)
	if !ok {
		return nil, fmt.Errorf("liquidity source %s is not registered", quote.SourceID)
	}

	params.AmountOutMinimum = helpers.ApplySlippage(quote.AmountOut, params.MaxSlippageBps)
	payload, err := adapter.BuildPayload(ctx, quote, params)
	if err != nil {
		return nil, fmt.Errorf("failed to build payload with %s: %w", quote.SourceID, err)
	}
	if payload == nil || len(payload.Calls) == 0 {
		return nil, fmt.Errorf("liquidity source %s returned an empty payload", quote.SourceID)
	}
	if payload.AmountOutMinimum == nil {
		payload.AmountOutMinimum = params.AmountOutMinimum
	}
	if payload.AmountOutMinimum.Cmp(params.AmountOutMinimum) < 0 {
		return nil, fmt.Errorf("%s payload enforces %s, below the minimum %s",
			quote.SourceID, payload.AmountOutMinimum, params.AmountOutMinimum)
	}
	payload.SourceID = quote.SourceID
	payload.NetworkID = quote.NetworkID
	return payload, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
