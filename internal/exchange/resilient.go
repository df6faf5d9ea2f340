package exchange

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"tradebot/internal/types"
	"tradebot/pkg/ratelimit"
	"tradebot/pkg/retry"
)

// Resilient wraps an Exchange with retry, a circuit breaker, and a token
// bucket, so every adapter gets the same network-failure handling instead of
// each one rolling its own.
type Resilient struct {
	inner   Exchange
	breaker *gobreaker.CircuitBreaker
	limiter *ratelimit.RateLimiter
	cfg     retry.Config
}

// NewResilient wraps inner with a circuit breaker named after the venue
// and a rate limiter admitting rps requests per second (bursting to burst).
func NewResilient(inner Exchange, rps, burst float64) *Resilient {
	settings := gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Resilient{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: ratelimit.NewRateLimiter(rps, burst),
		cfg:     retry.NetworkConfig(),
	}
}

func (r *Resilient) Name() string { return r.inner.Name() }

func call[T any](ctx context.Context, r *Resilient, fn func() (T, error)) (T, error) {
	var zero T

	if err := r.limiter.Wait(ctx); err != nil {
		return zero, err
	}

	result, err := retry.DoWithResult(ctx, func() (T, error) {
		v, breakerErr := r.breaker.Execute(func() (interface{}, error) {
			res, opErr := fn()
			if opErr != nil && !isRetryableExchangeErr(opErr) {
				return res, retry.Permanent(opErr)
			}
			return res, opErr
		})
		if v == nil {
			return zero, breakerErr
		}
		return v.(T), breakerErr
	}, r.cfg)

	return result, err
}

func isRetryableExchangeErr(err error) bool {
	var exchErr *ExchangeError
	if errors.As(err, &exchErr) {
		switch exchErr.Code {
		case "-1021", "-1003":
			return true
		}
	}
	return true
}

func (r *Resilient) FetchTicker(ctx context.Context, symbol string) (*types.Ticker, error) {
	return call(ctx, r, func() (*types.Ticker, error) { return r.inner.FetchTicker(ctx, symbol) })
}

func (r *Resilient) FetchOHLCV(ctx context.Context, symbol string, timeframe types.Timeframe, limit int) ([]types.Candle, error) {
	return call(ctx, r, func() ([]types.Candle, error) { return r.inner.FetchOHLCV(ctx, symbol, timeframe, limit) })
}

func (r *Resilient) FetchBalance(ctx context.Context) ([]types.Balance, error) {
	return call(ctx, r, func() ([]types.Balance, error) { return r.inner.FetchBalance(ctx) })
}

func (r *Resilient) FetchPositions(ctx context.Context) ([]types.Position, error) {
	return call(ctx, r, func() ([]types.Position, error) { return r.inner.FetchPositions(ctx) })
}

func (r *Resilient) CreateOrder(ctx context.Context, req types.OrderRequest) (*types.Order, error) {
	return call(ctx, r, func() (*types.Order, error) { return r.inner.CreateOrder(ctx, req) })
}

func (r *Resilient) CancelOrder(ctx context.Context, symbol, orderID string) error {
	_, err := call(ctx, r, func() (struct{}, error) { return struct{}{}, r.inner.CancelOrder(ctx, symbol, orderID) })
	return err
}

func (r *Resilient) FetchOrder(ctx context.Context, symbol, orderID string) (*types.Order, error) {
	return call(ctx, r, func() (*types.Order, error) { return r.inner.FetchOrder(ctx, symbol, orderID) })
}

func (r *Resilient) FetchOrders(ctx context.Context, symbol string) ([]types.Order, error) {
	return call(ctx, r, func() ([]types.Order, error) { return r.inner.FetchOrders(ctx, symbol) })
}

var _ Exchange = (*Resilient)(nil)
