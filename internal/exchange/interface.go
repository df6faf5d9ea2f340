// Package exchange defines the venue-agnostic Exchange port and its one
// concrete adapter (Binance REST + streaming).
package exchange

import (
	"context"

	"tradebot/internal/types"
)

// Exchange is the port the coordinator uses to reach a trading venue; the
// protection pipeline and the backtest engine never call it. Every adapter (currently only
// Binance) must implement it in full; the coordinator never talks to an
// adapter directly.
type Exchange interface {
	// FetchTicker returns the latest price snapshot for symbol.
	FetchTicker(ctx context.Context, symbol string) (*types.Ticker, error)

	// FetchOHLCV returns up to limit candles for symbol/timeframe, oldest
	// first, ending at the most recent bar the venue reports.
	FetchOHLCV(ctx context.Context, symbol string, timeframe types.Timeframe, limit int) ([]types.Candle, error)

	// FetchBalance returns the account balance for every currency the
	// venue reports.
	FetchBalance(ctx context.Context) ([]types.Balance, error)

	// FetchPositions returns open positions (empty for spot-only venues).
	FetchPositions(ctx context.Context) ([]types.Position, error)

	// CreateOrder submits a new order and returns the venue's record of it.
	CreateOrder(ctx context.Context, req types.OrderRequest) (*types.Order, error)

	// CancelOrder cancels a resting order.
	CancelOrder(ctx context.Context, symbol, orderID string) error

	// FetchOrder returns the current state of a single order.
	FetchOrder(ctx context.Context, symbol, orderID string) (*types.Order, error)

	// FetchOrders returns recent orders for symbol.
	FetchOrders(ctx context.Context, symbol string) ([]types.Order, error)

	// Name returns the venue identifier, e.g. "binance".
	Name() string
}

// ExchangeError wraps a venue-reported failure with the venue name and the
// venue's own error code, while preserving the underlying cause for
// errors.Is/errors.As.
type ExchangeError struct {
	Exchange string
	Code     string
	Message  string
	Original error
}

func (e *ExchangeError) Error() string {
	return e.Exchange + ": " + e.Message
}

func (e *ExchangeError) Unwrap() error {
	return e.Original
}
