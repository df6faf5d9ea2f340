// Package strategy defines the Strategy port the coordinator and the
// backtest engine both evaluate, plus the built-in indicator library and a
// reference implementation exercising the full port.
package strategy

import (
	"github.com/shopspring/decimal"

	"tradebot/internal/types"
)

// Window is the mutable candle buffer a Strategy evaluates. PopulateIndicators
// is expected to write derived series into Indicators keyed by whatever name
// the strategy chooses; PopulateBuyTrend/PopulateSellTrend then read those
// series back out. Every series in Indicators must have the same length as
// Candles, with unset/"empty" leading entries represented as a nil pointer,
// mirroring the indicator library's own convention.
type Window struct {
	Candles    []types.Candle
	Indicators map[string][]*decimal.Decimal
}

// NewWindow wraps candles in a Window ready for PopulateIndicators.
func NewWindow(candles []types.Candle) *Window {
	return &Window{
		Candles:    candles,
		Indicators: make(map[string][]*decimal.Decimal),
	}
}

// Strategy produces buy/sell signals over a candle window. Implementations
// are pure with respect to the window they are given; PopulateIndicators is
// the only method permitted to mutate it.
type Strategy interface {
	// Name identifies the strategy for trade records and backtest results.
	Name() string

	// Timeframes lists the candle intervals this strategy is willing to
	// evaluate. Neither the coordinator nor the backtest engine consults
	// it; the configured timeframe is used as given.
	Timeframes() []types.Timeframe

	// PopulateIndicators computes and stores every derived series the
	// trend methods will need, mutating window.Indicators in place.
	PopulateIndicators(window *Window) error

	// PopulateBuyTrend returns every index in window.Candles at which a
	// buy signal fires.
	PopulateBuyTrend(window *Window) ([]types.Signal, error)

	// PopulateSellTrend returns every index in window.Candles at which a
	// sell signal fires.
	PopulateSellTrend(window *Window) ([]types.Signal, error)

	// ConfirmTradeExit lets the strategy veto a signal-driven exit the
	// coordinator is about to execute. Default implementations return true.
	ConfirmTradeExit(trade types.Trade, action types.ExitType) bool

	// CustomStoploss optionally overrides the trade's static stop-loss
	// with a ratio computed from the pair's current floating profit.
	// The bool return reports whether an override was produced.
	CustomStoploss(pair string, currentProfit float64) (decimal.Decimal, bool)
}

// Base implements the optional hooks with the port's documented defaults
// (confirm every exit, never override the stop-loss) so a concrete
// strategy only has to embed Base and implement the four required methods.
type Base struct{}

// ConfirmTradeExit always confirms, matching the port's default.
func (Base) ConfirmTradeExit(types.Trade, types.ExitType) bool { return true }

// CustomStoploss never overrides, matching the port's default.
func (Base) CustomStoploss(string, float64) (decimal.Decimal, bool) {
	return decimal.Zero, false
}
