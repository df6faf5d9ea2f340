package strategy

import (
	"tradebot/internal/types"
)

const (
	smaFastKey = "sma_fast"
	smaSlowKey = "sma_slow"
)

// SMACrossStrategy is a reference Strategy implementation exercising the
// full port: it buys when the fast SMA crosses above the slow SMA and
// sells on the opposite cross. cmd/server wires it into both the coordinator
// and the backtest handler.
type SMACrossStrategy struct {
	Base

	FastPeriod int
	SlowPeriod int
	TF         types.Timeframe
}

// NewSMACrossStrategy builds a crossover strategy over the given periods
// and timeframe; fastPeriod must be smaller than slowPeriod.
func NewSMACrossStrategy(fastPeriod, slowPeriod int, tf types.Timeframe) *SMACrossStrategy {
	return &SMACrossStrategy{FastPeriod: fastPeriod, SlowPeriod: slowPeriod, TF: tf}
}

func (s *SMACrossStrategy) Name() string { return "SMACrossStrategy" }

func (s *SMACrossStrategy) Timeframes() []types.Timeframe { return []types.Timeframe{s.TF} }

func (s *SMACrossStrategy) PopulateIndicators(window *Window) error {
	window.Indicators[smaFastKey] = SMA(window.Candles, s.FastPeriod)
	window.Indicators[smaSlowKey] = SMA(window.Candles, s.SlowPeriod)
	return nil
}

func (s *SMACrossStrategy) PopulateBuyTrend(window *Window) ([]types.Signal, error) {
	return s.crossSignals(window, types.SignalBuy, func(prevDiff, diff int) bool {
		return prevDiff <= 0 && diff > 0
	}), nil
}

func (s *SMACrossStrategy) PopulateSellTrend(window *Window) ([]types.Signal, error) {
	return s.crossSignals(window, types.SignalSell, func(prevDiff, diff int) bool {
		return prevDiff >= 0 && diff < 0
	}), nil
}

// crossSignals walks the fast/slow SMA pair looking for a sign change in
// their difference, emitting one signal of kind at every index where fires
// reports a cross.
func (s *SMACrossStrategy) crossSignals(window *Window, kind types.SignalType, fires func(prevDiff, diff int) bool) []types.Signal {
	fast := window.Indicators[smaFastKey]
	slow := window.Indicators[smaSlowKey]

	var signals []types.Signal
	havePrev := false
	prevDiff := 0

	for i := range window.Candles {
		if i >= len(fast) || i >= len(slow) || fast[i] == nil || slow[i] == nil {
			havePrev = false
			continue
		}

		diff := fast[i].Cmp(*slow[i])
		if havePrev && fires(prevDiff, diff) {
			signals = append(signals, types.Signal{Index: i, Type: kind, Strength: 1.0})
		}
		prevDiff = diff
		havePrev = true
	}

	return signals
}
