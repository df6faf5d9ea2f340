package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebot/internal/types"
)

func TestSMACrossStrategy_BuyOnGoldenCross(t *testing.T) {
	// Falling then sharply rising closes: the fast SMA dips below the slow
	// SMA, then crosses back above it once the rally is underway.
	closes := []float64{100, 99, 98, 97, 96, 95, 110, 120, 130, 140}
	s := NewSMACrossStrategy(2, 4, types.OneHour)
	window := NewWindow(candlesFromCloses(closes...))

	require.NoError(t, s.PopulateIndicators(window))
	buys, err := s.PopulateBuyTrend(window)
	require.NoError(t, err)
	require.NotEmpty(t, buys)
	for _, sig := range buys {
		assert.Equal(t, types.SignalBuy, sig.Type)
		assert.InDelta(t, 1.0, sig.Strength, 1e-9)
	}

	sells, err := s.PopulateSellTrend(window)
	require.NoError(t, err)
	for _, sig := range sells {
		assert.Equal(t, types.SignalSell, sig.Type)
	}
}

func TestSMACrossStrategy_Name(t *testing.T) {
	s := NewSMACrossStrategy(5, 20, types.OneHour)
	assert.Equal(t, "SMACrossStrategy", s.Name())
	assert.Equal(t, []types.Timeframe{types.OneHour}, s.Timeframes())
}

func TestBaseDefaults(t *testing.T) {
	var b Base
	assert.True(t, b.ConfirmTradeExit(types.Trade{}, types.ExitSignal))
	_, ok := b.CustomStoploss("BTC/USDT", 0.05)
	assert.False(t, ok)
}
