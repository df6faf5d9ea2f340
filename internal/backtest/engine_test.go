package backtest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebot/internal/strategy"
	"tradebot/internal/types"
)

// fakeStrategy fires a buy at buyIdx and a sell at sellIdx, letting tests
// pin the exact candles the engine will trade on.
type fakeStrategy struct {
	strategy.Base
	buyIdx  []int
	sellIdx []int
}

func (s *fakeStrategy) Name() string                              { return "FakeStrategy" }
func (s *fakeStrategy) Timeframes() []types.Timeframe              { return []types.Timeframe{types.OneHour} }
func (s *fakeStrategy) PopulateIndicators(*strategy.Window) error  { return nil }
func (s *fakeStrategy) PopulateBuyTrend(w *strategy.Window) ([]types.Signal, error) {
	return signalsAt(s.buyIdx, types.SignalBuy), nil
}
func (s *fakeStrategy) PopulateSellTrend(w *strategy.Window) ([]types.Signal, error) {
	return signalsAt(s.sellIdx, types.SignalSell), nil
}

func signalsAt(idx []int, typ types.SignalType) []types.Signal {
	out := make([]types.Signal, len(idx))
	for i, n := range idx {
		out[i] = types.Signal{Index: n, Type: typ}
	}
	return out
}

func flatCandles(n int) []types.Candle {
	out := make([]types.Candle, n)
	for i := 0; i < n; i++ {
		price := decimal.NewFromInt(100)
		out[i] = types.Candle{
			Timestamp: time.Unix(int64(i*3600), 0).UTC(),
			Open:      price, High: price, Low: price, Close: price,
			Volume: decimal.NewFromInt(1),
		}
	}
	return out
}

func TestRun_RejectsShortHistory(t *testing.T) {
	e := New(Config{Pair: "BTC/USDT", StakeAmount: decimal.NewFromInt(100)}, &fakeStrategy{}, flatCandles(50))
	_, err := e.Run()
	require.Error(t, err)
}

func TestRun_NoSignalsProducesEmptyResult(t *testing.T) {
	e := New(Config{Pair: "BTC/USDT", Timeframe: types.OneHour, StakeAmount: decimal.NewFromInt(100)},
		&fakeStrategy{}, flatCandles(150))
	result, err := e.Run()
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalTrades)
	assert.True(t, result.TotalProfit.IsZero())
}

func TestRun_WinningRoundTrip(t *testing.T) {
	candles := flatCandles(150)
	candles[110].Close = decimal.NewFromInt(110)
	candles[110].High = candles[110].Close

	strat := &fakeStrategy{buyIdx: []int{100}, sellIdx: []int{110}}
	e := New(Config{Pair: "BTC/USDT", Timeframe: types.OneHour, StakeAmount: decimal.NewFromInt(1000)}, strat, candles)

	result, err := e.Run()
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalTrades)
	assert.Equal(t, 1, result.WinningTrades)
	assert.Equal(t, 0, result.LosingTrades)
	assert.True(t, result.TotalProfit.IsPositive())
	assert.Equal(t, 1.0, result.WinRate)
	require.Len(t, result.Trades, 1)
	assert.False(t, result.Trades[0].IsOpen)
}

func TestRun_LosingRoundTrip(t *testing.T) {
	candles := flatCandles(150)
	candles[110].Close = decimal.NewFromInt(90)
	candles[110].Low = candles[110].Close

	strat := &fakeStrategy{buyIdx: []int{100}, sellIdx: []int{110}}
	e := New(Config{Pair: "BTC/USDT", Timeframe: types.OneHour, StakeAmount: decimal.NewFromInt(1000)}, strat, candles)

	result, err := e.Run()
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalTrades)
	assert.Equal(t, 0, result.WinningTrades)
	assert.Equal(t, 1, result.LosingTrades)
	assert.True(t, result.TotalProfit.IsNegative())
	assert.Equal(t, 0.0, result.WinRate)
}

func TestRun_SellBeforeBuySameCandle_NoReentry(t *testing.T) {
	candles := flatCandles(150)
	candles[110].Close = decimal.NewFromInt(105)

	strat := &fakeStrategy{buyIdx: []int{100, 110}, sellIdx: []int{110}}
	e := New(Config{Pair: "BTC/USDT", Timeframe: types.OneHour, StakeAmount: decimal.NewFromInt(1000)}, strat, candles)

	result, err := e.Run()
	require.NoError(t, err)
	// The same candle that closes the only open trade also carries a buy
	// signal; it must not reopen in the same tick, leaving exactly one trade.
	assert.Equal(t, 1, result.TotalTrades)
	assert.Len(t, result.Trades, 1)
}

func TestRun_UnclosedTradeAtEndStaysOpen(t *testing.T) {
	candles := flatCandles(150)
	strat := &fakeStrategy{buyIdx: []int{120}}
	e := New(Config{Pair: "BTC/USDT", Timeframe: types.OneHour, StakeAmount: decimal.NewFromInt(1000)}, strat, candles)

	result, err := e.Run()
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalTrades) // only closed trades count toward the total
	require.Len(t, result.Trades, 1)
	assert.True(t, result.Trades[0].IsOpen)
}
