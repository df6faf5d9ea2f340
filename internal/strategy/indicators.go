package strategy

import (
	"github.com/shopspring/decimal"

	"tradebot/internal/types"
)

var (
	decZero    = decimal.Zero
	decHundred = decimal.NewFromInt(100)
	decOne     = decimal.NewFromInt(1)
)

// SMA computes the simple moving average of closing prices over period: the
// first period-1 entries are nil, and entry i thereafter is the mean of
// close[i-period+1..=i].
func SMA(candles []types.Candle, period int) []*decimal.Decimal {
	out := make([]*decimal.Decimal, len(candles))
	if period <= 0 || len(candles) < period {
		return out
	}

	for i := period - 1; i < len(candles); i++ {
		sum := decZero
		for j := i - period + 1; j <= i; j++ {
			sum = sum.Add(candles[j].Close)
		}
		avg := sum.Div(decimal.NewFromInt(int64(period)))
		out[i] = &avg
	}
	return out
}

// RSI computes the Wilder-smoothed relative strength index over period: the
// first averages are simple means over the initial period gains/losses, and
// subsequent values use the recurrence avg' = (avg*(period-1)+current)/period.
// A zero average loss yields 100 rather than dividing by zero.
func RSI(candles []types.Candle, period int) []*decimal.Decimal {
	out := make([]*decimal.Decimal, len(candles))
	if period <= 0 || len(candles) < period+1 {
		return out
	}

	gains := make([]decimal.Decimal, len(candles))
	losses := make([]decimal.Decimal, len(candles))
	for i := 1; i < len(candles); i++ {
		change := candles[i].Close.Sub(candles[i-1].Close)
		if change.GreaterThanOrEqual(decZero) {
			gains[i] = change
		} else {
			losses[i] = change.Abs()
		}
	}

	periodDec := decimal.NewFromInt(int64(period))

	sumGain, sumLoss := decZero, decZero
	for i := 1; i <= period; i++ {
		sumGain = sumGain.Add(gains[i])
		sumLoss = sumLoss.Add(losses[i])
	}
	avgGain := sumGain.Div(periodDec)
	avgLoss := sumLoss.Div(periodDec)

	periodMinusOne := decimal.NewFromInt(int64(period - 1))

	for i := period; i < len(candles); i++ {
		if i > period {
			avgGain = avgGain.Mul(periodMinusOne).Add(gains[i]).Div(periodDec)
			avgLoss = avgLoss.Mul(periodMinusOne).Add(losses[i]).Div(periodDec)
		}

		var rsi decimal.Decimal
		if avgLoss.Equal(decZero) {
			rsi = decHundred
		} else {
			rs := avgGain.Div(avgLoss)
			rsi = decHundred.Sub(decHundred.Div(decOne.Add(rs)))
		}
		v := rsi
		out[i] = &v
	}

	return out
}
