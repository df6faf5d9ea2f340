// Package backtest replays a Strategy over stored candles without touching
// the exchange or repository ports, producing the same BacktestResult shape
// the command surface persists via repository.SaveBacktestResult.
package backtest

import (
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradebot/internal/boterr"
	"tradebot/internal/strategy"
	"tradebot/internal/types"
)

// warmupCandles is the minimum history an indicator needs before signals are
// trusted.
const warmupCandles = 100

// Config controls one replay run: the stake per trade, a flat commission
// rate applied on exit, and the pair/timeframe label attached to the result.
type Config struct {
	Pair         string
	Timeframe    types.Timeframe
	StakeAmount  decimal.Decimal
	Commission   decimal.Decimal
}

// Engine replays a single strategy over a single candle history, single
// position at a time: the backtest's fan-out key is time, not pairs, so
// unlike the coordinator it never needs bounded concurrency.
type Engine struct {
	cfg    Config
	strat  strategy.Strategy
	candles []types.Candle
}

// New builds an Engine ready to Run over candles, which must be sorted
// ascending by timestamp.
func New(cfg Config, strat strategy.Strategy, candles []types.Candle) *Engine {
	return &Engine{cfg: cfg, strat: strat, candles: candles}
}

// Run replays the strategy's buy/sell signals candle by candle, opening at
// most one position at a time, and returns the aggregate result plus the
// full trade log. It never calls the exchange or repository ports.
func (e *Engine) Run() (types.BacktestResult, error) {
	if len(e.candles) <= warmupCandles {
		return types.BacktestResult{}, boterr.New(boterr.Backtest, "not enough candles for the warm-up window")
	}

	window := strategy.NewWindow(e.candles)
	if err := e.strat.PopulateIndicators(window); err != nil {
		return types.BacktestResult{}, boterr.Wrap(boterr.Strategy, err, "populate indicators")
	}
	buySignals, err := e.strat.PopulateBuyTrend(window)
	if err != nil {
		return types.BacktestResult{}, boterr.Wrap(boterr.Strategy, err, "populate buy trend")
	}
	sellSignals, err := e.strat.PopulateSellTrend(window)
	if err != nil {
		return types.BacktestResult{}, boterr.Wrap(boterr.Strategy, err, "populate sell trend")
	}
	buyAt := signalIndex(buySignals)
	sellAt := signalIndex(sellSignals)

	var trades []types.Trade
	var open *types.Trade

	for i := warmupCandles; i < len(e.candles); i++ {
		candle := e.candles[i]

		// Exit before entry: an index with both signals closes the open
		// trade and never re-opens one in the same candle.
		if open != nil && sellAt[i] {
			if !e.strat.ConfirmTradeExit(*open, types.ExitSignal) {
				continue
			}
			e.closeTrade(open, candle)
			trades = append(trades, *open)
			open = nil
			continue
		}

		if open == nil && buyAt[i] {
			t := e.openTrade(candle)
			open = &t
		}
	}

	// An unfinished position at the end of the window is appended to the
	// trade log as it stands, still open and with no close or profit fields;
	// summarize counts only closed trades, so it adds nothing to the totals.
	if open != nil {
		trades = append(trades, *open)
	}

	return e.summarize(trades), nil
}

func (e *Engine) openTrade(candle types.Candle) types.Trade {
	amount := decimal.Zero
	if candle.Close.IsPositive() {
		amount = e.cfg.StakeAmount.Div(candle.Close)
	}
	return types.Trade{
		ID:          uuid.New(),
		Pair:        e.cfg.Pair,
		IsOpen:      true,
		Exchange:    "backtest",
		OpenRate:    candle.Close,
		OpenDate:    candle.Timestamp,
		Amount:      amount,
		StakeAmount: e.cfg.StakeAmount,
		Strategy:    e.strat.Name(),
		Timeframe:   e.cfg.Timeframe,
	}
}

func (e *Engine) closeTrade(t *types.Trade, candle types.Candle) {
	closeRate := candle.Close
	closeDate := candle.Timestamp
	exitReason := types.ExitSignal

	grossProfit := closeRate.Sub(t.OpenRate).Mul(t.Amount)
	commission := t.StakeAmount.Add(grossProfit).Mul(e.cfg.Commission)
	profitAbs := grossProfit.Sub(commission)
	profitRatio := decimal.Zero
	if t.OpenRate.IsPositive() {
		profitRatio = closeRate.Sub(t.OpenRate).Div(t.OpenRate)
	}

	t.IsOpen = false
	t.CloseRate = &closeRate
	t.CloseDate = &closeDate
	t.ExitReason = &exitReason
	t.ProfitAbs = &profitAbs
	t.ProfitRatio = &profitRatio
}

func (e *Engine) summarize(trades []types.Trade) types.BacktestResult {
	result := types.BacktestResult{
		Strategy:  e.strat.Name(),
		Pair:      e.cfg.Pair,
		Timeframe: e.cfg.Timeframe,
		Trades:    trades,
	}
	if len(e.candles) > 0 {
		result.StartDate = e.candles[warmupCandles].Timestamp
		result.EndDate = e.candles[len(e.candles)-1].Timestamp
	}

	closed := make([]types.Trade, 0, len(trades))
	for _, t := range trades {
		if !t.IsOpen {
			closed = append(closed, t)
		}
	}
	result.TotalTrades = len(closed)
	if len(closed) == 0 {
		return result
	}

	var (
		totalProfit   decimal.Decimal
		grossWin      decimal.Decimal
		grossLoss     decimal.Decimal
		returns       []float64
	)
	for _, t := range closed {
		profit := decimal.Zero
		if t.ProfitAbs != nil {
			profit = *t.ProfitAbs
		}
		totalProfit = totalProfit.Add(profit)
		if profit.IsPositive() {
			result.WinningTrades++
			grossWin = grossWin.Add(profit)
		} else {
			result.LosingTrades++
			grossLoss = grossLoss.Add(profit.Abs())
		}
		if t.ProfitRatio != nil {
			r, _ := t.ProfitRatio.Float64()
			returns = append(returns, r)
		}
	}

	result.TotalProfit = totalProfit
	result.WinRate = float64(result.WinningTrades) / float64(result.TotalTrades)
	if result.WinningTrades > 0 {
		result.AvgProfit = grossWin.Div(decimal.NewFromInt(int64(result.WinningTrades)))
	}
	if result.LosingTrades > 0 {
		result.AvgLoss = grossLoss.Div(decimal.NewFromInt(int64(result.LosingTrades))).Neg()
	}
	if grossLoss.IsPositive() {
		ratio, _ := grossWin.Div(grossLoss).Float64()
		result.ProfitFactor = ratio
	}
	result.MaxDrawdown = maxDrawdown(closed, e.cfg.StakeAmount)
	result.SharpeRatio = sharpeRatio(returns)
	return result
}

// maxDrawdown walks the running equity curve trade by trade and returns the
// largest peak-to-trough decline as a percentage.
func maxDrawdown(closed []types.Trade, initial decimal.Decimal) float64 {
	peak, _ := initial.Float64()
	running := peak
	worst := 0.0
	for _, t := range closed {
		profit := 0.0
		if t.ProfitAbs != nil {
			profit, _ = t.ProfitAbs.Float64()
		}
		running += profit
		if running > peak {
			peak = running
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - running) / peak
		if drawdown > worst {
			worst = drawdown
		}
	}
	return worst * 100
}

// sharpeRatio annualizes the mean/stddev of per-trade returns assuming one
// trade per trading day, matching the convention of scaling by sqrt(252).
func sharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += math.Pow(r-mean, 2)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))
	if stdDev == 0 {
		return 0
	}
	return (mean / stdDev) * math.Sqrt(252)
}

func signalIndex(signals []types.Signal) map[int]bool {
	out := make(map[int]bool, len(signals))
	for _, s := range signals {
		out[s.Index] = true
	}
	return out
}
