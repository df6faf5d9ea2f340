package repository

import (
	"sort"

	"github.com/shopspring/decimal"

	"tradebot/internal/types"
)

// GetDashboardStats recomputes the always-derived dashboard view from the
// trade log: never stored independently.
func (r *Repository) GetDashboardStats() (types.DashboardStats, error) {
	trades, err := r.GetAllTrades()
	if err != nil {
		return types.DashboardStats{}, err
	}

	var stats types.DashboardStats
	var totalProfit decimal.Decimal
	wins, closed := 0, 0

	for _, t := range trades {
		if t.IsOpen {
			stats.OpenTrades++
			continue
		}
		if t.ProfitAbs == nil {
			continue
		}
		closed++
		totalProfit = totalProfit.Add(*t.ProfitAbs)
		if t.ProfitAbs.GreaterThan(decimal.Zero) {
			wins++
		}
	}

	stats.TotalProfit, _ = totalProfit.Float64()
	if closed > 0 {
		stats.WinRate = float64(wins) / float64(closed)
	}
	stats.MaxDrawdown = calculateDrawdownPercent(trades)
	stats.TotalBalance = stats.TotalProfit

	return stats, nil
}

// EquityCurve returns the cumulative realized-profit curve over every
// closed trade, ordered by close date, supplementing the summary dashboard
// stats with a point-series view suitable for charting.
func (r *Repository) EquityCurve() ([]types.EquityPoint, error) {
	trades, err := r.GetAllTrades()
	if err != nil {
		return nil, err
	}

	closed := make([]types.Trade, 0, len(trades))
	for _, t := range trades {
		if !t.IsOpen && t.CloseDate != nil && t.ProfitAbs != nil {
			closed = append(closed, t)
		}
	}
	sort.Slice(closed, func(i, j int) bool {
		return closed[i].CloseDate.Before(*closed[j].CloseDate)
	})

	curve := make([]types.EquityPoint, 0, len(closed))
	running := decimal.Zero
	for _, t := range closed {
		running = running.Add(*t.ProfitAbs)
		value, _ := running.Float64()
		curve = append(curve, types.EquityPoint{Time: *t.CloseDate, Value: value})
	}
	return curve, nil
}

// calculateDrawdownPercent mirrors the protection package's drawdown walk
// (running equity from realized PNL, peak-to-trough as a percent of peak)
// so the dashboard and the MaxDrawdownProtection rule agree on one
// definition of drawdown.
func calculateDrawdownPercent(trades []types.Trade) float64 {
	closed := make([]types.Trade, 0, len(trades))
	for _, t := range trades {
		if !t.IsOpen && t.CloseDate != nil && t.ProfitAbs != nil {
			closed = append(closed, t)
		}
	}
	sort.Slice(closed, func(i, j int) bool {
		return closed[i].CloseDate.Before(*closed[j].CloseDate)
	})

	peak := decimal.Zero
	balance := decimal.Zero
	maxDrawdown := 0.0

	for _, t := range closed {
		balance = balance.Add(*t.ProfitAbs)
		if balance.GreaterThan(peak) {
			peak = balance
		}
		if peak.LessThanOrEqual(decimal.Zero) {
			continue
		}
		drawdown := peak.Sub(balance)
		ratio, _ := drawdown.Div(peak).Float64()
		if pct := ratio * 100.0; pct > maxDrawdown {
			maxDrawdown = pct
		}
	}
	return maxDrawdown
}
