package repository

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"tradebot/internal/boterr"
	"tradebot/internal/types"
)

// SaveBacktestResult persists a replay summary alongside the JSON-encoded
// configuration that produced it, so a later review can reproduce the run.
func (r *Repository) SaveBacktestResult(result types.BacktestResult, fullConfig interface{}) (uuid.UUID, error) {
	id := uuid.New()

	configJSON, err := json.Marshal(fullConfig)
	if err != nil {
		return uuid.Nil, boterr.Wrap(boterr.Serialization, err, "marshal backtest config")
	}

	_, err = r.db.Exec(`
		INSERT INTO backtest_results (
			id, strategy, pair, timeframe, start_date, end_date,
			total_trades, winning_trades, losing_trades, win_rate, total_profit,
			max_drawdown, sharpe_ratio, profit_factor, avg_profit, avg_loss,
			full_config_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), result.Strategy, result.Pair, string(result.Timeframe),
		timeToStr(result.StartDate), timeToStr(result.EndDate),
		result.TotalTrades, result.WinningTrades, result.LosingTrades, result.WinRate,
		decToStr(result.TotalProfit), result.MaxDrawdown, result.SharpeRatio, result.ProfitFactor,
		decToStr(result.AvgProfit), decToStr(result.AvgLoss),
		string(configJSON), timeToStr(time.Now()),
	)
	if err != nil {
		return uuid.Nil, boterr.Wrap(boterr.Database, err, "save backtest result")
	}
	return id, nil
}

// BacktestSummary is one row of get_backtest_results: the aggregate fields
// without the per-trade log or the stored config blob.
type BacktestSummary struct {
	ID            uuid.UUID
	Strategy      string
	Pair          string
	Timeframe     types.Timeframe
	StartDate     time.Time
	EndDate       time.Time
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	TotalProfit   string
	MaxDrawdown   float64
	SharpeRatio   float64
	ProfitFactor  float64
	CreatedAt     time.Time
}

// GetBacktestResults returns every stored backtest summary, most recent
// first.
func (r *Repository) GetBacktestResults() ([]BacktestSummary, error) {
	rows, err := r.db.Query(`
		SELECT id, strategy, pair, timeframe, start_date, end_date,
			total_trades, winning_trades, losing_trades, win_rate, total_profit,
			max_drawdown, sharpe_ratio, profit_factor, created_at
		FROM backtest_results ORDER BY created_at DESC`)
	if err != nil {
		return nil, boterr.Wrap(boterr.Database, err, "query backtest results")
	}
	defer rows.Close()

	var out []BacktestSummary
	for rows.Next() {
		var (
			s                             BacktestSummary
			idStr, tfStr                  string
			startStr, endStr, createdStr  string
		)
		if err := rows.Scan(&idStr, &s.Strategy, &s.Pair, &tfStr, &startStr, &endStr,
			&s.TotalTrades, &s.WinningTrades, &s.LosingTrades, &s.WinRate, &s.TotalProfit,
			&s.MaxDrawdown, &s.SharpeRatio, &s.ProfitFactor, &createdStr); err != nil {
			return nil, boterr.Wrap(boterr.Database, err, "scan backtest result row")
		}

		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, boterr.Wrapf(boterr.Parse, err, "parse backtest result id %q", idStr)
		}
		s.ID = id
		s.Timeframe = types.Timeframe(tfStr)
		if s.StartDate, err = strToTime(startStr); err != nil {
			return nil, err
		}
		if s.EndDate, err = strToTime(endStr); err != nil {
			return nil, err
		}
		if s.CreatedAt, err = strToTime(createdStr); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, boterr.Wrap(boterr.Database, err, "iterate backtest results")
	}
	return out, nil
}
