package repository

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradebot/internal/boterr"
	"tradebot/internal/types"
)

// CreateTrade inserts a brand-new trade. A second Create with the same ID
// fails: create-then-update is the only legal mutation path, and SQLite's
// primary key enforces it defensively.
func (r *Repository) CreateTrade(trade *types.Trade) error {
	if trade.ID == uuid.Nil {
		trade.ID = uuid.New()
	}
	now := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO trades (
			id, pair, is_open, exchange, open_rate, open_date,
			close_rate, close_date, amount, stake_amount, strategy, timeframe,
			stop_loss, take_profit, exit_reason, profit_abs, profit_ratio,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.ID.String(), trade.Pair, boolToInt(trade.IsOpen), trade.Exchange,
		decToStr(trade.OpenRate), timeToStr(trade.OpenDate),
		decPtrToStr(trade.CloseRate), timePtrToStr(trade.CloseDate),
		decToStr(trade.Amount), decToStr(trade.StakeAmount), trade.Strategy, string(trade.Timeframe),
		decPtrToStr(trade.StopLoss), decPtrToStr(trade.TakeProfit), exitPtrToNullStr(trade.ExitReason),
		decPtrToStr(trade.ProfitAbs), decPtrToStr(trade.ProfitRatio),
		timeToStr(now), timeToStr(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return boterr.Wrapf(boterr.InvalidInput, err, "trade already exists for pair %s/%s or id %s", trade.Pair, trade.Strategy, trade.ID)
		}
		return boterr.Wrapf(boterr.Database, err, "create trade %s", trade.ID)
	}
	return nil
}

// TradeUpdate carries the only fields a trade may be mutated through.
type TradeUpdate struct {
	IsOpen      bool
	CloseRate   *decimal.Decimal
	CloseDate   *time.Time
	StopLoss    *decimal.Decimal
	TakeProfit  *decimal.Decimal
	ExitReason  *types.ExitType
	ProfitAbs   *decimal.Decimal
	ProfitRatio *decimal.Decimal
}

// UpdateTrade applies the mutable-field update to the trade with id,
// bumping updated_at. It is the only legal path to close a trade, set a
// stop-loss/take-profit, or record an exit reason.
func (r *Repository) UpdateTrade(id uuid.UUID, upd TradeUpdate) error {
	res, err := r.db.Exec(`
		UPDATE trades SET
			is_open = ?, close_rate = ?, close_date = ?,
			stop_loss = ?, take_profit = ?, exit_reason = ?,
			profit_abs = ?, profit_ratio = ?, updated_at = ?
		WHERE id = ?`,
		boolToInt(upd.IsOpen),
		decPtrToStr(upd.CloseRate), timePtrToStr(upd.CloseDate),
		decPtrToStr(upd.StopLoss), decPtrToStr(upd.TakeProfit),
		exitPtrToNullStr(upd.ExitReason),
		decPtrToStr(upd.ProfitAbs), decPtrToStr(upd.ProfitRatio),
		timeToStr(time.Now()), id.String(),
	)
	if err != nil {
		return boterr.Wrapf(boterr.Database, err, "update trade %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return boterr.Wrapf(boterr.Database, err, "update trade %s rows affected", id)
	}
	if n == 0 {
		return boterr.Newf(boterr.NotFound, "trade %s not found", id)
	}
	return nil
}

// GetOpenTrades returns every trade with is_open = true.
func (r *Repository) GetOpenTrades() ([]types.Trade, error) {
	return r.queryTrades(`WHERE is_open = 1 ORDER BY open_date DESC`)
}

// GetAllTrades returns every trade, most recently opened first.
func (r *Repository) GetAllTrades() ([]types.Trade, error) {
	return r.queryTrades(`ORDER BY open_date DESC`)
}

// GetTradesByPair returns every trade (open or closed) for pair.
func (r *Repository) GetTradesByPair(pair string) ([]types.Trade, error) {
	return r.queryTradesArgs(`WHERE pair = ? ORDER BY open_date DESC`, pair)
}

func (r *Repository) queryTrades(whereAndOrder string) ([]types.Trade, error) {
	return r.queryTradesArgs(whereAndOrder)
}

func (r *Repository) queryTradesArgs(whereAndOrder string, args ...interface{}) ([]types.Trade, error) {
	rows, err := r.db.Query(`
		SELECT id, pair, is_open, exchange, open_rate, open_date,
			close_rate, close_date, amount, stake_amount, strategy, timeframe,
			stop_loss, take_profit, exit_reason, profit_abs, profit_ratio
		FROM trades `+whereAndOrder, args...)
	if err != nil {
		return nil, boterr.Wrap(boterr.Database, err, "query trades")
	}
	defer rows.Close()

	var out []types.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, boterr.Wrap(boterr.Database, err, "iterate trades")
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(row rowScanner) (types.Trade, error) {
	var (
		t            types.Trade
		idStr        string
		isOpen       int
		openRateStr  string
		openDateStr  string
		closeRateNS  sql.NullString
		closeDateNS  sql.NullString
		amountStr    string
		stakeStr     string
		timeframeStr string
		stopLossNS   sql.NullString
		takeProfitNS sql.NullString
		exitReasonNS sql.NullString
		profitAbsNS  sql.NullString
		profitRatNS  sql.NullString
	)

	if err := row.Scan(
		&idStr, &t.Pair, &isOpen, &t.Exchange, &openRateStr, &openDateStr,
		&closeRateNS, &closeDateNS, &amountStr, &stakeStr, &t.Strategy, &timeframeStr,
		&stopLossNS, &takeProfitNS, &exitReasonNS, &profitAbsNS, &profitRatNS,
	); err != nil {
		return t, boterr.Wrap(boterr.Database, err, "scan trade row")
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return t, boterr.Wrapf(boterr.Parse, err, "parse trade id %q", idStr)
	}
	t.ID = id
	t.IsOpen = isOpen != 0
	t.Timeframe = types.Timeframe(timeframeStr)

	if t.OpenRate, err = strToDec(openRateStr); err != nil {
		return t, err
	}
	if t.OpenDate, err = strToTime(openDateStr); err != nil {
		return t, err
	}
	if t.CloseRate, err = nullStrToDecPtr(closeRateNS); err != nil {
		return t, err
	}
	if t.CloseDate, err = nullStrToTimePtr(closeDateNS); err != nil {
		return t, err
	}
	if t.Amount, err = strToDec(amountStr); err != nil {
		return t, err
	}
	if t.StakeAmount, err = strToDec(stakeStr); err != nil {
		return t, err
	}
	if t.StopLoss, err = nullStrToDecPtr(stopLossNS); err != nil {
		return t, err
	}
	if t.TakeProfit, err = nullStrToDecPtr(takeProfitNS); err != nil {
		return t, err
	}
	if t.ProfitAbs, err = nullStrToDecPtr(profitAbsNS); err != nil {
		return t, err
	}
	if t.ProfitRatio, err = nullStrToDecPtr(profitRatNS); err != nil {
		return t, err
	}
	if exitReasonNS.Valid {
		et := types.ExitType(exitReasonNS.String)
		t.ExitReason = &et
	}

	return t, nil
}

func exitPtrToNullStr(et *types.ExitType) sql.NullString {
	if et == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*et), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation reports whether err came from a SQLite unique/primary
// key constraint failure. It is a best-effort string match: go-sqlite3
// does not expose a typed constraint-kind error the way lib/pq does.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
