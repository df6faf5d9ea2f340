package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebot/internal/repository"
	"tradebot/internal/strategy"
	"tradebot/internal/types"
)

func TestBacktestHandler_Run_MissingPair(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewWithDB(db)
	strat := strategy.NewSMACrossStrategy(5, 10, types.OneHour)
	handler := NewBacktestHandler(repo, strat)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/backtest?timeframe=1h", nil)
	w := httptest.NewRecorder()

	handler.Run(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBacktestHandler_Run_InvalidTimeframe(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewWithDB(db)
	strat := strategy.NewSMACrossStrategy(5, 10, types.OneHour)
	handler := NewBacktestHandler(repo, strat)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/backtest?pair=BTC/USDT&timeframe=9x", nil)
	w := httptest.NewRecorder()

	handler.Run(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBacktestHandler_Run_NotEnoughCandles(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"open_time", "open", "high", "low", "close", "volume"}).
		AddRow("2024-01-01T00:00:00Z", "100", "101", "99", "100.5", "10")
	mock.ExpectQuery("SELECT open_time, open, high, low, close, volume").WillReturnRows(rows)

	repo := repository.NewWithDB(db)
	strat := strategy.NewSMACrossStrategy(5, 10, types.OneHour)
	handler := NewBacktestHandler(repo, strat)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/backtest?pair=BTC/USDT&timeframe=1h", nil)
	w := httptest.NewRecorder()

	handler.Run(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBacktestHandler_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "strategy", "pair", "timeframe", "start_date", "end_date",
		"total_trades", "winning_trades", "losing_trades", "win_rate", "total_profit",
		"max_drawdown", "sharpe_ratio", "profit_factor", "created_at",
	})
	mock.ExpectQuery("SELECT id, strategy, pair, timeframe").WillReturnRows(rows)

	repo := repository.NewWithDB(db)
	strat := strategy.NewSMACrossStrategy(5, 10, types.OneHour)
	handler := NewBacktestHandler(repo, strat)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/backtest", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
