package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebot/internal/types"
)

func TestGetDashboardStats_MixOfOpenAndClosed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewWithDB(db)
	t1 := time.Now().Add(-2 * time.Hour).UTC()
	t2 := time.Now().Add(-1 * time.Hour).UTC()

	rows := sqlmock.NewRows([]string{
		"id", "pair", "is_open", "exchange", "open_rate", "open_date",
		"close_rate", "close_date", "amount", "stake_amount", "strategy", "timeframe",
		"stop_loss", "take_profit", "exit_reason", "profit_abs", "profit_ratio",
	}).
		AddRow(uuid.New().String(), "BTC/USDT", 0, "binance", "100", timeToStr(t1),
			"110", timeToStr(t2), "1", "100", "s", "1h", nil, nil, "signal", "10", "0.1").
		AddRow(uuid.New().String(), "ETH/USDT", 0, "binance", "100", timeToStr(t1),
			"90", timeToStr(t2), "1", "100", "s", "1h", nil, nil, "stop_loss", "-10", "-0.1").
		AddRow(uuid.New().String(), "SOL/USDT", 1, "binance", "100", timeToStr(t2),
			nil, nil, "1", "100", "s", "1h", nil, nil, nil, nil, nil)

	mock.ExpectQuery("SELECT .* FROM trades").WillReturnRows(rows)

	stats, err := repo.GetDashboardStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.OpenTrades)
	assert.InDelta(t, 0.5, stats.WinRate, 0.001)
	assert.InDelta(t, 0.0, stats.TotalProfit, 0.001)
}

func TestEquityCurve_OrderedByCloseDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewWithDB(db)
	earlier := time.Now().Add(-2 * time.Hour).UTC()
	later := time.Now().Add(-1 * time.Hour).UTC()

	rows := sqlmock.NewRows([]string{
		"id", "pair", "is_open", "exchange", "open_rate", "open_date",
		"close_rate", "close_date", "amount", "stake_amount", "strategy", "timeframe",
		"stop_loss", "take_profit", "exit_reason", "profit_abs", "profit_ratio",
	}).
		AddRow(uuid.New().String(), "ETH/USDT", 0, "binance", "100", timeToStr(earlier),
			"90", timeToStr(later), "1", "100", "s", "1h", nil, nil, "stop_loss", "-10", "-0.1").
		AddRow(uuid.New().String(), "BTC/USDT", 0, "binance", "100", timeToStr(earlier),
			"110", timeToStr(earlier), "1", "100", "s", "1h", nil, nil, "signal", "10", "0.1")

	mock.ExpectQuery("SELECT .* FROM trades").WillReturnRows(rows)

	curve, err := repo.EquityCurve()
	require.NoError(t, err)
	require.Len(t, curve, 2)
	assert.InDelta(t, 10.0, curve[0].Value, 0.001)
	assert.InDelta(t, 0.0, curve[1].Value, 0.001)
	assert.True(t, curve[0].Time.Before(curve[1].Time) || curve[0].Time.Equal(curve[1].Time))
}
