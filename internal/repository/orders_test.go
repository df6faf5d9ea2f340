package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebot/internal/types"
)

func TestSaveOrder_WithTrade(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewWithDB(db)
	tradeID := uuid.New()
	order := types.Order{
		ID: "ord-1", Symbol: "BTC/USDT", Side: types.Buy, OrderType: types.OrderTypeMarket,
		Status: types.OrderFilled, Amount: decimal.NewFromInt(1), Filled: decimal.NewFromInt(1),
		Remaining: decimal.Zero, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}

	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.SaveOrder(order, &tradeID)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveOrder_WithoutTrade(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewWithDB(db)
	order := types.Order{
		ID: "ord-2", Symbol: "ETH/USDT", Side: types.Sell, OrderType: types.OrderTypeLimit,
		Status: types.OrderNew, Amount: decimal.NewFromInt(2), Filled: decimal.Zero,
		Remaining: decimal.NewFromInt(2), CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}

	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.SaveOrder(order, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrdersByTrade_RoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewWithDB(db)
	tradeID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	rows := sqlmock.NewRows([]string{
		"id", "symbol", "side", "order_type", "status", "price", "amount", "filled", "remaining",
		"fee", "created_at", "updated_at",
	}).AddRow(
		"ord-1", "BTC/USDT", "buy", "market", "filled", nil, "1", "1", "0", nil,
		timeToStr(now), timeToStr(now),
	)

	mock.ExpectQuery("SELECT .* FROM orders WHERE trade_id = ?").WithArgs(tradeID.String()).WillReturnRows(rows)

	orders, err := repo.GetOrdersByTrade(tradeID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ord-1", orders[0].ID)
	assert.Equal(t, types.Buy, orders[0].Side)
	assert.Nil(t, orders[0].Price)
	assert.True(t, orders[0].Amount.Equal(decimal.NewFromInt(1)))
}
