package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"tradebot/internal/boterr"
	"tradebot/internal/types"
)

// SaveOrder upserts the venue's record of an order, optionally linking it
// to the local trade that triggered it. Orders are keyed by the venue's own
// id, so a resubmitted fetch of the same order updates it in place.
func (r *Repository) SaveOrder(order types.Order, tradeID *uuid.UUID) error {
	var tradeIDStr sql.NullString
	if tradeID != nil {
		tradeIDStr = sql.NullString{String: tradeID.String(), Valid: true}
	}

	_, err := r.db.Exec(`
		INSERT INTO orders (id, trade_id, symbol, side, order_type, status, price, amount, filled, remaining, fee, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			trade_id = excluded.trade_id, status = excluded.status, price = excluded.price,
			filled = excluded.filled, remaining = excluded.remaining, fee = excluded.fee,
			updated_at = excluded.updated_at`,
		order.ID, tradeIDStr, order.Symbol, string(order.Side), string(order.OrderType), string(order.Status),
		decPtrToStr(order.Price), decToStr(order.Amount), decToStr(order.Filled), decToStr(order.Remaining),
		decPtrToStr(order.Fee), timeToStr(order.CreatedAt), timeToStr(order.UpdatedAt),
	)
	if err != nil {
		return boterr.Wrapf(boterr.Database, err, "save order %s", order.ID)
	}
	return nil
}

// GetOrdersByTrade returns every order linked to tradeID.
func (r *Repository) GetOrdersByTrade(tradeID uuid.UUID) ([]types.Order, error) {
	rows, err := r.db.Query(`
		SELECT id, symbol, side, order_type, status, price, amount, filled, remaining, fee, created_at, updated_at
		FROM orders WHERE trade_id = ? ORDER BY created_at ASC`, tradeID.String())
	if err != nil {
		return nil, boterr.Wrapf(boterr.Database, err, "query orders for trade %s", tradeID)
	}
	defer rows.Close()

	var out []types.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, boterr.Wrap(boterr.Database, err, "iterate orders")
	}
	return out, nil
}

func scanOrder(row rowScanner) (types.Order, error) {
	var (
		o                                  types.Order
		side, orderType, status            string
		priceNS, feeNS                     sql.NullString
		amountStr, filledStr, remainingStr string
		createdStr, updatedStr             string
	)
	if err := row.Scan(&o.ID, &o.Symbol, &side, &orderType, &status, &priceNS,
		&amountStr, &filledStr, &remainingStr, &feeNS, &createdStr, &updatedStr); err != nil {
		return o, boterr.Wrap(boterr.Database, err, "scan order row")
	}

	o.Side = types.TradeSide(side)
	o.OrderType = types.OrderType(orderType)
	o.Status = types.OrderStatus(status)

	var err error
	if o.Price, err = nullStrToDecPtr(priceNS); err != nil {
		return o, err
	}
	if o.Amount, err = strToDec(amountStr); err != nil {
		return o, err
	}
	if o.Filled, err = strToDec(filledStr); err != nil {
		return o, err
	}
	if o.Remaining, err = strToDec(remainingStr); err != nil {
		return o, err
	}
	if o.Fee, err = nullStrToDecPtr(feeNS); err != nil {
		return o, err
	}
	if o.CreatedAt, err = strToTime(createdStr); err != nil {
		return o, err
	}
	if o.UpdatedAt, err = strToTime(updatedStr); err != nil {
		return o, err
	}
	return o, nil
}
