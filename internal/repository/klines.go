package repository

import (
	"database/sql"
	"time"

	"tradebot/internal/boterr"
	"tradebot/internal/types"
)

func secondsToDuration(secs int64) time.Duration { return time.Duration(secs) * time.Second }

const klineBatchSize = 100

// timeframeDuration maps every recognized tag to its bucket width so
// close_time can be derived; silent fallbacks for an unrecognized tag would
// corrupt the candle cache, so SaveKlines rejects them outright.
var timeframeDuration = map[types.Timeframe]int64{
	types.OneMinute:     60,
	types.ThreeMinutes:  3 * 60,
	types.FiveMinutes:   5 * 60,
	types.FifteenMin:    15 * 60,
	types.ThirtyMinutes: 30 * 60,
	types.OneHour:       3600,
	types.TwoHours:      2 * 3600,
	types.FourHours:     4 * 3600,
	types.SixHours:      6 * 3600,
	types.EightHours:    8 * 3600,
	types.TwelveHours:   12 * 3600,
	types.OneDay:        24 * 3600,
	types.ThreeDays:     3 * 24 * 3600,
	types.OneWeek:       7 * 24 * 3600,
	types.OneMonth:      30 * 24 * 3600,
}

// SaveKlines upserts batch for (pair, tf) inside one transaction, chunked
// into groups of at most 100 rows. An empty batch is a no-op; an
// unrecognized timeframe is an InvalidInput error rather than a silent
// fallback, since close_time cannot otherwise be derived.
func (r *Repository) SaveKlines(pair string, tf types.Timeframe, batch []types.Candle) error {
	if len(batch) == 0 {
		return nil
	}
	durationSecs, ok := timeframeDuration[tf]
	if !ok {
		return boterr.Newf(boterr.InvalidInput, "unrecognized timeframe %q", tf)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return boterr.Wrap(boterr.Database, err, "begin kline upsert transaction")
	}
	defer tx.Rollback()

	for start := 0; start < len(batch); start += klineBatchSize {
		end := start + klineBatchSize
		if end > len(batch) {
			end = len(batch)
		}
		if err := upsertKlineChunk(tx, pair, tf, durationSecs, batch[start:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return boterr.Wrap(boterr.Database, err, "commit kline upsert transaction")
	}
	return nil
}

func upsertKlineChunk(tx *sql.Tx, pair string, tf types.Timeframe, durationSecs int64, chunk []types.Candle) error {
	stmt, err := tx.Prepare(`
		INSERT INTO klines (pair, timeframe, open_time, open, high, low, close, volume, close_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pair, timeframe, open_time) DO UPDATE SET
			open = excluded.open, high = excluded.high, low = excluded.low,
			close = excluded.close, volume = excluded.volume, close_time = excluded.close_time`)
	if err != nil {
		return boterr.Wrap(boterr.Database, err, "prepare kline upsert")
	}
	defer stmt.Close()

	for _, c := range chunk {
		closeTime := c.Timestamp.Add(secondsToDuration(durationSecs))
		if _, err := stmt.Exec(
			pair, string(tf), timeToStr(c.Timestamp),
			decToStr(c.Open), decToStr(c.High), decToStr(c.Low), decToStr(c.Close), decToStr(c.Volume),
			timeToStr(closeTime),
		); err != nil {
			return boterr.Wrapf(boterr.Database, err, "upsert kline %s %s %s", pair, tf, c.Timestamp)
		}
	}
	return nil
}

// GetKlines returns up to limit candles for (pair, tf), oldest first.
func (r *Repository) GetKlines(pair string, tf types.Timeframe, limit int) ([]types.Candle, error) {
	rows, err := r.db.Query(`
		SELECT open_time, open, high, low, close, volume
		FROM (
			SELECT open_time, open, high, low, close, volume
			FROM klines WHERE pair = ? AND timeframe = ?
			ORDER BY open_time DESC LIMIT ?
		) ORDER BY open_time ASC`, pair, string(tf), limit)
	if err != nil {
		return nil, boterr.Wrapf(boterr.Database, err, "query klines %s %s", pair, tf)
	}
	defer rows.Close()

	var out []types.Candle
	for rows.Next() {
		var openTimeStr, openStr, highStr, lowStr, closeStr, volStr string
		if err := rows.Scan(&openTimeStr, &openStr, &highStr, &lowStr, &closeStr, &volStr); err != nil {
			return nil, boterr.Wrap(boterr.Database, err, "scan kline row")
		}
		c := types.Candle{}
		if c.Timestamp, err = strToTime(openTimeStr); err != nil {
			return nil, err
		}
		if c.Open, err = strToDec(openStr); err != nil {
			return nil, err
		}
		if c.High, err = strToDec(highStr); err != nil {
			return nil, err
		}
		if c.Low, err = strToDec(lowStr); err != nil {
			return nil, err
		}
		if c.Close, err = strToDec(closeStr); err != nil {
			return nil, err
		}
		if c.Volume, err = strToDec(volStr); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, boterr.Wrap(boterr.Database, err, "iterate klines")
	}
	return out, nil
}
