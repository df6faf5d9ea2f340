package repository

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"tradebot/internal/boterr"
)

// Every money/quantity field round-trips through a canonical decimal
// string, never a float intermediate. Parse failures are fatal
// (boterr.Parse) rather than silently coerced to zero.

func decToStr(d decimal.Decimal) string { return d.String() }

func decPtrToStr(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func strToDec(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, boterr.Wrapf(boterr.Parse, err, "parse decimal %q", s)
	}
	return d, nil
}

func nullStrToDecPtr(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := strToDec(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func timeToStr(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func timePtrToStr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: timeToStr(*t), Valid: true}
}

func strToTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, boterr.Wrapf(boterr.Parse, err, "parse timestamp %q", s)
	}
	return t.UTC(), nil
}

func nullStrToTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := strToTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func strPtrToNullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullStrToStrPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
