package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Candle is one OHLCV bar for a pair/timeframe.
type Candle struct {
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// Ticker is a venue's latest price snapshot for a symbol.
type Ticker struct {
	Symbol    string
	Price     decimal.Decimal
	Volume24h decimal.Decimal
	Change24h decimal.Decimal
}

// Balance is the free/used/total amount of one currency on a venue.
type Balance struct {
	Currency string
	Total    decimal.Decimal
	Free     decimal.Decimal
	Used     decimal.Decimal
}

// Order is an exchange order, either still open or in a terminal state.
type Order struct {
	ID        string
	Symbol    string
	Side      TradeSide
	OrderType OrderType
	Status    OrderStatus
	Price     *decimal.Decimal
	Amount    decimal.Decimal
	Filled    decimal.Decimal
	Remaining decimal.Decimal
	Fee       *decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderRequest is what the coordinator sends to the exchange port to open
// or close a position.
type OrderRequest struct {
	Symbol    string
	Side      TradeSide
	OrderType OrderType
	Amount    decimal.Decimal
	Price     *decimal.Decimal
}

// Position is a venue-reported open position (used by futures-style ports;
// spot adapters report none).
type Position struct {
	Symbol        string
	Side          TradeSide
	Size          decimal.Decimal
	EntryPrice    decimal.Decimal
	MarkPrice     decimal.Decimal
	UnrealizedPNL decimal.Decimal
	Percentage    decimal.Decimal
}

// Trade is the coordinator's own ledger record of one buy-to-sell cycle.
// Only the fields populated at open are guaranteed non-zero while IsOpen.
type Trade struct {
	ID           uuid.UUID
	Pair         string
	IsOpen       bool
	Exchange     string
	OpenRate     decimal.Decimal
	OpenDate     time.Time
	CloseRate    *decimal.Decimal
	CloseDate    *time.Time
	Amount       decimal.Decimal
	StakeAmount  decimal.Decimal
	Strategy     string
	Timeframe    Timeframe
	StopLoss     *decimal.Decimal
	TakeProfit   *decimal.Decimal
	ExitReason   *ExitType
	ProfitAbs    *decimal.Decimal
	ProfitRatio  *decimal.Decimal
}

// Signal marks a buy or sell opportunity at a candle index, with a strategy
// defined strength in [0,1] used only for presentation/ranking.
type Signal struct {
	Index    int
	Type     SignalType
	Strength float64
}

// BacktestResult is the outcome of replaying a strategy over historical
// candles. Aggregate ratios are float64 by design; every money field stays
// decimal.
type BacktestResult struct {
	Strategy      string
	Pair          string
	Timeframe     Timeframe
	StartDate     time.Time
	EndDate       time.Time
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	TotalProfit   decimal.Decimal
	MaxDrawdown   float64
	SharpeRatio   float64
	ProfitFactor  float64
	AvgProfit     decimal.Decimal
	AvgLoss       decimal.Decimal
	Trades        []Trade
}

// BotState is a full snapshot of the coordinator, returned by get_bot_status.
type BotState struct {
	Status       BotStatus
	OpenTrades   []Trade
	ClosedTrades []Trade
	Balance      Balance
	LastUpdate   time.Time
	CurrentPair  string
}

// DashboardStats is the aggregate view rendered by the command surface.
// All fields are float64: this struct is for display, never for accounting.
type DashboardStats struct {
	TotalProfit  float64
	WinRate      float64
	OpenTrades   int
	MaxDrawdown  float64
	TotalBalance float64
}

// EquityPoint is one sample of the cumulative-profit curve.
type EquityPoint struct {
	Time  time.Time
	Value float64
}

// ProtectionLock is what a protection rule returns when it vetoes new
// entries, globally or for one pair.
type ProtectionLock struct {
	Locked    bool
	Until     time.Time
	Reason    string
	LockSide  string // "*" for both directions, or a specific side
}
