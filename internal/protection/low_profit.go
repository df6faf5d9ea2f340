package protection

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tradebot/internal/types"
)

var decimalHundred = decimal.NewFromInt(100)

// LowProfitConfig controls LowProfitPairs.
type LowProfitConfig struct {
	StopDuration    time.Duration
	LookbackPeriod  time.Duration
	RequiredProfit  float64 // percent
	RequiredTrades  int
}

// DefaultLowProfitConfig mirrors the reference implementation: require at
// least 0.5% average profit over 3+ trades in the last 24 hours.
func DefaultLowProfitConfig() LowProfitConfig {
	return LowProfitConfig{
		StopDuration:   60 * time.Minute,
		LookbackPeriod: 24 * time.Hour,
		RequiredProfit: 0.5,
		RequiredTrades: 3,
	}
}

// LowProfitPairs locks a pair out of new entries when its recent trades
// underperform RequiredProfit on average.
type LowProfitPairs struct {
	cfg LowProfitConfig
}

func NewLowProfitPairs(cfg LowProfitConfig) *LowProfitPairs {
	return &LowProfitPairs{cfg: cfg}
}

func (p *LowProfitPairs) Name() string { return "LowProfitPairs" }

func (p *LowProfitPairs) ShortDesc() string {
	return fmt.Sprintf("Stop trading a pair for %s if it has less than %.2f%% profit over last %s",
		p.cfg.StopDuration, p.cfg.RequiredProfit, p.cfg.LookbackPeriod)
}

func (p *LowProfitPairs) HasGlobalStop() bool { return false }
func (p *LowProfitPairs) HasLocalStop() bool  { return true }

func (p *LowProfitPairs) GlobalStop(now time.Time, trades []types.Trade) *types.ProtectionLock {
	return nil
}

func (p *LowProfitPairs) StopPerPair(pair string, now time.Time, trades []types.Trade) *types.ProtectionLock {
	if len(trades) < p.cfg.RequiredTrades {
		return nil
	}

	lookbackStart := now.Add(-p.cfg.LookbackPeriod)

	var totalProfit float64
	recentCount := 0
	for _, t := range trades {
		if t.CloseDate == nil || t.CloseDate.Before(lookbackStart) {
			continue
		}
		recentCount++
		if t.ProfitRatio != nil {
			percent, _ := t.ProfitRatio.Mul(decimalHundred).Float64()
			totalProfit += percent
		}
	}

	if recentCount == 0 || recentCount < p.cfg.RequiredTrades {
		return nil
	}

	avgProfit := totalProfit / float64(recentCount)
	if avgProfit >= p.cfg.RequiredProfit {
		return nil
	}

	return &types.ProtectionLock{
		Locked: true,
		Until:  now.Add(p.cfg.StopDuration),
		Reason: fmt.Sprintf("Average profit of %.2f%% in last %s is below required %.2f%%",
			avgProfit, p.cfg.LookbackPeriod, p.cfg.RequiredProfit),
		LockSide: "*",
	}
}
