package protection

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tradebot/internal/types"
)

// MaxDrawdownConfig controls MaxDrawdownProtection.
type MaxDrawdownConfig struct {
	MaxAllowedDrawdown float64 // percent
	LookbackPeriod     time.Duration
	StopDuration       time.Duration
}

// DefaultMaxDrawdownConfig mirrors the reference implementation: halt
// trading for 60 minutes once equity drawdown exceeds 20% over 24 hours.
func DefaultMaxDrawdownConfig() MaxDrawdownConfig {
	return MaxDrawdownConfig{
		MaxAllowedDrawdown: 20.0,
		LookbackPeriod:     24 * time.Hour,
		StopDuration:       60 * time.Minute,
	}
}

// MaxDrawdownProtection halts all trading once the running equity curve
// built from closed trades' realized PNL draws down past the configured
// percentage from its peak.
type MaxDrawdownProtection struct {
	cfg MaxDrawdownConfig
}

func NewMaxDrawdownProtection(cfg MaxDrawdownConfig) *MaxDrawdownProtection {
	return &MaxDrawdownProtection{cfg: cfg}
}

func (p *MaxDrawdownProtection) Name() string { return "MaxDrawdownProtection" }

func (p *MaxDrawdownProtection) ShortDesc() string {
	return fmt.Sprintf("Stop trading for %s if drawdown exceeds %.2f%% in last %s",
		p.cfg.StopDuration, p.cfg.MaxAllowedDrawdown, p.cfg.LookbackPeriod)
}

func (p *MaxDrawdownProtection) HasGlobalStop() bool { return true }
func (p *MaxDrawdownProtection) HasLocalStop() bool  { return false }

func (p *MaxDrawdownProtection) GlobalStop(now time.Time, trades []types.Trade) *types.ProtectionLock {
	lookbackStart := now.Add(-p.cfg.LookbackPeriod)

	recent := make([]types.Trade, 0, len(trades))
	for _, t := range trades {
		if t.CloseDate != nil && !t.CloseDate.Before(lookbackStart) {
			recent = append(recent, t)
		}
	}

	drawdown := calculateDrawdownPct(recent)
	if drawdown <= p.cfg.MaxAllowedDrawdown {
		return nil
	}

	return &types.ProtectionLock{
		Locked: true,
		Until:  now.Add(p.cfg.StopDuration),
		Reason: fmt.Sprintf("Drawdown of %.2f%% exceeds maximum allowed %.2f%%",
			drawdown, p.cfg.MaxAllowedDrawdown),
		LockSide: "*",
	}
}

func (p *MaxDrawdownProtection) StopPerPair(pair string, now time.Time, trades []types.Trade) *types.ProtectionLock {
	return nil
}

// calculateDrawdownPct walks the closed trades in close-time order,
// accumulating realized PNL into a running balance, and returns the
// largest peak-to-trough retracement as a percentage of the peak.
func calculateDrawdownPct(trades []types.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}

	sorted := make([]types.Trade, len(trades))
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CloseDate.Before(*sorted[j].CloseDate)
	})

	peak := decimal.Zero
	balance := decimal.Zero
	maxDrawdown := 0.0

	for _, t := range sorted {
		if t.ProfitAbs == nil {
			continue
		}
		balance = balance.Add(*t.ProfitAbs)
		if balance.GreaterThan(peak) {
			peak = balance
		}
		if peak.LessThanOrEqual(decimal.Zero) {
			continue
		}

		drawdown := peak.Sub(balance).Abs()
		ratio, _ := drawdown.Div(peak).Float64()
		pct := ratio * 100.0
		if pct > maxDrawdown {
			maxDrawdown = pct
		}
	}

	return maxDrawdown
}
