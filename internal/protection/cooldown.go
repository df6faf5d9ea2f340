package protection

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tradebot/internal/types"
)

// CooldownConfig controls CooldownPeriod.
type CooldownConfig struct {
	StopDuration     time.Duration
	LookbackPeriod   time.Duration
	StopAfterLosses  int
}

// DefaultCooldownConfig matches the reference implementation's defaults:
// 60 minutes of cooldown after 2 losses in the last 24 hours.
func DefaultCooldownConfig() CooldownConfig {
	return CooldownConfig{
		StopDuration:    60 * time.Minute,
		LookbackPeriod:  24 * time.Hour,
		StopAfterLosses: 2,
	}
}

// CooldownPeriod halts trading after too many losses in a lookback window.
// It counts losses across the whole trade set even when called per pair,
// matching the reference implementation (a pair-scoped cooldown would
// ignore losses on other pairs, which defeats the point of a global brake).
type CooldownPeriod struct {
	cfg CooldownConfig
}

func NewCooldownPeriod(cfg CooldownConfig) *CooldownPeriod {
	return &CooldownPeriod{cfg: cfg}
}

func (p *CooldownPeriod) Name() string { return "CooldownPeriod" }

func (p *CooldownPeriod) ShortDesc() string {
	return fmt.Sprintf("Stop trading for %s after %d losing trades in last %s",
		p.cfg.StopDuration, p.cfg.StopAfterLosses, p.cfg.LookbackPeriod)
}

func (p *CooldownPeriod) HasGlobalStop() bool { return true }
func (p *CooldownPeriod) HasLocalStop() bool  { return false }

func (p *CooldownPeriod) GlobalStop(now time.Time, trades []types.Trade) *types.ProtectionLock {
	return p.check(now, trades)
}

func (p *CooldownPeriod) StopPerPair(pair string, now time.Time, trades []types.Trade) *types.ProtectionLock {
	return p.check(now, trades)
}

func (p *CooldownPeriod) check(now time.Time, trades []types.Trade) *types.ProtectionLock {
	lookbackStart := now.Add(-p.cfg.LookbackPeriod)

	losses := 0
	for _, t := range trades {
		if t.CloseDate == nil || t.CloseDate.Before(lookbackStart) {
			continue
		}
		if t.ProfitRatio != nil && t.ProfitRatio.LessThan(decimal.Zero) {
			losses++
		}
	}

	if losses < p.cfg.StopAfterLosses {
		return nil
	}

	return &types.ProtectionLock{
		Locked:   true,
		Until:    now.Add(p.cfg.StopDuration),
		Reason:   fmt.Sprintf("%d losing trades in last %s", losses, p.cfg.LookbackPeriod),
		LockSide: "*",
	}
}
