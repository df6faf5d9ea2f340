package protection

import (
	"fmt"
	"time"

	"tradebot/internal/types"
)

// StoplossGuardConfig controls StoplossGuard.
type StoplossGuardConfig struct {
	LookbackPeriod    time.Duration
	StopDuration      time.Duration
	MaxStoplossCount  int
}

// DefaultStoplossGuardConfig mirrors the reference implementation: halt
// for 30 minutes once 2 stoplosses trigger within a 1 hour window.
func DefaultStoplossGuardConfig() StoplossGuardConfig {
	return StoplossGuardConfig{
		LookbackPeriod:   time.Hour,
		StopDuration:     30 * time.Minute,
		MaxStoplossCount: 2,
	}
}

// StoplossGuard halts trading after repeated stoploss exits. Its global
// check simply delegates to the pair check against "*", matching the
// reference implementation.
type StoplossGuard struct {
	cfg StoplossGuardConfig
}

func NewStoplossGuard(cfg StoplossGuardConfig) *StoplossGuard {
	return &StoplossGuard{cfg: cfg}
}

func (p *StoplossGuard) Name() string { return "StoplossGuard" }

func (p *StoplossGuard) ShortDesc() string {
	return fmt.Sprintf("Stop trading for %s if stoploss is triggered %d or more times in %s",
		p.cfg.StopDuration, p.cfg.MaxStoplossCount, p.cfg.LookbackPeriod)
}

func (p *StoplossGuard) HasGlobalStop() bool { return false }
func (p *StoplossGuard) HasLocalStop() bool  { return true }

func (p *StoplossGuard) GlobalStop(now time.Time, trades []types.Trade) *types.ProtectionLock {
	return p.StopPerPair("*", now, trades)
}

func (p *StoplossGuard) StopPerPair(pair string, now time.Time, trades []types.Trade) *types.ProtectionLock {
	lookbackStart := now.Add(-p.cfg.LookbackPeriod)

	count := 0
	for _, t := range trades {
		if t.CloseDate == nil || t.CloseDate.Before(lookbackStart) {
			continue
		}
		if t.ExitReason != nil && (*t.ExitReason == types.ExitStopLoss || *t.ExitReason == types.ExitStopLossOnExchange) {
			count++
		}
	}

	if count < p.cfg.MaxStoplossCount {
		return nil
	}

	return &types.ProtectionLock{
		Locked:   true,
		Until:    now.Add(p.cfg.StopDuration),
		Reason:   fmt.Sprintf("Stoploss triggered %d times in last %s", count, p.cfg.LookbackPeriod),
		LockSide: "*",
	}
}
