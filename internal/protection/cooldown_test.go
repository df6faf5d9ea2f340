package protection

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradebot/internal/types"
)

func closedTrade(closeDate time.Time, profitRatio decimal.Decimal) types.Trade {
	return types.Trade{
		CloseDate:   &closeDate,
		ProfitRatio: &profitRatio,
	}
}

func TestCooldownPeriod_LocksAfterEnoughLosses(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cfg := DefaultCooldownConfig()
	rule := NewCooldownPeriod(cfg)

	trades := []types.Trade{
		closedTrade(now.Add(-10*time.Minute), decimal.NewFromFloat(-0.01)),
		closedTrade(now.Add(-5*time.Minute), decimal.NewFromFloat(-0.02)),
	}

	lock := rule.GlobalStop(now, trades)
	if lock == nil || !lock.Locked {
		t.Fatal("expected a lock after 2 losses")
	}
	if !lock.Until.After(now) {
		t.Error("lock should expire in the future")
	}
}

func TestCooldownPeriod_NoLockBelowThreshold(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rule := NewCooldownPeriod(DefaultCooldownConfig())

	trades := []types.Trade{
		closedTrade(now.Add(-10*time.Minute), decimal.NewFromFloat(-0.01)),
	}

	if lock := rule.GlobalStop(now, trades); lock != nil {
		t.Errorf("expected no lock, got %+v", lock)
	}
}

func TestCooldownPeriod_IgnoresLossesOutsideLookback(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rule := NewCooldownPeriod(DefaultCooldownConfig())

	trades := []types.Trade{
		closedTrade(now.Add(-48*time.Hour), decimal.NewFromFloat(-0.05)),
		closedTrade(now.Add(-47*time.Hour), decimal.NewFromFloat(-0.05)),
	}

	if lock := rule.GlobalStop(now, trades); lock != nil {
		t.Errorf("expected no lock for stale losses, got %+v", lock)
	}
}

func TestCooldownPeriod_IgnoresWinningTrades(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rule := NewCooldownPeriod(DefaultCooldownConfig())

	trades := []types.Trade{
		closedTrade(now.Add(-10*time.Minute), decimal.NewFromFloat(0.02)),
		closedTrade(now.Add(-5*time.Minute), decimal.NewFromFloat(0.01)),
	}

	if lock := rule.GlobalStop(now, trades); lock != nil {
		t.Errorf("expected no lock for winning trades, got %+v", lock)
	}
}

func TestCooldownPeriod_StopPerPairMatchesGlobal(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rule := NewCooldownPeriod(DefaultCooldownConfig())

	trades := []types.Trade{
		closedTrade(now.Add(-10*time.Minute), decimal.NewFromFloat(-0.01)),
		closedTrade(now.Add(-5*time.Minute), decimal.NewFromFloat(-0.02)),
	}

	globalLock := rule.GlobalStop(now, trades)
	pairLock := rule.StopPerPair("BTCUSDT", now, trades)
	if (globalLock == nil) != (pairLock == nil) {
		t.Error("StopPerPair should agree with GlobalStop for this rule")
	}
}

func TestCooldownPeriod_Metadata(t *testing.T) {
	rule := NewCooldownPeriod(DefaultCooldownConfig())
	if rule.Name() != "CooldownPeriod" {
		t.Errorf("Name() = %q", rule.Name())
	}
	if !rule.HasGlobalStop() {
		t.Error("HasGlobalStop() should be true")
	}
	if rule.HasLocalStop() {
		t.Error("HasLocalStop() should be false")
	}
	if rule.ShortDesc() == "" {
		t.Error("ShortDesc() should not be empty")
	}
}
