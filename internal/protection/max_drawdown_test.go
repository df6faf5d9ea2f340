package protection

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradebot/internal/types"
)

func tradeWithPNL(closeDate time.Time, profitAbs decimal.Decimal) types.Trade {
	return types.Trade{
		CloseDate: &closeDate,
		ProfitAbs: &profitAbs,
	}
}

func TestMaxDrawdownProtection_LocksOnExcessiveDrawdown(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rule := NewMaxDrawdownProtection(DefaultMaxDrawdownConfig())

	trades := []types.Trade{
		tradeWithPNL(now.Add(-3*time.Hour), decimal.NewFromInt(100)),
		tradeWithPNL(now.Add(-2*time.Hour), decimal.NewFromInt(-30)),
	}

	lock := rule.GlobalStop(now, trades)
	if lock == nil {
		t.Fatal("expected a lock: drawdown of 30% exceeds the 20% default ceiling")
	}
}

func TestMaxDrawdownProtection_NoLockWithinTolerance(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rule := NewMaxDrawdownProtection(DefaultMaxDrawdownConfig())

	trades := []types.Trade{
		tradeWithPNL(now.Add(-3*time.Hour), decimal.NewFromInt(100)),
		tradeWithPNL(now.Add(-2*time.Hour), decimal.NewFromInt(-5)),
	}

	if lock := rule.GlobalStop(now, trades); lock != nil {
		t.Errorf("expected no lock, got %+v", lock)
	}
}

func TestCalculateDrawdownPct_NoTrades(t *testing.T) {
	if got := calculateDrawdownPct(nil); got != 0 {
		t.Errorf("calculateDrawdownPct(nil) = %v, want 0", got)
	}
}

func TestMaxDrawdownProtection_HasNoLocalStop(t *testing.T) {
	rule := NewMaxDrawdownProtection(DefaultMaxDrawdownConfig())
	if !rule.HasGlobalStop() {
		t.Error("HasGlobalStop() should be true")
	}
	if rule.HasLocalStop() {
		t.Error("HasLocalStop() should be false")
	}
	if rule.StopPerPair("BTCUSDT", time.Now(), nil) != nil {
		t.Error("StopPerPair() should always return nil")
	}
}
