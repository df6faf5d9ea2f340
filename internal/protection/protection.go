// Package protection implements the composable trade-veto pipeline: a
// Manager holding an ordered list of Rules, each able to lock new entries
// globally or for one pair.
package protection

import (
	"sync"
	"time"

	"tradebot/internal/types"
)

// Rule is one protection mechanism. A rule that never vetoes entries still
// implements the full interface; HasGlobalStop/HasLocalStop tell the
// Manager which of GlobalStop/StopPerPair are worth calling.
type Rule interface {
	Name() string
	ShortDesc() string
	HasGlobalStop() bool
	HasLocalStop() bool

	// GlobalStop inspects the full trade history and returns a non-nil
	// lock when trading should halt across every pair.
	GlobalStop(now time.Time, trades []types.Trade) *types.ProtectionLock

	// StopPerPair inspects one pair's trade history and returns a non-nil
	// lock when entries into that pair should halt.
	StopPerPair(pair string, now time.Time, trades []types.Trade) *types.ProtectionLock
}

// Manager holds the ordered rule pipeline and evaluates it against trade
// history supplied by the caller (the repository, via the coordinator).
type Manager struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewManager returns an empty pipeline; rules are added in evaluation order.
func NewManager() *Manager {
	return &Manager{}
}

// Add appends a rule to the end of the pipeline.
func (m *Manager) Add(rule Rule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rule)
}

// Remove drops the first rule named name, reporting whether one was found.
func (m *Manager) Remove(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rules {
		if r.Name() == name {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return true
		}
	}
	return false
}

// List returns the names of every configured rule, in evaluation order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.rules))
	for i, r := range m.rules {
		names[i] = r.Name()
	}
	return names
}

// CheckGlobalStop evaluates every global-stop rule against allTrades and
// returns the first lock raised, or nil if no rule vetoes entries.
func (m *Manager) CheckGlobalStop(now time.Time, allTrades []types.Trade) *types.ProtectionLock {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rule := range m.rules {
		if !rule.HasGlobalStop() {
			continue
		}
		if lock := rule.GlobalStop(now, allTrades); lock != nil {
			if lock.Reason == "" {
				lock.Reason = rule.ShortDesc()
			}
			return lock
		}
	}
	return nil
}

// CheckPairStop evaluates every local-stop rule against pairTrades (already
// filtered to one pair by the caller) and returns the first lock raised.
func (m *Manager) CheckPairStop(pair string, now time.Time, pairTrades []types.Trade) *types.ProtectionLock {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rule := range m.rules {
		if !rule.HasLocalStop() {
			continue
		}
		if lock := rule.StopPerPair(pair, now, pairTrades); lock != nil {
			if lock.Reason == "" {
				lock.Reason = rule.ShortDesc()
			}
			return lock
		}
	}
	return nil
}
