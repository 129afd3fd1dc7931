// internal/pipeline/cost_ledger.go
package pipeline

import (
	"sync"
	"time"
)

// CostLedger tracks per-owner daily/monthly spend so the LLM
// Orchestrator can enforce its cost ceiling before issuing a call
// (spec.md §4.5 "Cost accounting"). Counters reset implicitly as their
// period key rolls over; old keys are never evicted, so each map gains
// one entry per owner per day (or month) for the life of the process.
type CostLedger struct {
	mu    sync.Mutex
	daily map[string]float64 // "ownerID|2024-07-30" -> spend
	month map[string]float64 // "ownerID|2024-07" -> spend
}

func NewCostLedger() *CostLedger {
	return &CostLedger{daily: make(map[string]float64), month: make(map[string]float64)}
}

func (l *CostLedger) dayKey(ownerID string, now time.Time) string {
	return ownerID + "|" + now.Format("2006-01-02")
}

func (l *CostLedger) monthKey(ownerID string, now time.Time) string {
	return ownerID + "|" + now.Format("2006-01")
}

// WouldBreach reports whether adding cost to ownerID's running totals
// would exceed dailyCeiling or monthlyCeiling. A non-positive ceiling
// disables that check.
func (l *CostLedger) WouldBreach(ownerID string, cost float64, dailyCeiling, monthlyCeiling float64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if dailyCeiling > 0 && l.daily[l.dayKey(ownerID, now)]+cost > dailyCeiling {
		return true
	}
	if monthlyCeiling > 0 && l.month[l.monthKey(ownerID, now)]+cost > monthlyCeiling {
		return true
	}
	return false
}

// Record adds cost to ownerID's running totals.
func (l *CostLedger) Record(ownerID string, cost float64, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.daily[l.dayKey(ownerID, now)] += cost
	l.month[l.monthKey(ownerID, now)] += cost
}
