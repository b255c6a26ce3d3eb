package alerts

import (
	"sync"
	"time"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// DefaultCooldown is how long an alert stays suppressed after it was shown.
const DefaultCooldown = 30 * time.Minute

// Deduplicator remembers when each (budget, alert type) pair was last shown.
type Deduplicator struct {
	history  map[string]time.Time
	now      func() time.Time
	cooldown time.Duration
	mu       sync.Mutex
}

// NewDeduplicator creates a deduplicator. A zero cooldown uses DefaultCooldown
// and a nil clock uses time.Now.
func NewDeduplicator(cooldown time.Duration, now func() time.Time) *Deduplicator {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if now == nil {
		now = time.Now
	}
	return &Deduplicator{
		history:  make(map[string]time.Time),
		now:      now,
		cooldown: cooldown,
	}
}

func dedupKey(budgetID string, t model.AlertType) string {
	return budgetID + "-" + string(t)
}

// ShouldAlert reports whether the pair is outside its cooldown.
func (d *Deduplicator) ShouldAlert(budgetID string, t model.AlertType) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shouldAlertLocked(dedupKey(budgetID, t))
}

func (d *Deduplicator) shouldAlertLocked(key string) bool {
	last, ok := d.history[key]
	if !ok {
		return true
	}
	return d.now().Sub(last) > d.cooldown
}

// Record marks the pair as shown now.
func (d *Deduplicator) Record(budgetID string, t model.AlertType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history[dedupKey(budgetID, t)] = d.now()
}

// claim checks and records in one step so concurrent evaluations cannot both
// fire the same alert.
func (d *Deduplicator) claim(budgetID string, t model.AlertType) (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := dedupKey(budgetID, t)
	if !d.shouldAlertLocked(key) {
		return time.Time{}, false
	}
	now := d.now()
	d.history[key] = now
	return now, true
}

// Reset forgets every recorded alert.
func (d *Deduplicator) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = make(map[string]time.Time)
}

// Size returns the number of remembered pairs.
func (d *Deduplicator) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.history)
}
