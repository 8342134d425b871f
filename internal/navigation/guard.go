package navigation

import (
	"sync"
	"time"
)

// Guard is the advisory lock between user navigation and automatic rescans.
// A navigation step holds it while running and for a grace period after;
// auto-scans are also held off for a cooldown after the last step began.
type Guard struct {
	cooldown time.Duration
	grace    time.Duration
	now      func() time.Time

	mu     sync.Mutex
	active bool
	last   time.Time
	seq    uint64
	timer  *time.Timer
}

// NewGuard creates a guard with the given cooldown and grace period
func NewGuard(cooldown, grace time.Duration) *Guard {
	return &Guard{
		cooldown: cooldown,
		grace:    grace,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for the cooldown window.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = now
	return g
}

// Begin marks a navigation step as in flight.
func (g *Guard) Begin() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = true
	g.last = g.now()
	g.seq++
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

// End releases the guard. After a successful step the active flag stays set
// for the grace period; a failed step releases it at once.
func (g *Guard) End(succeeded bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !succeeded || g.grace <= 0 {
		g.active = false
		return
	}

	seq := g.seq
	g.timer = time.AfterFunc(g.grace, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.seq == seq {
			g.active = false
			g.timer = nil
		}
	})
}

// Active reports whether a navigation step or its grace period is running.
func (g *Guard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// ShouldSkipAutoScan reports whether an automatic rescan must be skipped.
func (g *Guard) ShouldSkipAutoScan() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active {
		return true
	}
	return !g.last.IsZero() && g.now().Sub(g.last) < g.cooldown
}

// Stop cancels a pending grace timer.
func (g *Guard) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.active = false
}
