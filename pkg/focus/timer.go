// Package focus implements the Pomodoro and meditation countdowns.
//
// A Timer only moves when ticked, so the same type backs the interactive
// view (driven by its own tick messages) and the plain Run loop.
package focus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrStopped = errors.New("timer stopped")

type State int

const (
	Idle State = iota
	Running
	Paused
	Finished
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	default:
		return "idle"
	}
}

// Timer counts down a fixed duration. onComplete runs once per run, on the
// tick that reaches zero.
type Timer struct {
	mu         sync.Mutex
	duration   time.Duration
	remaining  time.Duration
	state      State
	onComplete func()
}

func NewTimer(d time.Duration, onComplete func()) *Timer {
	return &Timer{duration: d, remaining: d, onComplete: onComplete}
}

// Start begins a fresh run from the full duration.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.remaining = t.duration
	t.state = Running
}

func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Running {
		t.state = Paused
	}
}

func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Paused {
		t.state = Running
	}
}

// Toggle pauses a running timer and resumes a paused one.
func (t *Timer) Toggle() {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case Running:
		t.state = Paused
	case Paused:
		t.state = Running
	}
}

// Reset rewinds to the full duration and stops ticking.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.remaining = t.duration
	t.state = Idle
}

// Stop abandons the run without completing it.
func (t *Timer) Stop() {
	t.Reset()
}

// SetDuration picks a new length. A running timer keeps its current run.
func (t *Timer) SetDuration(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.duration = d
	if t.state == Idle || t.state == Finished {
		t.remaining = d
		t.state = Idle
	}
}

// Tick advances a running timer by d and reports whether this tick
// finished it.
func (t *Timer) Tick(d time.Duration) bool {
	t.mu.Lock()
	if t.state != Running {
		t.mu.Unlock()
		return false
	}
	t.remaining = max(t.remaining-d, 0)
	if t.remaining > 0 {
		t.mu.Unlock()
		return false
	}
	t.state = Finished
	done := t.onComplete
	t.mu.Unlock()

	if done != nil {
		done()
	}
	return true
}

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Timer) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Progress is the elapsed share of the run, in [0, 1].
func (t *Timer) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.duration <= 0 {
		return 1
	}
	p := 1 - float64(t.remaining)/float64(t.duration)
	return min(1, max(0, p))
}

// Run starts the timer and ticks it every interval until it finishes. It
// returns ErrStopped if the timer is stopped or reset meanwhile.
func (t *Timer) Run(ctx context.Context, interval time.Duration) error {
	t.Start()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if t.Tick(interval) {
				return nil
			}
			if t.State() == Idle {
				return ErrStopped
			}
		}
	}
}

// FormatClock renders d as MM:SS, rounding partial seconds down.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
