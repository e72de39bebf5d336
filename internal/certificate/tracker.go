package certificate

import (
	"errors"
	"sync"
	"time"
)

// ErrInProgress is returned when a download for the same record is already running.
var ErrInProgress = errors.New("certificate download already in progress")

// State is the download state of one record's certificate.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateError   State = "error"
)

// Tracker keeps transient per-record download state. An error state falls
// back to idle after the reset delay.
type Tracker struct {
	mu         sync.Mutex
	states     map[string]State
	timers     map[string]*time.Timer
	resetDelay time.Duration
}

// NewTracker creates a tracker whose errors clear after resetDelay.
func NewTracker(resetDelay time.Duration) *Tracker {
	return &Tracker{
		states:     make(map[string]State),
		timers:     make(map[string]*time.Timer),
		resetDelay: resetDelay,
	}
}

// State returns the current state for a certificate number.
func (t *Tracker) State(number string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.states[number]; ok {
		return s
	}
	return StateIdle
}

// Begin marks a download as loading.
func (t *Tracker) Begin(number string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.states[number] == StateLoading {
		return ErrInProgress
	}
	t.stopTimer(number)
	t.states[number] = StateLoading
	return nil
}

// Finish records the outcome of a download started with Begin.
func (t *Tracker) Finish(number string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTimer(number)
	if err == nil {
		delete(t.states, number)
		return
	}

	t.states[number] = StateError
	var timer *time.Timer
	timer = time.AfterFunc(t.resetDelay, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		// A later Begin or Finish owns the entry now.
		if t.timers[number] != timer {
			return
		}
		delete(t.timers, number)
		delete(t.states, number)
	})
	t.timers[number] = timer
}

func (t *Tracker) stopTimer(number string) {
	if timer, ok := t.timers[number]; ok {
		timer.Stop()
		delete(t.timers, number)
	}
}
