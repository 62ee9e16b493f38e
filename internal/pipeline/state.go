package pipeline

import "sync"

// RunState is the lifecycle of one session's submission slot.
type RunState int

const (
	StateIdle RunState = iota
	StateRunning
	StateSucceeded
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// runGuard serializes submissions per session. tryStart admits at most one
// run at a time; terminal states are re-armable, so a failed run never
// blocks a retry.
type runGuard struct {
	mu     sync.Mutex
	states map[string]RunState
}

func newRunGuard() *runGuard {
	return &runGuard{states: make(map[string]RunState)}
}

// tryStart transitions the session to Running. It fails only when a run is
// already in flight.
func (g *runGuard) tryStart(session string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.states[session] == StateRunning {
		return false
	}
	g.states[session] = StateRunning
	return true
}

// finish records the terminal state of the session's current run.
func (g *runGuard) finish(session string, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if ok {
		g.states[session] = StateSucceeded
	} else {
		g.states[session] = StateFailed
	}
}

// state reports the session's current state.
func (g *runGuard) state(session string) RunState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.states[session]
}
