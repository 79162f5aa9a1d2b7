package engine

import (
	"context"
	"sync"

	"github.com/Simplici0/obra.works/internal/pricing"
)

// State is a step of a calculation session.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateComputing  State = "computing"
	StatePricing    State = "pricing"
	StateReady      State = "ready"
	StateFailed     State = "failed"
)

// Session tracks the latest calculation for one editor. Runs are last write
// wins: starting a run cancels the one in flight, and the older run returns
// ErrSuperseded instead of its result.
type Session struct {
	engine *Engine

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	state  State
	reason error
	result *Result
}

func NewSession(e *Engine) *Session {
	return &Session{engine: e, state: StateIdle}
}

// Run recomputes from scratch with req. Any earlier result is discarded.
func (s *Session) Run(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	gen := s.seq
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state, s.reason, s.result = StateIdle, nil, nil
	s.mu.Unlock()
	defer cancel()

	res, err := s.engine.run(ctx, req, func(st State) { s.enter(gen, st) })

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.seq {
		return nil, ErrSuperseded
	}
	s.cancel = nil
	if err != nil {
		s.state, s.reason = StateFailed, err
		return nil, err
	}
	s.state, s.result = StateReady, res
	return res, nil
}

// Reprice re-aggregates the ready result with new options without touching
// the catalog or the quantities.
func (s *Session) Reprice(opts pricing.Options) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady || s.result == nil {
		return nil, ErrNotReady
	}
	res, err := s.result.Reprice(opts)
	if err != nil {
		return nil, err
	}
	s.result = res
	return res, nil
}

// Reset cancels any run in flight and returns the session to Idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	s.state, s.reason, s.result = StateIdle, nil, nil
}

// State returns the current state and, when Failed, the reason.
func (s *Session) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.reason
}

// Result returns the ready result, or nil.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) enter(gen uint64, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.seq {
		s.state = st
	}
}
