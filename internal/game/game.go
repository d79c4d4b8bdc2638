// Package game runs a single local game session: the phase state machine,
// input and tick handling, and one result report per finished round.
package game

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gamehub/apiserver/types"
	"go.uber.org/zap"
)

// Phase is the lifecycle position of a session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhasePaused
	PhaseTerminal
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	case PhasePaused:
		return "paused"
	case PhaseTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// ErrNotRealtime is returned by Run for rules without a Ticker.
var ErrNotRealtime = errors.New("game rules have no tick loop")

// Rules are the per-game logic. Step must not mutate the state it is
// given; it returns the next state.
type Rules[S, I any] interface {
	ID() string
	Init(rng *rand.Rand) S
	Step(state S, input I) S
	Outcome(state S) (types.Outcome, bool)
}

// Ticker is implemented by real-time games that advance on a timer.
// Such games can be paused.
type Ticker[S any] interface {
	Tick(state S) S
	Interval(state S) time.Duration
}

// Starter is implemented by games where an input given while idle starts
// the round.
type Starter[I any] interface {
	StartsOn(input I) bool
}

// Reporter delivers a finished round's outcome.
type Reporter interface {
	Report(ctx context.Context, gameID string, outcome types.Outcome) error
}

// Controller drives one session of a game. It is safe for concurrent use;
// reports are sent outside the lock.
type Controller[S, I any] struct {
	mu        sync.Mutex
	rules     Rules[S, I]
	reporter  Reporter
	rng       *rand.Rand
	log       *zap.Logger
	phase     Phase
	state     S
	outcome   types.Outcome
	finished  bool
	reportErr error
	round     uint64
	wake      chan struct{}
}

// NewController initializes the game's state in the idle phase. reporter
// and log may be nil; a nil rng is seeded randomly.
func NewController[S, I any](rules Rules[S, I], reporter Reporter, rng *rand.Rand, log *zap.Logger) *Controller[S, I] {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller[S, I]{
		rules:    rules,
		reporter: reporter,
		rng:      rng,
		log:      log.With(zap.String("game_id", rules.ID())),
		phase:    PhaseIdle,
		state:    rules.Init(rng),
		wake:     make(chan struct{}, 1),
	}
}

func (c *Controller[S, I]) notify() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Start moves an idle session to active.
func (c *Controller[S, I]) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseIdle {
		return false
	}
	c.phase = PhaseActive
	c.notify()
	return true
}

// Pause suspends an active real-time session.
func (c *Controller[S, I]) Pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.rules.(Ticker[S]); !ok || c.phase != PhaseActive {
		return false
	}
	c.phase = PhasePaused
	c.notify()
	return true
}

// Resume continues a paused session.
func (c *Controller[S, I]) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhasePaused {
		return false
	}
	c.phase = PhaseActive
	c.notify()
	return true
}

// Reset reinitializes the state from any phase and returns to idle.
func (c *Controller[S, I]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = c.rules.Init(c.rng)
	c.phase = PhaseIdle
	c.outcome = types.Outcome{}
	c.finished = false
	c.reportErr = nil
	c.round++
	c.notify()
}

// Input applies a player input. Inputs are ignored unless the session is
// active, except a starting input while idle. It reports whether the
// input was applied.
func (c *Controller[S, I]) Input(ctx context.Context, input I) bool {
	c.mu.Lock()
	if c.phase == PhaseIdle {
		if starter, ok := c.rules.(Starter[I]); ok && starter.StartsOn(input) {
			c.phase = PhaseActive
			c.notify()
		}
	}
	if c.phase != PhaseActive {
		c.mu.Unlock()
		return false
	}

	c.state = c.rules.Step(c.state, input)
	outcome, round, done := c.settleLocked()
	c.mu.Unlock()

	if done {
		c.report(ctx, outcome, round)
	}
	return true
}

// Tick advances a real-time session by one step.
func (c *Controller[S, I]) Tick(ctx context.Context) bool {
	ticker, ok := c.rules.(Ticker[S])
	if !ok {
		return false
	}

	c.mu.Lock()
	if c.phase != PhaseActive {
		c.mu.Unlock()
		return false
	}
	c.state = ticker.Tick(c.state)
	outcome, round, done := c.settleLocked()
	c.mu.Unlock()

	if done {
		c.report(ctx, outcome, round)
	}
	return true
}

// settleLocked moves an active session to terminal when the rules report
// an outcome. Only the caller that performs the transition gets done.
func (c *Controller[S, I]) settleLocked() (types.Outcome, uint64, bool) {
	if c.phase != PhaseActive {
		return types.Outcome{}, 0, false
	}
	outcome, over := c.rules.Outcome(c.state)
	if !over {
		return types.Outcome{}, 0, false
	}
	c.phase = PhaseTerminal
	c.outcome = outcome
	c.finished = true
	c.notify()
	return outcome, c.round, true
}

func (c *Controller[S, I]) report(ctx context.Context, outcome types.Outcome, round uint64) {
	if c.reporter == nil || !outcome.Reportable() {
		c.log.Debug("round finished without report", zap.Stringer("outcome", outcome))
		return
	}

	err := c.reporter.Report(ctx, c.rules.ID(), outcome)
	if err != nil {
		c.log.Warn("result report failed", zap.Stringer("outcome", outcome), zap.Error(err))
	}

	c.mu.Lock()
	if c.round == round {
		c.reportErr = err
	}
	c.mu.Unlock()
}

// Run ticks a real-time session at the interval its rules ask for until
// ctx is cancelled. While the session is not active it waits for a phase
// change.
func (c *Controller[S, I]) Run(ctx context.Context) error {
	ticker, ok := c.rules.(Ticker[S])
	if !ok {
		return ErrNotRealtime
	}

	for {
		c.mu.Lock()
		phase := c.phase
		interval := ticker.Interval(c.state)
		c.mu.Unlock()

		if phase != PhaseActive {
			select {
			case <-ctx.Done():
				return nil
			case <-c.wake:
			}
			continue
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-c.wake:
			timer.Stop()
		case <-timer.C:
			c.Tick(ctx)
		}
	}
}

func (c *Controller[S, I]) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// State returns the current state. Callers must treat it as read-only.
func (c *Controller[S, I]) State() S {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Outcome returns the result of the finished round, if any.
func (c *Controller[S, I]) Outcome() (types.Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome, c.finished
}

// ReportErr returns the error of this round's report, if it failed.
func (c *Controller[S, I]) ReportErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reportErr
}

// ID returns the catalog id of the game being played.
func (c *Controller[S, I]) ID() string {
	return c.rules.ID()
}
