package types

import (
	"errors"
	"fmt"
	"strings"
)

// OutcomeKind tags the variant carried by an Outcome.
type OutcomeKind string

const (
	OutcomeWin   OutcomeKind = "win"
	OutcomeLoss  OutcomeKind = "loss"
	OutcomeDraw  OutcomeKind = "draw"
	OutcomeScore OutcomeKind = "score"
	OutcomeMoves OutcomeKind = "moves"
)

var (
	ErrUnknownResult = errors.New("unknown game result")
	ErrMissingValue  = errors.New("result requires a numeric value")
	ErrNegativeValue = errors.New("result value must not be negative")
)

// Outcome is the terminal result of one game session.
//
// Win, loss and draw are plain win/loss outcomes. Score carries the final
// score of a score-based game. Moves carries the number of moves used to
// solve a puzzle. Value is only meaningful for Score and Moves.
type Outcome struct {
	Kind  OutcomeKind
	Value int64
}

func Win() Outcome  { return Outcome{Kind: OutcomeWin} }
func Loss() Outcome { return Outcome{Kind: OutcomeLoss} }
func Draw() Outcome { return Outcome{Kind: OutcomeDraw} }

func Score(n int64) Outcome { return Outcome{Kind: OutcomeScore, Value: n} }
func Moves(n int64) Outcome { return Outcome{Kind: OutcomeMoves, Value: n} }

// ParseOutcome builds an Outcome from the wire pair {result, value}.
func ParseOutcome(result string, value *int64) (Outcome, error) {
	kind := OutcomeKind(strings.ToLower(strings.TrimSpace(result)))
	switch kind {
	case OutcomeWin, OutcomeLoss, OutcomeDraw:
		return Outcome{Kind: kind}, nil
	case OutcomeScore, OutcomeMoves:
		if value == nil {
			return Outcome{}, fmt.Errorf("%w: %s", ErrMissingValue, kind)
		}
		if *value < 0 {
			return Outcome{}, ErrNegativeValue
		}
		return Outcome{Kind: kind, Value: *value}, nil
	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownResult, result)
	}
}

// Result returns the wire "result" string.
func (o Outcome) Result() string {
	return string(o.Kind)
}

// ValuePtr returns the wire "value", or nil for win/loss/draw.
func (o Outcome) ValuePtr() *int64 {
	switch o.Kind {
	case OutcomeScore, OutcomeMoves:
		v := o.Value
		return &v
	default:
		return nil
	}
}

// Reportable reports whether the outcome is worth sending to the server.
// A zero score carries no information.
func (o Outcome) Reportable() bool {
	switch o.Kind {
	case OutcomeWin, OutcomeLoss, OutcomeDraw:
		return true
	case OutcomeScore:
		return o.Value > 0
	case OutcomeMoves:
		return o.Value >= 0
	default:
		return false
	}
}

func (o Outcome) String() string {
	if v := o.ValuePtr(); v != nil {
		return fmt.Sprintf("%s(%d)", o.Kind, *v)
	}
	return string(o.Kind)
}

// GameResult is the body of a stats record request.
type GameResult struct {
	GameID string `json:"gameId"`
	Result string `json:"result"`
	Value  *int64 `json:"value,omitempty"`
}

// NewGameResult encodes an outcome for gameID in wire form.
func NewGameResult(gameID string, o Outcome) GameResult {
	return GameResult{GameID: gameID, Result: o.Result(), Value: o.ValuePtr()}
}
