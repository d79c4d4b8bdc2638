// Package tictactoe is the local two-player 3x3 game. X moves first; any
// line wins the round for the player who completes it.
package tictactoe

import (
	"math/rand/v2"

	"github.com/gamehub/apiserver/types"
)

const GameID = "tic-tac-toe"

type Mark byte

const (
	Empty Mark = iota
	X
	O
)

func (m Mark) String() string {
	switch m {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return " "
	}
}

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

type State struct {
	Board  [9]Mark
	Turn   Mark
	Winner Mark
}

// Full reports whether no cell is left.
func (s State) Full() bool {
	for _, m := range s.Board {
		if m == Empty {
			return false
		}
	}
	return true
}

// Rules implements game.Rules with the cell index 0..8 as input.
type Rules struct{}

func (Rules) ID() string { return GameID }

func (Rules) Init(*rand.Rand) State {
	return State{Turn: X}
}

func (Rules) StartsOn(cell int) bool {
	return cell >= 0 && cell < len(State{}.Board)
}

func (Rules) Step(s State, cell int) State {
	if s.Winner != Empty || cell < 0 || cell >= len(s.Board) || s.Board[cell] != Empty {
		return s
	}

	s.Board[cell] = s.Turn
	for _, l := range lines {
		a, b, c := s.Board[l[0]], s.Board[l[1]], s.Board[l[2]]
		if a != Empty && a == b && a == c {
			s.Winner = a
			return s
		}
	}

	if s.Turn == X {
		s.Turn = O
	} else {
		s.Turn = X
	}
	return s
}

func (Rules) Outcome(s State) (types.Outcome, bool) {
	switch {
	case s.Winner != Empty:
		return types.Win(), true
	case s.Full():
		return types.Draw(), true
	default:
		return types.Outcome{}, false
	}
}
