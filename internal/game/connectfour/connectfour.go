// Package connectfour is the local two-player 6x7 drop game. Red moves
// first; a red line is reported as a win and a yellow line as a loss.
package connectfour

import (
	"math/rand/v2"

	"github.com/gamehub/apiserver/types"
)

const (
	GameID = "connect-four"
	Rows   = 6
	Cols   = 7
)

type Disc byte

const (
	None Disc = iota
	Red
	Yellow
)

func (d Disc) String() string {
	switch d {
	case Red:
		return "R"
	case Yellow:
		return "Y"
	default:
		return "."
	}
}

type State struct {
	Board  [Rows][Cols]Disc
	Turn   Disc
	Winner Disc
	Drops  int
}

// Rules implements game.Rules with the column 0..6 as input.
type Rules struct{}

func (Rules) ID() string { return GameID }

func (Rules) Init(*rand.Rand) State {
	return State{Turn: Red}
}

func (Rules) StartsOn(col int) bool {
	return col >= 0 && col < Cols
}

func (Rules) Step(s State, col int) State {
	if s.Winner != None || col < 0 || col >= Cols {
		return s
	}

	row := -1
	for r := Rows - 1; r >= 0; r-- {
		if s.Board[r][col] == None {
			row = r
			break
		}
	}
	if row < 0 {
		return s
	}

	s.Board[row][col] = s.Turn
	s.Drops++
	if connects(s.Board, row, col) {
		s.Winner = s.Turn
		return s
	}

	if s.Turn == Red {
		s.Turn = Yellow
	} else {
		s.Turn = Red
	}
	return s
}

var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// connects reports whether the disc at (row, col) completes four in a row.
func connects(board [Rows][Cols]Disc, row, col int) bool {
	disc := board[row][col]
	for _, d := range directions {
		count := 1
		for _, sign := range [2]int{1, -1} {
			r, c := row+sign*d[0], col+sign*d[1]
			for r >= 0 && r < Rows && c >= 0 && c < Cols && board[r][c] == disc {
				count++
				r += sign * d[0]
				c += sign * d[1]
			}
		}
		if count >= 4 {
			return true
		}
	}
	return false
}

func (Rules) Outcome(s State) (types.Outcome, bool) {
	switch {
	case s.Winner == Red:
		return types.Win(), true
	case s.Winner == Yellow:
		return types.Loss(), true
	case s.Drops == Rows*Cols:
		return types.Draw(), true
	default:
		return types.Outcome{}, false
	}
}
