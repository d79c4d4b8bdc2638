// Package puzzle is the 3x3 sliding tile puzzle. Solving it reports the
// number of moves taken.
package puzzle

import (
	"math/rand/v2"

	"github.com/gamehub/apiserver/types"
)

const (
	GameID = "puzzle"
	Size   = 3
	Cells  = Size * Size
	// Blank is the tile value of the empty cell.
	Blank = Cells - 1
)

type State struct {
	// Tiles holds the tile value at each board position. The board is
	// solved when Tiles[i] == i everywhere.
	Tiles [Cells]int
	Moves int64
}

func (s State) Solved() bool {
	for i, t := range s.Tiles {
		if t != i {
			return false
		}
	}
	return true
}

func (s State) blank() int {
	for i, t := range s.Tiles {
		if t == Blank {
			return i
		}
	}
	return -1
}

// Solvable reports whether the tile order can reach the solved board. On
// an odd-width board that is the case when the inversion count is even.
func (s State) Solvable() bool {
	inversions := 0
	for i := 0; i < Cells; i++ {
		for j := i + 1; j < Cells; j++ {
			a, b := s.Tiles[i], s.Tiles[j]
			if a != Blank && b != Blank && a > b {
				inversions++
			}
		}
	}
	return inversions%2 == 0
}

// Rules implements game.Rules with the clicked board position as input.
type Rules struct{}

func (Rules) ID() string { return GameID }

// Init shuffles the tiles with Fisher-Yates and fixes parity so the board
// is solvable and not already solved.
func (Rules) Init(rng *rand.Rand) State {
	var s State
	for {
		for i := range s.Tiles {
			s.Tiles[i] = i
		}
		for i := Cells - 1; i > 0; i-- {
			j := rng.IntN(i + 1)
			s.Tiles[i], s.Tiles[j] = s.Tiles[j], s.Tiles[i]
		}
		if !s.Solvable() {
			swapFirstTiles(&s)
		}
		if !s.Solved() {
			return s
		}
	}
}

// swapFirstTiles swaps the first two non-blank tiles, flipping parity.
func swapFirstTiles(s *State) {
	first := -1
	for i, t := range s.Tiles {
		if t == Blank {
			continue
		}
		if first < 0 {
			first = i
			continue
		}
		s.Tiles[first], s.Tiles[i] = s.Tiles[i], s.Tiles[first]
		return
	}
}

func (Rules) StartsOn(pos int) bool {
	return pos >= 0 && pos < Cells
}

func adjacent(a, b int) bool {
	ar, ac := a/Size, a%Size
	br, bc := b/Size, b%Size
	dr, dc := ar-br, ac-bc
	return (dr*dr + dc*dc) == 1
}

// Step slides the tile at pos into the blank when they are adjacent.
func (Rules) Step(s State, pos int) State {
	if pos < 0 || pos >= Cells || s.Tiles[pos] == Blank {
		return s
	}
	b := s.blank()
	if !adjacent(pos, b) {
		return s
	}
	s.Tiles[pos], s.Tiles[b] = s.Tiles[b], s.Tiles[pos]
	s.Moves++
	return s
}

func (Rules) Outcome(s State) (types.Outcome, bool) {
	if !s.Solved() {
		return types.Outcome{}, false
	}
	return types.Moves(s.Moves), true
}
