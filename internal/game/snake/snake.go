// Package snake is the real-time snake game on a 20x20 grid. Each food
// eaten scores a point and shortens the tick interval.
package snake

import (
	"math/rand/v2"
	"time"

	"github.com/gamehub/apiserver/types"
)

const (
	GameID       = "snake"
	GridSize     = 20
	InitialSpeed = 200 * time.Millisecond
	MinSpeed     = 80 * time.Millisecond
	SpeedStep    = 5 * time.Millisecond
)

type Point struct {
	X, Y int
}

func (p Point) add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

var (
	Up    = Point{X: 0, Y: -1}
	Down  = Point{X: 0, Y: 1}
	Left  = Point{X: -1, Y: 0}
	Right = Point{X: 1, Y: 0}

	start = Point{X: 10, Y: 10}
)

type State struct {
	// Body is head first.
	Body  []Point
	Dir   Point
	Next  Point
	Food  Point
	Score int64
	Speed time.Duration
	Dead  bool

	rng *rand.Rand
}

// Occupies reports whether p is part of the snake.
func (s State) Occupies(p Point) bool {
	for _, seg := range s.Body {
		if seg == p {
			return true
		}
	}
	return false
}

// Rules implements game.Rules with a direction as input, plus
// game.Ticker and game.Starter.
type Rules struct{}

func (Rules) ID() string { return GameID }

func (Rules) Init(rng *rand.Rand) State {
	s := State{
		Body:  []Point{start},
		Dir:   Right,
		Next:  Right,
		Speed: InitialSpeed,
		rng:   rng,
	}
	s.Food = placeFood(s.Body, rng)
	return s
}

func isDirection(p Point) bool {
	return p == Up || p == Down || p == Left || p == Right
}

func (Rules) StartsOn(dir Point) bool {
	return isDirection(dir)
}

// Step queues a turn. Reversing onto the last moved direction is ignored.
func (Rules) Step(s State, dir Point) State {
	if s.Dead || !isDirection(dir) {
		return s
	}
	if dir.X == -s.Dir.X && dir.Y == -s.Dir.Y {
		return s
	}
	s.Next = dir
	return s
}

func (Rules) Interval(s State) time.Duration {
	return s.Speed
}

func (Rules) Tick(s State) State {
	if s.Dead {
		return s
	}

	head := s.Body[0].add(s.Next)
	hitWall := head.X < 0 || head.X >= GridSize || head.Y < 0 || head.Y >= GridSize
	hitSelf := false
	for _, seg := range s.Body[1:] {
		if seg == head {
			hitSelf = true
			break
		}
	}
	if hitWall || hitSelf {
		s.Dead = true
		return s
	}

	body := make([]Point, 0, len(s.Body)+1)
	body = append(body, head)
	body = append(body, s.Body...)
	s.Dir = s.Next

	if head == s.Food {
		s.Score++
		s.Speed = max(MinSpeed, s.Speed-SpeedStep)
		s.Body = body
		s.Food = placeFood(body, s.rng)
		return s
	}

	s.Body = body[:len(body)-1]
	return s
}

func (Rules) Outcome(s State) (types.Outcome, bool) {
	if !s.Dead {
		return types.Outcome{}, false
	}
	return types.Score(s.Score), true
}

// placeFood picks a random free cell, or (-1, -1) when the grid is full.
func placeFood(body []Point, rng *rand.Rand) Point {
	taken := make(map[Point]bool, len(body))
	for _, p := range body {
		taken[p] = true
	}
	free := make([]Point, 0, GridSize*GridSize-len(taken))
	for y := 0; y < GridSize; y++ {
		for x := 0; x < GridSize; x++ {
			if p := (Point{X: x, Y: y}); !taken[p] {
				free = append(free, p)
			}
		}
	}
	if len(free) == 0 {
		return Point{X: -1, Y: -1}
	}
	return free[rng.IntN(len(free))]
}
