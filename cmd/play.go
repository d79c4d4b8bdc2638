/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gamehub/apiserver/internal/client"
	"github.com/gamehub/apiserver/internal/game"
	"github.com/gamehub/apiserver/internal/game/connectfour"
	"github.com/gamehub/apiserver/internal/game/puzzle"
	"github.com/gamehub/apiserver/internal/game/snake"
	"github.com/gamehub/apiserver/internal/game/tictactoe"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play <game>",
	Short: "Play a reference game in the terminal",
	Long: `Play one of the reference games. Finished rounds are recorded on your
account when you are signed in. Games:

	tic-tac-toe    cells 1-9
	connect-four   columns 1-7
	puzzle         positions 1-9
	snake          w/a/s/d + Enter, p to pause

Type r to start over and q to quit.
`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{tictactoe.GameID, connectfour.GameID, puzzle.GameID, snake.GameID},
	RunE: func(cmd *cobra.Command, args []string) error {
		session, c, err := openSession(cmd)
		if err != nil {
			return err
		}
		reporter := client.NewReporter(c, session, nil)

		out := cmd.OutOrStdout()
		if user, ok := session.User(); ok {
			fmt.Fprintf(out, "Playing as %s.\n", user.Name)
		} else {
			fmt.Fprintln(out, "Not signed in; results stay local.")
		}

		lines := readLines(cmd.Context(), cmd.InOrStdin())
		switch args[0] {
		case tictactoe.GameID:
			ctrl := game.NewController[tictactoe.State, int](tictactoe.Rules{}, reporter, nil, nil)
			return playTurns(cmd.Context(), ctrl, out, lines, renderTicTacToe, parseIndex(9))
		case connectfour.GameID:
			ctrl := game.NewController[connectfour.State, int](connectfour.Rules{}, reporter, nil, nil)
			return playTurns(cmd.Context(), ctrl, out, lines, renderConnectFour, parseIndex(connectfour.Cols))
		case puzzle.GameID:
			ctrl := game.NewController[puzzle.State, int](puzzle.Rules{}, reporter, nil, nil)
			return playTurns(cmd.Context(), ctrl, out, lines, renderPuzzle, parseIndex(puzzle.Cells))
		case snake.GameID:
			ctrl := game.NewController[snake.State, snake.Point](snake.Rules{}, reporter, nil, nil)
			return playSnake(cmd.Context(), ctrl, out, lines)
		default:
			return fmt.Errorf("unknown game %q", args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
}

// readLines feeds trimmed input lines into a channel closed at EOF.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(strings.ToLower(scanner.Text())):
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func parseIndex(n int) func(string) (int, error) {
	return func(s string) (int, error) {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > n {
			return 0, fmt.Errorf("enter a number from 1 to %d", n)
		}
		return v - 1, nil
	}
}

func printOutcome[S, I any](out io.Writer, ctrl *game.Controller[S, I]) {
	outcome, _ := ctrl.Outcome()
	fmt.Fprintf(out, "Game over: %s\n", outcome)
	if err := ctrl.ReportErr(); err != nil {
		fmt.Fprintf(out, "Could not record the result: %v\n", err)
	}
	fmt.Fprintln(out, "r to play again, q to quit.")
}

func playTurns[S any](
	ctx context.Context,
	ctrl *game.Controller[S, int],
	out io.Writer,
	lines <-chan string,
	render func(S) string,
	parse func(string) (int, error),
) error {
	fmt.Fprint(out, render(ctrl.State()))
	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		switch line {
		case "q":
			return nil
		case "r":
			ctrl.Reset()
			fmt.Fprint(out, render(ctrl.State()))
			continue
		}

		idx, err := parse(line)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if !ctrl.Input(ctx, idx) {
			continue
		}
		fmt.Fprint(out, render(ctrl.State()))
		if ctrl.Phase() == game.PhaseTerminal {
			printOutcome(out, ctrl)
		}
	}
}

var snakeKeys = map[string]snake.Point{
	"w": snake.Up,
	"a": snake.Left,
	"s": snake.Down,
	"d": snake.Right,
}

func playSnake(ctx context.Context, ctrl *game.Controller[snake.State, snake.Point], out io.Writer, lines <-chan string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		_ = ctrl.Run(ctx)
	}()

	fmt.Fprint(out, renderSnake(ctrl.State()))
	fmt.Fprintln(out, "Press w/a/s/d + Enter to start.")

	frame := time.NewTicker(snake.MinSpeed)
	defer frame.Stop()
	var last snake.State
	shown := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch line {
			case "q":
				return nil
			case "r":
				ctrl.Reset()
				shown = false
			case "p":
				if !ctrl.Pause() {
					ctrl.Resume()
				}
			default:
				if dir, ok := snakeKeys[line]; ok {
					ctrl.Input(ctx, dir)
				}
			}
		case <-frame.C:
			if ctrl.Phase() != game.PhaseActive {
				if ctrl.Phase() == game.PhaseTerminal && !shown {
					fmt.Fprint(out, renderSnake(ctrl.State()))
					printOutcome(out, ctrl)
					shown = true
				}
				continue
			}
			s := ctrl.State()
			if len(s.Body) != len(last.Body) || s.Body[0] != last.Body[0] {
				fmt.Fprint(out, "\033[H\033[2J"+renderSnake(s))
				last = s
			}
		}
	}
}

func renderTicTacToe(s tictactoe.State) string {
	var b strings.Builder
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			i := row*3 + col
			if s.Board[i] == tictactoe.Empty {
				fmt.Fprintf(&b, " %d ", i+1)
			} else {
				fmt.Fprintf(&b, " %s ", s.Board[i])
			}
			if col < 2 {
				b.WriteString("|")
			}
		}
		b.WriteString("\n")
		if row < 2 {
			b.WriteString("---+---+---\n")
		}
	}
	if s.Winner == tictactoe.Empty && !s.Full() {
		fmt.Fprintf(&b, "%s to move\n", s.Turn)
	}
	return b.String()
}

func renderConnectFour(s connectfour.State) string {
	var b strings.Builder
	for r := 0; r < connectfour.Rows; r++ {
		for c := 0; c < connectfour.Cols; c++ {
			fmt.Fprintf(&b, " %s", s.Board[r][c])
		}
		b.WriteString("\n")
	}
	for c := 1; c <= connectfour.Cols; c++ {
		fmt.Fprintf(&b, " %d", c)
	}
	b.WriteString("\n")
	if s.Winner == connectfour.None {
		name := "Red"
		if s.Turn == connectfour.Yellow {
			name = "Yellow"
		}
		fmt.Fprintf(&b, "%s to drop\n", name)
	}
	return b.String()
}

func renderPuzzle(s puzzle.State) string {
	var b strings.Builder
	for i, t := range s.Tiles {
		if t == puzzle.Blank {
			b.WriteString("  .")
		} else {
			fmt.Fprintf(&b, " %2d", t+1)
		}
		if (i+1)%puzzle.Size == 0 {
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "moves: %d\n", s.Moves)
	return b.String()
}

func renderSnake(s snake.State) string {
	var b strings.Builder
	b.WriteString("+" + strings.Repeat("-", snake.GridSize) + "+\n")
	for y := 0; y < snake.GridSize; y++ {
		b.WriteString("|")
		for x := 0; x < snake.GridSize; x++ {
			p := snake.Point{X: x, Y: y}
			switch {
			case len(s.Body) > 0 && p == s.Body[0]:
				b.WriteString("@")
			case s.Occupies(p):
				b.WriteString("o")
			case p == s.Food:
				b.WriteString("*")
			default:
				b.WriteString(" ")
			}
		}
		b.WriteString("|\n")
	}
	b.WriteString("+" + strings.Repeat("-", snake.GridSize) + "+\n")
	fmt.Fprintf(&b, "score: %d\n", s.Score)
	return b.String()
}
