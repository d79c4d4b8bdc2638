package catalog

import "github.com/gamehub/apiserver/types"

// TagAll is the pseudo tag that lists every game.
const TagAll = "All"

// Tags are the category filters offered by the portal, in display order.
var Tags = []string{TagAll, "2 Player", "Puzzle", "Action", "Car", "Shooting", "Sports", "Memory"}

var games = []types.Game{
	// Playable.
	{ID: "tic-tac-toe", Title: "Tic Tac Toe", Path: "/game/tic-tac-toe", Image: "/images/tic-tac-toe.png", Tags: []string{"2 Player", "Puzzle"}, Status: types.GameActive},
	{ID: "sps", Title: "Stone Paper Scissors", Path: "/game/stone-paper-scissors", Image: "/images/sps.png", Tags: []string{"2 Player", "Action"}, Status: types.GameActive},
	{ID: "memory", Title: "Memory Game", Path: "/game/memory-game", Image: "/images/memory-game.png", Tags: []string{"Puzzle"}, Status: types.GameActive},
	{ID: "whac-a-mole", Title: "Whac a Mole", Path: "/game/whac-a-mole", Image: "/images/whac-a-mole.png", Tags: []string{"Action"}, Status: types.GameActive},
	{ID: "snake", Title: "Snake", Path: "/game/snake", Image: "/images/snake.jpg", Tags: []string{"Action"}, Status: types.GameActive},
	{ID: "puzzle", Title: "Sliding Puzzle", Path: "/game/puzzle", Image: "/images/puzzle.png", Tags: []string{"Puzzle"}, Status: types.GameActive},
	{ID: "wordle", Title: "Word Game", Path: "/game/wordle", Image: "/images/wordle.jpg", Tags: []string{"Puzzle"}, Status: types.GameActive},
	{ID: "connect-four", Title: "Connect Four", Path: "/game/connect-four", Image: "/images/connect-four.png", Tags: []string{"2 Player", "Puzzle"}, Status: types.GameActive},
	{ID: "2048", Title: "2048", Path: "/game/2048", Image: "/images/2048.png", Tags: []string{"Puzzle"}, Status: types.GameActive},
	{ID: "minesweeper", Title: "Minesweeper", Path: "/game/minesweeper", Image: "/images/minesweeper.png", Tags: []string{"Puzzle"}, Status: types.GameActive},
	{ID: "bubble-shooter", Title: "Bubble Shooter", Path: "/game/bubble-shooter", Image: "/images/bubble-shooter.png", Tags: []string{"Shooting", "Action"}, Status: types.GameActive},
	{ID: "sudoku", Title: "Sudoku", Path: "/game/sudoku", Image: "/images/sudoku.png", Tags: []string{"Puzzle"}, Status: types.GameActive},
	{ID: "mahjong", Title: "Mahjong", Path: "/game/mahjong", Image: "/images/mahjong.png", Tags: []string{"Puzzle"}, Status: types.GameActive},
	{ID: "solitaire", Title: "Solitaire", Path: "/game/solitaire", Image: "/images/solitaire.png", Tags: []string{"Puzzle"}, Status: types.GameActive},
	{ID: "pong", Title: "Pong", Path: "/game/pong", Image: "/images/pong.png", Tags: []string{"2 Player", "Sports"}, Status: types.GameActive},
	{ID: "flappy-bird", Title: "Flappy Bird", Path: "/game/flappy-bird", Image: "/images/flappy-bird.png", Tags: []string{"Action"}, Status: types.GameActive},
	{ID: "tetris", Title: "Tetris", Path: "/game/tetris", Image: "/images/tetris.png", Tags: []string{"Puzzle"}, Status: types.GameActive},
	{ID: "pac-man", Title: "Pac-Man", Path: "/game/pac-man", Image: "/images/pac-man.png", Tags: []string{"Action"}, Status: types.GameActive},
	{ID: "chess", Title: "Chess", Path: "/game/chess", Image: "/images/chess.png", Tags: []string{"2 Player", "Puzzle"}, Status: types.GameActive},
	{ID: "checkers", Title: "Checkers", Path: "/game/checkers", Image: "/images/checkers.png", Tags: []string{"2 Player", "Puzzle"}, Status: types.GameActive},
	{ID: "trivia", Title: "Trivia", Path: "/game/trivia", Image: "/images/trivia.png", Tags: []string{"Puzzle"}, Status: types.GameActive},
	{ID: "dino-run", Title: "Dino Run", Path: "/game/dino-run", Image: "/images/dino-run.png", Tags: []string{"Action"}, Status: types.GameActive},
	{ID: "cookie-clicker", Title: "Cookie Clicker", Path: "/game/cookie-clicker", Image: "/images/cookie-clicker.png", Tags: []string{"Clicker"}, Status: types.GameActive},
	{ID: "breakout", Title: "Breakout", Path: "/game/breakout", Image: "/images/breakout.png", Tags: []string{"Action"}, Status: types.GameActive},

	// Coming soon.
	{ID: "uno", Title: "Uno", Path: "/game/uno", Image: "/images/uno.png", Tags: []string{"2 Player"}, Status: types.GameComingSoon},
	{ID: "ludo", Title: "Ludo", Path: "/game/ludo", Image: "/images/ludo.png", Tags: []string{"2 Player"}, Status: types.GameComingSoon},
	{ID: "car-racing", Title: "Car Racing", Path: "/game/car-racing", Image: "/images/car-racing.png", Tags: []string{"Car", "Action"}, Status: types.GameComingSoon},
	{ID: "moto-x3m", Title: "Moto X3M", Path: "/game/moto-x3m", Image: "/images/moto-x3m.png", Tags: []string{"Car", "Action"}, Status: types.GameComingSoon},
	{ID: "subway-surfers", Title: "Subway Surfers", Path: "/game/subway-surfers", Image: "/images/subway-surfers.png", Tags: []string{"Action"}, Status: types.GameComingSoon},
	{ID: "temple-run", Title: "Temple Run", Path: "/game/temple-run", Image: "/images/temple-run.png", Tags: []string{"Action"}, Status: types.GameComingSoon},
	{ID: "hanoi", Title: "Tower of Hanoi", Path: "/game/hanoi", Image: "/images/hanoi.png", Tags: []string{"Puzzle"}, Status: types.GameComingSoon},
	{ID: "mastermind", Title: "Mastermind", Path: "/game/mastermind", Image: "/images/mastermind.png", Tags: []string{"Puzzle"}, Status: types.GameComingSoon},
	{ID: "hangman", Title: "Hangman", Path: "/game/hangman", Image: "/images/hangman.png", Tags: []string{"Puzzle"}, Status: types.GameComingSoon},
	{ID: "crossword", Title: "Mini Crossword", Path: "/game/crossword", Image: "/images/crossword.png", Tags: []string{"Puzzle"}, Status: types.GameComingSoon},
	{ID: "simon", Title: "Simon Says", Path: "/game/simon", Image: "/images/simon.png", Tags: []string{"Memory", "Action"}, Status: types.GameComingSoon},
	{ID: "guess-num", Title: "Guess The Number", Path: "/game/guess-num", Image: "/images/guess-num.png", Tags: []string{"Puzzle"}, Status: types.GameComingSoon},
	{ID: "calculator", Title: "Math Calculator", Path: "/game/calculator", Image: "/images/calculator.png", Tags: []string{"Puzzle"}, Status: types.GameComingSoon},
	{ID: "color-match", Title: "Color Match", Path: "/game/color-match", Image: "/images/color-match.png", Tags: []string{"Puzzle"}, Status: types.GameComingSoon},
	{ID: "word-search", Title: "Word Search", Path: "/game/word-search", Image: "/images/word-search.png", Tags: []string{"Puzzle"}, Status: types.GameComingSoon},
	{ID: "typing-game", Title: "Typing Test", Path: "/game/typing-game", Image: "/images/typing.png", Tags: []string{"Action"}, Status: types.GameComingSoon},
	{ID: "tic-8x8", Title: "Big Tic Tac Toe", Path: "/game/tic-8x8", Image: "/images/tic-8x8.png", Tags: []string{"2 Player", "Puzzle"}, Status: types.GameComingSoon},
	{ID: "darts", Title: "Darts", Path: "/game/darts", Image: "/images/darts.png", Tags: []string{"Sports"}, Status: types.GameComingSoon},
	{ID: "bowling", Title: "Bowling", Path: "/game/bowling", Image: "/images/bowling.png", Tags: []string{"Sports"}, Status: types.GameComingSoon},
	{ID: "mini-golf", Title: "Mini Golf", Path: "/game/mini-golf", Image: "/images/mini-golf.png", Tags: []string{"Sports"}, Status: types.GameComingSoon},
	{ID: "crush", Title: "Candy Crush Clone", Path: "/game/crush", Image: "/images/crush.png", Tags: []string{"Puzzle"}, Status: types.GameComingSoon},
	{ID: "bejeweled", Title: "Bejeweled Clone", Path: "/game/bejeweled", Image: "/images/bejeweled.png", Tags: []string{"Puzzle"}, Status: types.GameComingSoon},
	{ID: "pinball", Title: "Pinball", Path: "/game/pinball", Image: "/images/pinball.png", Tags: []string{"Action"}, Status: types.GameComingSoon},
	{ID: "platformer", Title: "Mini Platformer", Path: "/game/platformer", Image: "/images/platformer.png", Tags: []string{"Action"}, Status: types.GameComingSoon},
}
