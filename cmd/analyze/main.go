// Command analyze prints quick, human-readable heuristics about level files in
// a levels directory. It summarizes dimensions, box and target counts, the
// floor the player can reach, and highlights boxes that can never be moved
// onto a target because they sit in a dead corner.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

// Analysis holds the heuristics computed for one level.
type Analysis struct {
	Width, Height int
	Boxes         int
	Targets       int
	BoxesOnTarget int
	Reachable     int // floor squares the player can walk to, ignoring boxes
	DeadSquares   []engine.Position
	StuckBoxes    []engine.Position
	PushBound     int // sum of each box's distance to its nearest target
	Possible      []string
}

func analyzeLevel(text string) (*Analysis, error) {
	board, err := engine.NewBoard(text)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		Width:         board.Width(),
		Height:        board.Height(),
		Boxes:         board.Boxes(),
		Targets:       board.Targets(),
		BoxesOnTarget: board.BoxesOnTarget(),
	}
	for _, m := range board.PossibleMoves() {
		a.Possible = append(a.Possible, m.String())
	}

	var boxes, targets []engine.Position
	for _, p := range walkable(board) {
		a.Reachable++
		sq, _ := board.Square(p.X, p.Y)
		if sq.IsTarget() {
			targets = append(targets, p)
		}
		if sq.HasBox() {
			boxes = append(boxes, p)
		}
		if !sq.IsTarget() && isCorner(board, p) {
			a.DeadSquares = append(a.DeadSquares, p)
			if sq.HasBox() {
				a.StuckBoxes = append(a.StuckBoxes, p)
			}
		}
	}

	for _, box := range boxes {
		best := -1
		for _, target := range targets {
			if d := engine.ManhattanDistance(box, target); best < 0 || d < best {
				best = d
			}
		}
		if best > 0 {
			a.PushBound += best
		}
	}
	return a, nil
}

// walkable returns the squares connected to the player start, boxes included.
func walkable(board *engine.Board) []engine.Position {
	start := board.Player()
	seen := map[engine.Position]bool{start: true}
	queue := []engine.Position{start}
	var out []engine.Position
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		out = append(out, p)
		for _, d := range []engine.Position{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}} {
			n := engine.Position{X: p.X + d.X, Y: p.Y + d.Y}
			if seen[n] || isWall(board, n) {
				continue
			}
			seen[n] = true
			queue = append(queue, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// isWall treats squares off the board as wall.
func isWall(board *engine.Board, p engine.Position) bool {
	sq, ok := board.Square(p.X, p.Y)
	return !ok || sq.IsWall()
}

// isCorner reports whether p has a wall on one vertical and one horizontal side.
func isCorner(board *engine.Board, p engine.Position) bool {
	up := isWall(board, engine.Position{X: p.X, Y: p.Y - 1})
	down := isWall(board, engine.Position{X: p.X, Y: p.Y + 1})
	left := isWall(board, engine.Position{X: p.X - 1, Y: p.Y})
	right := isWall(board, engine.Position{X: p.X + 1, Y: p.Y})
	return (up || down) && (left || right)
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Size: %d x %d\n", a.Width, a.Height)
	fmt.Fprintf(w, "Boxes: %d, Targets: %d, On target: %d\n", a.Boxes, a.Targets, a.BoxesOnTarget)
	fmt.Fprintf(w, "Reachable squares: %d\n", a.Reachable)
	fmt.Fprintf(w, "Dead corners: %d\n", len(a.DeadSquares))
	fmt.Fprintf(w, "Minimum pushes (estimate): %d\n", a.PushBound)
	if len(a.Possible) > 0 {
		fmt.Fprintf(w, "Opening moves: %s\n", strings.Join(a.Possible, ", "))
	} else {
		fmt.Fprintf(w, "⚠️  WARNING: the player cannot move at the start\n")
	}

	if a.Boxes < a.Targets {
		fmt.Fprintf(w, "⚠️  CRITICAL: %d targets but only %d boxes\n", a.Targets, a.Boxes)
	}
	if len(a.StuckBoxes) > 0 {
		fmt.Fprintf(w, "⚠️  CRITICAL: %d boxes start in a dead corner and can never be moved\n", len(a.StuckBoxes))
		for i, p := range a.StuckBoxes {
			if i < 5 {
				fmt.Fprintf(w, "   Stuck box: (%d, %d)\n", p.X, p.Y)
			}
		}
		if len(a.StuckBoxes) > 5 {
			fmt.Fprintf(w, "   ... and %d more\n", len(a.StuckBoxes)-5)
		}
	} else {
		fmt.Fprintf(w, "✅ No box starts in a dead corner\n")
	}
}

// levelPaths lists levelN.txt files in dir by level number.
func levelPaths(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "level*.txt"))
	if err != nil {
		return nil, err
	}
	number := func(path string) int {
		n, _ := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), "level"), ".txt"))
		return n
	}
	sort.Slice(matches, func(i, j int) bool { return number(matches[i]) < number(matches[j]) })
	return matches, nil
}

func main() {
	dir := "game/levels/default"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	paths, err := levelPaths(dir)
	if err != nil {
		fmt.Printf("Error finding level files: %v\n", err)
		os.Exit(1)
	}

	for _, path := range paths {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(path))
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("Error reading file: %v\n", err)
			continue
		}
		a, err := analyzeLevel(string(data))
		if err != nil {
			fmt.Printf("Error loading level: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, a)
	}
}
