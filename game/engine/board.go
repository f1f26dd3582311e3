package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Source supplies level text by 1-based level number.
// Implementations return an error wrapping ErrLevelNotFound for missing levels.
type Source interface {
	Level(index int) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(index int) (string, error)

func (f SourceFunc) Level(index int) (string, error) {
	return f(index)
}

// Board is the mutable grid of a loaded level plus the player position.
// The zero Board is empty and rejects every move.
type Board struct {
	width   int
	height  int
	cells   [][]Square // [row][column]
	inside  [][]bool
	playerX int
	playerY int
}

// NewBoard parses level text into a new board.
func NewBoard(text string) (*Board, error) {
	b := &Board{}
	if err := b.Load(text); err != nil {
		return nil, err
	}
	return b, nil
}

// Load replaces the board with the parsed level text. On error the board is unchanged.
func (b *Board) Load(text string) error {
	return b.load(text, 0)
}

// Read loads level number level from src. On error the board is unchanged.
func (b *Board) Read(src Source, level int) error {
	if src == nil {
		return &LoadError{Level: level, Err: ErrLevelNotFound}
	}
	text, err := src.Level(level)
	if err != nil {
		if !errors.Is(err, ErrLevelNotFound) {
			err = fmt.Errorf("%w: %v", ErrLevelNotFound, err)
		}
		return &LoadError{Level: level, Err: err}
	}
	return b.load(text, level)
}

func (b *Board) load(text string, level int) error {
	rows := splitRows(text)
	if len(rows) == 0 {
		return &LoadError{Level: level, Err: ErrEmptyLevel}
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	cells := make([][]Square, len(rows))
	starts := 0
	px, py := 0, 0
	for y, row := range rows {
		cells[y] = make([]Square, width)
		for x := 0; x < len(row); x++ {
			sq := Decode(row[x])
			if sq.IsStartPoint() {
				starts++
				px, py = x, y
				// The start flag only seeds the player position.
				sq &^= squareStart
			}
			cells[y][x] = sq
		}
	}

	switch {
	case starts == 0:
		return &LoadError{Level: level, Err: fmt.Errorf("%w: no start point", ErrMalformedLevel)}
	case starts > 1:
		return &LoadError{Level: level, Err: fmt.Errorf("%w: %d start points", ErrMalformedLevel, starts)}
	}

	b.width = width
	b.height = len(rows)
	b.cells = cells
	b.playerX = px
	b.playerY = py
	b.inside = computeInside(cells, px, py)
	return nil
}

// splitRows splits level text into rows, dropping carriage returns and trailing blank rows.
func splitRows(text string) []string {
	if text == "" {
		return nil
	}
	rows := strings.Split(text, "\n")
	for i, row := range rows {
		rows[i] = strings.TrimSuffix(row, "\r")
	}
	for len(rows) > 0 && strings.TrimRight(rows[len(rows)-1], " \t") == "" {
		rows = rows[:len(rows)-1]
	}
	return rows
}

// Width returns the number of columns.
func (b *Board) Width() int { return b.width }

// Height returns the number of rows.
func (b *Board) Height() int { return b.height }

// PlayerX returns the player's column.
func (b *Board) PlayerX() int { return b.playerX }

// PlayerY returns the player's row.
func (b *Board) PlayerY() int { return b.playerY }

// Player returns the player position.
func (b *Board) Player() Position {
	return Position{X: b.playerX, Y: b.playerY}
}

// Square returns the cell at (column, row); ok is false outside the board.
func (b *Board) Square(column, row int) (sq Square, ok bool) {
	if !b.inBounds(column, row) {
		return Floor, false
	}
	return b.cells[row][column], true
}

// IsInside reports whether the cell belongs to the playable area: floor reachable
// from the player's start without crossing walls, and the walls around it.
func (b *Board) IsInside(column, row int) bool {
	if !b.inBounds(column, row) {
		return false
	}
	return b.inside[row][column]
}

func (b *Board) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.width && y < b.height
}

// walkable reports whether the cell is on the board and not a wall.
func (b *Board) walkable(x, y int) bool {
	return b.inBounds(x, y) && !b.cells[y][x].IsWall()
}

// CanMove reports whether Move(m) would be accepted, without changing the board.
func (b *Board) CanMove(m Move) bool {
	if !m.Valid() {
		return false
	}
	dx, dy := m.Delta()
	tx, ty := b.playerX+dx, b.playerY+dy
	if !b.walkable(tx, ty) {
		return false
	}
	if !b.cells[ty][tx].HasBox() {
		return true
	}
	bx, by := tx+dx, ty+dy
	return b.walkable(bx, by) && !b.cells[by][bx].HasBox()
}

// PossibleMoves lists the directions that would currently be accepted.
func (b *Board) PossibleMoves() []Move {
	var moves []Move
	for _, m := range Moves {
		if b.CanMove(m) {
			moves = append(moves, m)
		}
	}
	return moves
}

// Move moves the player one step, pushing a box if there is one in the way.
// It returns false and leaves the board untouched when the move is illegal.
func (b *Board) Move(m Move) bool {
	_, ok := b.Apply(m)
	return ok
}

// Apply is Move that also reports whether a box was pushed.
func (b *Board) Apply(m Move) (Step, bool) {
	if !b.CanMove(m) {
		return Step{}, false
	}
	dx, dy := m.Delta()
	tx, ty := b.playerX+dx, b.playerY+dy
	pushed := b.cells[ty][tx].HasBox()
	if pushed {
		b.cells[ty][tx].SetBox(false)
		b.cells[ty+dy][tx+dx].SetBox(true)
	}
	b.playerX, b.playerY = tx, ty
	return Step{Move: m, Pushed: pushed}, true
}

// UndoMove reverts a step previously returned by Apply. Steps must be undone in
// reverse order; the board does not check that s was the last accepted step.
// It returns false and leaves the board untouched when the player cannot step
// back or the pushed box is not where s left it.
func (b *Board) UndoMove(s Step) bool {
	if !s.Move.Valid() {
		return false
	}
	dx, dy := s.Move.Opposite().Delta()
	px, py := b.playerX, b.playerY
	prevX, prevY := px+dx, py+dy
	if !b.walkable(prevX, prevY) {
		return false
	}
	if s.Pushed {
		bx, by := px-dx, py-dy
		if !b.inBounds(bx, by) || !b.cells[by][bx].HasBox() || b.cells[py][px].HasBox() {
			return false
		}
		b.cells[by][bx].SetBox(false)
		b.cells[py][px].SetBox(true)
	}
	b.playerX, b.playerY = prevX, prevY
	return true
}

// IsSolved reports whether every target holds a box.
func (b *Board) IsSolved() bool {
	for _, row := range b.cells {
		for _, sq := range row {
			if sq.IsTarget() && !sq.HasBox() {
				return false
			}
		}
	}
	return true
}

// Boxes counts the boxes on the board.
func (b *Board) Boxes() int {
	return b.count(func(sq Square) bool { return sq.HasBox() })
}

// Targets counts the target squares.
func (b *Board) Targets() int {
	return b.count(func(sq Square) bool { return sq.IsTarget() })
}

// BoxesOnTarget counts boxes standing on targets.
func (b *Board) BoxesOnTarget() int {
	return b.count(func(sq Square) bool { return sq.HasBox() && sq.IsTarget() })
}

func (b *Board) count(match func(Square) bool) int {
	n := 0
	for _, row := range b.cells {
		for _, sq := range row {
			if match(sq) {
				n++
			}
		}
	}
	return n
}

// Rows renders the board as level text rows, with the player drawn as '@' or '+'.
func (b *Board) Rows() []string {
	rows := make([]string, b.height)
	line := make([]byte, b.width)
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			sq := b.cells[y][x]
			if x == b.playerX && y == b.playerY {
				sq |= squareStart
			}
			line[x] = sq.Encode()
		}
		rows[y] = string(line)
	}
	return rows
}

// String renders the board as level text. Loading the result reproduces the board.
func (b *Board) String() string {
	return strings.Join(b.Rows(), "\n")
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	c := &Board{
		width:   b.width,
		height:  b.height,
		playerX: b.playerX,
		playerY: b.playerY,
		cells:   make([][]Square, len(b.cells)),
		inside:  make([][]bool, len(b.inside)),
	}
	for y := range b.cells {
		c.cells[y] = append([]Square(nil), b.cells[y]...)
	}
	for y := range b.inside {
		c.inside[y] = append([]bool(nil), b.inside[y]...)
	}
	return c
}

// Equal reports whether both boards have the same cells and player position.
func (b *Board) Equal(other *Board) bool {
	if other == nil || b.width != other.width || b.height != other.height {
		return false
	}
	if b.playerX != other.playerX || b.playerY != other.playerY {
		return false
	}
	for y := range b.cells {
		for x := range b.cells[y] {
			if b.cells[y][x] != other.cells[y][x] {
				return false
			}
		}
	}
	return true
}
