package engine

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrLevelSolved is reported when a move is attempted on a finished level.
	ErrLevelSolved = errors.New("level already solved")
	// ErrIllegalMove is returned when a replayed move cannot be applied.
	ErrIllegalMove = errors.New("illegal move")
)

// Game drives one play session: a board, its undo history and the current level number.
// A Game is not safe for concurrent use.
type Game struct {
	board       *Board
	history     History
	source      Source
	level       int
	maxLevel    int
	initial     string
	status      Status
	autoAdvance bool
	message     string
	lastSolved  *SolveInfo
	solved      map[int]bool
}

// Option configures a Game.
type Option func(*Game)

// WithAutoAdvance makes the game load the next level as soon as the current one is solved.
func WithAutoAdvance(enabled bool) Option {
	return func(g *Game) { g.autoAdvance = enabled }
}

// WithMaxLevel sets the highest level number, used by NextLevel and snapshots.
func WithMaxLevel(n int) Option {
	return func(g *Game) { g.maxLevel = n }
}

// NewGame creates a game and loads the given level from src.
func NewGame(src Source, level int, opts ...Option) (*Game, error) {
	g := &Game{
		board:  &Board{},
		source: src,
		solved: make(map[int]bool),
	}
	for _, opt := range opts {
		opt(g)
	}
	if err := g.SetLevel(level); err != nil {
		return nil, err
	}
	return g, nil
}

// RestoreGame rebuilds a game from persisted data: the level text as it was loaded
// and the LURD history played on it.
func RestoreGame(src Source, level int, initial, lurd string, opts ...Option) (*Game, error) {
	g := &Game{
		board:  &Board{},
		source: src,
		solved: make(map[int]bool),
	}
	for _, opt := range opts {
		opt(g)
	}
	if err := g.Restore(level, initial, lurd); err != nil {
		return nil, err
	}
	return g, nil
}

// Board returns the live board. Callers must not mutate it directly.
func (g *Game) Board() *Board { return g.board }

// Level returns the current level number. Zero means a level loaded from raw text.
func (g *Game) Level() int { return g.level }

// MaxLevel returns the configured highest level, or zero if unknown.
func (g *Game) MaxLevel() int { return g.maxLevel }

// AutoAdvance reports whether solving a level loads the next one.
func (g *Game) AutoAdvance() bool { return g.autoAdvance }

// Status returns the session phase.
func (g *Game) Status() Status { return g.status }

// History returns a copy of the recorded steps.
func (g *Game) History() []Step { return g.history.Steps() }

// Solution returns the history in LURD notation.
func (g *Game) Solution() string { return g.history.String() }

// Moves returns the number of recorded steps.
func (g *Game) Moves() int { return g.history.Len() }

// Pushes returns the number of recorded pushes.
func (g *Game) Pushes() int { return g.history.Pushes() }

// CanUndo reports whether there is a step to undo.
func (g *Game) CanUndo() bool { return !g.history.IsEmpty() }

// InitialText returns the level text as it was when the level was loaded.
func (g *Game) InitialText() string { return g.initial }

// LastSolved returns the most recently solved level, if any.
func (g *Game) LastSolved() *SolveInfo { return g.lastSolved }

// Message returns a human readable description of the last operation.
func (g *Game) Message() string { return g.message }

// SetLevel loads level n. On failure the current level stays playable and unchanged.
func (g *Game) SetLevel(n int) error {
	if err := g.board.Read(g.source, n); err != nil {
		return err
	}
	g.reset(n)
	g.message = fmt.Sprintf("Level %d", n)
	return nil
}

// LoadText loads a level from raw text, outside of the level source.
func (g *Game) LoadText(text string) error {
	if err := g.board.Load(text); err != nil {
		return err
	}
	g.reset(0)
	g.message = "Custom level"
	return nil
}

func (g *Game) reset(level int) {
	g.level = level
	g.initial = g.board.String()
	g.history.Clear()
	g.status = StatusLoaded
}

// Restart reloads the current level and clears the history.
func (g *Game) Restart() error {
	if g.level == 0 {
		return g.LoadText(g.initial)
	}
	return g.SetLevel(g.level)
}

// NextLevel loads the level after the current one.
func (g *Game) NextLevel() error {
	if g.maxLevel > 0 && g.level >= g.maxLevel {
		return &LoadError{Level: g.level + 1, Err: ErrLevelNotFound}
	}
	return g.SetLevel(g.level + 1)
}

// PrevLevel loads the level before the current one.
func (g *Game) PrevLevel() error {
	if g.level <= 1 {
		return &LoadError{Level: g.level - 1, Err: ErrLevelNotFound}
	}
	return g.SetLevel(g.level - 1)
}

// Move applies m and records it. It returns false when the move is illegal or the
// level is already solved.
func (g *Game) Move(m Move) (Step, bool) {
	if g.status == StatusSolved {
		g.message = ErrLevelSolved.Error()
		return Step{}, false
	}
	step, ok := g.board.Apply(m)
	if !ok {
		g.message = fmt.Sprintf("Can't move %s", m)
		return Step{}, false
	}
	g.record(step)
	if g.status == StatusSolved && g.autoAdvance {
		solvedMsg := g.message
		if err := g.NextLevel(); err != nil {
			g.message = solvedMsg + ". No more levels"
		} else {
			g.message = fmt.Sprintf("%s. Now playing level %d", solvedMsg, g.level)
		}
	}
	return step, true
}

func (g *Game) record(step Step) {
	g.history.Record(step)
	if step.Pushed {
		g.message = fmt.Sprintf("Pushed box %s", step.Move)
	} else {
		g.message = fmt.Sprintf("Moved %s", step.Move)
	}
	g.updateStatus()
	if g.status == StatusSolved {
		g.message = fmt.Sprintf("Level %d solved in %d moves and %d pushes", g.level, g.lastSolved.Moves, g.lastSolved.Pushes)
	}
}

// Undo reverts the most recent step. Undoing the last step returns the game to the
// loaded state.
func (g *Game) Undo() (Step, bool) {
	step, ok := g.history.Last()
	if !ok {
		g.message = "Nothing to undo"
		return Step{}, false
	}
	if !g.board.UndoMove(step) {
		g.message = fmt.Sprintf("Can't undo %s", step.Move)
		return Step{}, false
	}
	g.history.PopLast()
	if g.history.IsEmpty() {
		g.status = StatusLoaded
	} else {
		g.status = StatusInProgress
	}
	g.message = fmt.Sprintf("Undid %s", step.Move)
	return step, true
}

// Replay applies a LURD sequence to the current board. If any step is illegal, or
// follows the step that solved the level, the game is left as it was. Letter case
// is ignored; pushes are recomputed.
func (g *Game) Replay(lurd string) error {
	if g.status == StatusSolved {
		return ErrLevelSolved
	}
	steps, err := ParseHistory(lurd)
	if err != nil {
		return err
	}
	board := g.board.Clone()
	history := History{steps: g.history.Steps()}
	for i, s := range steps {
		if !history.IsEmpty() && board.IsSolved() {
			return fmt.Errorf("replay step %d (%s): %w", i+1, s.Move, ErrLevelSolved)
		}
		applied, ok := board.Apply(s.Move)
		if !ok {
			return fmt.Errorf("replay step %d (%s): %w", i+1, s.Move, ErrIllegalMove)
		}
		history.Record(applied)
	}
	if len(steps) == 0 {
		return nil
	}
	g.board = board
	g.history = history
	g.updateStatus()
	g.message = fmt.Sprintf("Replayed %d moves", len(steps))
	return nil
}

// Restore loads initial as the given level and replays lurd on top of it.
// It is all-or-nothing: on error the game is unchanged.
func (g *Game) Restore(level int, initial, lurd string) error {
	board, err := NewBoard(initial)
	if err != nil {
		return err
	}
	restored := &Game{board: board, level: level, status: StatusLoaded, solved: make(map[int]bool)}
	if err := restored.Replay(lurd); err != nil {
		return err
	}

	g.board = restored.board
	g.level = level
	g.initial = initial
	g.history = restored.history
	g.updateStatus()
	g.message = fmt.Sprintf("Restored level %d", level)
	return nil
}

func (g *Game) updateStatus() {
	switch {
	case g.history.IsEmpty():
		g.status = StatusLoaded
	case g.board.IsSolved():
		g.status = StatusSolved
		g.solved[g.level] = true
		g.lastSolved = &SolveInfo{
			Level:    g.level,
			Moves:    g.history.Len(),
			Pushes:   g.history.Pushes(),
			Solution: g.history.String(),
		}
	default:
		g.status = StatusInProgress
	}
}

// SolvedLevels returns the level numbers solved during this game, ascending.
func (g *Game) SolvedLevels() []int {
	levels := make([]int, 0, len(g.solved))
	for n := range g.solved {
		levels = append(levels, n)
	}
	sort.Ints(levels)
	return levels
}

// Snapshot returns a transport-friendly copy of the session state.
func (g *Game) Snapshot() *GameState {
	b := g.board
	possible := b.PossibleMoves()
	names := make([]string, 0, len(possible))
	if g.status != StatusSolved {
		for _, m := range possible {
			names = append(names, m.String())
		}
	}
	return &GameState{
		Level:         g.level,
		MaxLevel:      g.maxLevel,
		Width:         b.Width(),
		Height:        b.Height(),
		Rows:          b.Rows(),
		PlayerPos:     b.Player(),
		Status:        g.status,
		Solved:        b.IsSolved(),
		Boxes:         b.Boxes(),
		Targets:       b.Targets(),
		BoxesOnTarget: b.BoxesOnTarget(),
		Moves:         g.history.Len(),
		Pushes:        g.history.Pushes(),
		CanUndo:       !g.history.IsEmpty(),
		History:       g.history.String(),
		PossibleMoves: names,
		SolvedLevels:  g.SolvedLevels(),
		LastSolved:    g.lastSolved,
		Message:       g.message,
	}
}

// SetSolvedLevels replaces the set of solved level numbers, e.g. after restoring a session.
func (g *Game) SetSolvedLevels(levels []int) {
	g.solved = make(map[int]bool, len(levels))
	for _, n := range levels {
		g.solved[n] = true
	}
}
