package service

import (
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

type moveOutcome struct {
	step    *StepInfo
	attempt *AttemptInfo
	events  []GameEvent
	solved  *engine.SolveInfo
}

// apply plays m on game and describes what happened. When the game advances to the
// next level the board is replaced, so everything about the move is read up front.
func (s *gameServiceImpl) apply(game *engine.Game, m engine.Move, idx int) moveOutcome {
	board := game.Board()
	from := board.Player()
	dx, dy := m.Delta()
	to := engine.Position{X: from.X + dx, Y: from.Y + dy}
	boxTo := engine.Position{X: to.X + dx, Y: to.Y + dy}
	boxToSquare, _ := board.Square(boxTo.X, boxTo.Y)
	level := game.Level()
	lastSolved := game.LastSolved()

	if game.Status() == engine.StatusSolved {
		attempt := blockedAttempt(board, m)
		attempt.Reason = StopAlreadySolved
		return moveOutcome{attempt: attempt}
	}

	st, ok := game.Move(m)
	if !ok {
		return moveOutcome{attempt: blockedAttempt(board, m)}
	}

	now := time.Now()
	step := &StepInfo{
		Idx:     idx,
		Dir:     m.String(),
		Letter:  string(st.Letter()),
		From:    from,
		To:      to,
		Pushed:  st.Pushed,
		Success: true,
	}
	var events []GameEvent
	if st.Pushed {
		step.BoxTo = &boxTo
		step.OnGoal = boxToSquare.IsTarget()
		events = append(events, GameEvent{
			Type:      "push",
			Message:   fmt.Sprintf("Pushed box %s to (%d,%d)", m, boxTo.X, boxTo.Y),
			Timestamp: now,
			Position:  to,
		})
		if step.OnGoal {
			events = append(events, GameEvent{
				Type:      "box_on_target",
				Message:   fmt.Sprintf("Box placed on target at (%d,%d)", boxTo.X, boxTo.Y),
				Timestamp: now,
				Position:  boxTo,
			})
		}
	} else {
		events = append(events, GameEvent{
			Type:      "move",
			Message:   fmt.Sprintf("Moved %s to (%d,%d)", m, to.X, to.Y),
			Timestamp: now,
			Position:  to,
		})
	}

	var solved *engine.SolveInfo
	if ls := game.LastSolved(); ls != nil && ls != lastSolved {
		solved = ls
		step.Solved = true
		events = append(events, GameEvent{
			Type:      "solved",
			Message:   fmt.Sprintf("Level %d solved in %d moves and %d pushes", ls.Level, ls.Moves, ls.Pushes),
			Timestamp: now,
			Position:  to,
		})
	}
	if game.Level() != level {
		events = append(events, GameEvent{
			Type:      "level_loaded",
			Message:   fmt.Sprintf("Level %d loaded", game.Level()),
			Timestamp: now,
			Position:  game.Board().Player(),
		})
	}

	return moveOutcome{step: step, events: events, solved: solved}
}

// blockedAttempt describes the cell a refused move ran into.
func blockedAttempt(board *engine.Board, m engine.Move) *AttemptInfo {
	dx, dy := m.Delta()
	x, y := board.PlayerX()+dx, board.PlayerY()+dy
	sq, ok := board.Square(x, y)
	attempt := &AttemptInfo{X: x, Y: y, TileChar: sq.String()}
	switch {
	case !ok:
		attempt.TileChar = ""
		attempt.Reason = StopBlockedBoundary
	case sq.IsWall():
		attempt.Reason = StopBlockedWall
	case sq.HasBox():
		attempt.Reason = StopBlockedBox
	}
	return attempt
}
