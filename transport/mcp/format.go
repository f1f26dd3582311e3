package mcp

import (
	"fmt"
	"strings"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/service"
)

const instructions = `Sokoban - Complete Instructions

GAME OBJECTIVE:
Push every box onto a target square. The level is solved the moment all targets hold a box.

BOARD LEGEND:
  #  wall (impassable)
     floor (space)
  .  target
  $  box
  *  box on a target
  @  player
  +  player standing on a target
Coordinates are (x, y) with (0, 0) at the top-left; x grows to the right, y grows downward.

MOVEMENT RULES:
- up/down/left/right move the player one square.
- Walking into a box pushes it one square in the same direction.
- A push fails if the square behind the box is a wall or another box.
- You can never pull a box, and you can push only one box at a time.
- A rejected move changes nothing and is not recorded.

LURD NOTATION:
Moves are recorded as letters: l, u, r, d for walks and L, U, R, D for pushes.
bulk_move accepts either a list of directions or a LURD string (case is ignored on input).

STRATEGY:
- Never push a box into a corner that is not a target: it can never be moved again.
- A box against a wall can only slide along that wall; check there is a target on that line.
- Two boxes side by side against a wall are stuck.
- Plan where the player must stand before each push: the square opposite the push direction.
- Use describe_cell to check what a move will do before committing to it.
- Use undo freely; restart returns to the start of the level.

TOOLS:
- game_state shows the board, counters and the moves that are currently possible.
- move_history lists the moves of the current level.
- set_level and list_levels select other levels.

Good luck, and think before you push!`

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nLevel: %d\nCreated: %s\nLast access: %s\n\n%s",
		session.ID, session.Level,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.LastAccessedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder

	level := fmt.Sprintf("Level %d", state.Level)
	if state.MaxLevel > 0 {
		level = fmt.Sprintf("Level %d/%d", state.Level, state.MaxLevel)
	}
	fmt.Fprintf(&b, "%s | Position: (%d,%d) | Moves: %d | Pushes: %d | Boxes on target: %d/%d\n\n",
		level, state.PlayerPos.X, state.PlayerPos.Y, state.Moves, state.Pushes, state.BoxesOnTarget, state.Targets)

	for _, row := range state.Rows {
		b.WriteString(row)
		b.WriteString("\n")
	}

	switch state.Status {
	case engine.StatusSolved:
		b.WriteString("\n🎉 LEVEL SOLVED!")
		if state.LastSolved != nil {
			fmt.Fprintf(&b, " Solution: %s", state.LastSolved.Solution)
		}
		b.WriteString("\n")
	default:
		if len(state.PossibleMoves) > 0 {
			fmt.Fprintf(&b, "\nPossible moves: %s\n", strings.Join(state.PossibleMoves, ","))
		} else {
			b.WriteString("\nNo possible moves. Undo or restart.\n")
		}
	}

	if state.History != "" {
		fmt.Fprintf(&b, "History: %s\n", state.History)
	}
	if state.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", state.Message)
	}

	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Move successful\n")
	} else {
		b.WriteString("✗ Move failed\n")
	}

	if result.Step != nil {
		b.WriteString(formatStepLine(*result.Step))
	}

	if a := result.AttemptedTo; a != nil {
		fmt.Fprintf(&b, "Blocked: attempted (%d,%d) tile=%q reason=%s\n", a.X, a.Y, a.TileChar, a.Reason)
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatStepLine(s service.StepInfo) string {
	line := fmt.Sprintf("%d. %s [%s] (%d,%d)→(%d,%d)", s.Idx, s.Dir, s.Letter, s.From.X, s.From.Y, s.To.X, s.To.Y)
	if s.Pushed && s.BoxTo != nil {
		line += fmt.Sprintf(" box→(%d,%d)", s.BoxTo.X, s.BoxTo.Y)
		if s.OnGoal {
			line += " on target"
		}
	}
	if s.Solved {
		line += " SOLVED"
	}
	return line + "\n"
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	level := 0
	if result.GameState != nil {
		level = result.GameState.Level
	}
	fmt.Fprintf(&b, "Session: %s • Level: %d\n", sessionID, level)
	fmt.Fprintf(&b, "Executed %d/%d moves (%d pushes)", result.MovesExecuted, result.RequestedMoves, result.Pushes)
	if result.LURD != "" {
		fmt.Fprintf(&b, " LURD: %s", result.LURD)
	}
	b.WriteString("\n")
	if result.Truncated {
		fmt.Fprintf(&b, "Request truncated to %d moves\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped: %s\n", result.StoppedReason)
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for _, s := range result.Steps {
			b.WriteString(formatStepLine(s))
		}
	}

	if a := result.AttemptedTo; a != nil {
		fmt.Fprintf(&b, "\nBlocked on move %d: attempted (%d,%d) tile=%q reason=%s\n",
			result.StoppedOnMove, a.X, a.Y, a.TileChar, a.Reason)
	}

	if len(result.Events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, event := range result.Events {
			if event.Type == "move" {
				continue
			}
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	if v := formatLocal3x3(result.GameState); v != "" {
		b.WriteString("\nLocal 3x3:\n")
		b.WriteString(v)
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

// formatLocal3x3 renders the 3x3 window centered on the player
func formatLocal3x3(state *engine.GameState) string {
	if state == nil || len(state.Rows) == 0 {
		return ""
	}
	px, py := state.PlayerPos.X, state.PlayerPos.Y
	var b strings.Builder
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			b.WriteByte(cellAt(state, px+dx, py+dy))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d) | Total: %d moves, %d pushes\n",
		history.Page, history.TotalPages, history.TotalMoves, history.Pushes)
	if history.LURD != "" {
		fmt.Fprintf(&b, "LURD: %s\n", history.LURD)
	}
	b.WriteString("\n")

	if len(history.Moves) == 0 {
		b.WriteString("(no moves on this level yet)\n")
	}
	for _, move := range history.Moves {
		push := ""
		if move.Pushed {
			push = " (push)"
		}
		fmt.Fprintf(&b, "%d. %s%s\n", move.Index, move.Move, push)
	}
	return b.String()
}

// cellAt returns the level character at (x, y). Cells off the board read as wall.
func cellAt(state *engine.GameState, x, y int) byte {
	if y < 0 || y >= len(state.Rows) || x < 0 || x >= len(state.Rows[y]) {
		return '#'
	}
	return state.Rows[y][x]
}

func describeSquare(ch byte) string {
	sq := engine.Decode(ch)
	switch {
	case sq.IsWall():
		return "Wall - impassable"
	case sq.IsStartPoint() && sq.IsTarget():
		return "Player, standing on a target"
	case sq.IsStartPoint():
		return "Player"
	case sq.HasBox() && sq.IsTarget():
		return "Box on a target - already in place"
	case sq.HasBox():
		return "Box - can be pushed if the square behind it is free"
	case sq.IsTarget():
		return "Target - an empty goal square"
	default:
		return "Floor - free to walk"
	}
}

func directionTo(from, to engine.Position) (string, bool) {
	switch {
	case to.X == from.X && to.Y == from.Y-1:
		return "up", true
	case to.X == from.X && to.Y == from.Y+1:
		return "down", true
	case to.Y == from.Y && to.X == from.X-1:
		return "left", true
	case to.Y == from.Y && to.X == from.X+1:
		return "right", true
	}
	return "", false
}

// moveOutcome explains what moving dir from the player's square would do.
func moveOutcome(state *engine.GameState, dir string) string {
	m, err := engine.ParseMove(dir)
	if err != nil {
		return err.Error()
	}
	dx, dy := m.Delta()
	tx, ty := state.PlayerPos.X+dx, state.PlayerPos.Y+dy
	target := engine.Decode(cellAt(state, tx, ty))
	switch {
	case target.IsWall():
		return "blocked by a wall"
	case !target.HasBox():
		return "walks onto this square"
	}

	beyond := engine.Decode(cellAt(state, tx+dx, ty+dy))
	switch {
	case beyond.IsWall():
		return "blocked: the box is against a wall"
	case beyond.HasBox():
		return "blocked: another box is behind it"
	case beyond.IsTarget():
		return "pushes the box onto a target"
	default:
		return "pushes the box"
	}
}
