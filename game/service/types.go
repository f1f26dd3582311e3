package service

import (
	"time"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	Level          int               `json:"level"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
}

// MoveResult contains the result of a single move or undo
type MoveResult struct {
	Success     bool              `json:"success"`
	GameState   *engine.GameState `json:"game_state"`
	Message     string            `json:"message"`
	Events      []GameEvent       `json:"events,omitempty"`
	Step        *StepInfo         `json:"step,omitempty"`
	AttemptedTo *AttemptInfo      `json:"attempted_to,omitempty"`
	Solved      *engine.SolveInfo `json:"solved,omitempty"`
}

// Stop reason codes reported by BulkMove.
const (
	StopInvalidDirection = "invalid_direction"
	StopBlockedBoundary  = "blocked_boundary"
	StopBlockedWall      = "blocked_wall"
	StopBlockedBox       = "blocked_box"
	StopSolved           = "solved"
	StopAlreadySolved    = "already_solved"
)

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Pushes         int               `json:"pushes"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`
	StopReasonCode string            `json:"stop_reason_code,omitempty"`
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"` // 1-based
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	StartPos engine.Position `json:"start_pos"`
	EndPos   engine.Position `json:"end_pos"`
	LURD     string          `json:"lurd"` // executed steps only

	Steps       []StepInfo        `json:"steps,omitempty"`
	AttemptedTo *AttemptInfo      `json:"attempted_to,omitempty"`
	Solved      *engine.SolveInfo `json:"solved,omitempty"`

	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
}

// StepInfo is a compact record for each executed move
type StepInfo struct {
	Idx     int              `json:"idx"`
	Dir     string           `json:"dir"`
	Letter  string           `json:"letter"`
	From    engine.Position  `json:"from"`
	To      engine.Position  `json:"to"`
	Pushed  bool             `json:"pushed,omitempty"`
	BoxTo   *engine.Position `json:"box_to,omitempty"`
	OnGoal  bool             `json:"box_on_target,omitempty"`
	Solved  bool             `json:"solved,omitempty"`
	Success bool             `json:"success"`
}

// AttemptInfo describes why a move was refused
type AttemptInfo struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	TileChar string `json:"tile_char"`
	Reason   string `json:"reason"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"` // "move", "push", "box_on_target", "solved", "level_loaded", "undo", "restart"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryEntry is one recorded step of the current level.
type HistoryEntry struct {
	Index  int    `json:"index"` // 1-based
	Move   string `json:"move"`
	Letter string `json:"letter"`
	Pushed bool   `json:"pushed"`
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []HistoryEntry `json:"moves"`
	TotalMoves  int            `json:"total_moves"`
	Pushes      int            `json:"pushes"`
	LURD        string         `json:"lurd"`
	Page        int            `json:"page"`
	PageSize    int            `json:"page_size"`
	TotalPages  int            `json:"total_pages"`
	HasNext     bool           `json:"has_next"`
	HasPrevious bool           `json:"has_previous"`
}

// LevelInfo summarizes a stored level.
type LevelInfo struct {
	Number   int    `json:"number"`
	Filename string `json:"filename"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Boxes    int    `json:"boxes"`
	Targets  int    `json:"targets"`
	Valid    bool   `json:"valid"`
}

// LevelDetail is a level's text with its validation report.
type LevelDetail struct {
	Number     int                      `json:"number"`
	Text       string                   `json:"text"`
	Validation *engine.ValidationResult `json:"validation"`
}
