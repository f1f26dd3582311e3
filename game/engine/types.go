package engine

// Status is the phase of a play session.
type Status string

const (
	StatusLoaded     Status = "loaded"
	StatusInProgress Status = "in_progress"
	StatusSolved     Status = "solved"

	// Validation constants
	MinBoardSize = 3
	MaxBoardSize = 100
	MaxBulkMoves = 200
)

// Position represents x,y coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// GameState is a read-only snapshot of a session, shaped for transports.
type GameState struct {
	Level         int        `json:"level"`
	MaxLevel      int        `json:"max_level,omitempty"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	Rows          []string   `json:"rows"`
	PlayerPos     Position   `json:"player_pos"`
	Status        Status     `json:"status"`
	Solved        bool       `json:"solved"`
	Boxes         int        `json:"boxes"`
	Targets       int        `json:"targets"`
	BoxesOnTarget int        `json:"boxes_on_target"`
	Moves         int        `json:"moves"`
	Pushes        int        `json:"pushes"`
	CanUndo       bool       `json:"can_undo"`
	History       string     `json:"history"`
	PossibleMoves []string   `json:"possible_moves,omitempty"`
	SolvedLevels  []int      `json:"solved_levels,omitempty"`
	LastSolved    *SolveInfo `json:"last_solved,omitempty"`
	Message       string     `json:"message,omitempty"`
}

// SolveInfo records a finished level.
type SolveInfo struct {
	Level    int    `json:"level"`
	Moves    int    `json:"moves"`
	Pushes   int    `json:"pushes"`
	Solution string `json:"solution"`
}
