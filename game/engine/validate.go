package engine

import (
	"errors"
	"fmt"
)

// ValidationResult captures the outcome of validating level text. Errors make a level
// unplayable; warnings flag levels that load but are probably not what the author meant.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Boxes    int      `json:"boxes"`
	Targets  int      `json:"targets"`
}

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Err returns nil for a valid result, otherwise an error listing the first problem.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	if len(r.Errors) == 1 {
		return fmt.Errorf("level validation: %s", r.Errors[0])
	}
	return fmt.Errorf("level validation: %s (and %d more)", r.Errors[0], len(r.Errors)-1)
}

// ValidateLevel checks level text for playability.
func ValidateLevel(text string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	rows := splitRows(text)
	for y, row := range rows {
		for x := 0; x < len(row); x++ {
			if _, err := DecodeStrict(row[x]); err != nil {
				result.warnf("unknown character %q at (%d,%d) treated as floor", row[x], x, y)
			}
		}
	}

	board, err := NewBoard(text)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyLevel):
			result.errorf("level is empty")
		case errors.Is(err, ErrMalformedLevel):
			result.errorf("level must have exactly one player start (@ or +): %v", err)
		default:
			result.errorf("%v", err)
		}
		return result
	}

	result.Width = board.Width()
	result.Height = board.Height()
	result.Boxes = board.Boxes()
	result.Targets = board.Targets()

	if board.Width() < MinBoardSize || board.Height() < MinBoardSize {
		result.errorf("board must be at least %dx%d, got %dx%d", MinBoardSize, MinBoardSize, board.Width(), board.Height())
	}
	if board.Width() > MaxBoardSize || board.Height() > MaxBoardSize {
		result.errorf("board must be at most %dx%d, got %dx%d", MaxBoardSize, MaxBoardSize, board.Width(), board.Height())
	}

	if result.Targets == 0 {
		result.errorf("level must contain at least one target (. + or *)")
	}
	switch {
	case result.Boxes < result.Targets:
		result.errorf("level has %d boxes but %d targets", result.Boxes, result.Targets)
	case result.Boxes > result.Targets:
		result.warnf("level has %d boxes but only %d targets", result.Boxes, result.Targets)
	}

	region := reachable(board.cells, board.Player())
	if touchesEdge(region, board.Width(), board.Height()) {
		result.warnf("playable area is not enclosed by walls")
	}
	for y := 0; y < board.Height(); y++ {
		for x := 0; x < board.Width(); x++ {
			if board.IsInside(x, y) {
				continue
			}
			sq := board.cells[y][x]
			if sq.HasBox() {
				result.errorf("box at (%d,%d) is outside the playable area", x, y)
			} else if sq.IsTarget() {
				result.errorf("target at (%d,%d) is outside the playable area", x, y)
			}
		}
	}

	if result.Targets > 0 && board.IsSolved() {
		result.warnf("level is already solved")
	}

	return result
}
