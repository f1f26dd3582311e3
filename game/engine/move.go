package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDirection is returned when a direction name cannot be parsed.
var ErrInvalidDirection = errors.New("invalid direction")

// Move is one of the four player directions.
type Move int

const (
	Up Move = iota
	Down
	Left
	Right
)

// Moves lists all directions in a stable order.
var Moves = []Move{Up, Down, Left, Right}

// Delta returns the unit column/row offset of the move.
func (m Move) Delta() (dx, dy int) {
	switch m {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// Opposite returns the reverse direction.
func (m Move) Opposite() Move {
	switch m {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

// Valid reports whether m is one of the four directions.
func (m Move) Valid() bool {
	return m >= Up && m <= Right
}

func (m Move) String() string {
	switch m {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("Move(%d)", int(m))
}

// Letter returns the LURD letter for the move: lowercase for a walk, uppercase for a push.
func (m Move) Letter(push bool) byte {
	var c byte
	switch m {
	case Up:
		c = 'u'
	case Down:
		c = 'd'
	case Left:
		c = 'l'
	case Right:
		c = 'r'
	default:
		return '?'
	}
	if push {
		c -= 'a' - 'A'
	}
	return c
}

// MoveFromLetter parses a LURD letter. The second result reports an uppercase (push) letter.
func MoveFromLetter(c byte) (Move, bool, error) {
	push := c >= 'A' && c <= 'Z'
	if push {
		c += 'a' - 'A'
	}
	switch c {
	case 'u':
		return Up, push, nil
	case 'd':
		return Down, push, nil
	case 'l':
		return Left, push, nil
	case 'r':
		return Right, push, nil
	}
	return 0, false, fmt.Errorf("%w: %q", ErrInvalidDirection, c)
}

// ParseMove parses a direction name ("up", "Down", ...) or a single LURD letter.
func ParseMove(s string) (Move, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "u", "north", "n":
		return Up, nil
	case "down", "d", "south", "s":
		return Down, nil
	case "left", "l", "west", "w":
		return Left, nil
	case "right", "r", "east", "e":
		return Right, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Step is an accepted move together with whether it pushed a box.
type Step struct {
	Move   Move `json:"move"`
	Pushed bool `json:"pushed"`
}

// Letter returns the LURD letter of the step.
func (s Step) Letter() byte {
	return s.Move.Letter(s.Pushed)
}

// MarshalText encodes the move as its direction name.
func (m Move) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDirection, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes a direction name.
func (m *Move) UnmarshalText(text []byte) error {
	parsed, err := ParseMove(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
