package engine

import (
	"errors"
	"fmt"
)

// ErrUnknownSquare is returned by DecodeStrict for characters outside the level alphabet.
var ErrUnknownSquare = errors.New("unknown square character")

// Square is the content of a single board cell.
type Square uint8

const (
	squareWall Square = 1 << iota
	squareBox
	squareTarget
	squareStart
)

// Level text characters
const (
	CharWall           = '#'
	CharFloor          = ' '
	CharPlayer         = '@'
	CharPlayerOnTarget = '+'
	CharTarget         = '.'
	CharBox            = '$'
	CharBoxOnTarget    = '*'
)

// Wall, Floor, Target, Box and BoxOnTarget are the runtime square values.
// Start squares only exist until a board consumes them on load.
const (
	Floor       Square = 0
	Wall               = squareWall
	Target             = squareTarget
	Box                = squareBox
	BoxOnTarget        = squareBox | squareTarget
)

var decodeTable = map[byte]Square{
	CharWall:           squareWall,
	CharFloor:          0,
	CharPlayer:         squareStart,
	CharPlayerOnTarget: squareStart | squareTarget,
	CharTarget:         squareTarget,
	CharBox:            squareBox,
	CharBoxOnTarget:    squareBox | squareTarget,
	// Alternative floor characters used by many level collections.
	'-': 0,
	'_': 0,
}

// Decode maps a level character to a square. Unknown characters become open floor.
func Decode(ch byte) Square {
	return decodeTable[ch]
}

// DecodeStrict is Decode that rejects unknown characters.
func DecodeStrict(ch byte) (Square, error) {
	sq, ok := decodeTable[ch]
	if !ok {
		return Floor, fmt.Errorf("%w: %q", ErrUnknownSquare, ch)
	}
	return sq, nil
}

// IsWall reports whether the square is a wall.
func (s Square) IsWall() bool { return s&squareWall != 0 }

// HasBox reports whether a box stands on the square.
func (s Square) HasBox() bool { return s&squareBox != 0 }

// IsTarget reports whether the square is a target spot.
func (s Square) IsTarget() bool { return s&squareTarget != 0 }

// IsStartPoint reports whether the square was decoded from a player character.
func (s Square) IsStartPoint() bool { return s&squareStart != 0 }

// SetBox puts a box on the square or removes it.
// Keeping the total number of boxes constant is the board's job.
func (s *Square) SetBox(present bool) {
	if present {
		*s |= squareBox
	} else {
		*s &^= squareBox
	}
}

// Valid reports whether the flag combination is legal: a wall carries nothing else.
func (s Square) Valid() bool {
	if s&^(squareWall|squareBox|squareTarget|squareStart) != 0 {
		return false
	}
	if s.IsWall() {
		return s == squareWall
	}
	return !(s.IsStartPoint() && s.HasBox())
}

// Encode returns the level character for the square.
func (s Square) Encode() byte {
	switch {
	case s.IsWall():
		return CharWall
	case s.IsStartPoint() && s.IsTarget():
		return CharPlayerOnTarget
	case s.IsStartPoint():
		return CharPlayer
	case s.HasBox() && s.IsTarget():
		return CharBoxOnTarget
	case s.HasBox():
		return CharBox
	case s.IsTarget():
		return CharTarget
	default:
		return CharFloor
	}
}

// String returns the square's level character as a string.
func (s Square) String() string {
	return string(s.Encode())
}
