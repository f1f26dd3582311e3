package engine

import (
	"errors"
	"testing"
)

func TestSquareRoundTrip(t *testing.T) {
	for _, ch := range []byte{'#', ' ', '@', '+', '.', '$', '*'} {
		sq := Decode(ch)
		if got := sq.Encode(); got != ch {
			t.Errorf("Decode(%q).Encode() = %q", ch, got)
		}
		if !sq.Valid() {
			t.Errorf("Decode(%q) produced invalid square %08b", ch, sq)
		}
	}
}

func TestSquareFlags(t *testing.T) {
	tests := []struct {
		ch     byte
		wall   bool
		box    bool
		target bool
		start  bool
	}{
		{'#', true, false, false, false},
		{' ', false, false, false, false},
		{'@', false, false, false, true},
		{'+', false, false, true, true},
		{'.', false, false, true, false},
		{'$', false, true, false, false},
		{'*', false, true, true, false},
		{'-', false, false, false, false},
		{'x', false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.ch), func(t *testing.T) {
			sq := Decode(tt.ch)
			if sq.IsWall() != tt.wall || sq.HasBox() != tt.box || sq.IsTarget() != tt.target || sq.IsStartPoint() != tt.start {
				t.Errorf("Decode(%q) = wall:%v box:%v target:%v start:%v", tt.ch, sq.IsWall(), sq.HasBox(), sq.IsTarget(), sq.IsStartPoint())
			}
		})
	}
}

func TestDecodeStrict(t *testing.T) {
	if _, err := DecodeStrict('$'); err != nil {
		t.Errorf("DecodeStrict('$') returned error: %v", err)
	}
	if _, err := DecodeStrict('_'); err != nil {
		t.Errorf("DecodeStrict('_') returned error: %v", err)
	}
	_, err := DecodeStrict('x')
	if !errors.Is(err, ErrUnknownSquare) {
		t.Errorf("Expected ErrUnknownSquare, got %v", err)
	}
}

func TestSquareSetBox(t *testing.T) {
	sq := Target
	sq.SetBox(true)
	if sq != BoxOnTarget {
		t.Errorf("Expected box on target, got %q", sq.Encode())
	}
	sq.SetBox(false)
	if sq != Target {
		t.Errorf("Expected plain target, got %q", sq.Encode())
	}
}

func TestSquareValid(t *testing.T) {
	tests := []struct {
		name  string
		sq    Square
		valid bool
	}{
		{"floor", Floor, true},
		{"wall", Wall, true},
		{"box on target", BoxOnTarget, true},
		{"wall with box", Wall | Box, false},
		{"wall with target", Wall | Target, false},
		{"start with box", squareStart | Box, false},
		{"unknown bit", Square(0x80), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sq.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
		})
	}
}
