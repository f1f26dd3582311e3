package engine

import (
	"fmt"
	"strings"
)

// History is the undo log of one play session.
type History struct {
	steps []Step
}

// Record appends an accepted step.
func (h *History) Record(s Step) {
	h.steps = append(h.steps, s)
}

// PopLast removes and returns the most recent step.
func (h *History) PopLast() (Step, bool) {
	if len(h.steps) == 0 {
		return Step{}, false
	}
	last := h.steps[len(h.steps)-1]
	h.steps = h.steps[:len(h.steps)-1]
	return last, true
}

// Last returns the most recent step without removing it.
func (h *History) Last() (Step, bool) {
	if len(h.steps) == 0 {
		return Step{}, false
	}
	return h.steps[len(h.steps)-1], true
}

func (h *History) Clear() {
	h.steps = nil
}

func (h *History) IsEmpty() bool {
	return len(h.steps) == 0
}

func (h *History) Len() int {
	return len(h.steps)
}

// Pushes counts the steps that moved a box.
func (h *History) Pushes() int {
	n := 0
	for _, s := range h.steps {
		if s.Pushed {
			n++
		}
	}
	return n
}

// Steps returns a copy of the recorded steps, oldest first.
func (h *History) Steps() []Step {
	return append([]Step(nil), h.steps...)
}

// String renders the history in LURD notation.
func (h *History) String() string {
	var b strings.Builder
	b.Grow(len(h.steps))
	for _, s := range h.steps {
		b.WriteByte(s.Letter())
	}
	return b.String()
}

// ParseHistory parses LURD notation into steps. Whitespace is ignored.
func ParseHistory(lurd string) ([]Step, error) {
	steps := make([]Step, 0, len(lurd))
	for i := 0; i < len(lurd); i++ {
		c := lurd[i]
		if c == ' ' || c == '\n' || c == '\r' || c == '\t' {
			continue
		}
		m, push, err := MoveFromLetter(c)
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		steps = append(steps, Step{Move: m, Pushed: push})
	}
	return steps, nil
}
