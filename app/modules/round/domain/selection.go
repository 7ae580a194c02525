package rounddomain

import (
	"errors"
	"fmt"
)

// ErrInvalidSelection is returned for an unknown hole selection.
var ErrInvalidSelection = errors.New("invalid hole selection")

// HoleSelection is the subset of a course's holes played in a round.
type HoleSelection string

const (
	SelectionFrontNine HoleSelection = "front9"
	SelectionBackNine  HoleSelection = "back9"
	SelectionFull      HoleSelection = "full"
)

// ParseHoleSelection validates a selection string.
func ParseHoleSelection(s string) (HoleSelection, error) {
	sel := HoleSelection(s)
	if !sel.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSelection, s)
	}
	return sel, nil
}

// Valid reports whether the selection is one of the known values.
func (s HoleSelection) Valid() bool {
	switch s {
	case SelectionFrontNine, SelectionBackNine, SelectionFull:
		return true
	}
	return false
}

// HoleCount is the number of holes played.
func (s HoleSelection) HoleCount() int {
	switch s {
	case SelectionFrontNine, SelectionBackNine:
		return 9
	case SelectionFull:
		return 18
	}
	return 0
}

// Offset is the number of course holes preceding local hole 1.
func (s HoleSelection) Offset() int {
	if s == SelectionBackNine {
		return 9
	}
	return 0
}

// CourseHole maps a 1-based local hole index to the course hole number.
func (s HoleSelection) CourseHole(local int) int {
	return s.Offset() + local
}
