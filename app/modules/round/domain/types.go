// types.go
package rounddomain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Position is a single GNSS fix reported by the player's device.
type Position struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   float64   `json:"accuracy"` // meters, 1σ horizontal
	CapturedAt time.Time `json:"captured_at"`
}

// RoundStatus is the lifecycle state of a round.
type RoundStatus string

const (
	RoundStatusActive    RoundStatus = "active"
	RoundStatusCompleted RoundStatus = "completed"
)

// Stroke is one recorded shot.
type Stroke struct {
	ID         uuid.UUID `json:"id"`
	HoleIndex  int       `json:"hole_index"`
	Distance   *float64  `json:"distance,omitempty"`
	Club       *string   `json:"club,omitempty"`
	Position   *Position `json:"position,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Round is a single play-through of a course selection by one player.
type Round struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.UUID     `json:"user_id"`
	CourseID     uuid.UUID     `json:"course_id"`
	Selection    HoleSelection `json:"selection"`
	TeeColor     string        `json:"tee_color"`
	Status       RoundStatus   `json:"status"`
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      *time.Time    `json:"ended_at,omitempty"`
	CurrentHole  int           `json:"current_hole"`
	TotalStrokes int           `json:"total_strokes"`
}

// IsActive reports whether the round still accepts strokes.
func (r Round) IsActive() bool {
	return r.Status == RoundStatusActive
}

// IsLastHole reports whether the current hole is the final hole of the selection.
func (r Round) IsLastHole() bool {
	return r.CurrentHole >= r.Selection.HoleCount()
}

// Course is read-only reference data for a golf course.
type Course struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	HoleCount     int       `json:"hole_count"`
	Pars          []int     `json:"pars"`
	StrokeIndexes []int     `json:"stroke_indexes"`
	DefaultTee    string    `json:"default_tee"`
}

// ParsFor returns the pars of the selection, indexed by local hole - 1.
// Holes missing from the course data are omitted from the tail.
func (c Course) ParsFor(sel HoleSelection) []int {
	return window(c.Pars, sel)
}

// StrokeIndexesFor returns the handicap ranks of the selection's holes.
func (c Course) StrokeIndexesFor(sel HoleSelection) []int {
	return window(c.StrokeIndexes, sel)
}

// Supports reports whether the course has enough holes for the selection.
func (c Course) Supports(sel HoleSelection) bool {
	return c.HoleCount >= sel.Offset()+sel.HoleCount()
}

func window(values []int, sel HoleSelection) []int {
	start := sel.Offset()
	if start >= len(values) {
		return nil
	}
	end := min(start+sel.HoleCount(), len(values))
	out := make([]int, end-start)
	copy(out, values[start:end])
	return out
}

// PlayerProfile is display and localization data for a player.
type PlayerProfile struct {
	UserID         uuid.UUID `json:"user_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	HandicapIndex  float64   `json:"handicap_index"`
	PreferredUnits Units     `json:"preferred_units"`
	Language       string    `json:"language"`
}

// FullName joins first and last name, skipping empty parts.
func (p PlayerProfile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// RoundFilter narrows a round history query. Zero fields are ignored.
type RoundFilter struct {
	UserID uuid.UUID
	Status RoundStatus
	Since  *time.Time
	Limit  int
}
