package rounddomain

import (
	"errors"

	"github.com/google/uuid"
)

// ErrInvalidCoachMode is returned for an unknown responder mode.
var ErrInvalidCoachMode = errors.New("invalid coach mode")

// CoachMode selects the responder persona.
type CoachMode string

const (
	CoachModeCoach CoachMode = "coach"
	CoachModeRules CoachMode = "rules"
)

// ParseCoachMode defaults an empty mode to coach.
func ParseCoachMode(s string) (CoachMode, error) {
	switch CoachMode(s) {
	case "", CoachModeCoach:
		return CoachModeCoach, nil
	case CoachModeRules:
		return CoachModeRules, nil
	}
	return "", ErrInvalidCoachMode
}

// CoachContext is the round snapshot handed to the coaching responder.
type CoachContext struct {
	RoundID        uuid.UUID     `json:"round_id"`
	PlayerName     string        `json:"player_name"`
	HandicapIndex  float64       `json:"handicap_index"`
	PreferredUnits Units         `json:"preferred_units"`
	CourseName     string        `json:"course_name"`
	Selection      HoleSelection `json:"selection"`
	CurrentHole    int           `json:"current_hole"`
	CourseHole     int           `json:"course_hole"`
	Par            int           `json:"par,omitempty"`
	TotalStrokes   int           `json:"total_strokes"`
	// RecentStrokes holds at most three strokes, most recent first.
	RecentStrokes []Stroke `json:"recent_strokes"`
}

// CoachRequest is one question for the responder.
type CoachRequest struct {
	Message  string
	Mode     CoachMode
	Language string
	Context  *CoachContext
}

// Transcript is the speech-to-text output. ActionHint is advisory only.
type Transcript struct {
	Text       string `json:"text"`
	ActionHint string `json:"action,omitempty"`
}
