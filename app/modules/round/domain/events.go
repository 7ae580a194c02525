package rounddomain

import (
	"time"

	"github.com/google/uuid"
)

// Event topics published after a round mutation commits.
const (
	StrokeRecordedV1 = "round.stroke.recorded.v1"
	StrokeUndoneV1   = "round.stroke.undone.v1"
	HoleFinishedV1   = "round.hole.finished.v1"
	RoundCompletedV1 = "round.completed.v1"
)

// StrokeRecordedPayloadV1 is emitted when a stroke is added.
type StrokeRecordedPayloadV1 struct {
	RoundID      uuid.UUID `json:"round_id"`
	UserID       uuid.UUID `json:"user_id"`
	Stroke       Stroke    `json:"stroke"`
	TotalStrokes int       `json:"total_strokes"`
}

// StrokeUndonePayloadV1 is emitted when undo removes a stroke.
type StrokeUndonePayloadV1 struct {
	RoundID      uuid.UUID `json:"round_id"`
	UserID       uuid.UUID `json:"user_id"`
	StrokeID     uuid.UUID `json:"stroke_id"`
	HoleIndex    int       `json:"hole_index"`
	CurrentHole  int       `json:"current_hole"`
	TotalStrokes int       `json:"total_strokes"`
}

// HoleFinishedPayloadV1 is emitted when play advances to the next hole.
type HoleFinishedPayloadV1 struct {
	RoundID     uuid.UUID `json:"round_id"`
	UserID      uuid.UUID `json:"user_id"`
	HoleIndex   int       `json:"hole_index"`
	Strokes     int       `json:"strokes"`
	CurrentHole int       `json:"current_hole"`
}

// RoundCompletedPayloadV1 is emitted once when a round is completed.
type RoundCompletedPayloadV1 struct {
	RoundID     uuid.UUID `json:"round_id"`
	UserID      uuid.UUID `json:"user_id"`
	CourseID    uuid.UUID `json:"course_id"`
	Summary     Summary   `json:"summary"`
	CompletedAt time.Time `json:"completed_at"`
	Abandoned   bool      `json:"abandoned"`
}
