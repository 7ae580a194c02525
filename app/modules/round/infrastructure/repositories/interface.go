package rounddb

import (
	"context"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for round persistence.
// Every method accepts an optional bun.IDB so callers can run it inside a
// transaction; nil uses the repository's own connection.
//
// Error semantics:
//   - ErrNotFound: record does not exist, or an UPDATE/DELETE matched no rows
//   - Other errors: infrastructure failures (connection, query errors)
type Repository interface {
	// CreateRound inserts a new round.
	CreateRound(ctx context.Context, db bun.IDB, round *Round) error

	// GetRound retrieves a round by ID.
	GetRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*Round, error)

	// UpdateRoundProgress writes status, current hole, stroke total and end time.
	UpdateRoundProgress(ctx context.Context, db bun.IDB, round *Round) error

	// ListRounds returns rounds matching filter, most recent first.
	ListRounds(ctx context.Context, db bun.IDB, filter rounddomain.RoundFilter) ([]*Round, error)

	// InsertStroke appends a stroke to its round.
	InsertStroke(ctx context.Context, db bun.IDB, stroke *Stroke) error

	// DeleteStroke removes a stroke from a round.
	DeleteStroke(ctx context.Context, db bun.IDB, roundID, strokeID uuid.UUID) error

	// UpdateStrokeDetails writes the club and distance of a stroke.
	UpdateStrokeDetails(ctx context.Context, db bun.IDB, stroke *Stroke) error

	// GetStrokes returns a round's strokes in recording order.
	GetStrokes(ctx context.Context, db bun.IDB, roundID uuid.UUID) ([]*Stroke, error)

	// GetStrokesForUser returns every stroke across a player's rounds.
	GetStrokesForUser(ctx context.Context, db bun.IDB, userID uuid.UUID) ([]*Stroke, error)

	// GetCourse retrieves a course by ID.
	GetCourse(ctx context.Context, db bun.IDB, courseID uuid.UUID) (*Course, error)

	// CreateCourse inserts a new course, failing with ErrConflict on an existing id.
	CreateCourse(ctx context.Context, db bun.IDB, course *Course) error

	// UpsertCourse creates or replaces a course.
	UpsertCourse(ctx context.Context, db bun.IDB, course *Course) error

	// GetProfile retrieves a player profile.
	GetProfile(ctx context.Context, db bun.IDB, userID uuid.UUID) (*PlayerProfile, error)

	// UpsertProfile creates or replaces a player profile.
	UpsertProfile(ctx context.Context, db bun.IDB, profile *PlayerProfile) error

	// UpsertSummary writes the completed-round projection.
	UpsertSummary(ctx context.Context, db bun.IDB, summary *RoundSummary) error

	// GetSummary retrieves the completed-round projection.
	GetSummary(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*RoundSummary, error)

	// InsertChatMessage stores a coach exchange.
	InsertChatMessage(ctx context.Context, db bun.IDB, msg *ChatMessage) error
}
