package rounddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a row does not exist or an update matched nothing.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when an insert collides with an existing row.
var ErrConflict = errors.New("record already exists")

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new round repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// CreateRound inserts a new round.
func (r *Impl) CreateRound(ctx context.Context, db bun.IDB, round *Round) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(round).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

// GetRound retrieves a round by ID.
func (r *Impl) GetRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*Round, error) {
	db = r.resolveDB(db)
	round := new(Round)
	err := db.NewSelect().
		Model(round).
		Where("r.id = ?", roundID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	return round, nil
}

// UpdateRoundProgress writes the mutable round columns.
func (r *Impl) UpdateRoundProgress(ctx context.Context, db bun.IDB, round *Round) error {
	db = r.resolveDB(db)
	round.UpdatedAt = time.Now()
	result, err := db.NewUpdate().
		Model(round).
		Column("status", "current_hole", "total_strokes", "ended_at", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update round progress: %w", err)
	}
	return requireRows(result)
}

// ListRounds returns rounds matching filter, most recent first.
func (r *Impl) ListRounds(ctx context.Context, db bun.IDB, filter rounddomain.RoundFilter) ([]*Round, error) {
	db = r.resolveDB(db)
	var rounds []*Round
	q := db.NewSelect().Model(&rounds).Order("r.started_at DESC")
	if filter.UserID != uuid.Nil {
		q = q.Where("r.user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("r.status = ?", string(filter.Status))
	}
	if filter.Since != nil {
		q = q.Where("r.started_at >= ?", *filter.Since)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	return rounds, nil
}

// InsertStroke appends a stroke to its round.
func (r *Impl) InsertStroke(ctx context.Context, db bun.IDB, stroke *Stroke) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(stroke).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert stroke: %w", err)
	}
	return nil
}

// DeleteStroke removes a stroke from a round.
func (r *Impl) DeleteStroke(ctx context.Context, db bun.IDB, roundID, strokeID uuid.UUID) error {
	db = r.resolveDB(db)
	result, err := db.NewDelete().
		Model((*Stroke)(nil)).
		Where("id = ?", strokeID).
		Where("round_id = ?", roundID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete stroke: %w", err)
	}
	return requireRows(result)
}

// UpdateStrokeDetails writes the club and distance of a stroke.
func (r *Impl) UpdateStrokeDetails(ctx context.Context, db bun.IDB, stroke *Stroke) error {
	db = r.resolveDB(db)
	result, err := db.NewUpdate().
		Model(stroke).
		Column("club", "distance").
		WherePK().
		Where("round_id = ?", stroke.RoundID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update stroke: %w", err)
	}
	return requireRows(result)
}

// GetStrokes returns a round's strokes in recording order.
func (r *Impl) GetStrokes(ctx context.Context, db bun.IDB, roundID uuid.UUID) ([]*Stroke, error) {
	db = r.resolveDB(db)
	var strokes []*Stroke
	err := db.NewSelect().
		Model(&strokes).
		Where("s.round_id = ?", roundID).
		Order("s.created_at ASC", "s.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get strokes: %w", err)
	}
	return strokes, nil
}

// GetStrokesForUser returns every stroke across a player's rounds.
func (r *Impl) GetStrokesForUser(ctx context.Context, db bun.IDB, userID uuid.UUID) ([]*Stroke, error) {
	db = r.resolveDB(db)
	var strokes []*Stroke
	err := db.NewSelect().
		Model(&strokes).
		Join("JOIN rounds AS r ON r.id = s.round_id").
		Where("r.user_id = ?", userID).
		Order("s.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get strokes for user: %w", err)
	}
	return strokes, nil
}

func requireRows(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
