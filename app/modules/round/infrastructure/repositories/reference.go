package rounddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// GetCourse retrieves a course by ID.
func (r *Impl) GetCourse(ctx context.Context, db bun.IDB, courseID uuid.UUID) (*Course, error) {
	db = r.resolveDB(db)
	course := new(Course)
	err := db.NewSelect().
		Model(course).
		Where("c.id = ?", courseID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

// CreateCourse inserts a new course. An existing id is ErrConflict.
func (r *Impl) CreateCourse(ctx context.Context, db bun.IDB, course *Course) error {
	db = r.resolveDB(db)
	result, err := db.NewInsert().
		Model(course).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrConflict
	}
	return nil
}

// UpsertCourse creates or replaces a course.
func (r *Impl) UpsertCourse(ctx context.Context, db bun.IDB, course *Course) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(course).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("hole_count = EXCLUDED.hole_count").
		Set("pars = EXCLUDED.pars").
		Set("stroke_indexes = EXCLUDED.stroke_indexes").
		Set("default_tee = EXCLUDED.default_tee").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert course: %w", err)
	}
	return nil
}

// GetProfile retrieves a player profile.
func (r *Impl) GetProfile(ctx context.Context, db bun.IDB, userID uuid.UUID) (*PlayerProfile, error) {
	db = r.resolveDB(db)
	profile := new(PlayerProfile)
	err := db.NewSelect().
		Model(profile).
		Where("p.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get player profile: %w", err)
	}
	return profile, nil
}

// UpsertProfile creates or replaces a player profile.
func (r *Impl) UpsertProfile(ctx context.Context, db bun.IDB, profile *PlayerProfile) error {
	db = r.resolveDB(db)
	profile.UpdatedAt = time.Now()
	_, err := db.NewInsert().
		Model(profile).
		On("CONFLICT (user_id) DO UPDATE").
		Set("first_name = EXCLUDED.first_name").
		Set("last_name = EXCLUDED.last_name").
		Set("handicap_index = EXCLUDED.handicap_index").
		Set("preferred_units = EXCLUDED.preferred_units").
		Set("language = EXCLUDED.language").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert player profile: %w", err)
	}
	return nil
}

// UpsertSummary writes the completed-round projection. Redelivered events
// overwrite the same row.
func (r *Impl) UpsertSummary(ctx context.Context, db bun.IDB, summary *RoundSummary) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(summary).
		On("CONFLICT (round_id) DO UPDATE").
		Set("total_strokes = EXCLUDED.total_strokes").
		Set("par_for_played = EXCLUDED.par_for_played").
		Set("holes_played = EXCLUDED.holes_played").
		Set("vs_par = EXCLUDED.vs_par").
		Set("unrated_strokes = EXCLUDED.unrated_strokes").
		Set("eagle_or_better = EXCLUDED.eagle_or_better").
		Set("birdie = EXCLUDED.birdie").
		Set("par = EXCLUDED.par").
		Set("bogey = EXCLUDED.bogey").
		Set("double_bogey = EXCLUDED.double_bogey").
		Set("triple_or_worse = EXCLUDED.triple_or_worse").
		Set("abandoned = EXCLUDED.abandoned").
		Set("completed_at = EXCLUDED.completed_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert round summary: %w", err)
	}
	return nil
}

// GetSummary retrieves the completed-round projection.
func (r *Impl) GetSummary(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*RoundSummary, error) {
	db = r.resolveDB(db)
	summary := new(RoundSummary)
	err := db.NewSelect().
		Model(summary).
		Where("rs.round_id = ?", roundID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get round summary: %w", err)
	}
	return summary, nil
}

// InsertChatMessage stores a coach exchange.
func (r *Impl) InsertChatMessage(ctx context.Context, db bun.IDB, msg *ChatMessage) error {
	db = r.resolveDB(db)
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(msg).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}
	return nil
}
