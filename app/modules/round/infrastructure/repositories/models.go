package rounddb

import (
	"time"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Round is the persisted round row. total_strokes is kept in sync with the
// strokes table on every add and undo.
type Round struct {
	bun.BaseModel `bun:"table:rounds,alias:r"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid"`
	UserID        uuid.UUID  `bun:"user_id,type:uuid,notnull"`
	CourseID      uuid.UUID  `bun:"course_id,type:uuid,notnull"`
	Selection     string     `bun:"selection,notnull"`
	TeeColor      string     `bun:"tee_color,notnull"`
	Status        string     `bun:"status,notnull"`
	CurrentHole   int        `bun:"current_hole,notnull"`
	TotalStrokes  int        `bun:"total_strokes,notnull"`
	StartedAt     time.Time  `bun:"started_at,notnull"`
	EndedAt       *time.Time `bun:"ended_at"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Stroke is the persisted stroke row.
type Stroke struct {
	bun.BaseModel `bun:"table:strokes,alias:s"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid"`
	RoundID       uuid.UUID  `bun:"round_id,type:uuid,notnull"`
	HoleLocalIdx  int        `bun:"hole_local_idx,notnull"`
	Distance      *float64   `bun:"distance"`
	Club          *string    `bun:"club"`
	Latitude      *float64   `bun:"latitude"`
	Longitude     *float64   `bun:"longitude"`
	Accuracy      *float64   `bun:"accuracy"`
	CapturedAt    *time.Time `bun:"captured_at"`
	CreatedAt     time.Time  `bun:"created_at,notnull"`
}

// Course is reference data for a golf course.
type Course struct {
	bun.BaseModel `bun:"table:courses,alias:c"`
	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	Name          string    `bun:"name,notnull"`
	HoleCount     int       `bun:"hole_count,notnull"`
	Pars          []int     `bun:"pars,type:jsonb,notnull"`
	StrokeIndexes []int     `bun:"stroke_indexes,type:jsonb"`
	DefaultTee    string    `bun:"default_tee"`
}

// PlayerProfile holds display preferences for a player.
type PlayerProfile struct {
	bun.BaseModel  `bun:"table:player_profiles,alias:p"`
	UserID         uuid.UUID `bun:"user_id,pk,type:uuid"`
	FirstName      string    `bun:"first_name"`
	LastName       string    `bun:"last_name"`
	HandicapIndex  float64   `bun:"handicap_index,notnull,default:54"`
	PreferredUnits string    `bun:"preferred_units,notnull,default:'m'"`
	Language       string    `bun:"language,notnull,default:'fr'"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// RoundSummary is the read model written when a round completes.
type RoundSummary struct {
	bun.BaseModel  `bun:"table:round_summaries,alias:rs"`
	RoundID        uuid.UUID `bun:"round_id,pk,type:uuid"`
	UserID         uuid.UUID `bun:"user_id,type:uuid,notnull"`
	CourseID       uuid.UUID `bun:"course_id,type:uuid,notnull"`
	TotalStrokes   int       `bun:"total_strokes,notnull"`
	ParForPlayed   int       `bun:"par_for_played,notnull"`
	HolesPlayed    int       `bun:"holes_played,notnull"`
	VsPar          int       `bun:"vs_par,notnull"`
	UnratedStrokes int       `bun:"unrated_strokes,notnull"`
	EagleOrBetter  int       `bun:"eagle_or_better,notnull"`
	Birdie         int       `bun:"birdie,notnull"`
	Par            int       `bun:"par,notnull"`
	Bogey          int       `bun:"bogey,notnull"`
	DoubleBogey    int       `bun:"double_bogey,notnull"`
	TripleOrWorse  int       `bun:"triple_or_worse,notnull"`
	Abandoned      bool      `bun:"abandoned,notnull"`
	CompletedAt    time.Time `bun:"completed_at,notnull"`
}

// ChatMessage is one coach or rules exchange.
type ChatMessage struct {
	bun.BaseModel `bun:"table:chat_messages,alias:cm"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid"`
	RoundID       *uuid.UUID `bun:"round_id,type:uuid"`
	UserID        uuid.UUID  `bun:"user_id,type:uuid,notnull"`
	Mode          string     `bun:"mode,notnull"`
	Message       string     `bun:"message,notnull"`
	Response      string     `bun:"response,notnull"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// ToDomain converts the row to the domain entity.
func (r *Round) ToDomain() rounddomain.Round {
	return rounddomain.Round{
		ID:           r.ID,
		UserID:       r.UserID,
		CourseID:     r.CourseID,
		Selection:    rounddomain.HoleSelection(r.Selection),
		TeeColor:     r.TeeColor,
		Status:       rounddomain.RoundStatus(r.Status),
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
		CurrentHole:  r.CurrentHole,
		TotalStrokes: r.TotalStrokes,
	}
}

// RoundFromDomain builds a row from the domain entity.
func RoundFromDomain(r rounddomain.Round) *Round {
	return &Round{
		ID:           r.ID,
		UserID:       r.UserID,
		CourseID:     r.CourseID,
		Selection:    string(r.Selection),
		TeeColor:     r.TeeColor,
		Status:       string(r.Status),
		CurrentHole:  r.CurrentHole,
		TotalStrokes: r.TotalStrokes,
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
	}
}

// ToDomain converts the row to the domain entity.
func (s *Stroke) ToDomain() rounddomain.Stroke {
	out := rounddomain.Stroke{
		ID:         s.ID,
		HoleIndex:  s.HoleLocalIdx,
		Distance:   s.Distance,
		Club:       s.Club,
		RecordedAt: s.CreatedAt,
	}
	if s.Latitude != nil && s.Longitude != nil {
		pos := rounddomain.Position{Latitude: *s.Latitude, Longitude: *s.Longitude}
		if s.Accuracy != nil {
			pos.Accuracy = *s.Accuracy
		}
		if s.CapturedAt != nil {
			pos.CapturedAt = *s.CapturedAt
		}
		out.Position = &pos
	}
	return out
}

// StrokeFromDomain builds a row for roundID from the domain entity.
func StrokeFromDomain(roundID uuid.UUID, s rounddomain.Stroke) *Stroke {
	row := &Stroke{
		ID:           s.ID,
		RoundID:      roundID,
		HoleLocalIdx: s.HoleIndex,
		Distance:     s.Distance,
		Club:         s.Club,
		CreatedAt:    s.RecordedAt,
	}
	if p := s.Position; p != nil {
		lat, lon, acc, at := p.Latitude, p.Longitude, p.Accuracy, p.CapturedAt
		row.Latitude, row.Longitude, row.Accuracy = &lat, &lon, &acc
		if !at.IsZero() {
			row.CapturedAt = &at
		}
	}
	return row
}

// ToDomain converts the row to the domain entity.
func (c *Course) ToDomain() rounddomain.Course {
	return rounddomain.Course{
		ID:            c.ID,
		Name:          c.Name,
		HoleCount:     c.HoleCount,
		Pars:          c.Pars,
		StrokeIndexes: c.StrokeIndexes,
		DefaultTee:    c.DefaultTee,
	}
}

// CourseFromDomain builds a row from the domain entity.
func CourseFromDomain(c rounddomain.Course) *Course {
	return &Course{
		ID:            c.ID,
		Name:          c.Name,
		HoleCount:     c.HoleCount,
		Pars:          c.Pars,
		StrokeIndexes: c.StrokeIndexes,
		DefaultTee:    c.DefaultTee,
	}
}

// ToDomain converts the row to the domain entity.
func (p *PlayerProfile) ToDomain() rounddomain.PlayerProfile {
	units, ok := rounddomain.ParseUnits(p.PreferredUnits)
	if !ok {
		units = rounddomain.UnitMeters
	}
	return rounddomain.PlayerProfile{
		UserID:         p.UserID,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		HandicapIndex:  p.HandicapIndex,
		PreferredUnits: units,
		Language:       p.Language,
	}
}

// ProfileFromDomain builds a row from the domain entity.
func ProfileFromDomain(p rounddomain.PlayerProfile) *PlayerProfile {
	return &PlayerProfile{
		UserID:         p.UserID,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		HandicapIndex:  p.HandicapIndex,
		PreferredUnits: string(p.PreferredUnits),
		Language:       p.Language,
	}
}

// SummaryFromDomain builds the projection row for a completed round.
func SummaryFromDomain(payload rounddomain.RoundCompletedPayloadV1) *RoundSummary {
	s := payload.Summary
	return &RoundSummary{
		RoundID:        payload.RoundID,
		UserID:         payload.UserID,
		CourseID:       payload.CourseID,
		TotalStrokes:   s.TotalStrokes,
		ParForPlayed:   s.ParForPlayed,
		HolesPlayed:    s.HolesPlayed,
		VsPar:          s.VsPar,
		UnratedStrokes: s.UnratedStrokes,
		EagleOrBetter:  s.Counts.EagleOrBetter,
		Birdie:         s.Counts.Birdie,
		Par:            s.Counts.Par,
		Bogey:          s.Counts.Bogey,
		DoubleBogey:    s.Counts.DoubleBogey,
		TripleOrWorse:  s.Counts.TripleOrWorse,
		Abandoned:      payload.Abandoned,
		CompletedAt:    payload.CompletedAt,
	}
}
