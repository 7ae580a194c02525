package roundhandlers

import (
	"context"

	roundservice "github.com/Black-And-White-Club/caddie/app/modules/round/application"
	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	"github.com/google/uuid"
)

// Session is the state machine of one live round.
type Session interface {
	ID() uuid.UUID
	Snapshot() roundservice.Snapshot
	AddStroke(ctx context.Context) (roundservice.StrokeResult, error)
	UndoStroke(ctx context.Context) (roundservice.UndoResult, error)
	FinishHole(ctx context.Context) (roundservice.FinishResult, error)
	Abandon(ctx context.Context) (roundservice.FinishResult, error)
	SetStrokeClub(ctx context.Context, strokeID uuid.UUID, club string) (rounddomain.Stroke, error)
	SetStrokeDistance(ctx context.Context, strokeID uuid.UUID, meters float64) (rounddomain.Stroke, error)
}

// Service is what the HTTP layer needs from the round service.
type Service interface {
	StartRound(ctx context.Context, req roundservice.StartRoundRequest) (Session, error)
	OwnedSession(ctx context.Context, userID, roundID uuid.UUID) (Session, error)
	ListRounds(ctx context.Context, filter rounddomain.RoundFilter) ([]rounddomain.Round, error)
	Scorecard(ctx context.Context, roundID uuid.UUID) (rounddomain.Scorecard, error)
	HandleVoice(ctx context.Context, roundID uuid.UUID, audio []byte, filename, language string) (roundservice.VoiceResult, error)
	Ask(ctx context.Context, roundID uuid.UUID, message string, mode rounddomain.CoachMode, language string) (string, error)
	ClubStats(ctx context.Context, userID uuid.UUID) ([]rounddomain.ClubAverage, error)
	Profile(ctx context.Context, userID uuid.UUID) (rounddomain.PlayerProfile, error)
	SaveProfile(ctx context.Context, profile rounddomain.PlayerProfile) (rounddomain.PlayerProfile, error)
	CreateCourse(ctx context.Context, course rounddomain.Course) (rounddomain.Course, error)
}

// Adapt exposes a round service to the handlers.
func Adapt(svc *roundservice.Service) Service {
	return serviceAdapter{svc}
}

type serviceAdapter struct {
	*roundservice.Service
}

func (a serviceAdapter) StartRound(ctx context.Context, req roundservice.StartRoundRequest) (Session, error) {
	engine, err := a.Service.StartRound(ctx, req)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

func (a serviceAdapter) OwnedSession(ctx context.Context, userID, roundID uuid.UUID) (Session, error) {
	engine, err := a.Service.OwnedSession(ctx, userID, roundID)
	if err != nil {
		return nil, err
	}
	return engine, nil
}
