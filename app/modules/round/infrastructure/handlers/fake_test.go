package roundhandlers

import (
	"context"
	"sync"

	roundservice "github.com/Black-And-White-Club/caddie/app/modules/round/application"
	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	roundposition "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/position"
	"github.com/google/uuid"
)

// ------------------------
// Fake Session
// ------------------------

type FakeSession struct {
	RoundID uuid.UUID
	Snap    roundservice.Snapshot

	AddStrokeFunc         func(ctx context.Context) (roundservice.StrokeResult, error)
	UndoStrokeFunc        func(ctx context.Context) (roundservice.UndoResult, error)
	FinishHoleFunc        func(ctx context.Context) (roundservice.FinishResult, error)
	AbandonFunc           func(ctx context.Context) (roundservice.FinishResult, error)
	SetStrokeClubFunc     func(ctx context.Context, strokeID uuid.UUID, club string) (rounddomain.Stroke, error)
	SetStrokeDistanceFunc func(ctx context.Context, strokeID uuid.UUID, meters float64) (rounddomain.Stroke, error)

	mu    sync.Mutex
	trace []string
}

func (f *FakeSession) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeSession) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.trace...)
}

func (f *FakeSession) ID() uuid.UUID                   { return f.RoundID }
func (f *FakeSession) Snapshot() roundservice.Snapshot { return f.Snap }

// AddStroke reads the request-reported position so tests can assert what
// the handler attached.
func (f *FakeSession) AddStroke(ctx context.Context) (roundservice.StrokeResult, error) {
	f.record("AddStroke")
	if f.AddStrokeFunc != nil {
		return f.AddStrokeFunc(ctx)
	}
	stroke := rounddomain.Stroke{ID: uuid.New(), HoleIndex: 1}
	if pos, err := (roundposition.Reported{}).Read(ctx); err == nil {
		stroke.Position = &pos
	}
	return roundservice.StrokeResult{Stroke: stroke}, nil
}

func (f *FakeSession) UndoStroke(ctx context.Context) (roundservice.UndoResult, error) {
	f.record("UndoStroke")
	if f.UndoStrokeFunc != nil {
		return f.UndoStrokeFunc(ctx)
	}
	return roundservice.UndoResult{}, nil
}

func (f *FakeSession) FinishHole(ctx context.Context) (roundservice.FinishResult, error) {
	f.record("FinishHole")
	if f.FinishHoleFunc != nil {
		return f.FinishHoleFunc(ctx)
	}
	return roundservice.FinishResult{FinishedHole: 1}, nil
}

func (f *FakeSession) Abandon(ctx context.Context) (roundservice.FinishResult, error) {
	f.record("Abandon")
	if f.AbandonFunc != nil {
		return f.AbandonFunc(ctx)
	}
	return roundservice.FinishResult{Completed: true}, nil
}

func (f *FakeSession) SetStrokeClub(ctx context.Context, strokeID uuid.UUID, club string) (rounddomain.Stroke, error) {
	f.record("SetStrokeClub")
	if f.SetStrokeClubFunc != nil {
		return f.SetStrokeClubFunc(ctx, strokeID, club)
	}
	return rounddomain.Stroke{ID: strokeID, Club: &club}, nil
}

func (f *FakeSession) SetStrokeDistance(ctx context.Context, strokeID uuid.UUID, meters float64) (rounddomain.Stroke, error) {
	f.record("SetStrokeDistance")
	if f.SetStrokeDistanceFunc != nil {
		return f.SetStrokeDistanceFunc(ctx, strokeID, meters)
	}
	return rounddomain.Stroke{ID: strokeID, Distance: &meters}, nil
}

// ------------------------
// Fake Service
// ------------------------

type FakeService struct {
	Session *FakeSession

	StartRoundFunc   func(ctx context.Context, req roundservice.StartRoundRequest) (Session, error)
	OwnedSessionFunc func(ctx context.Context, userID, roundID uuid.UUID) (Session, error)
	ListRoundsFunc   func(ctx context.Context, filter rounddomain.RoundFilter) ([]rounddomain.Round, error)
	ScorecardFunc    func(ctx context.Context, roundID uuid.UUID) (rounddomain.Scorecard, error)
	HandleVoiceFunc  func(ctx context.Context, roundID uuid.UUID, audio []byte, filename, language string) (roundservice.VoiceResult, error)
	AskFunc          func(ctx context.Context, roundID uuid.UUID, message string, mode rounddomain.CoachMode, language string) (string, error)
	ClubStatsFunc    func(ctx context.Context, userID uuid.UUID) ([]rounddomain.ClubAverage, error)
	ProfileFunc      func(ctx context.Context, userID uuid.UUID) (rounddomain.PlayerProfile, error)
	SaveProfileFunc  func(ctx context.Context, profile rounddomain.PlayerProfile) (rounddomain.PlayerProfile, error)
	CreateCourseFunc func(ctx context.Context, course rounddomain.Course) (rounddomain.Course, error)

	mu    sync.Mutex
	trace []string
}

func NewFakeService(session *FakeSession) *FakeService {
	return &FakeService{Session: session, trace: []string{}}
}

func (f *FakeService) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeService) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.trace...)
}

func (f *FakeService) StartRound(ctx context.Context, req roundservice.StartRoundRequest) (Session, error) {
	f.record("StartRound")
	if f.StartRoundFunc != nil {
		return f.StartRoundFunc(ctx, req)
	}
	return f.Session, nil
}

func (f *FakeService) OwnedSession(ctx context.Context, userID, roundID uuid.UUID) (Session, error) {
	f.record("OwnedSession")
	if f.OwnedSessionFunc != nil {
		return f.OwnedSessionFunc(ctx, userID, roundID)
	}
	if roundID != f.Session.RoundID {
		return nil, roundservice.ErrRoundNotFound
	}
	if userID != f.Session.Snap.Round.UserID {
		return nil, roundservice.ErrForbidden
	}
	return f.Session, nil
}

func (f *FakeService) ListRounds(ctx context.Context, filter rounddomain.RoundFilter) ([]rounddomain.Round, error) {
	f.record("ListRounds")
	if f.ListRoundsFunc != nil {
		return f.ListRoundsFunc(ctx, filter)
	}
	return []rounddomain.Round{}, nil
}

func (f *FakeService) Scorecard(ctx context.Context, roundID uuid.UUID) (rounddomain.Scorecard, error) {
	f.record("Scorecard")
	if f.ScorecardFunc != nil {
		return f.ScorecardFunc(ctx, roundID)
	}
	return rounddomain.Scorecard{RoundID: roundID.String()}, nil
}

func (f *FakeService) HandleVoice(ctx context.Context, roundID uuid.UUID, audio []byte, filename, language string) (roundservice.VoiceResult, error) {
	f.record("HandleVoice")
	if f.HandleVoiceFunc != nil {
		return f.HandleVoiceFunc(ctx, roundID, audio, filename, language)
	}
	return roundservice.VoiceResult{Transcript: rounddomain.Transcript{Text: string(audio)}}, nil
}

func (f *FakeService) Ask(ctx context.Context, roundID uuid.UUID, message string, mode rounddomain.CoachMode, language string) (string, error) {
	f.record("Ask")
	if f.AskFunc != nil {
		return f.AskFunc(ctx, roundID, message, mode, language)
	}
	return "keep your head down", nil
}

func (f *FakeService) ClubStats(ctx context.Context, userID uuid.UUID) ([]rounddomain.ClubAverage, error) {
	f.record("ClubStats")
	if f.ClubStatsFunc != nil {
		return f.ClubStatsFunc(ctx, userID)
	}
	return []rounddomain.ClubAverage{}, nil
}

func (f *FakeService) Profile(ctx context.Context, userID uuid.UUID) (rounddomain.PlayerProfile, error) {
	f.record("Profile")
	if f.ProfileFunc != nil {
		return f.ProfileFunc(ctx, userID)
	}
	return roundservice.DefaultProfile(userID), nil
}

func (f *FakeService) SaveProfile(ctx context.Context, profile rounddomain.PlayerProfile) (rounddomain.PlayerProfile, error) {
	f.record("SaveProfile")
	if f.SaveProfileFunc != nil {
		return f.SaveProfileFunc(ctx, profile)
	}
	return profile, nil
}

func (f *FakeService) CreateCourse(ctx context.Context, course rounddomain.Course) (rounddomain.Course, error) {
	f.record("CreateCourse")
	if f.CreateCourseFunc != nil {
		return f.CreateCourseFunc(ctx, course)
	}
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	return course, nil
}

var (
	_ Service = (*FakeService)(nil)
	_ Session = (*FakeSession)(nil)
)
