package roundservice

import (
	"context"
	"slices"
	"sync"
	"time"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	roundposition "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/position"
	rounddb "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Round Repo
// ------------------------

// FakeRepo keeps rows in memory unless a XxxFunc overrides the method.
type FakeRepo struct {
	mu    sync.Mutex
	trace []string

	Rounds   map[uuid.UUID]*rounddb.Round
	Strokes  map[uuid.UUID][]*rounddb.Stroke
	Courses  map[uuid.UUID]*rounddb.Course
	Profiles map[uuid.UUID]*rounddb.PlayerProfile
	Chats    []*rounddb.ChatMessage

	CreateRoundFunc         func(ctx context.Context, db bun.IDB, round *rounddb.Round) error
	UpdateRoundProgressFunc func(ctx context.Context, db bun.IDB, round *rounddb.Round) error
	InsertStrokeFunc        func(ctx context.Context, db bun.IDB, stroke *rounddb.Stroke) error
	DeleteStrokeFunc        func(ctx context.Context, db bun.IDB, roundID, strokeID uuid.UUID) error
	UpdateStrokeDetailsFunc func(ctx context.Context, db bun.IDB, stroke *rounddb.Stroke) error
	GetRoundFunc            func(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*rounddb.Round, error)
	GetCourseFunc           func(ctx context.Context, db bun.IDB, courseID uuid.UUID) (*rounddb.Course, error)
	GetProfileFunc          func(ctx context.Context, db bun.IDB, userID uuid.UUID) (*rounddb.PlayerProfile, error)
	InsertChatMessageFunc   func(ctx context.Context, db bun.IDB, msg *rounddb.ChatMessage) error
	ListRoundsFunc          func(ctx context.Context, db bun.IDB, filter rounddomain.RoundFilter) ([]*rounddb.Round, error)
}

func NewFakeRepo() *FakeRepo {
	return &FakeRepo{
		trace:    []string{},
		Rounds:   map[uuid.UUID]*rounddb.Round{},
		Strokes:  map[uuid.UUID][]*rounddb.Stroke{},
		Courses:  map[uuid.UUID]*rounddb.Course{},
		Profiles: map[uuid.UUID]*rounddb.PlayerProfile{},
	}
}

func (f *FakeRepo) record(step string) {
	f.trace = append(f.trace, step)
}

// --- Repository Interface Implementation ---

func (f *FakeRepo) CreateRound(ctx context.Context, db bun.IDB, round *rounddb.Round) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateRound")
	if f.CreateRoundFunc != nil {
		return f.CreateRoundFunc(ctx, db, round)
	}
	c := *round
	f.Rounds[round.ID] = &c
	return nil
}

func (f *FakeRepo) GetRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*rounddb.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetRound")
	if f.GetRoundFunc != nil {
		return f.GetRoundFunc(ctx, db, roundID)
	}
	r, ok := f.Rounds[roundID]
	if !ok {
		return nil, rounddb.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (f *FakeRepo) UpdateRoundProgress(ctx context.Context, db bun.IDB, round *rounddb.Round) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateRoundProgress")
	if f.UpdateRoundProgressFunc != nil {
		return f.UpdateRoundProgressFunc(ctx, db, round)
	}
	c := *round
	f.Rounds[round.ID] = &c
	return nil
}

func (f *FakeRepo) ListRounds(ctx context.Context, db bun.IDB, filter rounddomain.RoundFilter) ([]*rounddb.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListRounds")
	if f.ListRoundsFunc != nil {
		return f.ListRoundsFunc(ctx, db, filter)
	}
	var out []*rounddb.Round
	for _, r := range f.Rounds {
		if filter.UserID != uuid.Nil && r.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && r.Status != string(filter.Status) {
			continue
		}
		if filter.Since != nil && r.StartedAt.Before(*filter.Since) {
			continue
		}
		c := *r
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *rounddb.Round) int { return b.StartedAt.Compare(a.StartedAt) })
	return out, nil
}

func (f *FakeRepo) InsertStroke(ctx context.Context, db bun.IDB, stroke *rounddb.Stroke) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertStroke")
	if f.InsertStrokeFunc != nil {
		return f.InsertStrokeFunc(ctx, db, stroke)
	}
	c := *stroke
	f.Strokes[stroke.RoundID] = append(f.Strokes[stroke.RoundID], &c)
	return nil
}

func (f *FakeRepo) DeleteStroke(ctx context.Context, db bun.IDB, roundID, strokeID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteStroke")
	if f.DeleteStrokeFunc != nil {
		return f.DeleteStrokeFunc(ctx, db, roundID, strokeID)
	}
	rows := f.Strokes[roundID]
	idx := slices.IndexFunc(rows, func(s *rounddb.Stroke) bool { return s.ID == strokeID })
	if idx < 0 {
		return rounddb.ErrNotFound
	}
	f.Strokes[roundID] = slices.Delete(rows, idx, idx+1)
	return nil
}

func (f *FakeRepo) UpdateStrokeDetails(ctx context.Context, db bun.IDB, stroke *rounddb.Stroke) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateStrokeDetails")
	if f.UpdateStrokeDetailsFunc != nil {
		return f.UpdateStrokeDetailsFunc(ctx, db, stroke)
	}
	for _, s := range f.Strokes[stroke.RoundID] {
		if s.ID == stroke.ID {
			s.Club, s.Distance = stroke.Club, stroke.Distance
			return nil
		}
	}
	return rounddb.ErrNotFound
}

func (f *FakeRepo) GetStrokes(ctx context.Context, db bun.IDB, roundID uuid.UUID) ([]*rounddb.Stroke, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetStrokes")
	return slices.Clone(f.Strokes[roundID]), nil
}

func (f *FakeRepo) GetStrokesForUser(ctx context.Context, db bun.IDB, userID uuid.UUID) ([]*rounddb.Stroke, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetStrokesForUser")
	var out []*rounddb.Stroke
	for id, r := range f.Rounds {
		if r.UserID == userID {
			out = append(out, f.Strokes[id]...)
		}
	}
	return out, nil
}

func (f *FakeRepo) GetCourse(ctx context.Context, db bun.IDB, courseID uuid.UUID) (*rounddb.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetCourse")
	if f.GetCourseFunc != nil {
		return f.GetCourseFunc(ctx, db, courseID)
	}
	c, ok := f.Courses[courseID]
	if !ok {
		return nil, rounddb.ErrNotFound
	}
	return c, nil
}

func (f *FakeRepo) CreateCourse(ctx context.Context, db bun.IDB, course *rounddb.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateCourse")
	if _, ok := f.Courses[course.ID]; ok {
		return rounddb.ErrConflict
	}
	f.Courses[course.ID] = course
	return nil
}

func (f *FakeRepo) UpsertCourse(ctx context.Context, db bun.IDB, course *rounddb.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertCourse")
	f.Courses[course.ID] = course
	return nil
}

func (f *FakeRepo) GetProfile(ctx context.Context, db bun.IDB, userID uuid.UUID) (*rounddb.PlayerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetProfile")
	if f.GetProfileFunc != nil {
		return f.GetProfileFunc(ctx, db, userID)
	}
	p, ok := f.Profiles[userID]
	if !ok {
		return nil, rounddb.ErrNotFound
	}
	return p, nil
}

func (f *FakeRepo) UpsertProfile(ctx context.Context, db bun.IDB, profile *rounddb.PlayerProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertProfile")
	f.Profiles[profile.UserID] = profile
	return nil
}

func (f *FakeRepo) UpsertSummary(ctx context.Context, db bun.IDB, summary *rounddb.RoundSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertSummary")
	return nil
}

func (f *FakeRepo) GetSummary(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*rounddb.RoundSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetSummary")
	return nil, rounddb.ErrNotFound
}

func (f *FakeRepo) InsertChatMessage(ctx context.Context, db bun.IDB, msg *rounddb.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertChatMessage")
	if f.InsertChatMessageFunc != nil {
		return f.InsertChatMessageFunc(ctx, db, msg)
	}
	f.Chats = append(f.Chats, msg)
	return nil
}

// --- Accessors for assertions ---

func (f *FakeRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeRepo) StoredStrokes(roundID uuid.UUID) []*rounddb.Stroke {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.Strokes[roundID])
}

func (f *FakeRepo) StoredRound(roundID uuid.UUID) *rounddb.Round {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.Rounds[roundID]; ok {
		c := *r
		return &c
	}
	return nil
}

// Ensure the fake actually satisfies the interface
var _ rounddb.Repository = (*FakeRepo)(nil)

// ------------------------
// Fake Position Reader
// ------------------------

// FakePositions replays fixes in order. An exhausted queue reports no sensor.
type FakePositions struct {
	mu    sync.Mutex
	fixes []fakeFix

	CurrentPositionFunc func(ctx context.Context) (rounddomain.Position, error)
}

type fakeFix struct {
	pos rounddomain.Position
	err error
}

func (f *FakePositions) Push(pos rounddomain.Position) *FakePositions {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fixes = append(f.fixes, fakeFix{pos: pos})
	return f
}

func (f *FakePositions) Fail(reason roundposition.Reason) *FakePositions {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fixes = append(f.fixes, fakeFix{err: roundposition.Unavailable(reason, nil)})
	return f
}

func (f *FakePositions) CurrentPosition(ctx context.Context) (rounddomain.Position, error) {
	if f.CurrentPositionFunc != nil {
		return f.CurrentPositionFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.fixes) == 0 {
		return rounddomain.Position{}, roundposition.Unavailable(roundposition.ReasonNoSensor, nil)
	}
	next := f.fixes[0]
	f.fixes = f.fixes[1:]
	return next.pos, next.err
}

// ------------------------
// Fake Event Publisher
// ------------------------

type FakePublisher struct {
	mu     sync.Mutex
	topics []string
	events []any

	PublishFunc func(ctx context.Context, topic string, payload any) error
}

func (f *FakePublisher) Publish(ctx context.Context, topic string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	f.events = append(f.events, payload)
	if f.PublishFunc != nil {
		return f.PublishFunc(ctx, topic, payload)
	}
	return nil
}

func (f *FakePublisher) Topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.topics)
}

func (f *FakePublisher) Events() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.events)
}

// ------------------------
// Fake Assist Clients
// ------------------------

type FakeCoach struct {
	mu       sync.Mutex
	requests []rounddomain.CoachRequest

	RespondFunc func(ctx context.Context, req rounddomain.CoachRequest) (string, error)
}

func (f *FakeCoach) Respond(ctx context.Context, req rounddomain.CoachRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.RespondFunc != nil {
		return f.RespondFunc(ctx, req)
	}
	return "keep your head down", nil
}

func (f *FakeCoach) Requests() []rounddomain.CoachRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.requests)
}

type FakeTranscriber struct {
	TranscribeFunc func(ctx context.Context, audio []byte, filename, language string) (rounddomain.Transcript, error)
}

func (f *FakeTranscriber) Transcribe(ctx context.Context, audio []byte, filename, language string) (rounddomain.Transcript, error) {
	if f.TranscribeFunc != nil {
		return f.TranscribeFunc(ctx, audio, filename, language)
	}
	return rounddomain.Transcript{Text: string(audio)}, nil
}

type FakeScheduler struct {
	mu        sync.Mutex
	calls     map[uuid.UUID]time.Time
	cancelled []uuid.UUID

	ScheduleExpiryFunc  func(ctx context.Context, roundID uuid.UUID, at time.Time) error
	CancelRoundJobsFunc func(ctx context.Context, roundID uuid.UUID) error
}

func (f *FakeScheduler) CancelRoundJobs(ctx context.Context, roundID uuid.UUID) error {
	f.mu.Lock()
	f.cancelled = append(f.cancelled, roundID)
	f.mu.Unlock()
	if f.CancelRoundJobsFunc != nil {
		return f.CancelRoundJobsFunc(ctx, roundID)
	}
	return nil
}

func (f *FakeScheduler) Cancelled() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.cancelled)
}

func (f *FakeScheduler) ScheduleExpiry(ctx context.Context, roundID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[uuid.UUID]time.Time{}
	}
	f.calls[roundID] = at
	f.mu.Unlock()
	if f.ScheduleExpiryFunc != nil {
		return f.ScheduleExpiryFunc(ctx, roundID, at)
	}
	return nil
}

func (f *FakeScheduler) Scheduled(roundID uuid.UUID) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	at, ok := f.calls[roundID]
	return at, ok
}
