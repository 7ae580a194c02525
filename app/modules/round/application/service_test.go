package roundservice

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"testing"
	"time"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	rounddb "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type serviceHarness struct {
	repo        *FakeRepo
	positions   *FakePositions
	publisher   *FakePublisher
	coach       *FakeCoach
	transcriber *FakeTranscriber
	scheduler   *FakeScheduler
	svc         *Service
}

func newServiceHarness(t *testing.T) *serviceHarness {
	t.Helper()
	h := &serviceHarness{
		repo:        NewFakeRepo(),
		positions:   &FakePositions{},
		publisher:   &FakePublisher{},
		coach:       &FakeCoach{},
		transcriber: &FakeTranscriber{},
		scheduler:   &FakeScheduler{},
	}
	h.repo.Courses[testCourseID] = rounddb.CourseFromDomain(testCourse())
	h.svc = NewService(Dependencies{
		Repo:            h.repo,
		Positions:       h.positions,
		Publisher:       h.publisher,
		Coach:           h.coach,
		Transcriber:     h.transcriber,
		Scheduler:       h.scheduler,
		StaleRoundAfter: 12 * time.Hour,
		Logger:          slog.New(slog.DiscardHandler),
		Now:             func() time.Time { return testNow },
	})
	t.Cleanup(h.svc.Close)
	return h
}

func (h *serviceHarness) start(t *testing.T, sel rounddomain.HoleSelection) *Engine {
	t.Helper()
	e, err := h.svc.StartRound(context.Background(), StartRoundRequest{
		UserID:    testUserID,
		CourseID:  testCourseID,
		Selection: sel,
	})
	require.NoError(t, err)
	return e
}

func TestService_StartRound(t *testing.T) {
	nineHoleID := uuid.New()

	tests := []struct {
		name    string
		setup   func(h *serviceHarness)
		req     StartRoundRequest
		wantErr error
		wantTee string
	}{
		{
			name:    "default tee from course",
			req:     StartRoundRequest{UserID: testUserID, CourseID: testCourseID, Selection: rounddomain.SelectionBackNine},
			wantTee: "yellow",
		},
		{
			name:    "explicit tee",
			req:     StartRoundRequest{UserID: testUserID, CourseID: testCourseID, Selection: rounddomain.SelectionFull, TeeColor: "white"},
			wantTee: "white",
		},
		{
			name:    "unknown selection",
			req:     StartRoundRequest{UserID: testUserID, CourseID: testCourseID, Selection: "front6"},
			wantErr: ErrInvalidSelection,
		},
		{
			name:    "unknown course",
			req:     StartRoundRequest{UserID: testUserID, CourseID: uuid.New(), Selection: rounddomain.SelectionFull},
			wantErr: ErrCourseNotFound,
		},
		{
			name: "back nine on a nine hole course",
			setup: func(h *serviceHarness) {
				h.repo.Courses[nineHoleID] = &rounddb.Course{ID: nineHoleID, Name: "Pitch & Putt", HoleCount: 9, Pars: []int{3, 3, 3, 3, 3, 3, 3, 3, 3}}
			},
			req:     StartRoundRequest{UserID: testUserID, CourseID: nineHoleID, Selection: rounddomain.SelectionBackNine},
			wantErr: ErrInvalidSelection,
		},
		{
			name: "store failure",
			setup: func(h *serviceHarness) {
				h.repo.CreateRoundFunc = func(context.Context, bun.IDB, *rounddb.Round) error { return errors.New("disk full") }
			},
			req:     StartRoundRequest{UserID: testUserID, CourseID: testCourseID, Selection: rounddomain.SelectionFull},
			wantErr: ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newServiceHarness(t)
			if tt.setup != nil {
				tt.setup(h)
			}

			e, err := h.svc.StartRound(context.Background(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, e)
				return
			}
			require.NoError(t, err)

			snap := e.Snapshot()
			assert.Equal(t, rounddomain.RoundStatusActive, snap.Round.Status)
			assert.Equal(t, 1, snap.CurrentHole)
			assert.Empty(t, snap.Strokes)
			assert.Equal(t, tt.wantTee, snap.Round.TeeColor)
			assert.NotNil(t, h.repo.StoredRound(e.ID()))

			at, ok := h.scheduler.Scheduled(e.ID())
			require.True(t, ok)
			assert.Equal(t, testNow.Add(12*time.Hour), at)

			same, err := h.svc.Session(context.Background(), e.ID())
			require.NoError(t, err)
			assert.Same(t, e, same)
		})
	}
}

func TestService_StartRoundSurvivesSchedulerFailure(t *testing.T) {
	h := newServiceHarness(t)
	h.scheduler.ScheduleExpiryFunc = func(context.Context, uuid.UUID, time.Time) error { return errors.New("queue offline") }

	e := h.start(t, rounddomain.SelectionFull)
	assert.NotNil(t, e)
}

func TestService_SessionLoadsFromStore(t *testing.T) {
	h := newServiceHarness(t)
	roundID := uuid.New()
	h.repo.Rounds[roundID] = rounddb.RoundFromDomain(rounddomain.Round{
		ID: roundID, UserID: testUserID, CourseID: testCourseID,
		Selection: rounddomain.SelectionFull, Status: rounddomain.RoundStatusActive,
		StartedAt: testNow, CurrentHole: 2, TotalStrokes: 3,
	})
	positioned := fix(120, 4)
	for i, st := range []rounddomain.Stroke{
		{ID: uuid.New(), HoleIndex: 1, Position: &rounddomain.Position{Latitude: 48.8566, Longitude: 2.3522, Accuracy: 4}},
		{ID: uuid.New(), HoleIndex: 1, Position: &positioned},
		{ID: uuid.New(), HoleIndex: 2},
	} {
		st.RecordedAt = testNow.Add(time.Duration(i) * time.Minute)
		h.repo.Strokes[roundID] = append(h.repo.Strokes[roundID], rounddb.StrokeFromDomain(roundID, st))
	}

	e, err := h.svc.Session(context.Background(), roundID)
	require.NoError(t, err)

	snap := e.Snapshot()
	assert.Equal(t, 2, snap.CurrentHole)
	assert.Len(t, snap.Strokes, 3)
	require.NotNil(t, snap.LastPosition)
	assert.Equal(t, positioned.Latitude, snap.LastPosition.Latitude)

	h.positions.Push(fix(270, 4))
	res, err := e.AddStroke(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Stroke.Distance)
	assert.Equal(t, 150.0, *res.Stroke.Distance)

	_, err = h.svc.Session(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestService_OwnedSession(t *testing.T) {
	h := newServiceHarness(t)
	e := h.start(t, rounddomain.SelectionFull)

	_, err := h.svc.OwnedSession(context.Background(), uuid.New(), e.ID())
	assert.ErrorIs(t, err, ErrForbidden)

	owned, err := h.svc.OwnedSession(context.Background(), testUserID, e.ID())
	require.NoError(t, err)
	assert.Same(t, e, owned)
}

func TestService_HandleTranscript(t *testing.T) {
	h := newServiceHarness(t)
	e := h.start(t, rounddomain.SelectionFull)
	ctx := context.Background()

	res, err := h.svc.HandleTranscript(ctx, e.ID(), rounddomain.Transcript{Text: "Jouer un coup", ActionHint: "message"}, "fr")
	require.NoError(t, err)
	assert.Equal(t, rounddomain.ActionAddStroke, res.Action.Kind)
	require.NotNil(t, res.Dispatch)
	require.NotNil(t, res.Dispatch.Stroke)
	assert.Empty(t, h.coach.Requests())

	res, err = h.svc.HandleTranscript(ctx, e.ID(), rounddomain.Transcript{Text: "  what club should I use  "}, "")
	require.NoError(t, err)
	assert.Equal(t, rounddomain.ActionFreeformMessage, res.Action.Kind)
	assert.Nil(t, res.Dispatch)
	assert.Equal(t, "keep your head down", res.Reply)

	reqs := h.coach.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "what club should I use", reqs[0].Message)
	assert.Equal(t, rounddomain.CoachModeCoach, reqs[0].Mode)
	assert.Equal(t, DefaultLanguage, reqs[0].Language)
	require.NotNil(t, reqs[0].Context)
	assert.Equal(t, 1, reqs[0].Context.TotalStrokes)
	assert.Equal(t, 54.0, reqs[0].Context.HandicapIndex)
	require.Len(t, h.repo.Chats, 1)
	assert.Equal(t, "keep your head down", h.repo.Chats[0].Response)

	_, err = h.svc.HandleTranscript(ctx, e.ID(), rounddomain.Transcript{Text: "finish"}, "en")
	require.NoError(t, err)
	_, err = h.svc.HandleTranscript(ctx, e.ID(), rounddomain.Transcript{Text: "finish"}, "en")
	assert.ErrorIs(t, err, ErrEmptyHoleFinish)
}

func TestService_HandleVoice(t *testing.T) {
	h := newServiceHarness(t)
	e := h.start(t, rounddomain.SelectionFull)
	h.transcriber.TranscribeFunc = func(_ context.Context, audio []byte, filename, language string) (rounddomain.Transcript, error) {
		assert.Equal(t, "shot.webm", filename)
		assert.Equal(t, "fr", language)
		return rounddomain.Transcript{Text: "coup", ActionHint: "add_stroke"}, nil
	}

	res, err := h.svc.HandleVoice(context.Background(), e.ID(), []byte{0x1a, 0x45}, "shot.webm", "fr")
	require.NoError(t, err)
	require.NotNil(t, res.Dispatch)
	assert.Equal(t, 1, e.Snapshot().Round.TotalStrokes)

	h.transcriber.TranscribeFunc = func(context.Context, []byte, string, string) (rounddomain.Transcript, error) {
		return rounddomain.Transcript{}, errors.New("upstream 502")
	}
	_, err = h.svc.HandleVoice(context.Background(), e.ID(), nil, "shot.webm", "fr")
	assert.Error(t, err)
	assert.Equal(t, 1, e.Snapshot().Round.TotalStrokes)
}

func TestService_AskUsesProfile(t *testing.T) {
	h := newServiceHarness(t)
	e := h.start(t, rounddomain.SelectionFull)
	h.repo.Profiles[testUserID] = rounddb.ProfileFromDomain(rounddomain.PlayerProfile{
		UserID: testUserID, FirstName: "Camille", HandicapIndex: 12.3, PreferredUnits: rounddomain.UnitYards, Language: "en",
	})
	h.repo.InsertChatMessageFunc = func(context.Context, bun.IDB, *rounddb.ChatMessage) error { return errors.New("chat table missing") }

	reply, err := h.svc.Ask(context.Background(), e.ID(), "Is a ball in a divot a free drop?", rounddomain.CoachModeRules, "")
	require.NoError(t, err)
	assert.NotEmpty(t, reply)

	req := h.coach.Requests()[0]
	assert.Equal(t, rounddomain.CoachModeRules, req.Mode)
	assert.Equal(t, "en", req.Language)
	assert.Equal(t, "Camille", req.Context.PlayerName)
	assert.Equal(t, rounddomain.UnitYards, req.Context.PreferredUnits)

	_, err = h.svc.Ask(context.Background(), e.ID(), "   ", rounddomain.CoachModeCoach, "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestService_AssistNotConfigured(t *testing.T) {
	svc := NewService(Dependencies{Repo: NewFakeRepo(), Logger: slog.New(slog.DiscardHandler)})
	_, err := svc.HandleVoice(context.Background(), uuid.New(), nil, "a.webm", "fr")
	assert.ErrorIs(t, err, ErrAssistUnavailable)
}

func TestService_ExpireRound(t *testing.T) {
	h := newServiceHarness(t)
	e := h.start(t, rounddomain.SelectionFull)
	_, err := e.AddStroke(context.Background())
	require.NoError(t, err)

	expired, err := h.svc.ExpireRound(context.Background(), e.ID())
	require.NoError(t, err)
	assert.True(t, expired)
	assert.Equal(t, rounddomain.RoundStatusCompleted, e.Snapshot().Round.Status)

	expired, err = h.svc.ExpireRound(context.Background(), e.ID())
	require.NoError(t, err)
	assert.False(t, expired)

	expired, err = h.svc.ExpireRound(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Empty(t, h.scheduler.Cancelled())
}

func TestService_CompletedRoundCancelsExpiry(t *testing.T) {
	h := newServiceHarness(t)
	h.scheduler.CancelRoundJobsFunc = func(context.Context, uuid.UUID) error { return errors.New("queue offline") }
	e := h.start(t, rounddomain.SelectionFrontNine)
	ctx := context.Background()

	var res FinishResult
	for range 9 {
		_, err := e.AddStroke(ctx)
		require.NoError(t, err)
		res, err = e.FinishHole(ctx)
		require.NoError(t, err)
	}
	require.True(t, res.Completed)
	assert.Equal(t, []uuid.UUID{e.ID()}, h.scheduler.Cancelled())
}

func TestService_ScorecardAndHistory(t *testing.T) {
	h := newServiceHarness(t)
	e := h.start(t, rounddomain.SelectionFrontNine)
	for _, n := range []int{4, 3, 5} {
		for range n {
			_, err := e.AddStroke(context.Background())
			require.NoError(t, err)
		}
		_, err := e.FinishHole(context.Background())
		require.NoError(t, err)
	}

	card, err := h.svc.Scorecard(context.Background(), e.ID())
	require.NoError(t, err)
	require.Len(t, card.Rows, 9)
	assert.Equal(t, 12, card.Summary.TotalStrokes)
	assert.Equal(t, 11, card.Summary.ParForPlayed)
	assert.Equal(t, 1, card.Summary.VsPar)
	assert.True(t, card.Rows[3].Current)
	assert.Nil(t, card.Out)

	rounds, err := h.svc.ListRounds(context.Background(), rounddomain.RoundFilter{UserID: testUserID})
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, e.ID(), rounds[0].ID)
	assert.Equal(t, 12, rounds[0].TotalStrokes)

	rounds, err = h.svc.ListRounds(context.Background(), rounddomain.RoundFilter{UserID: testUserID, Status: rounddomain.RoundStatusCompleted})
	require.NoError(t, err)
	assert.Empty(t, rounds)
}

func TestService_ClubStats(t *testing.T) {
	h := newServiceHarness(t)
	e := h.start(t, rounddomain.SelectionFull)
	h.positions.Push(fix(0, 3)).Push(fix(200, 3)).Push(fix(350, 3))
	var ids []uuid.UUID
	for range 3 {
		res, err := e.AddStroke(context.Background())
		require.NoError(t, err)
		ids = append(ids, res.Stroke.ID)
	}
	for _, id := range ids {
		_, err := e.SetStrokeClub(context.Background(), id, "driver")
		require.NoError(t, err)
	}

	stats, err := h.svc.ClubStats(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "driver", stats[0].Club)
	assert.Equal(t, 3, stats[0].Strokes)
	assert.Equal(t, 2, stats[0].MeasuredStrokes)
	assert.Equal(t, 175.0, stats[0].AverageDistance)
}

func TestService_SaveProfileAndCourse(t *testing.T) {
	h := newServiceHarness(t)

	_, err := h.svc.SaveProfile(context.Background(), rounddomain.PlayerProfile{UserID: testUserID, HandicapIndex: 60})
	assert.ErrorIs(t, err, ErrInvalidProfile)

	p, err := h.svc.SaveProfile(context.Background(), rounddomain.PlayerProfile{UserID: testUserID, HandicapIndex: 9.8, PreferredUnits: "yards", Language: " EN "})
	require.NoError(t, err)
	assert.Equal(t, rounddomain.UnitYards, p.PreferredUnits)
	assert.Equal(t, "en", p.Language)

	got, err := h.svc.Profile(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, 9.8, got.HandicapIndex)

	_, err = h.svc.SaveCourse(context.Background(), rounddomain.Course{Name: "Short", HoleCount: 9, Pars: []int{3, 4}})
	assert.ErrorIs(t, err, ErrInvalidCourse)

	c, err := h.svc.SaveCourse(context.Background(), rounddomain.Course{Name: "Nine", HoleCount: 9, Pars: []int{3, 4, 5, 4, 3, 4, 5, 4, 4}})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Contains(t, h.repo.Courses, c.ID)
}

func TestService_SaveProfileUnits(t *testing.T) {
	tests := []struct {
		name    string
		units   rounddomain.Units
		want    rounddomain.Units
		wantErr error
	}{
		{name: "omitted defaults to meters", units: "", want: rounddomain.UnitMeters},
		{name: "mixed case yards", units: "Yards", want: rounddomain.UnitYards},
		{name: "british metres", units: "metres", want: rounddomain.UnitMeters},
		{name: "short form", units: "yd", want: rounddomain.UnitYards},
		{name: "unknown unit", units: "furlongs", wantErr: ErrInvalidProfile},
		{name: "kilometers", units: "km", wantErr: ErrInvalidProfile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newServiceHarness(t)

			p, err := h.svc.SaveProfile(context.Background(), rounddomain.PlayerProfile{UserID: testUserID, HandicapIndex: 18, PreferredUnits: tt.units})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.NotContains(t, h.repo.Trace(), "UpsertProfile")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.PreferredUnits)

			got, err := h.svc.Profile(context.Background(), testUserID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.PreferredUnits)
		})
	}
}

func (h *serviceHarness) liveSessions() int {
	h.svc.mu.Lock()
	defer h.svc.mu.Unlock()
	return len(h.svc.sessions)
}

func TestService_CompletedSessionsAreEvicted(t *testing.T) {
	tests := []struct {
		name     string
		complete func(t *testing.T, h *serviceHarness, e *Engine)
	}{
		{
			name: "abandoned by the player",
			complete: func(t *testing.T, _ *serviceHarness, e *Engine) {
				_, err := e.Abandon(context.Background())
				require.NoError(t, err)
			},
		},
		{
			name: "expired by the queue",
			complete: func(t *testing.T, h *serviceHarness, e *Engine) {
				expired, err := h.svc.ExpireRound(context.Background(), e.ID())
				require.NoError(t, err)
				require.True(t, expired)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newServiceHarness(t)
			e := h.start(t, rounddomain.SelectionFrontNine)
			_, err := e.AddStroke(context.Background())
			require.NoError(t, err)
			require.Equal(t, 1, h.liveSessions())

			tt.complete(t, h, e)
			assert.Zero(t, h.liveSessions())

			reloaded, err := h.svc.Session(context.Background(), e.ID())
			require.NoError(t, err)
			assert.NotSame(t, e, reloaded)
			assert.Equal(t, rounddomain.RoundStatusCompleted, reloaded.Snapshot().Round.Status)
			assert.Zero(t, h.liveSessions())
		})
	}
}

func TestService_ExpireRoundReadsStoredStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      rounddomain.RoundStatus
		wantExpired bool
		wantLoaded  bool
	}{
		{name: "completed round is not loaded", status: rounddomain.RoundStatusCompleted},
		{name: "active round is abandoned", status: rounddomain.RoundStatusActive, wantExpired: true, wantLoaded: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newServiceHarness(t)
			roundID := uuid.New()
			h.repo.Rounds[roundID] = rounddb.RoundFromDomain(rounddomain.Round{
				ID: roundID, UserID: testUserID, CourseID: testCourseID,
				Selection: rounddomain.SelectionFull, Status: tt.status,
				StartedAt: testNow, CurrentHole: 3, TotalStrokes: 12,
			})

			expired, err := h.svc.ExpireRound(context.Background(), roundID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantExpired, expired)
			assert.Equal(t, tt.wantLoaded, slices.Contains(h.repo.Trace(), "GetStrokes"))
			assert.Zero(t, h.liveSessions())
		})
	}
}

func TestService_CreateCourse(t *testing.T) {
	nine := []int{3, 4, 5, 4, 3, 4, 5, 4, 4}
	tests := []struct {
		name    string
		course  func() rounddomain.Course
		wantErr error
	}{
		{
			name:   "new id assigned",
			course: func() rounddomain.Course { return rounddomain.Course{Name: "Nine", HoleCount: 9, Pars: nine} },
		},
		{
			name:   "caller chosen id",
			course: func() rounddomain.Course { return rounddomain.Course{ID: uuid.New(), Name: "Nine", HoleCount: 9, Pars: nine} },
		},
		{
			name:    "existing course is kept",
			course:  func() rounddomain.Course { return rounddomain.Course{ID: testCourseID, Name: "Hijacked", HoleCount: 9, Pars: nine} },
			wantErr: ErrCourseExists,
		},
		{
			name:    "invalid course",
			course:  func() rounddomain.Course { return rounddomain.Course{Name: "Short", HoleCount: 9, Pars: []int{3}} },
			wantErr: ErrInvalidCourse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newServiceHarness(t)

			c, err := h.svc.CreateCourse(context.Background(), tt.course())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, testCourse().Name, h.repo.Courses[testCourseID].Name)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, c.ID)
			assert.Contains(t, h.repo.Courses, c.ID)
		})
	}
}
