package roundrouter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	roundevents "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/events"
	rounddb "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/repositories"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type fakeStore struct {
	mu        sync.Mutex
	calls     int
	failFirst int
	saved     chan *rounddb.RoundSummary
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: make(chan *rounddb.RoundSummary, 4)}
}

func (f *fakeStore) UpsertSummary(_ context.Context, _ bun.IDB, summary *rounddb.RoundSummary) error {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failFirst
	f.mu.Unlock()
	if fail {
		return errors.New("db unavailable")
	}
	f.saved <- summary
	return nil
}

func startRouter(t *testing.T, store SummaryStore) *roundevents.Bus {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	bus := roundevents.NewInMemoryBus(logger)

	r, err := NewRoundRouter(logger, bus.Subscriber, store, nil, nil)
	require.NoError(t, err)
	r.Configure()

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = r.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = r.Close()
		_ = bus.Close()
	})

	select {
	case <-r.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}
	return bus
}

func completedPayload() rounddomain.RoundCompletedPayloadV1 {
	return rounddomain.RoundCompletedPayloadV1{
		RoundID:  uuid.MustParse("3d7f2f5e-4b8a-4b4e-9d7c-0a1b2c3d4e5f"),
		UserID:   uuid.MustParse("9b2c6d1e-7f3a-4c5b-8e9d-1a2b3c4d5e6f"),
		CourseID: uuid.MustParse("5a4b3c2d-1e0f-4a9b-8c7d-6e5f4a3b2c1d"),
		Summary: rounddomain.Summary{
			TotalStrokes: 38,
			ParForPlayed: 35,
			HolesPlayed:  9,
			VsPar:        3,
		},
		CompletedAt: time.Date(2026, 6, 1, 11, 30, 0, 0, time.UTC),
	}
}

func TestRoundCompletedIsProjected(t *testing.T) {
	tests := []struct {
		name      string
		failFirst int
	}{
		{name: "first delivery succeeds"},
		{name: "transient store failure is retried", failFirst: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.failFirst = tt.failFirst
			bus := startRouter(t, store)

			pub := roundevents.NewPublisher(bus.Publisher, slog.New(slog.DiscardHandler))
			payload := completedPayload()
			require.NoError(t, pub.Publish(context.Background(), rounddomain.RoundCompletedV1, payload))

			select {
			case got := <-store.saved:
				assert.Equal(t, payload.RoundID, got.RoundID)
				assert.Equal(t, 38, got.TotalStrokes)
				assert.Equal(t, 3, got.VsPar)
			case <-time.After(5 * time.Second):
				t.Fatal("summary was not projected")
			}
		})
	}
}

func TestUndecodablePayloadIsDropped(t *testing.T) {
	store := newFakeStore()
	bus := startRouter(t, store)

	bad := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	require.NoError(t, bus.Publisher.Publish(rounddomain.RoundCompletedV1, bad))

	good := roundevents.NewPublisher(bus.Publisher, slog.New(slog.DiscardHandler))
	require.NoError(t, good.Publish(context.Background(), rounddomain.RoundCompletedV1, completedPayload()))

	select {
	case <-store.saved:
	case <-time.After(5 * time.Second):
		t.Fatal("handler stalled after a bad payload")
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.calls)
}
