package roundtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSince(t *testing.T) {
	now := time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)
	tp := NewTimeParser()

	tests := []struct {
		name     string
		input    string
		timezone string
		want     time.Time
		wantErr  error
	}{
		{name: "rfc3339", input: "2026-06-01T08:30:00Z", want: time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC)},
		{name: "date in zone", input: "2026-06-01", timezone: "CEST", want: time.Date(2026, 5, 31, 22, 0, 0, 0, time.UTC)},
		{name: "days ago", input: "3 days ago", want: now.Add(-72 * time.Hour)},
		{name: "last week", input: "Last week", want: now.Add(-7 * 24 * time.Hour)},
		{name: "future", input: "2026-07-01T00:00:00Z", wantErr: ErrFutureTime},
		{name: "gibberish", input: "whenever", wantErr: ErrUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tp.ParseSince(tt.input, tt.timezone, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestParseSinceInvalidTimezone(t *testing.T) {
	_, err := NewTimeParser().ParseSince("yesterday", "Mars/Olympus", time.Now())
	assert.ErrorIs(t, err, ErrTimezone)
}

func TestGetTimezoneFromInput(t *testing.T) {
	tp := NewTimeParser()

	zone, ok := tp.GetTimezoneFromInput("cet")
	assert.True(t, ok)
	assert.Equal(t, "Europe/Paris", zone)

	zone, ok = tp.GetTimezoneFromInput("europe/london")
	assert.True(t, ok)
	assert.Equal(t, "Europe/London", zone)

	_, ok = tp.GetTimezoneFromInput("XYZ")
	assert.False(t, ok)
}
