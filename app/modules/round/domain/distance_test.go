package rounddomain

import (
	"math"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters_Fixtures(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Position
		want    float64
		epsilon float64
	}{
		{
			name:    "paris landmarks",
			a:       Position{Latitude: 48.8566, Longitude: 2.3522},
			b:       Position{Latitude: 48.8584, Longitude: 2.2945},
			want:    4350,
			epsilon: 0.05,
		},
		{
			name:    "quarter meridian",
			a:       Position{Latitude: 0, Longitude: 0},
			b:       Position{Latitude: 90, Longitude: 0},
			want:    math.Pi / 2 * EarthRadiusMeters,
			epsilon: 1e-9,
		},
		{
			name:    "antipodal",
			a:       Position{Latitude: 0, Longitude: 0},
			b:       Position{Latitude: 0, Longitude: 180},
			want:    math.Pi * EarthRadiusMeters,
			epsilon: 1e-9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMeters(tt.a, tt.b)
			assert.InEpsilon(t, tt.want, got, tt.epsilon)
			assert.False(t, math.IsNaN(got))
		})
	}
}

func TestDistanceMeters_Properties(t *testing.T) {
	faker := gofakeit.New(42)

	for i := 0; i < 500; i++ {
		a := Position{Latitude: faker.Latitude(), Longitude: faker.Longitude()}
		b := Position{Latitude: faker.Latitude(), Longitude: faker.Longitude()}

		assert.Zero(t, DistanceMeters(a, a), "identical points: %+v", a)

		ab := DistanceMeters(a, b)
		ba := DistanceMeters(b, a)
		assert.InDelta(t, ab, ba, 1e-6, "symmetry: %+v %+v", a, b)
		assert.GreaterOrEqual(t, ab, 0.0)
		assert.LessOrEqual(t, ab, math.Pi*EarthRadiusMeters+1e-6)
	}
}

func TestDistanceMeters_NearAntipodalStable(t *testing.T) {
	faker := gofakeit.New(7)

	for i := 0; i < 200; i++ {
		lat := faker.Float64Range(-89, 89)
		lon := faker.Float64Range(-179, 0)
		a := Position{Latitude: lat, Longitude: lon}
		b := Position{Latitude: -lat, Longitude: lon + 180}

		got := DistanceMeters(a, b)
		assert.False(t, math.IsNaN(got))
		assert.InEpsilon(t, math.Pi*EarthRadiusMeters, got, 1e-6)
	}
}
