package testutils

import (
	"context"
	"testing"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	rounddb "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/repositories"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// NewCourse builds an 18-hole course with a fake name.
func NewCourse() rounddomain.Course {
	return rounddomain.Course{
		ID:            uuid.New(),
		Name:          gofakeit.City() + " Golf Club",
		HoleCount:     18,
		Pars:          []int{4, 4, 3, 5, 4, 4, 3, 4, 5, 4, 3, 4, 5, 4, 4, 3, 4, 5},
		StrokeIndexes: []int{7, 3, 15, 1, 11, 5, 17, 9, 13, 8, 16, 2, 12, 6, 10, 18, 4, 14},
		DefaultTee:    "yellow",
	}
}

// SeedCourse persists a generated course.
func SeedCourse(t *testing.T, ctx context.Context, repo rounddb.Repository) rounddomain.Course {
	t.Helper()
	course := NewCourse()
	require.NoError(t, repo.UpsertCourse(ctx, nil, rounddb.CourseFromDomain(course)))
	return course
}
