package roundservice

import (
	"errors"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
)

var (
	// ErrEmptyHoleFinish is returned when finishing a hole with no strokes.
	ErrEmptyHoleFinish = errors.New("cannot finish a hole with no strokes")

	// ErrPersistence wraps store failures. In-memory state is unchanged when it is returned.
	ErrPersistence = errors.New("persistence failure")

	// ErrRoundNotFound is returned for an unknown round.
	ErrRoundNotFound = errors.New("round not found")

	// ErrRoundCompleted is returned when mutating a completed round.
	ErrRoundCompleted = errors.New("round is completed")

	// ErrStrokeNotFound is returned for an unknown stroke.
	ErrStrokeNotFound = errors.New("stroke not found")

	// ErrInvalidSelection is returned for an unknown or unsupported hole selection.
	ErrInvalidSelection = rounddomain.ErrInvalidSelection

	// ErrCourseNotFound is returned for an unknown course.
	ErrCourseNotFound = errors.New("course not found")

	// ErrOperationAbandoned is returned when the caller went away or the engine
	// closed before the operation committed. Nothing was persisted.
	ErrOperationAbandoned = errors.New("operation abandoned")

	// ErrNotEngineAction is returned when a freeform message is dispatched to the engine.
	ErrNotEngineAction = errors.New("action is not handled by the round engine")

	// ErrForbidden is returned when a player accesses another player's round.
	ErrForbidden = errors.New("round belongs to another player")

	// ErrInvalidDistance is returned for a negative stroke distance.
	ErrInvalidDistance = errors.New("distance must not be negative")

	// ErrEmptyMessage is returned for a blank coach question.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrInvalidProfile is returned for out-of-range profile values.
	ErrInvalidProfile = errors.New("invalid player profile")

	// ErrInvalidCourse is returned for inconsistent course data.
	ErrInvalidCourse = errors.New("invalid course")

	// ErrCourseExists is returned when creating a course under a taken id.
	ErrCourseExists = errors.New("course already exists")

	// ErrAssistUnavailable is returned when no coach or transcriber is configured.
	ErrAssistUnavailable = errors.New("assistant is not configured")
)
