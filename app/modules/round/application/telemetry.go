package roundservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/caddie/app/observability"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// telemetry bundles the cross-cutting handles shared by Service and Engine.
type telemetry struct {
	component string
	logger    *slog.Logger
	metrics   observability.Metrics
	tracer    trace.Tracer
	db        *bun.DB
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (OperationResult[S, F], error)

// withTelemetry wraps an operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	t *telemetry,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result OperationResult[S, F], err error) {

	var span trace.Span
	if t.tracer != nil {
		ctx, span = t.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if t.metrics != nil {
		t.metrics.RecordOperationAttempt(ctx, operationName, t.component)
	}

	startTime := time.Now()
	defer func() {
		if t.metrics != nil {
			t.metrics.RecordOperationDuration(ctx, operationName, t.component, time.Since(startTime))
		}
	}()

	t.logger.InfoContext(ctx, "Operation triggered",
		slog.String("operation", operationName),
		slog.String("identifier", identifier),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			t.logger.ErrorContext(ctx, "Critical panic recovered",
				slog.String("identifier", identifier),
				slog.Any("error", err),
			)
			if t.metrics != nil {
				t.metrics.RecordOperationFailure(ctx, operationName, t.component)
			}
			span.RecordError(err)
			result = OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		t.logger.ErrorContext(ctx, "Operation failed with error",
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
			slog.Any("error", wrappedErr),
		)
		if t.metrics != nil {
			t.metrics.RecordOperationFailure(ctx, operationName, t.component)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		t.logger.WarnContext(ctx, "Operation returned failure result",
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
			slog.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		t.logger.InfoContext(ctx, "Operation completed successfully",
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
		)
	}

	if t.metrics != nil {
		t.metrics.RecordOperationSuccess(ctx, operationName, t.component)
	}

	return result, nil
}

// inTx runs fn inside a transaction when a database is configured. Without
// one, fn receives a nil handle and repositories use their own connection.
func (t *telemetry) inTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if t.db == nil {
		return fn(ctx, nil)
	}
	return t.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	t *telemetry,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (OperationResult[S, F], error),
) (OperationResult[S, F], error) {
	var result OperationResult[S, F]
	err := t.inTx(ctx, func(ctx context.Context, db bun.IDB) error {
		var txErr error
		result, txErr = fn(ctx, db)
		return txErr
	})
	return result, err
}
