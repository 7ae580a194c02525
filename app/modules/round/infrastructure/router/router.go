package roundrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	rounddb "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/repositories"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"github.com/uptrace/bun"
)

const (
	TestEnvironmentFlag  = "APP_ENV"
	TestEnvironmentValue = "test"
)

// SummaryStore is the slice of the repository the projections write to.
type SummaryStore interface {
	UpsertSummary(ctx context.Context, db bun.IDB, summary *rounddb.RoundSummary) error
}

// RoundRouter consumes round events and maintains read models.
type RoundRouter struct {
	logger     *slog.Logger
	Router     *message.Router
	subscriber message.Subscriber
	store      SummaryStore
	tracer     trace.Tracer

	metricsBuilder *metrics.PrometheusMetricsBuilder
}

// NewRoundRouter builds a watermill router reading from subscriber. A nil
// registry disables router metrics.
func NewRoundRouter(
	logger *slog.Logger,
	subscriber message.Subscriber,
	store SummaryStore,
	tracer trace.Tracer,
	registry *prometheus.Registry,
) (*RoundRouter, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create round router: %w", err)
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("roundrouter")
	}

	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if registry != nil && os.Getenv(TestEnvironmentFlag) != TestEnvironmentValue {
		b := metrics.NewPrometheusMetricsBuilder(registry, "", "")
		metricsBuilder = &b
	}

	return &RoundRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		store:          store,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
	}, nil
}

// Configure installs middleware and registers the projection handlers.
func (r *RoundRouter) Configure() {
	if r.metricsBuilder != nil {
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	r.Router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: defaultRetryInterval,
			Logger:          watermill.NewSlogLogger(r.logger),
		}.Middleware,
	)

	registerHandler(r, rounddomain.RoundCompletedV1, r.HandleRoundCompleted)
	registerHandler(r, rounddomain.HoleFinishedV1, r.HandleHoleFinished)
}

// Run blocks until ctx is cancelled or the router fails.
func (r *RoundRouter) Run(ctx context.Context) error {
	return r.Router.Run(ctx)
}

// Running is closed once every handler is subscribed.
func (r *RoundRouter) Running() chan struct{} {
	return r.Router.Running()
}

func (r *RoundRouter) Close() error {
	return r.Router.Close()
}

// registerHandler subscribes a typed JSON handler to topic. Payloads that do
// not decode are acknowledged and dropped so they are not redelivered.
func registerHandler[T any](r *RoundRouter, topic string, handler func(context.Context, *T) error) {
	handlerName := "round." + topic

	r.Router.AddNoPublisherHandler(handlerName, topic, r.subscriber, func(msg *message.Message) error {
		ctx, span := r.tracer.Start(msg.Context(), handlerName, trace.WithAttributes(
			attribute.String("message.id", msg.UUID),
			attribute.String("message.topic", topic),
		))
		defer span.End()

		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			r.logger.ErrorContext(ctx, "Dropping undecodable round event",
				slog.String("handler", handlerName),
				slog.String("message_id", msg.UUID),
				slog.Any("error", err),
			)
			span.SetStatus(codes.Error, "undecodable payload")
			return nil
		}

		if err := handler(ctx, &payload); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.logger.ErrorContext(ctx, "Round event handler failed",
				slog.String("handler", handlerName),
				slog.String("message_id", msg.UUID),
				slog.Any("error", err),
			)
			return err
		}
		return nil
	})
}
