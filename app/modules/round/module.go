package round

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	assistservice "github.com/Black-And-White-Club/caddie/app/modules/assist/application"
	authhandlers "github.com/Black-And-White-Club/caddie/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/Black-And-White-Club/caddie/app/modules/auth/infrastructure/jwt"
	roundservice "github.com/Black-And-White-Club/caddie/app/modules/round/application"
	roundevents "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/events"
	roundhandlers "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/handlers"
	roundposition "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/position"
	roundqueue "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/queue"
	rounddb "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/repositories"
	roundrouter "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/router"
	"github.com/Black-And-White-Club/caddie/app/observability"
	"github.com/Black-And-White-Club/caddie/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 15 * time.Second

// Module represents the round module.
type Module struct {
	Service     *roundservice.Service
	RoundRouter *roundrouter.RoundRouter
	Queue       *roundqueue.Service
	Bus         *roundevents.Bus

	obs        observability.Observability
	config     *config.Config
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	server     *http.Server
	metrics    *http.Server
}

// NewRoundModule creates a new instance of the Round module. source supplies
// position fixes; the HTTP server uses roundposition.Reported.
func NewRoundModule(ctx context.Context, cfg *config.Config, obs observability.Observability, db *bun.DB, source roundposition.Source) (*Module, error) {
	logger := obs.Logger
	logger.Info("round.NewRoundModule called")

	repo := rounddb.NewRepository(db)

	bus, err := newBus(cfg, logger)
	if err != nil {
		return nil, err
	}

	roundRouter, err := roundrouter.NewRoundRouter(logger, bus.Subscriber, repo, obs.Tracer, obs.Registry)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("failed to create round router: %w", err)
	}
	roundRouter.Configure()

	deps := roundservice.Dependencies{
		Repo:               repo,
		DB:                 db,
		Positions:          roundposition.NewService(source, cfg.Engine.PositionTimeout, logger),
		Publisher:          roundevents.NewPublisher(bus.Publisher, logger),
		AccuracyThresholdM: cfg.Engine.AccuracyThresholdM,
		StaleRoundAfter:    cfg.Queue.StaleRoundAfter,
		Logger:             logger,
		Metrics:            obs.Metrics,
		Tracer:             obs.Tracer,
	}
	if err := attachAssist(&deps, cfg.Assist, logger); err != nil {
		_ = bus.Close()
		return nil, err
	}

	// The queue and the service reference each other; the expirer resolves
	// the service once it exists.
	var svc *roundservice.Service
	var queue *roundqueue.Service
	if cfg.Queue.Enabled {
		expirer := roundqueue.ExpirerFunc(func(ctx context.Context, roundID uuid.UUID) (bool, error) {
			return svc.ExpireRound(ctx, roundID)
		})
		queue, err = roundqueue.NewService(ctx, db, logger, cfg.Postgres.DSN, obs.Metrics, expirer)
		if err != nil {
			_ = bus.Close()
			return nil, fmt.Errorf("failed to create round queue: %w", err)
		}
		deps.Scheduler = queue
	}
	svc = roundservice.NewService(deps)

	return &Module{
		Service:     svc,
		RoundRouter: roundRouter,
		Queue:       queue,
		Bus:         bus,
		obs:         obs,
		config:      cfg,
		logger:      logger,
	}, nil
}

func newBus(cfg *config.Config, logger *slog.Logger) (*roundevents.Bus, error) {
	if cfg.NATS.URL == "" {
		logger.Info("NATS URL not configured; round events stay in-process")
		return roundevents.NewInMemoryBus(logger), nil
	}
	bus, err := roundevents.NewNATSBus(roundevents.NATSConfig{
		URL:       cfg.NATS.URL,
		JetStream: cfg.NATS.JetStream,
		NKeySeed:  cfg.NATS.NKeySeed,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect round event bus: %w", err)
	}
	return bus, nil
}

// attachAssist wires the coach and transcriber when an API key is configured.
// Without one the voice and ask endpoints answer 503.
func attachAssist(deps *roundservice.Dependencies, cfg config.AssistConfig, logger *slog.Logger) error {
	if cfg.APIKey == "" {
		logger.Warn("Assist API key not configured; coaching and voice commands are disabled")
		return nil
	}
	assistCfg := assistservice.Config{
		BaseURL:            cfg.BaseURL,
		APIKey:             cfg.APIKey,
		ChatModel:          cfg.ChatModel,
		TranscriptionModel: cfg.TranscriptionModel,
		Timeout:            cfg.Timeout,
		MaxTokens:          cfg.MaxTokens,
		Temperature:        cfg.Temperature,
	}
	coach, err := assistservice.NewCoach(assistCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create coach client: %w", err)
	}
	transcriber, err := assistservice.NewTranscriber(assistCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create transcription client: %w", err)
	}
	deps.Coach = coach
	deps.Transcriber = transcriber
	return nil
}

// Handler builds the HTTP API: health, metrics and the authenticated round
// routes.
func (m *Module) Handler() http.Handler {
	provider := authjwt.NewProvider(authjwt.Config{
		Secret:   m.config.JWT.Secret,
		Issuer:   m.config.JWT.Issuer,
		Audience: m.config.JWT.Audience,
	})
	limiter := authhandlers.NewIPRateLimiter(rate.Limit(m.config.HTTP.RateLimit), m.config.HTTP.RateBurst)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(authhandlers.CORSMiddleware(m.config.HTTP.AllowedOrigins))

	r.Get("/healthz", m.handleHealth)
	if m.config.Observability.MetricsAddress == "" {
		r.Handle("/metrics", m.obs.MetricsHandler())
	}

	roundhandlers.NewRoundHandlers(roundhandlers.Adapt(m.Service), m.logger).
		Mount(r, authhandlers.BearerAuth(provider, m.logger), limiter)
	return r
}

func (m *Module) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := "ok"
	if m.Queue != nil {
		if err := m.Queue.HealthCheck(r.Context()); err != nil {
			m.logger.WarnContext(r.Context(), "Health check failed", slog.Any("error", err))
			status, body = http.StatusServiceUnavailable, "queue unavailable"
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Run starts the event router, the job queue and the HTTP servers. It returns
// once everything is started; the caller waits on wg.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) error {
	m.logger.Info("Starting round module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := m.RoundRouter.Run(ctx); err != nil {
			m.logger.Error("Round router stopped with error", slog.Any("error", err))
		}
	}()

	if m.Queue != nil {
		if err := m.Queue.Start(ctx); err != nil {
			cancel()
			return err
		}
	}

	m.server = &http.Server{
		Addr:              m.config.HTTP.Addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	m.serve(wg, m.server, "api")

	if addr := m.config.Observability.MetricsAddress; addr != "" {
		m.metrics = &http.Server{
			Addr:              addr,
			Handler:           m.obs.MetricsHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		m.serve(wg, m.metrics, "metrics")
	}
	return nil
}

func (m *Module) serve(wg *sync.WaitGroup, srv *http.Server, name string) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.logger.Info("HTTP server listening", slog.String("server", name), slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("HTTP server failed", slog.String("server", name), slog.Any("error", err))
		}
	}()
}

func (m *Module) Close() error {
	m.logger.Info("Stopping round module")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	for _, srv := range []*http.Server{m.server, m.metrics} {
		if srv != nil {
			errs = append(errs, srv.Shutdown(ctx))
		}
	}
	if m.Queue != nil {
		errs = append(errs, m.Queue.Stop(ctx))
	}
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	errs = append(errs, m.RoundRouter.Close())
	m.Service.Close()
	errs = append(errs, m.Bus.Close())

	m.logger.Info("Round module stopped")
	return errors.Join(errs...)
}
