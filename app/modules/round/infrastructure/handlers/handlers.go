package roundhandlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	authdomain "github.com/Black-And-White-Club/caddie/app/modules/auth/domain"
	authhandlers "github.com/Black-And-White-Club/caddie/app/modules/auth/infrastructure/handlers"
	roundservice "github.com/Black-And-White-Club/caddie/app/modules/round/application"
	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	roundexport "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/export"
	roundtime "github.com/Black-And-White-Club/caddie/app/modules/round/time_utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// DefaultMaxAudioBytes bounds voice uploads.
const DefaultMaxAudioBytes = 25 << 20

// RoundHandlers serves the round HTTP API.
type RoundHandlers struct {
	service       Service
	logger        *slog.Logger
	timeParser    *roundtime.TimeParser
	now           func() time.Time
	maxAudioBytes int64
}

// Option customises RoundHandlers.
type Option func(*RoundHandlers)

// WithClock overrides the time source used to resolve history filters.
func WithClock(now func() time.Time) Option {
	return func(h *RoundHandlers) { h.now = now }
}

// WithMaxAudioBytes overrides DefaultMaxAudioBytes.
func WithMaxAudioBytes(n int64) Option {
	return func(h *RoundHandlers) { h.maxAudioBytes = n }
}

// NewRoundHandlers creates a new RoundHandlers.
func NewRoundHandlers(service Service, logger *slog.Logger, opts ...Option) *RoundHandlers {
	h := &RoundHandlers{
		service:       service,
		logger:        logger,
		timeParser:    roundtime.NewTimeParser(),
		now:           time.Now,
		maxAudioBytes: DefaultMaxAudioBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Mount registers the API on r. auth must store claims on the request
// context; limiter throttles the endpoints that call the assist backends.
func (h *RoundHandlers) Mount(r chi.Router, auth func(http.Handler) http.Handler, limiter *authhandlers.IPRateLimiter) {
	r.Route("/api", func(r chi.Router) {
		r.Use(auth)

		r.Route("/rounds", func(r chi.Router) {
			r.Post("/", h.HandleStartRound)
			r.Get("/", h.HandleListRounds)

			r.Route("/{roundID}", func(r chi.Router) {
				r.Get("/", h.HandleGetRound)
				r.Post("/strokes", h.HandleAddStroke)
				r.Delete("/strokes/last", h.HandleUndoStroke)
				r.Patch("/strokes/{strokeID}", h.HandleUpdateStroke)
				r.Post("/holes/finish", h.HandleFinishHole)
				r.Post("/abandon", h.HandleAbandon)

				r.Get("/scorecard", h.HandleScorecard)
				r.Get("/scorecard.xlsx", h.HandleScorecardXLSX)
				r.Get("/chart.png", h.HandleChart)
				r.Get("/trail.geojson", h.HandleTrail)

				r.Group(func(r chi.Router) {
					if limiter != nil {
						r.Use(authhandlers.RateLimitMiddleware(limiter))
					}
					r.Post("/voice", h.HandleVoice)
					r.Post("/ask", h.HandleAsk)
				})
			})
		})

		r.Route("/players/me", func(r chi.Router) {
			r.Get("/clubs", h.HandleClubStats)
			r.Get("/profile", h.HandleGetProfile)
			r.Put("/profile", h.HandleSaveProfile)
		})

		r.Post("/courses", h.HandleCreateCourse)
		r.Post("/courses/import", h.HandleImportCourse)
	})
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var errInvalidRequest = errors.New("invalid request")

// errorStatus maps service errors onto HTTP statuses and stable codes.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, roundservice.ErrEmptyHoleFinish):
		return http.StatusConflict, "empty_hole"
	case errors.Is(err, roundservice.ErrRoundCompleted):
		return http.StatusConflict, "round_completed"
	case errors.Is(err, roundservice.ErrCourseExists):
		return http.StatusConflict, "course_exists"
	case errors.Is(err, roundservice.ErrRoundNotFound):
		return http.StatusNotFound, "round_not_found"
	case errors.Is(err, roundservice.ErrStrokeNotFound):
		return http.StatusNotFound, "stroke_not_found"
	case errors.Is(err, roundservice.ErrCourseNotFound):
		return http.StatusNotFound, "course_not_found"
	case errors.Is(err, roundservice.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, roundservice.ErrPersistence):
		return http.StatusServiceUnavailable, "persistence_failure"
	case errors.Is(err, roundservice.ErrAssistUnavailable):
		return http.StatusServiceUnavailable, "assist_unavailable"
	case errors.Is(err, roundservice.ErrOperationAbandoned):
		return http.StatusRequestTimeout, "operation_abandoned"
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, roundservice.ErrInvalidSelection),
		errors.Is(err, roundservice.ErrInvalidDistance),
		errors.Is(err, roundservice.ErrEmptyMessage),
		errors.Is(err, roundservice.ErrInvalidProfile),
		errors.Is(err, roundservice.ErrInvalidCourse),
		errors.Is(err, roundservice.ErrNotEngineAction),
		errors.Is(err, rounddomain.ErrInvalidCoachMode),
		errors.Is(err, roundtime.ErrUnrecognized),
		errors.Is(err, roundtime.ErrFutureTime),
		errors.Is(err, roundtime.ErrTimezone),
		errors.Is(err, roundexport.ErrNoParColumn),
		errors.Is(err, roundexport.ErrEmptySheet):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (h *RoundHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Any("error", err),
		)
	}
	writeJSON(w, status, errorResponse{Error: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func claimsOrUnauthorized(w http.ResponseWriter, r *http.Request) (*authdomain.Claims, bool) {
	claims, ok := authhandlers.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: "missing credentials"})
		return nil, false
	}
	return claims, true
}

// session resolves the {roundID} of the request to a round the caller owns.
func (h *RoundHandlers) session(w http.ResponseWriter, r *http.Request) (Session, bool) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return nil, false
	}
	roundID, err := uuid.Parse(chi.URLParam(r, "roundID"))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: round id must be a uuid", errInvalidRequest))
		return nil, false
	}
	s, err := h.service.OwnedSession(r.Context(), claims.UserID, roundID)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return s, true
}

func decodeJSON(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", errInvalidRequest, err)
	}
	return nil
}
