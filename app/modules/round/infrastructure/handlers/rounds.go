package roundhandlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	roundservice "github.com/Black-And-White-Club/caddie/app/modules/round/application"
	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	roundposition "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/position"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 16

// HandleStartRound handles POST /api/rounds.
func (h *RoundHandlers) HandleStartRound(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req roundservice.StartRoundRequest
	if err := decodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.UserID = claims.UserID

	s, err := h.service.StartRound(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/rounds/"+s.ID().String())
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

// HandleListRounds handles GET /api/rounds?status=&since=&tz=&limit=.
func (h *RoundHandlers) HandleListRounds(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := rounddomain.RoundFilter{UserID: claims.UserID}

	switch status := rounddomain.RoundStatus(q.Get("status")); status {
	case "":
	case rounddomain.RoundStatusActive, rounddomain.RoundStatusCompleted:
		filter.Status = status
	default:
		h.writeError(w, r, fmt.Errorf("%w: unknown status %q", errInvalidRequest, status))
		return
	}

	if since := q.Get("since"); since != "" {
		t, err := h.timeParser.ParseSince(since, q.Get("tz"), h.now())
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		filter.Since = &t
	}

	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			h.writeError(w, r, fmt.Errorf("%w: limit must be a non-negative integer", errInvalidRequest))
			return
		}
		filter.Limit = n
	}

	rounds, err := h.service.ListRounds(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rounds": rounds})
}

// HandleGetRound handles GET /api/rounds/{roundID}.
func (h *RoundHandlers) HandleGetRound(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// strokeRequest carries the device's position reading, if any. A missing
// body means the client has no position sensor.
type strokeRequest struct {
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
	Accuracy      *float64   `json:"accuracy"`
	CapturedAt    *time.Time `json:"captured_at"`
	PositionError string     `json:"position_error"`
}

func (req strokeRequest) attach(r *http.Request, now time.Time) (*http.Request, error) {
	ctx := r.Context()
	switch {
	case req.Latitude != nil || req.Longitude != nil:
		if req.Latitude == nil || req.Longitude == nil {
			return nil, fmt.Errorf("%w: latitude and longitude go together", errInvalidRequest)
		}
		lat, lon := *req.Latitude, *req.Longitude
		if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("%w: coordinates out of range", errInvalidRequest)
		}
		pos := rounddomain.Position{
			Latitude:   lat,
			Longitude:  lon,
			Accuracy:   rounddomain.UnknownAccuracy,
			CapturedAt: now,
		}
		if req.Accuracy != nil {
			if *req.Accuracy < 0 || math.IsNaN(*req.Accuracy) {
				return nil, fmt.Errorf("%w: accuracy must be non-negative", errInvalidRequest)
			}
			pos.Accuracy = *req.Accuracy
		}
		if req.CapturedAt != nil {
			pos.CapturedAt = req.CapturedAt.UTC()
		}
		ctx = roundposition.WithFix(ctx, pos)
	case req.PositionError != "":
		ctx = roundposition.WithFailure(ctx, roundposition.ParseReason(req.PositionError))
	}
	return r.WithContext(ctx), nil
}

// HandleAddStroke handles POST /api/rounds/{roundID}/strokes.
func (h *RoundHandlers) HandleAddStroke(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %w", errInvalidRequest, err))
		return
	}
	var req strokeRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.writeError(w, r, fmt.Errorf("%w: %w", errInvalidRequest, err))
			return
		}
	}
	withPos, err := req.attach(r, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := s.AddStroke(withPos.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleUndoStroke handles DELETE /api/rounds/{roundID}/strokes/last.
func (h *RoundHandlers) HandleUndoStroke(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	res, err := s.UndoStroke(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type updateStrokeRequest struct {
	Club     *string  `json:"club"`
	Distance *float64 `json:"distance"`
}

// HandleUpdateStroke handles PATCH /api/rounds/{roundID}/strokes/{strokeID}.
func (h *RoundHandlers) HandleUpdateStroke(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	strokeID, err := uuid.Parse(chi.URLParam(r, "strokeID"))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: stroke id must be a uuid", errInvalidRequest))
		return
	}
	var req updateStrokeRequest
	if err := decodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Club == nil && req.Distance == nil {
		h.writeError(w, r, fmt.Errorf("%w: nothing to update", errInvalidRequest))
		return
	}

	var stroke rounddomain.Stroke
	if req.Club != nil {
		if stroke, err = s.SetStrokeClub(r.Context(), strokeID, *req.Club); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	if req.Distance != nil {
		if stroke, err = s.SetStrokeDistance(r.Context(), strokeID, *req.Distance); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, stroke)
}

// HandleFinishHole handles POST /api/rounds/{roundID}/holes/finish.
func (h *RoundHandlers) HandleFinishHole(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	res, err := s.FinishHole(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleAbandon handles POST /api/rounds/{roundID}/abandon.
func (h *RoundHandlers) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	res, err := s.Abandon(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
