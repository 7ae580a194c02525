package roundhandlers

import (
	"fmt"
	"net/http"

	roundexport "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HandleScorecard handles GET /api/rounds/{roundID}/scorecard.
func (h *RoundHandlers) HandleScorecard(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	card, err := h.service.Scorecard(r.Context(), s.ID())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// HandleScorecardXLSX handles GET /api/rounds/{roundID}/scorecard.xlsx.
func (h *RoundHandlers) HandleScorecardXLSX(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	card, err := h.service.Scorecard(r.Context(), s.ID())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	data, err := roundexport.ScorecardXLSX(card)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="scorecard-%s.xlsx"`, s.ID()))
	writeBytes(w, xlsxContentType, data)
}

// HandleChart handles GET /api/rounds/{roundID}/chart.png.
func (h *RoundHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	card, err := h.service.Scorecard(r.Context(), s.ID())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	data, err := roundexport.ScoreChartPNG(card, roundexport.DefaultPalette)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeBytes(w, "image/png", data)
}

// HandleTrail handles GET /api/rounds/{roundID}/trail.geojson.
func (h *RoundHandlers) HandleTrail(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	data, err := roundexport.ShotTrailGeoJSON(s.Snapshot().Strokes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeBytes(w, "application/geo+json", data)
}

func writeBytes(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
