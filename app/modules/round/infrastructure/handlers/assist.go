package roundhandlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
)

// HandleVoice handles POST /api/rounds/{roundID}/voice as multipart form
// data with an "audio" file and an optional "language" field.
func (h *RoundHandlers) HandleVoice(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxAudioBytes+maxBodyBytes)
	if err := r.ParseMultipartForm(h.maxAudioBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "too_large", Message: "audio exceeds upload limit"})
			return
		}
		h.writeError(w, r, fmt.Errorf("%w: %w", errInvalidRequest, err))
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: audio file is required", errInvalidRequest))
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %w", errInvalidRequest, err))
		return
	}
	if len(audio) == 0 {
		h.writeError(w, r, fmt.Errorf("%w: audio file is empty", errInvalidRequest))
		return
	}

	res, err := h.service.HandleVoice(r.Context(), s.ID(), audio, header.Filename, r.FormValue("language"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type askRequest struct {
	Message  string `json:"message"`
	Mode     string `json:"mode"`
	Language string `json:"language"`
}

type askResponse struct {
	Response string `json:"response"`
}

// HandleAsk handles POST /api/rounds/{roundID}/ask.
func (h *RoundHandlers) HandleAsk(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req askRequest
	if err := decodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	mode, err := rounddomain.ParseCoachMode(req.Mode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	reply, err := h.service.Ask(r.Context(), s.ID(), req.Message, mode, req.Language)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Response: reply})
}
