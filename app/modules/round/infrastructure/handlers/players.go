package roundhandlers

import (
	"fmt"
	"io"
	"net/http"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	roundexport "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/export"
)

// HandleClubStats handles GET /api/players/me/clubs.
func (h *RoundHandlers) HandleClubStats(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	clubs, err := h.service.ClubStats(r.Context(), claims.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clubs": clubs})
}

// HandleGetProfile handles GET /api/players/me/profile.
func (h *RoundHandlers) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	profile, err := h.service.Profile(r.Context(), claims.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleSaveProfile handles PUT /api/players/me/profile.
func (h *RoundHandlers) HandleSaveProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	var profile rounddomain.PlayerProfile
	if err := decodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &profile); err != nil {
		h.writeError(w, r, err)
		return
	}
	profile.UserID = claims.UserID

	saved, err := h.service.SaveProfile(r.Context(), profile)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// HandleCreateCourse handles POST /api/courses. Existing courses are only
// replaced through the admin CLI.
func (h *RoundHandlers) HandleCreateCourse(w http.ResponseWriter, r *http.Request) {
	if _, ok := claimsOrUnauthorized(w, r); !ok {
		return
	}
	var course rounddomain.Course
	if err := decodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &course); err != nil {
		h.writeError(w, r, err)
		return
	}
	saved, err := h.service.CreateCourse(r.Context(), course)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// HandleImportCourse handles POST /api/courses/import as multipart form data
// with a "file" workbook and "name", "tee" fields.
func (h *RoundHandlers) HandleImportCourse(w http.ResponseWriter, r *http.Request) {
	if _, ok := claimsOrUnauthorized(w, r); !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 4<<20)
	if err := r.ParseMultipartForm(4 << 20); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %w", errInvalidRequest, err))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: file is required", errInvalidRequest))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %w", errInvalidRequest, err))
		return
	}
	course, err := roundexport.ParseCourseXLSX(data, r.FormValue("name"))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %w", errInvalidRequest, err))
		return
	}
	course.DefaultTee = r.FormValue("tee")

	saved, err := h.service.CreateCourse(r.Context(), course)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}
