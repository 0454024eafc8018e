package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sundose/sundose/internal/api/models"
	"github.com/sundose/sundose/internal/api/response"
	"github.com/sundose/sundose/internal/dosimetry"
	"github.com/sundose/sundose/internal/profile"
	"github.com/sundose/sundose/internal/uvindex"
)

// UVHandler handles current-conditions endpoints.
type UVHandler struct {
	coordinator *uvindex.Coordinator
	profiles    *profile.Service
}

// NewUVHandler creates a new UVHandler.
func NewUVHandler(coordinator *uvindex.Coordinator, profiles *profile.Service) *UVHandler {
	return &UVHandler{coordinator: coordinator, profiles: profiles}
}

// GetCurrent handles GET /v1/uv/current.
func (h *UVHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		response.BadRequest(w, r, "lat and lon query parameters are required", []models.FieldError{
			{Field: "lat", Message: "must be a number between -90 and 90"},
			{Field: "lon", Message: "must be a number between -180 and 180"},
		})
		return
	}

	alt := 0.0
	if raw := r.URL.Query().Get("alt"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.BadRequest(w, r, "alt must be a number of meters", []models.FieldError{
				{Field: "alt", Message: "must be a number"},
			})
			return
		}
		alt = parsed
	}

	cond, err := h.coordinator.Current(r.Context(), lat, lon, alt)
	if err != nil {
		if errors.Is(err, uvindex.ErrInvalidCoordinates) {
			response.BadRequest(w, r, "coordinates out of range", nil)
			return
		}
		response.ServiceUnavailable(w, r, "uv conditions are temporarily unavailable")
		return
	}

	if cond.HasNoData {
		response.JSON(w, r, http.StatusOK, models.UVNoData{HasNoData: true})
		return
	}

	out := models.UVConditions{
		UVIndex:           cond.UVIndex,
		ClearSkyUVIndex:   cond.ClearSkyUV,
		CloudCoverPercent: cond.CloudCoverPercent,
		MaxUVIndex:        cond.MaxUV,
		Sunrise:           models.Timestamp(cond.Sunrise),
		Sunset:            models.Timestamp(cond.Sunset),
		DisplayDate:       cond.DisplayDate.Format("2006-01-02"),
		DisplayTomorrow:   cond.DisplayTomorrow,
		OfflineMode:       cond.OfflineMode,
		LastUpdated:       models.Timestamp(cond.LastUpdated),
	}

	// Burn time is advisory and profile-dependent, so it only appears for
	// authenticated callers.
	if userID := GetUserID(r.Context()); userID != "" {
		if p, err := h.profiles.Get(r.Context(), userID); err == nil {
			if bt, err := dosimetry.EstimateBurnTime(cond.UVIndex, p.Dosimetry.SkinType); err == nil && !bt.Unbounded {
				minutes := bt.Minutes
				out.BurnTimeMinutes = &minutes
			}
		}
	}

	response.JSON(w, r, http.StatusOK, out)
}
