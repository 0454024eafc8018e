package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sundose/sundose/internal/api/models"
	"github.com/sundose/sundose/internal/api/response"
	"github.com/sundose/sundose/internal/dosimetry"
	"github.com/sundose/sundose/internal/profile"
)

// ProfileHandler handles dosimetry profile endpoints.
type ProfileHandler struct {
	profiles *profile.Service
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *profile.Service) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GetProfile handles GET /v1/profile.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		response.InternalError(w, r, "could not load profile")
		return
	}

	response.JSON(w, r, http.StatusOK, toAPIProfile(p))
}

// UpdateProfile handles PUT /v1/profile.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	var input models.ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	p, err := h.profiles.Update(r.Context(), userID, profile.Input{
		SkinType:       input.SkinType,
		Clothing:       input.ClothingLevel,
		Sunscreen:      input.SunscreenLevel,
		Age:            input.Age,
		AltitudeMeters: input.AltitudeMeters,
		DefaultLat:     input.DefaultLat,
		DefaultLon:     input.DefaultLon,
	})
	if err != nil {
		if errors.Is(err, dosimetry.ErrInvalidInput) {
			response.BadRequest(w, r, err.Error(), nil)
			return
		}
		response.InternalError(w, r, "could not update profile")
		return
	}

	response.JSON(w, r, http.StatusOK, toAPIProfile(p))
}

func toAPIProfile(p *profile.Profile) models.Profile {
	return models.Profile{
		SkinType:       int(p.Dosimetry.SkinType),
		ClothingLevel:  int(p.Dosimetry.Clothing),
		SunscreenLevel: int(p.Dosimetry.Sunscreen),
		Age:            p.Dosimetry.Age,
		AltitudeMeters: p.Dosimetry.AltitudeMeters,
		DefaultLat:     p.DefaultLat,
		DefaultLon:     p.DefaultLon,
		UpdatedAt:      models.Timestamp(p.UpdatedAt),
	}
}
