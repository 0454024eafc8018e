package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/sundose/sundose/internal/api/models"
	"github.com/sundose/sundose/internal/api/response"
	"github.com/sundose/sundose/internal/dosimetry"
	"github.com/sundose/sundose/internal/exposure"
	"github.com/sundose/sundose/internal/profile"
)

const (
	defaultSessionPageSize = 20
	maxSessionPageSize     = 100
	defaultSummaryDays     = 7
	maxSummaryDays         = 90
)

// ExposureHandler handles exposure session endpoints.
type ExposureHandler struct {
	sessions *exposure.Service
	profiles *profile.Service
}

// NewExposureHandler creates a new ExposureHandler.
func NewExposureHandler(sessions *exposure.Service, profiles *profile.Service) *ExposureHandler {
	return &ExposureHandler{sessions: sessions, profiles: profiles}
}

// BeginSession handles POST /v1/exposure/sessions.
func (h *ExposureHandler) BeginSession(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	var input models.SessionBeginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if input.Lat < -90 || input.Lat > 90 || input.Lon < -180 || input.Lon > 180 {
		response.BadRequest(w, r, "coordinates out of range", []models.FieldError{
			{Field: "lat", Message: "must be between -90 and 90"},
			{Field: "lon", Message: "must be between -180 and 180"},
		})
		return
	}

	stored, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		response.InternalError(w, r, "failed to load profile")
		return
	}

	dosProfile := stored.Dosimetry
	if input.Profile != nil {
		applyProfileInput(&dosProfile, input.Profile)
	}

	session, err := h.sessions.Begin(r.Context(), userID, input.Lat, input.Lon, dosProfile)
	if err != nil {
		switch {
		case errors.Is(err, exposure.ErrSessionActive):
			response.Conflict(w, r, "an exposure session is already active")
		case errors.Is(err, dosimetry.ErrInvalidInput):
			response.BadRequest(w, r, err.Error(), nil)
		default:
			response.ServiceUnavailable(w, r, "could not start session")
		}
		return
	}

	response.Created(w, r, "/v1/exposure/sessions/current", toAPISession(session))
}

// EndSession handles POST /v1/exposure/sessions/end.
func (h *ExposureHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	session, err := h.sessions.End(r.Context(), userID)
	if err != nil {
		if errors.Is(err, exposure.ErrNoActiveSession) {
			response.NotFound(w, r, "no active exposure session")
			return
		}
		response.InternalError(w, r, "could not end session")
		return
	}

	response.JSON(w, r, http.StatusOK, toAPISession(session))
}

// CurrentSession handles GET /v1/exposure/sessions/current.
func (h *ExposureHandler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	session, err := h.sessions.Current(userID)
	if err != nil {
		if errors.Is(err, exposure.ErrNoActiveSession) {
			response.NotFound(w, r, "no active exposure session")
			return
		}
		response.InternalError(w, r, "could not load session")
		return
	}

	response.JSON(w, r, http.StatusOK, toAPISession(session))
}

// SetManualUV handles PUT /v1/exposure/sessions/current/uv.
func (h *ExposureHandler) SetManualUV(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	var input models.ManualUVInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	if err := h.sessions.SetManualUV(userID, input.UVIndex); err != nil {
		switch {
		case errors.Is(err, exposure.ErrNoActiveSession):
			response.NotFound(w, r, "no active exposure session")
		case errors.Is(err, dosimetry.ErrInvalidInput):
			response.BadRequest(w, r, "uvIndex must be between 0 and 20", nil)
		default:
			response.InternalError(w, r, "could not set manual uv")
		}
		return
	}

	response.NoContent(w, r)
}

// ListSessions handles GET /v1/exposure/sessions.
func (h *ExposureHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	limit := defaultSessionPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxSessionPageSize {
			response.BadRequest(w, r, "limit must be between 1 and 100", nil)
			return
		}
		limit = parsed
	}

	result, err := h.sessions.List(r.Context(), userID, exposure.ListOptions{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	})
	if err != nil {
		response.InternalError(w, r, "could not list sessions")
		return
	}

	out := models.SessionList{
		Items: make([]models.Session, 0, len(result.Items)),
		Meta:  models.PagedResponseMeta{Limit: limit},
	}
	for _, s := range result.Items {
		out.Items = append(out.Items, toAPISession(s))
	}
	if result.NextCursor != "" {
		cursor := result.NextCursor
		out.Meta.NextCursor = &cursor
	}

	response.JSON(w, r, http.StatusOK, out)
}

// DailySummary handles GET /v1/exposure/days.
func (h *ExposureHandler) DailySummary(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	days := defaultSummaryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxSummaryDays {
			response.BadRequest(w, r, "days must be between 1 and 90", nil)
			return
		}
		days = parsed
	}

	totals, err := h.sessions.DailyTotals(r.Context(), userID, days)
	if err != nil {
		response.InternalError(w, r, "could not load daily totals")
		return
	}

	out := models.DailySummary{
		Days:             make([]models.DailyTotal, 0, len(totals)),
		AdaptationFactor: h.sessions.AdaptationFactor(r.Context(), userID),
	}
	for day, iu := range totals {
		out.Days = append(out.Days, models.DailyTotal{
			Date:          day.Format("2006-01-02"),
			AccumulatedIU: iu,
		})
	}
	sort.Slice(out.Days, func(i, j int) bool { return out.Days[i].Date > out.Days[j].Date })

	response.JSON(w, r, http.StatusOK, out)
}

func toAPISession(s *exposure.Session) models.Session {
	out := models.Session{
		ID:            s.ID,
		StartTime:     models.Timestamp(s.StartTime),
		AccumulatedIU: s.AccumulatedIU,
		AverageUV:     s.AverageUV,
		PeakUV:        s.PeakUV,
		Lat:           s.Lat,
		Lon:           s.Lon,
		Active:        s.Active(),
	}
	if s.EndTime != nil {
		end := models.Timestamp(*s.EndTime)
		out.EndTime = &end
	}
	return out
}

func applyProfileInput(p *dosimetry.Profile, input *models.ProfileInput) {
	if input.SkinType != nil {
		p.SkinType = dosimetry.SkinType(*input.SkinType)
	}
	if input.ClothingLevel != nil {
		p.Clothing = dosimetry.ClothingLevel(*input.ClothingLevel)
	}
	if input.SunscreenLevel != nil {
		p.Sunscreen = dosimetry.SunscreenLevel(*input.SunscreenLevel)
	}
	if input.Age != nil {
		p.Age = *input.Age
	}
	if input.AltitudeMeters != nil {
		p.AltitudeMeters = *input.AltitudeMeters
	}
}
