package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/meeting-matcher/internal/availability"
)

type profileService interface {
	Save(ctx context.Context, userID string, weekly map[string][]availability.TimeRange, timezone string) (availability.Profile, error)
	Load(ctx context.Context, userID string) (availability.Profile, error)
}

type AvailabilityHandler struct {
	service   profileService
	responder responder
	logger    *slog.Logger
}

func NewAvailabilityHandler(service profileService, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, responder: newResponder(logger), logger: logger}
}

func (h *AvailabilityHandler) Put(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	profile, err := h.service.Save(r.Context(), principal.UserID, req.WeeklyAvailability, strings.TrimSpace(req.Timezone))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "availability", "put", "user_id", principal.UserID).
		InfoContext(r.Context(), "availability updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProfileDTO(profile))
}

func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	profile, err := h.service.Load(r.Context(), principal.UserID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProfileDTO(profile))
}

type availabilityRequest struct {
	WeeklyAvailability map[string][]availability.TimeRange `json:"weekly_availability"`
	Timezone           string                              `json:"timezone"`
}

type profileDTO struct {
	WeeklyAvailability availability.WeeklyAvailability `json:"weekly_availability"`
	Timezone           string                          `json:"timezone"`
	UpdatedAt          *string                         `json:"updated_at"`
}

func toProfileDTO(profile availability.Profile) profileDTO {
	dto := profileDTO{
		WeeklyAvailability: profile.Weekly,
		Timezone:           profile.Timezone,
	}
	if dto.WeeklyAvailability == nil {
		dto.WeeklyAvailability = availability.NewWeekly()
	}
	if profile.UpdatedAt != nil {
		updated := profile.UpdatedAt.UTC().Format(time.RFC3339Nano)
		dto.UpdatedAt = &updated
	}
	return dto
}
