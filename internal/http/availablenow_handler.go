package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/meeting-matcher/internal/matching"
)

type availableNowService interface {
	AvailableNow(ctx context.Context, userID string) (matching.AvailableNowReport, error)
}

type AvailableNowHandler struct {
	service   availableNowService
	responder responder
	logger    *slog.Logger
}

func NewAvailableNowHandler(service availableNowService, logger *slog.Logger) *AvailableNowHandler {
	return &AvailableNowHandler{service: service, responder: newResponder(logger), logger: logger}
}

func (h *AvailableNowHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	report, err := h.service.AvailableNow(r.Context(), principal.UserID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "available_now", "get",
		"user_id", principal.UserID,
		"available", len(report.Available),
		"busy", len(report.Busy),
		"unknown", len(report.Unknown)).
		InfoContext(r.Context(), "friends classified")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAvailableNowDTO(report))
}

type availableNowReportDTO struct {
	Available   []availableNowEntryDTO `json:"available"`
	Busy        []availableNowEntryDTO `json:"busy"`
	Unknown     []availableNowEntryDTO `json:"unknown"`
	GeneratedAt string                 `json:"generated_at"`
}

type availableNowEntryDTO struct {
	FriendID        string  `json:"friend_id"`
	DisplayName     string  `json:"display_name,omitempty"`
	Classification  string  `json:"classification"`
	ReasonCode      string  `json:"reason_code,omitempty"`
	Detail          string  `json:"detail,omitempty"`
	Confidence      string  `json:"confidence"`
	Timezone        string  `json:"timezone,omitempty"`
	AvailableUntil  *string `json:"available_until,omitempty"`
	BusyUntil       *string `json:"busy_until,omitempty"`
	NextAvailableAt *string `json:"next_available_at,omitempty"`
}

func toAvailableNowDTO(report matching.AvailableNowReport) availableNowReportDTO {
	return availableNowReportDTO{
		Available:   toAvailableNowEntryDTOs(report.Available),
		Busy:        toAvailableNowEntryDTOs(report.Busy),
		Unknown:     toAvailableNowEntryDTOs(report.Unknown),
		GeneratedAt: formatInstant(report.GeneratedAt),
	}
}

func toAvailableNowEntryDTOs(entries []matching.AvailableNowEntry) []availableNowEntryDTO {
	out := make([]availableNowEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, availableNowEntryDTO{
			FriendID:        entry.FriendID,
			DisplayName:     entry.DisplayName,
			Classification:  string(entry.Classification),
			ReasonCode:      entry.ReasonCode,
			Detail:          entry.Detail,
			Confidence:      string(entry.Confidence),
			Timezone:        entry.Timezone,
			AvailableUntil:  formatOptionalInstant(entry.AvailableUntil),
			BusyUntil:       formatOptionalInstant(entry.BusyUntil),
			NextAvailableAt: formatOptionalInstant(entry.NextAvailableAt),
		})
	}
	return out
}

func formatOptionalInstant(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := formatInstant(*t)
	return &formatted
}
