package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/meeting-matcher/internal/interval"
	"github.com/example/meeting-matcher/internal/matching"
)

type bookingService interface {
	ScheduleSlot(ctx context.Context, req matching.BookingRequest) (matching.Booking, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{service: service, responder: newResponder(logger), logger: logger}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	booking, err := h.service.ScheduleSlot(r.Context(), matching.BookingRequest{
		InitiatorID: principal.UserID,
		FriendID:    strings.TrimSpace(req.FriendID),
		Slot:        interval.New(parseTime(req.Start), parseTime(req.End)),
		Summary:     strings.TrimSpace(req.Summary),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "bookings", "create",
		"user_id", principal.UserID, "event_id", booking.EventID).
		InfoContext(r.Context(), "slot booked")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{
		EventID:  booking.EventID,
		JoinLink: booking.JoinLink,
		Start:    formatInstant(booking.Interval.Start),
		End:      formatInstant(booking.Interval.End),
	})
}

type bookingRequest struct {
	FriendID string `json:"friend_id"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Summary  string `json:"summary"`
}

type bookingResponse struct {
	EventID  string `json:"event_id"`
	JoinLink string `json:"join_link,omitempty"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}
