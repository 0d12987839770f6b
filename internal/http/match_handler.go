package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/meeting-matcher/internal/interval"
	"github.com/example/meeting-matcher/internal/matching"
)

type matchService interface {
	FindMatch(ctx context.Context, req matching.MatchRequest) (matching.MatchResult, error)
}

type MatchHandler struct {
	service   matchService
	responder responder
	logger    *slog.Logger
}

func NewMatchHandler(service matchService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{service: service, responder: newResponder(logger), logger: logger}
}

func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.FindMatch(r.Context(), matching.MatchRequest{
		InitiatorID:     principal.UserID,
		FriendIDs:       append([]string(nil), req.FriendIDs...),
		DaysFromNow:     req.DaysFromNow,
		WindowDays:      req.WindowDays,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "matches", "create",
		"user_id", principal.UserID, "status", string(result.Status)).
		InfoContext(r.Context(), "match computed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMatchResultDTO(result))
}

type matchRequest struct {
	FriendIDs       []string `json:"friend_ids"`
	DaysFromNow     int      `json:"days_from_now"`
	WindowDays      int      `json:"window_days"`
	DurationMinutes int      `json:"duration_minutes"`
}

type matchResultDTO struct {
	Status         string                 `json:"status"`
	Window         searchWindowDTO        `json:"window"`
	Recommendation *recommendationDTO     `json:"recommendation,omitempty"`
	Alternatives   []slotDTO              `json:"alternatives,omitempty"`
	Participants   []participantReportDTO `json:"participants"`
	Notes          []string               `json:"notes"`
}

type searchWindowDTO struct {
	Start           string `json:"start,omitempty"`
	End             string `json:"end,omitempty"`
	DaysFromNow     int    `json:"days_from_now"`
	WindowDays      int    `json:"window_days"`
	DurationMinutes int    `json:"duration_minutes"`
}

type recommendationDTO struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	Confidence string `json:"confidence"`
}

type slotDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type participantReportDTO struct {
	ParticipantID   string `json:"participant_id"`
	DisplayName     string `json:"display_name,omitempty"`
	Status          string `json:"status"`
	Detail          string `json:"detail,omitempty"`
	Timezone        string `json:"timezone,omitempty"`
	CalendarChecked bool   `json:"calendar_checked"`
}

func toMatchResultDTO(result matching.MatchResult) matchResultDTO {
	dto := matchResultDTO{
		Status: string(result.Status),
		Window: searchWindowDTO{
			DaysFromNow:     result.Window.DaysFromNow,
			WindowDays:      result.Window.WindowDays,
			DurationMinutes: result.Window.DurationMinutes,
		},
		Notes: result.Notes,
	}
	if dto.Notes == nil {
		dto.Notes = []string{}
	}
	if !result.Window.Start.IsZero() {
		dto.Window.Start = formatInstant(result.Window.Start)
		dto.Window.End = formatInstant(result.Window.End)
	}
	if result.Recommendation != nil {
		dto.Recommendation = &recommendationDTO{
			Start:      formatInstant(result.Recommendation.Interval.Start),
			End:        formatInstant(result.Recommendation.Interval.End),
			Confidence: string(result.Recommendation.Confidence),
		}
	}
	dto.Alternatives = toSlotDTOs(result.Alternatives)
	for _, report := range result.Participants {
		dto.Participants = append(dto.Participants, participantReportDTO{
			ParticipantID:   report.ParticipantID,
			DisplayName:     report.DisplayName,
			Status:          report.Status,
			Detail:          report.Detail,
			Timezone:        report.Timezone,
			CalendarChecked: report.CalendarChecked,
		})
	}
	return dto
}

func toSlotDTOs(intervals []interval.Interval) []slotDTO {
	if len(intervals) == 0 {
		return nil
	}
	out := make([]slotDTO, 0, len(intervals))
	for _, iv := range intervals {
		out = append(out, slotDTO{Start: formatInstant(iv.Start), End: formatInstant(iv.End)})
	}
	return out
}

func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
