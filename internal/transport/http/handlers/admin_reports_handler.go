package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/frameup/internal/domain/enums"
	"github.com/ivankudzin/frameup/internal/domain/model"
	"github.com/ivankudzin/frameup/internal/domain/rules"
	"github.com/ivankudzin/frameup/internal/pkg/validate"
	authsvc "github.com/ivankudzin/frameup/internal/services/auth"
	modsvc "github.com/ivankudzin/frameup/internal/services/moderation"
	"github.com/ivankudzin/frameup/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/frameup/internal/transport/http/errors"
)

const defaultQueueLimit = 50

type ReportResolver interface {
	Resolve(ctx context.Context, summaryID string, action enums.AdminAction, reason string, adminID int64) (modsvc.ResolveResult, error)
	PendingSummaries(ctx context.Context, limit int) ([]model.ReportSummary, error)
}

type AdminReportsHandler struct {
	service ReportResolver
}

func NewAdminReportsHandler(service ReportResolver) *AdminReportsHandler {
	return &AdminReportsHandler{service: service}
}

func (h *AdminReportsHandler) Queue(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	limit := queryLimit(r, defaultQueueLimit)
	summaries, err := h.service.PendingSummaries(r.Context(), limit)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load report queue")
		return
	}

	resp := dto.ReportQueueResponse{Summaries: make([]dto.ReportSummaryResponse, 0, len(summaries))}
	for _, summary := range summaries {
		resp.Summaries = append(resp.Summaries, summaryToDTO(summary))
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *AdminReportsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	summaryID := strings.TrimSpace(chi.URLParam(r, "summaryID"))
	if !validate.Required(summaryID) {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid summary id")
		return
	}

	var req dto.ResolveReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.service.Resolve(r.Context(), summaryID, enums.AdminAction(strings.TrimSpace(req.Action)), req.Reason, identity.UserID)
	if err != nil {
		handleResolveError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ResolveReportResponse{
		Action:     string(res.Action),
		TargetType: string(res.TargetType),
		TargetID:   res.TargetID,
		NewStatus:  res.NewStatus,
	})
}

func handleResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, modsvc.ErrInvalidAction):
		writeBadRequest(w, "VALIDATION_ERROR", "action must be no-action, warned or removed")
	case errors.Is(err, modsvc.ErrReasonRequired):
		writeBadRequest(w, "VALIDATION_ERROR", "a reason is required for this action")
	case errors.Is(err, modsvc.ErrSummaryNotFound):
		writeNotFound(w, "SUMMARY_NOT_FOUND", "report summary not found")
	case errors.Is(err, modsvc.ErrTargetNotFound):
		writeNotFound(w, "TARGET_NOT_FOUND", "the reported target no longer exists")
	case errors.Is(err, rules.ErrPermanentState):
		writeConflict(w, "PERMANENT_STATE", "the target is in a permanent state")
	case errors.Is(err, rules.ErrInvalidTransition):
		writeConflict(w, "INVALID_TRANSITION", "the target state does not allow this action")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to resolve report")
	}
}

func requireAdmin(w http.ResponseWriter, r *http.Request) (authsvc.Identity, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, false
	}
	if identity.Role != string(enums.RoleAdmin) {
		writeForbidden(w, "FORBIDDEN", "admin role required")
		return authsvc.Identity{}, false
	}
	return identity, true
}

func queryLimit(r *http.Request, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 200 {
		return fallback
	}
	return limit
}

func summaryToDTO(summary model.ReportSummary) dto.ReportSummaryResponse {
	counts := make(map[string]int, len(summary.ReasonCounts))
	for reason, n := range summary.ReasonCounts {
		counts[string(reason)] = n
	}
	return dto.ReportSummaryResponse{
		ID:              summary.ID,
		TargetID:        summary.TargetID,
		TargetType:      string(summary.TargetType),
		ReportsCount:    summary.ReportsCount,
		ReasonCounts:    counts,
		Status:          string(summary.Status),
		FirstReportedAt: summary.FirstReportedAt,
		LastReportedAt:  summary.LastReportedAt,
		Display: dto.SummaryDisplayResponse{
			Title:       summary.Display.Title,
			ImageURL:    summary.Display.ImageURL,
			CreatorID:   summary.Display.CreatorID,
			Username:    summary.Display.Username,
			DisplayName: summary.Display.DisplayName,
		},
	}
}
