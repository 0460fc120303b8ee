package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/frameup/internal/domain/enums"
	"github.com/ivankudzin/frameup/internal/domain/model"
	"github.com/ivankudzin/frameup/internal/domain/rules"
	"github.com/ivankudzin/frameup/internal/pkg/validate"
	appealsvc "github.com/ivankudzin/frameup/internal/services/appeals"
	"github.com/ivankudzin/frameup/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/frameup/internal/transport/http/errors"
)

type AppealDecider interface {
	Decide(ctx context.Context, appealID string, decision enums.AppealDecision, notes string, adminID int64) (appealsvc.DecideResult, error)
	PendingAppeals(ctx context.Context, limit int) ([]model.Appeal, error)
}

type AdminAppealsHandler struct {
	service AppealDecider
}

func NewAdminAppealsHandler(service AppealDecider) *AdminAppealsHandler {
	return &AdminAppealsHandler{service: service}
}

func (h *AdminAppealsHandler) Queue(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "APPEALS_SERVICE_UNAVAILABLE", "appeals service is unavailable")
		return
	}

	limit := queryLimit(r, defaultQueueLimit)
	appeals, err := h.service.PendingAppeals(r.Context(), limit)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load appeal queue")
		return
	}

	resp := dto.AppealQueueResponse{Appeals: make([]dto.AppealResponse, 0, len(appeals))}
	for _, appeal := range appeals {
		resp.Appeals = append(resp.Appeals, appealToDTO(appeal))
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *AdminAppealsHandler) Decide(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "APPEALS_SERVICE_UNAVAILABLE", "appeals service is unavailable")
		return
	}

	appealID := strings.TrimSpace(chi.URLParam(r, "appealID"))
	if !validate.Required(appealID) {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid appeal id")
		return
	}

	var req dto.DecideAppealRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.service.Decide(r.Context(), appealID, enums.AppealDecision(strings.TrimSpace(req.Decision)), req.Notes, identity.UserID)
	if err != nil {
		handleDecideError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DecideAppealResponse{
		AppealID:  res.AppealID,
		Decision:  string(res.Decision),
		NewStatus: res.NewStatus,
	})
}

func handleDecideError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appealsvc.ErrInvalidDecision):
		writeBadRequest(w, "VALIDATION_ERROR", "decision must be approve or reject")
	case errors.Is(err, appealsvc.ErrAppealNotFound):
		writeNotFound(w, "APPEAL_NOT_FOUND", "appeal not found")
	case errors.Is(err, appealsvc.ErrTargetNotFound):
		writeNotFound(w, "TARGET_NOT_FOUND", "the appealed target no longer exists")
	case errors.Is(err, appealsvc.ErrAlreadyReviewed):
		writeConflict(w, "ALREADY_REVIEWED", "this appeal was already decided")
	case errors.Is(err, rules.ErrPermanentState):
		writeConflict(w, "PERMANENT_STATE", "the target is in a permanent state")
	case errors.Is(err, rules.ErrInvalidTransition):
		writeConflict(w, "INVALID_TRANSITION", "the target state does not allow this decision")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to decide appeal")
	}
}
