package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ivankudzin/frameup/internal/domain/enums"
	"github.com/ivankudzin/frameup/internal/domain/model"
	appealsvc "github.com/ivankudzin/frameup/internal/services/appeals"
	authsvc "github.com/ivankudzin/frameup/internal/services/auth"
	"github.com/ivankudzin/frameup/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/frameup/internal/transport/http/errors"
)

type AppealSubmitter interface {
	Submit(ctx context.Context, in appealsvc.SubmitInput) (model.Appeal, error)
}

// AppealHandler is the one authenticated write surface that stays open
// to banned accounts.
type AppealHandler struct {
	service AppealSubmitter
}

func NewAppealHandler(service AppealSubmitter) *AppealHandler {
	return &AppealHandler{service: service}
}

func (h *AppealHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "APPEALS_SERVICE_UNAVAILABLE", "appeals service is unavailable")
		return
	}

	var req dto.SubmitAppealRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	appeal, err := h.service.Submit(r.Context(), appealsvc.SubmitInput{
		Type:     enums.AppealType(strings.TrimSpace(req.Type)),
		TargetID: strings.TrimSpace(req.TargetID),
		Reason:   req.Reason,
		UserID:   identity.UserID,
	})
	if err != nil {
		handleAppealSubmitError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, appealToDTO(appeal))
}

func handleAppealSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appealsvc.ErrInvalidType):
		writeBadRequest(w, "VALIDATION_ERROR", "type must be campaign or account")
	case errors.Is(err, appealsvc.ErrReasonTooShort):
		writeBadRequest(w, "VALIDATION_ERROR", "appeal reason is too short")
	case errors.Is(err, appealsvc.ErrNotOwner):
		writeForbidden(w, "NOT_OWNER", "only the owner can appeal")
	case errors.Is(err, appealsvc.ErrTargetNotFound):
		writeNotFound(w, "TARGET_NOT_FOUND", "appeal target not found")
	case errors.Is(err, appealsvc.ErrNotEligible):
		writeConflict(w, "NOT_ELIGIBLE", "the target state does not allow an appeal")
	case errors.Is(err, appealsvc.ErrDeadlinePassed):
		writeConflict(w, "DEADLINE_PASSED", "the appeal deadline has passed")
	case errors.Is(err, appealsvc.ErrDuplicatePending):
		writeConflict(w, "DUPLICATE_APPEAL", "a pending appeal already exists for this target")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to submit appeal")
	}
}

func appealToDTO(appeal model.Appeal) dto.AppealResponse {
	return dto.AppealResponse{
		ID:          appeal.ID,
		UserID:      appeal.UserID,
		Type:        string(appeal.Type),
		TargetID:    appeal.TargetID,
		Reason:      appeal.Reason,
		Status:      string(appeal.Status),
		SubmittedAt: appeal.SubmittedAt,
	}
}
