package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/frameup/internal/domain/model"
	authsvc "github.com/ivankudzin/frameup/internal/services/auth"
	modsvc "github.com/ivankudzin/frameup/internal/services/moderation"
	"github.com/ivankudzin/frameup/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/frameup/internal/transport/http/errors"
)

type WarningReader interface {
	Warnings(ctx context.Context, userID int64, limit int) ([]model.Warning, error)
	AcknowledgeWarning(ctx context.Context, warningID, userID int64) error
}

// WarningsHandler exposes a user's own warning history. Warnings stay
// visible until acknowledged.
type WarningsHandler struct {
	service WarningReader
}

func NewWarningsHandler(service WarningReader) *WarningsHandler {
	return &WarningsHandler{service: service}
}

func (h *WarningsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	warnings, err := h.service.Warnings(r.Context(), identity.UserID, queryLimit(r, defaultQueueLimit))
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list warnings")
		return
	}

	resp := dto.WarningListResponse{Warnings: make([]dto.WarningResponse, 0, len(warnings))}
	for _, warning := range warnings {
		resp.Warnings = append(resp.Warnings, dto.WarningResponse{
			ID:           warning.ID,
			TargetType:   string(warning.TargetType),
			TargetID:     warning.TargetID,
			Reason:       warning.Reason,
			IssuedAt:     warning.IssuedAt,
			Acknowledged: warning.Acknowledged,
		})
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *WarningsHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	warningID, err := strconv.ParseInt(chi.URLParam(r, "warningID"), 10, 64)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "warning id must be numeric")
		return
	}

	if err := h.service.AcknowledgeWarning(r.Context(), warningID, identity.UserID); err != nil {
		if errors.Is(err, modsvc.ErrWarningNotFound) {
			writeNotFound(w, "WARNING_NOT_FOUND", "warning not found")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to acknowledge warning")
		return
	}

	httperrors.Write(w, http.StatusOK, map[string]bool{"ok": true})
}
