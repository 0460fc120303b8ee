package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/ivankudzin/frameup/internal/domain/enums"
	"github.com/ivankudzin/frameup/internal/pkg/validate"
	authsvc "github.com/ivankudzin/frameup/internal/services/auth"
	ratesvc "github.com/ivankudzin/frameup/internal/services/rate"
	reportsvc "github.com/ivankudzin/frameup/internal/services/reports"
	"github.com/ivankudzin/frameup/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/frameup/internal/transport/http/errors"
)

type ReportSubmitter interface {
	Submit(ctx context.Context, in reportsvc.SubmitInput) (reportsvc.SubmitResult, error)
}

type ReportHandler struct {
	service ReportSubmitter
}

func NewReportHandler(service ReportSubmitter) *ReportHandler {
	return &ReportHandler{service: service}
}

// Submit accepts reports from authenticated and anonymous callers.
// Anonymous reports carry reporter id 0 and are limited per source IP
// only.
func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var reporterID int64
	if identity, ok := authsvc.IdentityFromContext(r.Context()); ok {
		if identity.IsBanned {
			writeForbidden(w, "ACCOUNT_BANNED", "banned accounts cannot submit reports")
			return
		}
		reporterID = identity.UserID
	}
	if h.service == nil {
		writeInternal(w, "REPORTS_SERVICE_UNAVAILABLE", "reports service is unavailable")
		return
	}

	var req dto.SubmitReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	targetType := enums.TargetType(strings.TrimSpace(req.TargetType))
	if !targetType.Valid() {
		writeBadRequest(w, "VALIDATION_ERROR", "target_type must be campaign or user")
		return
	}
	if !validate.Required(req.TargetID) {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id is required")
		return
	}

	res, err := h.service.Submit(r.Context(), reportsvc.SubmitInput{
		TargetID:   strings.TrimSpace(req.TargetID),
		TargetType: targetType,
		Reason:     enums.ReportReason(strings.TrimSpace(req.Reason)),
		ReporterID: reporterID,
		SourceIP:   clientIP(r),
	})
	if err != nil {
		handleReportError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SubmitReportResponse{
		ReportsCount: res.ReportsCount,
		Status:       res.NewStatus,
	})
}

func handleReportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reportsvc.ErrInvalidReason):
		writeBadRequest(w, "VALIDATION_ERROR", "reason is not valid for this target type")
	case errors.Is(err, reportsvc.ErrTargetNotFound):
		writeNotFound(w, "TARGET_NOT_FOUND", "report target not found")
	case errors.Is(err, ratesvc.ErrDuplicateReport):
		writeConflict(w, "DUPLICATE_REPORT", "this target was already reported from this source")
	case errors.Is(err, ratesvc.ErrRateLimited):
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "RATE_LIMITED",
			Message:       "too many reports, try again later",
			RetryAfterSec: 3600,
		})
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to submit report")
	}
}

// clientIP trusts RemoteAddr, which the RealIP middleware rewrites from
// the proxy headers before the handler runs.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
