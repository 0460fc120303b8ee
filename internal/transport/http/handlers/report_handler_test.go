package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ivankudzin/frameup/internal/domain/enums"
	authsvc "github.com/ivankudzin/frameup/internal/services/auth"
	ratesvc "github.com/ivankudzin/frameup/internal/services/rate"
	reportsvc "github.com/ivankudzin/frameup/internal/services/reports"
	"github.com/ivankudzin/frameup/internal/transport/http/dto"
)

type reportSubmitterStub struct {
	lastInput reportsvc.SubmitInput
	result    reportsvc.SubmitResult
	err       error
}

func (s *reportSubmitterStub) Submit(_ context.Context, in reportsvc.SubmitInput) (reportsvc.SubmitResult, error) {
	s.lastInput = in
	return s.result, s.err
}

func submitRequest(body string, identity *authsvc.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/reports", strings.NewReader(body))
	req.RemoteAddr = "203.0.113.9:51234"
	if identity != nil {
		req = req.WithContext(authsvc.WithIdentity(req.Context(), *identity))
	}
	return req
}

func TestSubmitReportAnonymous(t *testing.T) {
	stub := &reportSubmitterStub{result: reportsvc.SubmitResult{ReportsCount: 1}}
	handler := NewReportHandler(stub)

	rr := httptest.NewRecorder()
	handler.Submit(rr, submitRequest(
		`{"target_id":"c1","target_type":"campaign","reason":"spam"}`,
		nil,
	))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if stub.lastInput.ReporterID != 0 {
		t.Fatalf("anonymous reporter id = %d, want 0", stub.lastInput.ReporterID)
	}
	if stub.lastInput.SourceIP != "203.0.113.9" {
		t.Fatalf("source ip = %q", stub.lastInput.SourceIP)
	}
}

func TestSubmitReportBannedCaller(t *testing.T) {
	stub := &reportSubmitterStub{}
	handler := NewReportHandler(stub)

	rr := httptest.NewRecorder()
	handler.Submit(rr, submitRequest(
		`{"target_id":"c1","target_type":"campaign","reason":"spam"}`,
		&authsvc.Identity{UserID: 7, Role: string(enums.RoleUser), IsBanned: true},
	))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got=%d want=%d", rr.Code, http.StatusForbidden)
	}
	if stub.lastInput.TargetID != "" {
		t.Fatalf("service called for a banned caller")
	}
}

func TestSubmitReportOK(t *testing.T) {
	stub := &reportSubmitterStub{result: reportsvc.SubmitResult{
		ReportsCount: 3,
		Escalated:    true,
		NewStatus:    string(enums.CampaignStatusUnderReviewHidden),
	}}
	handler := NewReportHandler(stub)

	rr := httptest.NewRecorder()
	handler.Submit(rr, submitRequest(
		`{"target_id":"c1","target_type":"campaign","reason":"spam"}`,
		&authsvc.Identity{UserID: 7, Role: string(enums.RoleUser)},
	))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp dto.SubmitReportResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ReportsCount != 3 || resp.Status != string(enums.CampaignStatusUnderReviewHidden) {
		t.Fatalf("response = %+v", resp)
	}

	if stub.lastInput.ReporterID != 7 {
		t.Fatalf("reporter id = %d", stub.lastInput.ReporterID)
	}
	if stub.lastInput.SourceIP != "203.0.113.9" {
		t.Fatalf("source ip = %q", stub.lastInput.SourceIP)
	}
}

func TestSubmitReportInvalidTargetType(t *testing.T) {
	handler := NewReportHandler(&reportSubmitterStub{})

	rr := httptest.NewRecorder()
	handler.Submit(rr, submitRequest(
		`{"target_id":"c1","target_type":"comment","reason":"spam"}`,
		&authsvc.Identity{UserID: 7, Role: string(enums.RoleUser)},
	))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rr.Code, http.StatusBadRequest)
	}
}

func TestSubmitReportServiceErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid reason", reportsvc.ErrInvalidReason, http.StatusBadRequest},
		{"target not found", reportsvc.ErrTargetNotFound, http.StatusNotFound},
		{"duplicate", ratesvc.ErrDuplicateReport, http.StatusConflict},
		{"rate limited", ratesvc.ErrRateLimited, http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewReportHandler(&reportSubmitterStub{err: tc.err})

			rr := httptest.NewRecorder()
			handler.Submit(rr, submitRequest(
				`{"target_id":"c1","target_type":"campaign","reason":"spam"}`,
				&authsvc.Identity{UserID: 7, Role: string(enums.RoleUser)},
			))

			if rr.Code != tc.want {
				t.Fatalf("unexpected status: got=%d want=%d", rr.Code, tc.want)
			}
		})
	}
}
