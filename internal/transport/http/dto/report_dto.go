package dto

import "time"

type SubmitReportRequest struct {
	TargetID   string `json:"target_id"`
	TargetType string `json:"target_type"`
	Reason     string `json:"reason"`
}

type SubmitReportResponse struct {
	ReportsCount int    `json:"reports_count"`
	Status       string `json:"status"`
}

type SummaryDisplayResponse struct {
	Title       string `json:"title,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	CreatorID   int64  `json:"creator_id,omitempty"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type ReportSummaryResponse struct {
	ID              string                 `json:"id"`
	TargetID        string                 `json:"target_id"`
	TargetType      string                 `json:"target_type"`
	ReportsCount    int                    `json:"reports_count"`
	ReasonCounts    map[string]int         `json:"reason_counts"`
	Status          string                 `json:"status"`
	FirstReportedAt time.Time              `json:"first_reported_at"`
	LastReportedAt  time.Time              `json:"last_reported_at"`
	Display         SummaryDisplayResponse `json:"display"`
}

type ReportQueueResponse struct {
	Summaries []ReportSummaryResponse `json:"summaries"`
}

type ResolveReportRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}

type ResolveReportResponse struct {
	Action     string `json:"action"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	NewStatus  string `json:"new_status"`
}
