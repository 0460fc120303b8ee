package model

import (
	"time"

	"github.com/ivankudzin/frameup/internal/domain/enums"
)

// SummaryDisplay caches presentation fields for the admin queue. It is a
// snapshot of the target, never authoritative.
type SummaryDisplay struct {
	Title       string `json:"title,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	CreatorID   int64  `json:"creator_id,omitempty"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// ReportSummary is the per-target rollup of all reports in the current
// reporting cycle. Its ID is "<targetType>:<targetID>".
type ReportSummary struct {
	ID              string                      `json:"id"`
	TargetID        string                      `json:"target_id"`
	TargetType      enums.TargetType            `json:"target_type"`
	ReportsCount    int                         `json:"reports_count"`
	ReasonCounts    map[enums.ReportReason]int  `json:"reason_counts"`
	Status          enums.SummaryStatus         `json:"status"`
	FirstReportedAt time.Time                   `json:"first_reported_at"`
	LastReportedAt  time.Time                   `json:"last_reported_at"`
	Display         SummaryDisplay              `json:"display"`
}

func SummaryID(targetType enums.TargetType, targetID string) string {
	return string(targetType) + ":" + targetID
}
