package model

import (
	"time"

	"github.com/ivankudzin/frameup/internal/domain/enums"
)

type Campaign struct {
	ID               string               `json:"id"`
	CreatorID        int64                `json:"creator_id"`
	Title            string               `json:"title"`
	ImageURL         string               `json:"image_url"`
	ModerationStatus enums.CampaignStatus `json:"moderation_status"`
	ReportsCount     int                  `json:"reports_count"`
	RemovalReason    *string              `json:"removal_reason,omitempty"`
	AppealDeadline   *time.Time           `json:"appeal_deadline,omitempty"`
	AppealCount      int                  `json:"appeal_count"`
	HiddenAt         *time.Time           `json:"hidden_at,omitempty"`
	RemovedAt        *time.Time           `json:"removed_at,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}
