package model

import (
	"time"

	"github.com/ivankudzin/frameup/internal/domain/enums"
)

type Appeal struct {
	ID          string             `json:"id"`
	UserID      int64              `json:"user_id"`
	Type        enums.AppealType   `json:"type"`
	TargetID    string             `json:"target_id"`
	Reason      string             `json:"reason"`
	Status      enums.AppealStatus `json:"status"`
	AdminNotes  *string            `json:"admin_notes,omitempty"`
	SubmittedAt time.Time          `json:"submitted_at"`
	ReviewedAt  *time.Time         `json:"reviewed_at,omitempty"`
	ReviewedBy  *int64             `json:"reviewed_by,omitempty"`
}
