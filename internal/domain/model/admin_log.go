package model

import (
	"time"

	"github.com/ivankudzin/frameup/internal/domain/enums"
)

// SystemActor is the reserved audit-log actor for scheduled jobs. Real
// admin IDs are numeric strings, so the value cannot collide.
const SystemActor = "system"

type AdminLogEntry struct {
	ID             int64            `json:"id"`
	AdminID        string           `json:"admin_id"`
	Action         string           `json:"action"`
	TargetType     enums.TargetType `json:"target_type"`
	TargetID       string           `json:"target_id"`
	Reason         string           `json:"reason"`
	AdditionalData map[string]any   `json:"additional_data,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}
