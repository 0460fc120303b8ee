package model

import (
	"time"

	"github.com/ivankudzin/frameup/internal/domain/enums"
)

// Warning is the append-only record of a "reviewed but not removed"
// admin decision. Distinct from the admin log: warnings belong to the
// warned user and are shown to them until acknowledged.
type Warning struct {
	ID           int64            `json:"id"`
	UserID       int64            `json:"user_id"`
	TargetType   enums.TargetType `json:"target_type"`
	TargetID     string           `json:"target_id"`
	ReportID     string           `json:"report_id"`
	Reason       string           `json:"reason"`
	IssuedBy     string           `json:"issued_by"`
	IssuedAt     time.Time        `json:"issued_at"`
	Acknowledged bool             `json:"acknowledged"`
}
