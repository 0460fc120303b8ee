package model

import (
	"time"

	"github.com/ivankudzin/frameup/internal/domain/enums"
)

type User struct {
	ID             int64               `json:"id"`
	Username       string              `json:"username"`
	DisplayName    string              `json:"display_name"`
	Email          string              `json:"email"`
	Role           enums.Role          `json:"role"`
	AccountStatus  enums.AccountStatus `json:"account_status"`
	ReportsCount   int                 `json:"reports_count"`
	BanReason      *string             `json:"ban_reason,omitempty"`
	AppealDeadline *time.Time          `json:"appeal_deadline,omitempty"`
	HiddenAt       *time.Time          `json:"hidden_at,omitempty"`
	BannedAt       *time.Time          `json:"banned_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}
