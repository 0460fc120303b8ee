package dto

import "time"

type WarningResponse struct {
	ID           int64     `json:"id"`
	TargetType   string    `json:"target_type"`
	TargetID     string    `json:"target_id"`
	Reason       string    `json:"reason"`
	IssuedAt     time.Time `json:"issued_at"`
	Acknowledged bool      `json:"acknowledged"`
}

type WarningListResponse struct {
	Warnings []WarningResponse `json:"warnings"`
}
