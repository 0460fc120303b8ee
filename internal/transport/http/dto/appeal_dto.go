package dto

import "time"

type SubmitAppealRequest struct {
	Type     string `json:"type"`
	TargetID string `json:"target_id,omitempty"`
	Reason   string `json:"reason"`
}

type AppealResponse struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"`
	Type        string    `json:"type"`
	TargetID    string    `json:"target_id"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type AppealQueueResponse struct {
	Appeals []AppealResponse `json:"appeals"`
}

type DecideAppealRequest struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes,omitempty"`
}

type DecideAppealResponse struct {
	AppealID  string `json:"appeal_id"`
	Decision  string `json:"decision"`
	NewStatus string `json:"new_status"`
}
