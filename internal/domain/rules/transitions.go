package rules

import (
	"errors"
	"fmt"

	"github.com/ivankudzin/frameup/internal/domain/enums"
)

var (
	// ErrInvalidTransition rejects a status change the state machine does
	// not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrPermanentState rejects any attempt to leave a permanent state.
	// Callers must surface this to the admin distinctly from
	// ErrInvalidTransition.
	ErrPermanentState = errors.New("cannot reverse a permanent action")
	// ErrUnknownStatus rejects a current status outside the state machine.
	ErrUnknownStatus = errors.New("unknown current status")
)

var campaignTransitions = map[enums.CampaignStatus][]enums.CampaignStatus{
	enums.CampaignStatusActive: {
		enums.CampaignStatusUnderReview,
		enums.CampaignStatusUnderReviewHidden,
		enums.CampaignStatusRemovedTemporary,
		enums.CampaignStatusRemovedPermanent,
	},
	enums.CampaignStatusUnderReview: {
		enums.CampaignStatusActive,
		enums.CampaignStatusUnderReviewHidden,
		enums.CampaignStatusRemovedTemporary,
		enums.CampaignStatusRemovedPermanent,
	},
	enums.CampaignStatusUnderReviewHidden: {
		enums.CampaignStatusActive,
		enums.CampaignStatusUnderReview,
		enums.CampaignStatusRemovedTemporary,
		enums.CampaignStatusRemovedPermanent,
	},
	enums.CampaignStatusRemovedTemporary: {
		enums.CampaignStatusActive,
		enums.CampaignStatusRemovedPermanent,
	},
	enums.CampaignStatusRemovedPermanent: {},
}

var accountTransitions = map[enums.AccountStatus][]enums.AccountStatus{
	enums.AccountStatusActive: {
		enums.AccountStatusUnderReview,
		enums.AccountStatusUnderReviewHidden,
		enums.AccountStatusBannedTemporary,
		enums.AccountStatusBannedPermanent,
	},
	enums.AccountStatusUnderReview: {
		enums.AccountStatusActive,
		enums.AccountStatusUnderReviewHidden,
		enums.AccountStatusBannedTemporary,
		enums.AccountStatusBannedPermanent,
	},
	enums.AccountStatusUnderReviewHidden: {
		enums.AccountStatusActive,
		enums.AccountStatusUnderReview,
		enums.AccountStatusBannedTemporary,
		enums.AccountStatusBannedPermanent,
	},
	enums.AccountStatusBannedTemporary: {
		enums.AccountStatusActive,
		enums.AccountStatusBannedPermanent,
	},
	enums.AccountStatusBannedPermanent: {},
}

// ValidateCampaignTransition checks a campaign moderation status change
// against the state machine. A no-op transition is always valid.
func ValidateCampaignTransition(from, to enums.CampaignStatus) error {
	if from == to {
		return nil
	}

	allowed, ok := campaignTransitions[from]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if from == enums.CampaignStatusRemovedPermanent {
		return fmt.Errorf("%w: campaign is permanently removed", ErrPermanentState)
	}
	for _, candidate := range allowed {
		if candidate == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, from, to)
}

// ValidateAccountTransition checks a user account status change against
// the state machine. A no-op transition is always valid.
func ValidateAccountTransition(from, to enums.AccountStatus) error {
	if from == to {
		return nil
	}

	allowed, ok := accountTransitions[from]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if from == enums.AccountStatusBannedPermanent {
		return fmt.Errorf("%w: account is permanently banned", ErrPermanentState)
	}
	for _, candidate := range allowed {
		if candidate == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, from, to)
}
