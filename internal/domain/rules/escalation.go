package rules

import "github.com/ivankudzin/frameup/internal/domain/enums"

// Auto-escalation thresholds. Campaigns escalate far more aggressively:
// a bad campaign is publicly visible immediately, whereas one user
// complaint rarely warrants hiding a profile. Preserved as-is; changing
// them changes moderation behavior, not implementation.
const (
	CampaignHideThreshold = 3
	AccountHideThreshold  = 10
)

// CampaignEscalation returns the status a campaign should auto-escalate
// to after its report count reached newCount, and whether a change is
// needed. Escalation never fires once the target has left
// active/under-review for a hidden, removed or banned state.
func CampaignEscalation(newCount int, current enums.CampaignStatus, hideThreshold int) (enums.CampaignStatus, bool) {
	if hideThreshold <= 0 {
		hideThreshold = CampaignHideThreshold
	}

	if newCount >= hideThreshold {
		if current == enums.CampaignStatusActive || current == enums.CampaignStatusUnderReview {
			return enums.CampaignStatusUnderReviewHidden, true
		}
		return current, false
	}
	if newCount >= 1 && current == enums.CampaignStatusActive {
		return enums.CampaignStatusUnderReview, true
	}
	return current, false
}

// AccountEscalation is the user-account analogue of CampaignEscalation.
func AccountEscalation(newCount int, current enums.AccountStatus, hideThreshold int) (enums.AccountStatus, bool) {
	if hideThreshold <= 0 {
		hideThreshold = AccountHideThreshold
	}

	if newCount >= hideThreshold {
		if current == enums.AccountStatusActive || current == enums.AccountStatusUnderReview {
			return enums.AccountStatusUnderReviewHidden, true
		}
		return current, false
	}
	if newCount >= 1 && current == enums.AccountStatusActive {
		return enums.AccountStatusUnderReview, true
	}
	return current, false
}
