package enums

type CampaignStatus string

const (
	CampaignStatusActive            CampaignStatus = "active"
	CampaignStatusUnderReview       CampaignStatus = "under-review"
	CampaignStatusUnderReviewHidden CampaignStatus = "under-review-hidden"
	CampaignStatusRemovedTemporary  CampaignStatus = "removed-temporary"
	CampaignStatusRemovedPermanent  CampaignStatus = "removed-permanent"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusActive,
		CampaignStatusUnderReview,
		CampaignStatusUnderReviewHidden,
		CampaignStatusRemovedTemporary,
		CampaignStatusRemovedPermanent:
		return true
	}
	return false
}
