package enums

type AccountStatus string

const (
	AccountStatusActive            AccountStatus = "active"
	AccountStatusUnderReview       AccountStatus = "under-review"
	AccountStatusUnderReviewHidden AccountStatus = "under-review-hidden"
	AccountStatusBannedTemporary   AccountStatus = "banned-temporary"
	AccountStatusBannedPermanent   AccountStatus = "banned-permanent"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusActive,
		AccountStatusUnderReview,
		AccountStatusUnderReviewHidden,
		AccountStatusBannedTemporary,
		AccountStatusBannedPermanent:
		return true
	}
	return false
}
