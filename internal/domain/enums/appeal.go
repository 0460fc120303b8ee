package enums

type AppealType string

const (
	AppealTypeCampaign AppealType = "campaign"
	AppealTypeAccount  AppealType = "account"
)

func (t AppealType) Valid() bool {
	return t == AppealTypeCampaign || t == AppealTypeAccount
}

type AppealStatus string

const (
	AppealStatusPending  AppealStatus = "pending"
	AppealStatusApproved AppealStatus = "approved"
	AppealStatusRejected AppealStatus = "rejected"
)

type AppealDecision string

const (
	AppealDecisionApprove AppealDecision = "approve"
	AppealDecisionReject  AppealDecision = "reject"
)

func (d AppealDecision) Valid() bool {
	return d == AppealDecisionApprove || d == AppealDecisionReject
}
