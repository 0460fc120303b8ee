package enums

type ReportReason string

// Campaign report reasons.
const (
	ReportReasonInappropriate ReportReason = "inappropriate"
	ReportReasonCopyright     ReportReason = "copyright"
	ReportReasonSpam          ReportReason = "spam"
	ReportReasonMisleading    ReportReason = "misleading"
)

// User report reasons.
const (
	ReportReasonHarassment     ReportReason = "harassment"
	ReportReasonImpersonation  ReportReason = "impersonation"
	ReportReasonAbusiveProfile ReportReason = "abusive-profile"
	ReportReasonFakeAccount    ReportReason = "fake-account"
)

// ValidFor reports whether the reason belongs to the allow-list of the
// given target type. The two lists are disjoint.
func (r ReportReason) ValidFor(target TargetType) bool {
	switch target {
	case TargetTypeCampaign:
		switch r {
		case ReportReasonInappropriate, ReportReasonCopyright, ReportReasonSpam, ReportReasonMisleading:
			return true
		}
	case TargetTypeUser:
		switch r {
		case ReportReasonHarassment, ReportReasonImpersonation, ReportReasonAbusiveProfile, ReportReasonFakeAccount:
			return true
		}
	}
	return false
}
