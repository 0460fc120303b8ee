package enums

type TargetType string

const (
	TargetTypeCampaign TargetType = "campaign"
	TargetTypeUser     TargetType = "user"
)

func (t TargetType) Valid() bool {
	return t == TargetTypeCampaign || t == TargetTypeUser
}
