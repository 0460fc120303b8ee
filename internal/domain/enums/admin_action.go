package enums

type AdminAction string

const (
	AdminActionNoAction AdminAction = "no-action"
	AdminActionWarned   AdminAction = "warned"
	AdminActionRemoved  AdminAction = "removed"
)

func (a AdminAction) Valid() bool {
	return a == AdminActionNoAction || a == AdminActionWarned || a == AdminActionRemoved
}

// RequiresReason reports whether the action must carry an admin reason.
func (a AdminAction) RequiresReason() bool {
	return a == AdminActionWarned || a == AdminActionRemoved
}
