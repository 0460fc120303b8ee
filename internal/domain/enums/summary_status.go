package enums

type SummaryStatus string

const (
	SummaryStatusPending   SummaryStatus = "pending"
	SummaryStatusResolved  SummaryStatus = "resolved"
	SummaryStatusDismissed SummaryStatus = "dismissed"
)

func (s SummaryStatus) Valid() bool {
	return s == SummaryStatusPending || s == SummaryStatusResolved || s == SummaryStatusDismissed
}
