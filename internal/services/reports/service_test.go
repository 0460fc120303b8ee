package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/frameup/internal/domain/enums"
	"github.com/ivankudzin/frameup/internal/domain/model"
	pgrepo "github.com/ivankudzin/frameup/internal/repo/postgres"
)

type campaignStoreStub struct {
	campaigns map[string]model.Campaign
	updates   []pgrepo.CampaignModerationUpdate
}

func (s *campaignStoreStub) GetForUpdate(_ context.Context, _ pgx.Tx, id string) (model.Campaign, error) {
	c, ok := s.campaigns[id]
	if !ok {
		return model.Campaign{}, pgrepo.ErrCampaignNotFound
	}
	return c, nil
}

func (s *campaignStoreStub) UpdateModeration(_ context.Context, _ pgx.Tx, id string, upd pgrepo.CampaignModerationUpdate) error {
	c, ok := s.campaigns[id]
	if !ok {
		return pgrepo.ErrCampaignNotFound
	}
	c.ModerationStatus = upd.Status
	c.ReportsCount = upd.ReportsCount
	c.RemovalReason = upd.RemovalReason
	c.AppealDeadline = upd.AppealDeadline
	c.AppealCount = upd.AppealCount
	c.HiddenAt = upd.HiddenAt
	c.RemovedAt = upd.RemovedAt
	s.campaigns[id] = c
	s.updates = append(s.updates, upd)
	return nil
}

type userStoreStub struct {
	users   map[int64]model.User
	updates []pgrepo.UserModerationUpdate
}

func (s *userStoreStub) GetForUpdate(_ context.Context, _ pgx.Tx, id int64) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return u, nil
}

func (s *userStoreStub) UpdateModeration(_ context.Context, _ pgx.Tx, id int64, upd pgrepo.UserModerationUpdate) error {
	u, ok := s.users[id]
	if !ok {
		return pgrepo.ErrUserNotFound
	}
	u.AccountStatus = upd.Status
	u.ReportsCount = upd.ReportsCount
	u.BanReason = upd.BanReason
	u.AppealDeadline = upd.AppealDeadline
	u.HiddenAt = upd.HiddenAt
	u.BannedAt = upd.BannedAt
	s.users[id] = u
	s.updates = append(s.updates, upd)
	return nil
}

type summaryStoreStub struct {
	summaries map[string]model.ReportSummary
}

func (s *summaryStoreStub) GetForUpdate(_ context.Context, _ pgx.Tx, id string) (model.ReportSummary, error) {
	summary, ok := s.summaries[id]
	if !ok {
		return model.ReportSummary{}, pgrepo.ErrSummaryNotFound
	}
	return summary, nil
}

func (s *summaryStoreStub) Upsert(_ context.Context, _ pgx.Tx, summary model.ReportSummary) error {
	if s.summaries == nil {
		s.summaries = map[string]model.ReportSummary{}
	}
	s.summaries[summary.ID] = summary
	return nil
}

type limiterStub struct {
	err   error
	calls int
}

func (s *limiterStub) Check(context.Context, string, string, enums.TargetType, int64) error {
	s.calls++
	return s.err
}

type notifierStub struct {
	pushed []model.Notification
}

func (s *notifierStub) Push(_ context.Context, n model.Notification) {
	s.pushed = append(s.pushed, n)
}

func newTestService(campaigns *campaignStoreStub, users *userStoreStub, summaries *summaryStoreStub, limiter *limiterStub, notifier *notifierStub) *Service {
	svc := NewService(Dependencies{
		Campaigns: campaigns,
		Users:     users,
		Summaries: summaries,
		Limiter:   limiter,
		Notifier:  notifier,
	}, Config{})
	svc.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return fn(ctx, nil)
	}
	return svc
}

func activeCampaign(id string, creator int64) model.Campaign {
	return model.Campaign{
		ID:               id,
		CreatorID:        creator,
		Title:            "Frame pack",
		ModerationStatus: enums.CampaignStatusActive,
	}
}

func TestTwoReportsFlagCampaignThreeHideIt(t *testing.T) {
	campaigns := &campaignStoreStub{campaigns: map[string]model.Campaign{"c1": activeCampaign("c1", 9)}}
	summaries := &summaryStoreStub{}
	notifier := &notifierStub{}
	svc := newTestService(campaigns, &userStoreStub{}, summaries, &limiterStub{}, notifier)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	ctx := context.Background()
	in := SubmitInput{TargetID: "c1", TargetType: enums.TargetTypeCampaign, Reason: enums.ReportReasonSpam, SourceIP: "203.0.113.1"}

	res, err := svc.Submit(ctx, in)
	if err != nil {
		t.Fatalf("first report: %v", err)
	}
	if res.ReportsCount != 1 || !res.Escalated || res.NewStatus != string(enums.CampaignStatusUnderReview) {
		t.Fatalf("unexpected first result: %+v", res)
	}

	res, err = svc.Submit(ctx, in)
	if err != nil {
		t.Fatalf("second report: %v", err)
	}
	if res.ReportsCount != 2 {
		t.Fatalf("unexpected count after second report: %d", res.ReportsCount)
	}
	if campaigns.campaigns["c1"].ModerationStatus != enums.CampaignStatusUnderReview {
		t.Fatalf("expected under-review after two reports, got %q", campaigns.campaigns["c1"].ModerationStatus)
	}
	if campaigns.campaigns["c1"].HiddenAt != nil {
		t.Fatalf("hidden_at must be absent below the hide threshold")
	}

	res, err = svc.Submit(ctx, in)
	if err != nil {
		t.Fatalf("third report: %v", err)
	}
	if !res.Escalated || res.NewStatus != string(enums.CampaignStatusUnderReviewHidden) {
		t.Fatalf("expected hide escalation on third report, got %+v", res)
	}

	c := campaigns.campaigns["c1"]
	if c.ModerationStatus != enums.CampaignStatusUnderReviewHidden {
		t.Fatalf("unexpected status: %q", c.ModerationStatus)
	}
	if c.HiddenAt == nil || !c.HiddenAt.Equal(now) {
		t.Fatalf("expected hidden_at stamped at %v, got %v", now, c.HiddenAt)
	}
	if c.ReportsCount != 3 {
		t.Fatalf("campaign count must mirror summary count, got %d", c.ReportsCount)
	}

	summary := summaries.summaries[model.SummaryID(enums.TargetTypeCampaign, "c1")]
	if summary.ReportsCount != 3 || summary.Status != enums.SummaryStatusPending {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.ReasonCounts[enums.ReportReasonSpam] != 3 {
		t.Fatalf("unexpected reason counts: %+v", summary.ReasonCounts)
	}
	if len(notifier.pushed) != 2 {
		t.Fatalf("expected notifications only on the two escalations, got %d", len(notifier.pushed))
	}
}

func TestNineReportsKeepUserVisibleTenHideIt(t *testing.T) {
	users := &userStoreStub{users: map[int64]model.User{55: {ID: 55, Username: "sam", AccountStatus: enums.AccountStatusActive}}}
	summaries := &summaryStoreStub{}
	svc := newTestService(&campaignStoreStub{}, users, summaries, &limiterStub{}, &notifierStub{})

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	ctx := context.Background()
	in := SubmitInput{TargetID: "55", TargetType: enums.TargetTypeUser, Reason: enums.ReportReasonHarassment, SourceIP: "203.0.113.1"}

	for i := 0; i < 9; i++ {
		if _, err := svc.Submit(ctx, in); err != nil {
			t.Fatalf("report #%d: %v", i+1, err)
		}
	}
	if users.users[55].AccountStatus != enums.AccountStatusUnderReview {
		t.Fatalf("expected under-review after nine reports, got %q", users.users[55].AccountStatus)
	}

	if _, err := svc.Submit(ctx, in); err != nil {
		t.Fatalf("tenth report: %v", err)
	}
	u := users.users[55]
	if u.AccountStatus != enums.AccountStatusUnderReviewHidden {
		t.Fatalf("expected under-review-hidden after ten reports, got %q", u.AccountStatus)
	}
	if u.HiddenAt == nil {
		t.Fatalf("expected hidden_at stamped on hide escalation")
	}
}

func TestResolvedSummaryStartsFreshCycle(t *testing.T) {
	campaigns := &campaignStoreStub{campaigns: map[string]model.Campaign{"c1": activeCampaign("c1", 9)}}
	summaryID := model.SummaryID(enums.TargetTypeCampaign, "c1")
	staleFirst := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	summaries := &summaryStoreStub{summaries: map[string]model.ReportSummary{
		summaryID: {
			ID:              summaryID,
			TargetID:        "c1",
			TargetType:      enums.TargetTypeCampaign,
			ReportsCount:    0,
			ReasonCounts:    map[enums.ReportReason]int{},
			Status:          enums.SummaryStatusDismissed,
			FirstReportedAt: staleFirst,
			LastReportedAt:  staleFirst,
		},
	}}
	svc := newTestService(campaigns, &userStoreStub{}, summaries, &limiterStub{}, &notifierStub{})

	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	res, err := svc.Submit(context.Background(), SubmitInput{
		TargetID:   "c1",
		TargetType: enums.TargetTypeCampaign,
		Reason:     enums.ReportReasonCopyright,
		SourceIP:   "203.0.113.1",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.ReportsCount != 1 {
		t.Fatalf("fresh cycle must start at 1, got %d", res.ReportsCount)
	}

	summary := summaries.summaries[summaryID]
	if summary.Status != enums.SummaryStatusPending {
		t.Fatalf("unexpected status: %q", summary.Status)
	}
	if len(summary.ReasonCounts) != 1 || summary.ReasonCounts[enums.ReportReasonCopyright] != 1 {
		t.Fatalf("expected reset reason counts, got %+v", summary.ReasonCounts)
	}
	if !summary.FirstReportedAt.Equal(now) {
		t.Fatalf("first_reported_at must reset on a fresh cycle, got %v", summary.FirstReportedAt)
	}
}

func TestReportsKeepCountingWithoutReEscalatingRemovedTarget(t *testing.T) {
	deadline := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	reason := "policy violation"
	campaigns := &campaignStoreStub{campaigns: map[string]model.Campaign{"c1": {
		ID:               "c1",
		CreatorID:        9,
		ModerationStatus: enums.CampaignStatusRemovedTemporary,
		RemovalReason:    &reason,
		AppealDeadline:   &deadline,
	}}}
	notifier := &notifierStub{}
	svc := newTestService(campaigns, &userStoreStub{}, &summaryStoreStub{}, &limiterStub{}, notifier)

	res, err := svc.Submit(context.Background(), SubmitInput{
		TargetID:   "c1",
		TargetType: enums.TargetTypeCampaign,
		Reason:     enums.ReportReasonSpam,
		SourceIP:   "203.0.113.1",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Escalated {
		t.Fatalf("removed target must not re-escalate")
	}

	c := campaigns.campaigns["c1"]
	if c.ModerationStatus != enums.CampaignStatusRemovedTemporary {
		t.Fatalf("status must be untouched, got %q", c.ModerationStatus)
	}
	if c.RemovalReason == nil || c.AppealDeadline == nil {
		t.Fatalf("removal fields must be preserved through a report write")
	}
	if len(notifier.pushed) != 0 {
		t.Fatalf("no notification without escalation")
	}
}

func TestSubmitRejectsForeignReason(t *testing.T) {
	svc := newTestService(&campaignStoreStub{}, &userStoreStub{}, &summaryStoreStub{}, &limiterStub{}, &notifierStub{})

	_, err := svc.Submit(context.Background(), SubmitInput{
		TargetID:   "c1",
		TargetType: enums.TargetTypeCampaign,
		Reason:     enums.ReportReasonHarassment, // user-report reason
	})
	if !errors.Is(err, ErrInvalidReason) {
		t.Fatalf("expected ErrInvalidReason, got %v", err)
	}
}

func TestSubmitStopsAtLimiterBeforeAnyWrite(t *testing.T) {
	campaigns := &campaignStoreStub{campaigns: map[string]model.Campaign{"c1": activeCampaign("c1", 9)}}
	limiter := &limiterStub{err: errors.New("rate limited")}
	svc := newTestService(campaigns, &userStoreStub{}, &summaryStoreStub{}, limiter, &notifierStub{})

	_, err := svc.Submit(context.Background(), SubmitInput{
		TargetID:   "c1",
		TargetType: enums.TargetTypeCampaign,
		Reason:     enums.ReportReasonSpam,
		SourceIP:   "203.0.113.1",
	})
	if err == nil {
		t.Fatalf("expected limiter rejection to propagate")
	}
	if limiter.calls != 1 {
		t.Fatalf("limiter must run exactly once, got %d", limiter.calls)
	}
	if len(campaigns.updates) != 0 {
		t.Fatalf("no target write may happen after a limiter rejection")
	}
}

func TestSubmitUnknownTarget(t *testing.T) {
	svc := newTestService(&campaignStoreStub{campaigns: map[string]model.Campaign{}}, &userStoreStub{}, &summaryStoreStub{}, &limiterStub{}, &notifierStub{})

	_, err := svc.Submit(context.Background(), SubmitInput{
		TargetID:   "ghost",
		TargetType: enums.TargetTypeCampaign,
		Reason:     enums.ReportReasonSpam,
	})
	if !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("expected ErrTargetNotFound, got %v", err)
	}
}
