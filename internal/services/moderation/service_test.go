package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/frameup/internal/domain/enums"
	"github.com/ivankudzin/frameup/internal/domain/model"
	"github.com/ivankudzin/frameup/internal/domain/rules"
	pgrepo "github.com/ivankudzin/frameup/internal/repo/postgres"
)

type campaignStoreStub struct {
	campaigns map[string]model.Campaign
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
	return nil
}

type userStoreStub struct {
	users map[int64]model.User
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
	return nil
}

type summaryStoreStub struct {
	summaries map[string]model.ReportSummary
}

func (s *summaryStoreStub) GetForUpdate(_ context.Context, _ pgx.Tx, id string) (model.ReportSummary, error) {
	sum, ok := s.summaries[id]
	if !ok {
		return model.ReportSummary{}, pgrepo.ErrSummaryNotFound
	}
	return sum, nil
}

func (s *summaryStoreStub) Upsert(_ context.Context, _ pgx.Tx, summary model.ReportSummary) error {
	s.summaries[summary.ID] = summary
	return nil
}

func (s *summaryStoreStub) ListPending(_ context.Context, _ int) ([]model.ReportSummary, error) {
	var out []model.ReportSummary
	for _, sum := range s.summaries {
		if sum.Status == enums.SummaryStatusPending {
			out = append(out, sum)
		}
	}
	return out, nil
}

type warningStoreStub struct {
	created      []model.Warning
	acknowledged []int64
}

func (s *warningStoreStub) Create(_ context.Context, _ pgx.Tx, w model.Warning) error {
	s.created = append(s.created, w)
	return nil
}

func (s *warningStoreStub) ListByUser(_ context.Context, userID int64, _ int) ([]model.Warning, error) {
	var out []model.Warning
	for _, w := range s.created {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *warningStoreStub) Acknowledge(_ context.Context, warningID, userID int64) error {
	for _, w := range s.created {
		if w.ID == warningID && w.UserID == userID {
			s.acknowledged = append(s.acknowledged, warningID)
			return nil
		}
	}
	return pgrepo.ErrWarningNotFound
}

type auditStub struct {
	entries []model.AdminLogEntry
}

func (s *auditStub) Append(_ context.Context, entry model.AdminLogEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

type notifierStub struct {
	pushes []model.Notification
	emails []string
}

func (s *notifierStub) Push(_ context.Context, n model.Notification) {
	s.pushes = append(s.pushes, n)
}

func (s *notifierStub) Email(_ context.Context, to, _, _ string) {
	s.emails = append(s.emails, to)
}

type fixture struct {
	svc       *Service
	campaigns *campaignStoreStub
	users     *userStoreStub
	summaries *summaryStoreStub
	warnings  *warningStoreStub
	audit     *auditStub
	notifier  *notifierStub
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		campaigns: &campaignStoreStub{campaigns: map[string]model.Campaign{}},
		users:     &userStoreStub{users: map[int64]model.User{}},
		summaries: &summaryStoreStub{summaries: map[string]model.ReportSummary{}},
		warnings:  &warningStoreStub{},
		audit:     &auditStub{},
		notifier:  &notifierStub{},
		now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(Dependencies{
		Campaigns: f.campaigns,
		Users:     f.users,
		Summaries: f.summaries,
		Warnings:  f.warnings,
		AuditLog:  f.audit,
		Notifier:  f.notifier,
	}, Config{})
	f.svc.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return fn(ctx, nil)
	}
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) seedCampaign(id string, status enums.CampaignStatus, reports int) {
	f.campaigns.campaigns[id] = model.Campaign{
		ID:               id,
		CreatorID:        77,
		Title:            "Summer frame",
		ModerationStatus: status,
		ReportsCount:     reports,
	}
	sid := model.SummaryID(enums.TargetTypeCampaign, id)
	f.summaries.summaries[sid] = model.ReportSummary{
		ID:           sid,
		TargetID:     id,
		TargetType:   enums.TargetTypeCampaign,
		ReportsCount: reports,
		ReasonCounts: map[enums.ReportReason]int{enums.ReportReasonSpam: reports},
		Status:       enums.SummaryStatusPending,
	}
}

func (f *fixture) seedUser(id int64, status enums.AccountStatus, reports int) {
	f.users.users[id] = model.User{
		ID:            id,
		Username:      "reported_user",
		Email:         "reported@example.com",
		AccountStatus: status,
		ReportsCount:  reports,
	}
	sid := model.SummaryID(enums.TargetTypeUser, "42")
	f.summaries.summaries[sid] = model.ReportSummary{
		ID:           sid,
		TargetID:     "42",
		TargetType:   enums.TargetTypeUser,
		ReportsCount: reports,
		Status:       enums.SummaryStatusPending,
	}
}

func TestResolveRemoveCampaign(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign("c1", enums.CampaignStatusUnderReviewHidden, 4)
	sid := model.SummaryID(enums.TargetTypeCampaign, "c1")

	res, err := f.svc.Resolve(context.Background(), sid, enums.AdminActionRemoved, "copyright abuse", 9)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.NewStatus != string(enums.CampaignStatusRemovedTemporary) {
		t.Fatalf("new status = %q", res.NewStatus)
	}

	c := f.campaigns.campaigns["c1"]
	if c.ModerationStatus != enums.CampaignStatusRemovedTemporary {
		t.Fatalf("campaign status = %q", c.ModerationStatus)
	}
	if c.ReportsCount != 0 {
		t.Fatalf("reports count not reset: %d", c.ReportsCount)
	}
	if c.RemovalReason == nil || *c.RemovalReason != "copyright abuse" {
		t.Fatalf("removal reason = %v", c.RemovalReason)
	}
	if c.RemovedAt == nil || !c.RemovedAt.Equal(f.now) {
		t.Fatalf("removed at = %v", c.RemovedAt)
	}
	wantDeadline := f.now.Add(DefaultAppealWindow)
	if c.AppealDeadline == nil || !c.AppealDeadline.Equal(wantDeadline) {
		t.Fatalf("appeal deadline = %v, want %v", c.AppealDeadline, wantDeadline)
	}

	sum := f.summaries.summaries[sid]
	if sum.Status != enums.SummaryStatusResolved {
		t.Fatalf("summary status = %q", sum.Status)
	}
	if sum.ReportsCount != 0 || len(sum.ReasonCounts) != 0 {
		t.Fatalf("summary counters not reset: %d %v", sum.ReportsCount, sum.ReasonCounts)
	}

	if len(f.audit.entries) != 1 {
		t.Fatalf("audit entries = %d", len(f.audit.entries))
	}
	entry := f.audit.entries[0]
	if entry.AdminID != "9" || entry.Action != "resolve_report:removed" {
		t.Fatalf("audit entry = %+v", entry)
	}

	if len(f.notifier.pushes) != 1 || f.notifier.pushes[0].UserID != 77 {
		t.Fatalf("pushes = %+v", f.notifier.pushes)
	}
	if len(f.notifier.emails) != 0 {
		t.Fatalf("unexpected emails: %v", f.notifier.emails)
	}
}

func TestResolveWarnCreatesWarning(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign("c1", enums.CampaignStatusUnderReview, 2)
	sid := model.SummaryID(enums.TargetTypeCampaign, "c1")

	if _, err := f.svc.Resolve(context.Background(), sid, enums.AdminActionWarned, "borderline imagery", 9); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	c := f.campaigns.campaigns["c1"]
	if c.ModerationStatus != enums.CampaignStatusActive {
		t.Fatalf("campaign status = %q", c.ModerationStatus)
	}
	if c.RemovalReason != nil || c.AppealDeadline != nil {
		t.Fatalf("removal fields set on a warning")
	}

	if len(f.warnings.created) != 1 {
		t.Fatalf("warnings = %d", len(f.warnings.created))
	}
	w := f.warnings.created[0]
	if w.UserID != 77 || w.Reason != "borderline imagery" || w.IssuedBy != "9" {
		t.Fatalf("warning = %+v", w)
	}
	if w.ReportID != sid {
		t.Fatalf("warning report id = %q", w.ReportID)
	}

	if f.summaries.summaries[sid].Status != enums.SummaryStatusResolved {
		t.Fatalf("summary status = %q", f.summaries.summaries[sid].Status)
	}
}

func TestResolveNoActionDismisses(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign("c1", enums.CampaignStatusUnderReview, 1)
	sid := model.SummaryID(enums.TargetTypeCampaign, "c1")

	if _, err := f.svc.Resolve(context.Background(), sid, enums.AdminActionNoAction, "", 9); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if f.campaigns.campaigns["c1"].ModerationStatus != enums.CampaignStatusActive {
		t.Fatalf("campaign not restored")
	}
	if f.summaries.summaries[sid].Status != enums.SummaryStatusDismissed {
		t.Fatalf("summary status = %q", f.summaries.summaries[sid].Status)
	}
	if len(f.warnings.created) != 0 {
		t.Fatalf("unexpected warnings: %+v", f.warnings.created)
	}
}

func TestResolveBanUserSendsEmail(t *testing.T) {
	f := newFixture(t)
	f.seedUser(42, enums.AccountStatusUnderReviewHidden, 11)
	sid := model.SummaryID(enums.TargetTypeUser, "42")

	res, err := f.svc.Resolve(context.Background(), sid, enums.AdminActionRemoved, "harassment of other users", 9)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.NewStatus != string(enums.AccountStatusBannedTemporary) {
		t.Fatalf("new status = %q", res.NewStatus)
	}

	u := f.users.users[42]
	if u.AccountStatus != enums.AccountStatusBannedTemporary {
		t.Fatalf("account status = %q", u.AccountStatus)
	}
	if u.BanReason == nil || *u.BanReason != "harassment of other users" {
		t.Fatalf("ban reason = %v", u.BanReason)
	}
	if u.AppealDeadline == nil || !u.AppealDeadline.Equal(f.now.Add(DefaultAppealWindow)) {
		t.Fatalf("appeal deadline = %v", u.AppealDeadline)
	}

	if len(f.notifier.emails) != 1 || f.notifier.emails[0] != "reported@example.com" {
		t.Fatalf("emails = %v", f.notifier.emails)
	}
	if len(f.notifier.pushes) != 0 {
		t.Fatalf("banned user got an in-app push: %+v", f.notifier.pushes)
	}
}

func TestResolvePermanentStateRejected(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign("c1", enums.CampaignStatusRemovedPermanent, 0)
	sid := model.SummaryID(enums.TargetTypeCampaign, "c1")

	_, err := f.svc.Resolve(context.Background(), sid, enums.AdminActionNoAction, "", 9)
	if !errors.Is(err, rules.ErrPermanentState) {
		t.Fatalf("err = %v, want ErrPermanentState", err)
	}
	if f.campaigns.campaigns["c1"].ModerationStatus != enums.CampaignStatusRemovedPermanent {
		t.Fatalf("campaign mutated despite rejected transition")
	}
	if len(f.audit.entries) != 0 {
		t.Fatalf("audit written for a failed resolve")
	}
}

func TestResolveDeletedTargetDismissesSummary(t *testing.T) {
	f := newFixture(t)
	sid := model.SummaryID(enums.TargetTypeCampaign, "gone")
	f.summaries.summaries[sid] = model.ReportSummary{
		ID:           sid,
		TargetID:     "gone",
		TargetType:   enums.TargetTypeCampaign,
		ReportsCount: 3,
		Status:       enums.SummaryStatusPending,
	}

	_, err := f.svc.Resolve(context.Background(), sid, enums.AdminActionRemoved, "spam", 9)
	if !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("err = %v, want ErrTargetNotFound", err)
	}
	sum := f.summaries.summaries[sid]
	if sum.Status != enums.SummaryStatusDismissed || sum.ReportsCount != 0 {
		t.Fatalf("orphaned summary not dismissed: %+v", sum)
	}
}

func TestResolveMissingSummary(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Resolve(context.Background(), "campaign:absent", enums.AdminActionNoAction, "", 9)
	if !errors.Is(err, ErrSummaryNotFound) {
		t.Fatalf("err = %v, want ErrSummaryNotFound", err)
	}
}

func TestResolveReasonRequired(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign("c1", enums.CampaignStatusUnderReview, 1)
	sid := model.SummaryID(enums.TargetTypeCampaign, "c1")

	for _, action := range []enums.AdminAction{enums.AdminActionWarned, enums.AdminActionRemoved} {
		if _, err := f.svc.Resolve(context.Background(), sid, action, "  ", 9); !errors.Is(err, ErrReasonRequired) {
			t.Fatalf("%s: err = %v, want ErrReasonRequired", action, err)
		}
	}
}

func TestPendingSummaries(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign("c1", enums.CampaignStatusUnderReview, 2)
	f.summaries.summaries["campaign:done"] = model.ReportSummary{
		ID:     "campaign:done",
		Status: enums.SummaryStatusResolved,
	}

	got, err := f.svc.PendingSummaries(context.Background(), 50)
	if err != nil {
		t.Fatalf("pending summaries: %v", err)
	}
	if len(got) != 1 || got[0].ID != model.SummaryID(enums.TargetTypeCampaign, "c1") {
		t.Fatalf("pending = %+v", got)
	}
}

func TestWarningsListsOnlyOwn(t *testing.T) {
	f := newFixture(t)
	f.warnings.created = []model.Warning{
		{ID: 1, UserID: 7, Reason: "spam"},
		{ID: 2, UserID: 8, Reason: "abusive"},
	}

	got, err := f.svc.Warnings(context.Background(), 7, 20)
	if err != nil {
		t.Fatalf("warnings: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("warnings = %+v", got)
	}
}

func TestAcknowledgeWarning(t *testing.T) {
	f := newFixture(t)
	f.warnings.created = []model.Warning{{ID: 5, UserID: 7}}

	if err := f.svc.AcknowledgeWarning(context.Background(), 5, 7); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if len(f.warnings.acknowledged) != 1 || f.warnings.acknowledged[0] != 5 {
		t.Fatalf("acknowledged = %v", f.warnings.acknowledged)
	}
}

func TestAcknowledgeWarningOfOtherUser(t *testing.T) {
	f := newFixture(t)
	f.warnings.created = []model.Warning{{ID: 5, UserID: 8}}

	err := f.svc.AcknowledgeWarning(context.Background(), 5, 7)
	if !errors.Is(err, ErrWarningNotFound) {
		t.Fatalf("err = %v, want ErrWarningNotFound", err)
	}
	if len(f.warnings.acknowledged) != 0 {
		t.Fatalf("warning of another user acknowledged")
	}
}
