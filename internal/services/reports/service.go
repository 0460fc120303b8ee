package reports

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ivankudzin/frameup/internal/domain/enums"
	"github.com/ivankudzin/frameup/internal/domain/model"
	"github.com/ivankudzin/frameup/internal/domain/rules"
	pgrepo "github.com/ivankudzin/frameup/internal/repo/postgres"
	"github.com/ivankudzin/frameup/internal/services/notify"
)

var (
	ErrInvalidReason  = errors.New("report reason is not allowed for this target type")
	ErrTargetNotFound = errors.New("report target not found")
)

type CampaignStore interface {
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Campaign, error)
	UpdateModeration(ctx context.Context, tx pgx.Tx, id string, upd pgrepo.CampaignModerationUpdate) error
}

type UserStore interface {
	GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (model.User, error)
	UpdateModeration(ctx context.Context, tx pgx.Tx, id int64, upd pgrepo.UserModerationUpdate) error
}

type SummaryStore interface {
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.ReportSummary, error)
	Upsert(ctx context.Context, tx pgx.Tx, summary model.ReportSummary) error
}

type Limiter interface {
	Check(ctx context.Context, sourceIP string, targetID string, targetType enums.TargetType, reporterID int64) error
}

type Notifier interface {
	Push(ctx context.Context, n model.Notification)
}

type Dependencies struct {
	Pool      *pgxpool.Pool
	Campaigns CampaignStore
	Users     UserStore
	Summaries SummaryStore
	Limiter   Limiter
	Notifier  Notifier
	Logger    *zap.Logger
}

type Config struct {
	CampaignHideThreshold int
	AccountHideThreshold  int
}

type SubmitInput struct {
	TargetID   string
	TargetType enums.TargetType
	Reason     enums.ReportReason
	ReporterID int64
	SourceIP   string
}

type SubmitResult struct {
	ReportsCount int
	Escalated    bool
	NewStatus    string
}

// Service is the report ingestion engine: it aggregates reports into
// the per-target summary and auto-escalates moderation status at the
// configured thresholds.
type Service struct {
	campaigns CampaignStore
	users     UserStore
	summaries SummaryStore
	limiter   Limiter
	notifier  Notifier
	cfg       Config
	logger    *zap.Logger
	runTx     func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	now       func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.CampaignHideThreshold <= 0 {
		cfg.CampaignHideThreshold = rules.CampaignHideThreshold
	}
	if cfg.AccountHideThreshold <= 0 {
		cfg.AccountHideThreshold = rules.AccountHideThreshold
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pool := deps.Pool
	return &Service{
		campaigns: deps.Campaigns,
		users:     deps.Users,
		summaries: deps.Summaries,
		limiter:   deps.Limiter,
		notifier:  deps.Notifier,
		cfg:       cfg,
		logger:    logger,
		runTx: func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
			return pgrepo.WithTx(ctx, pool, fn)
		},
		now: time.Now,
	}
}

type escalationNote struct {
	ownerID   int64
	newStatus string
	hidden    bool
}

// Submit ingests one report. The limiter runs first, before the
// transactional write; the target and summary mutate in a single
// transaction; the owner notification goes out only after commit.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (SubmitResult, error) {
	if in.TargetID == "" || !in.TargetType.Valid() {
		return SubmitResult{}, fmt.Errorf("invalid report target")
	}
	if !in.Reason.ValidFor(in.TargetType) {
		return SubmitResult{}, ErrInvalidReason
	}
	if s.campaigns == nil || s.users == nil || s.summaries == nil {
		return SubmitResult{}, fmt.Errorf("report service dependencies are not configured")
	}

	if s.limiter != nil {
		if err := s.limiter.Check(ctx, in.SourceIP, in.TargetID, in.TargetType, in.ReporterID); err != nil {
			return SubmitResult{}, err
		}
	}

	var result SubmitResult
	var note *escalationNote

	err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		switch in.TargetType {
		case enums.TargetTypeCampaign:
			res, n, err := s.submitCampaignReport(txCtx, tx, in)
			if err != nil {
				return err
			}
			result, note = res, n
		case enums.TargetTypeUser:
			res, n, err := s.submitUserReport(txCtx, tx, in)
			if err != nil {
				return err
			}
			result, note = res, n
		}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}

	if note != nil {
		s.notifyEscalation(ctx, in, *note)
	}

	return result, nil
}

func (s *Service) submitCampaignReport(ctx context.Context, tx pgx.Tx, in SubmitInput) (SubmitResult, *escalationNote, error) {
	campaign, err := s.campaigns.GetForUpdate(ctx, tx, in.TargetID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCampaignNotFound) {
			return SubmitResult{}, nil, ErrTargetNotFound
		}
		return SubmitResult{}, nil, err
	}

	now := s.now().UTC()
	summary, err := s.nextSummary(ctx, tx, in, now)
	if err != nil {
		return SubmitResult{}, nil, err
	}
	summary.Display = model.SummaryDisplay{
		Title:     campaign.Title,
		ImageURL:  campaign.ImageURL,
		CreatorID: campaign.CreatorID,
	}

	newStatus, escalated := rules.CampaignEscalation(summary.ReportsCount, campaign.ModerationStatus, s.cfg.CampaignHideThreshold)
	if escalated {
		if err := rules.ValidateCampaignTransition(campaign.ModerationStatus, newStatus); err != nil {
			return SubmitResult{}, nil, err
		}
	}

	hiddenAt := campaign.HiddenAt
	if escalated && newStatus == enums.CampaignStatusUnderReviewHidden && hiddenAt == nil {
		hiddenAt = &now
	}

	if err := s.campaigns.UpdateModeration(ctx, tx, campaign.ID, pgrepo.CampaignModerationUpdate{
		Status:         newStatus,
		ReportsCount:   summary.ReportsCount,
		RemovalReason:  campaign.RemovalReason,
		AppealDeadline: campaign.AppealDeadline,
		AppealCount:    campaign.AppealCount,
		HiddenAt:       hiddenAt,
		RemovedAt:      campaign.RemovedAt,
	}); err != nil {
		return SubmitResult{}, nil, err
	}

	if err := s.summaries.Upsert(ctx, tx, summary); err != nil {
		return SubmitResult{}, nil, err
	}

	result := SubmitResult{
		ReportsCount: summary.ReportsCount,
		Escalated:    escalated,
		NewStatus:    string(newStatus),
	}
	var note *escalationNote
	if escalated {
		note = &escalationNote{
			ownerID:   campaign.CreatorID,
			newStatus: string(newStatus),
			hidden:    newStatus == enums.CampaignStatusUnderReviewHidden,
		}
	}

	return result, note, nil
}

func (s *Service) submitUserReport(ctx context.Context, tx pgx.Tx, in SubmitInput) (SubmitResult, *escalationNote, error) {
	userID, err := parseUserID(in.TargetID)
	if err != nil {
		return SubmitResult{}, nil, ErrTargetNotFound
	}

	user, err := s.users.GetForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return SubmitResult{}, nil, ErrTargetNotFound
		}
		return SubmitResult{}, nil, err
	}

	now := s.now().UTC()
	summary, err := s.nextSummary(ctx, tx, in, now)
	if err != nil {
		return SubmitResult{}, nil, err
	}
	summary.Display = model.SummaryDisplay{
		Username:    user.Username,
		DisplayName: user.DisplayName,
	}

	newStatus, escalated := rules.AccountEscalation(summary.ReportsCount, user.AccountStatus, s.cfg.AccountHideThreshold)
	if escalated {
		if err := rules.ValidateAccountTransition(user.AccountStatus, newStatus); err != nil {
			return SubmitResult{}, nil, err
		}
	}

	hiddenAt := user.HiddenAt
	if escalated && newStatus == enums.AccountStatusUnderReviewHidden && hiddenAt == nil {
		hiddenAt = &now
	}

	if err := s.users.UpdateModeration(ctx, tx, user.ID, pgrepo.UserModerationUpdate{
		Status:         newStatus,
		ReportsCount:   summary.ReportsCount,
		BanReason:      user.BanReason,
		AppealDeadline: user.AppealDeadline,
		HiddenAt:       hiddenAt,
		BannedAt:       user.BannedAt,
	}); err != nil {
		return SubmitResult{}, nil, err
	}

	if err := s.summaries.Upsert(ctx, tx, summary); err != nil {
		return SubmitResult{}, nil, err
	}

	result := SubmitResult{
		ReportsCount: summary.ReportsCount,
		Escalated:    escalated,
		NewStatus:    string(newStatus),
	}
	var note *escalationNote
	if escalated {
		note = &escalationNote{
			ownerID:   user.ID,
			newStatus: string(newStatus),
			hidden:    newStatus == enums.AccountStatusUnderReviewHidden,
		}
	}

	return result, note, nil
}

// nextSummary reads the current summary under lock and rolls it
// forward: a missing summary or one already resolved/dismissed starts a
// fresh reporting cycle at count 1.
func (s *Service) nextSummary(ctx context.Context, tx pgx.Tx, in SubmitInput, now time.Time) (model.ReportSummary, error) {
	summaryID := model.SummaryID(in.TargetType, in.TargetID)

	summary, err := s.summaries.GetForUpdate(ctx, tx, summaryID)
	if err != nil && !errors.Is(err, pgrepo.ErrSummaryNotFound) {
		return model.ReportSummary{}, err
	}

	freshCycle := errors.Is(err, pgrepo.ErrSummaryNotFound) || summary.Status != enums.SummaryStatusPending
	if freshCycle {
		return model.ReportSummary{
			ID:              summaryID,
			TargetID:        in.TargetID,
			TargetType:      in.TargetType,
			ReportsCount:    1,
			ReasonCounts:    map[enums.ReportReason]int{in.Reason: 1},
			Status:          enums.SummaryStatusPending,
			FirstReportedAt: now,
			LastReportedAt:  now,
		}, nil
	}

	summary.ReportsCount++
	if summary.ReasonCounts == nil {
		summary.ReasonCounts = map[enums.ReportReason]int{}
	}
	summary.ReasonCounts[in.Reason]++
	summary.LastReportedAt = now
	return summary, nil
}

func (s *Service) notifyEscalation(ctx context.Context, in SubmitInput, note escalationNote) {
	if s.notifier == nil || note.ownerID <= 0 {
		return
	}

	title := "Your content is under review"
	body := "Your content received reports and is being reviewed by moderators."
	if in.TargetType == enums.TargetTypeUser {
		title = "Your account is under review"
		body = "Your account received reports and is being reviewed by moderators."
	}
	if note.hidden {
		body += " It is hidden from the public while the review is in progress."
	}

	s.notifier.Push(ctx, model.Notification{
		UserID:    note.ownerID,
		Type:      "moderation_status",
		Title:     title,
		Body:      body,
		ActionURL: notify.ModerationActionURL(string(in.TargetType), in.TargetID),
		Metadata: map[string]any{
			"target_type": string(in.TargetType),
			"target_id":   in.TargetID,
			"new_status":  note.newStatus,
		},
	})
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user target id %q", raw)
	}
	return id, nil
}
