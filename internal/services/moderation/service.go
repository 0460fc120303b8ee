package moderation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
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

const DefaultAppealWindow = 30 * 24 * time.Hour

var (
	ErrSummaryNotFound = errors.New("report summary not found")
	ErrTargetNotFound  = errors.New("moderation target not found")
	ErrReasonRequired  = errors.New("a reason is required for this action")
	ErrInvalidAction   = errors.New("unsupported admin action")
	ErrWarningNotFound = errors.New("warning not found")
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
	ListPending(ctx context.Context, limit int) ([]model.ReportSummary, error)
}

type WarningStore interface {
	Create(ctx context.Context, tx pgx.Tx, warning model.Warning) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.Warning, error)
	Acknowledge(ctx context.Context, warningID, userID int64) error
}

type AuditLog interface {
	Append(ctx context.Context, entry model.AdminLogEntry) error
}

type Notifier interface {
	Push(ctx context.Context, n model.Notification)
	Email(ctx context.Context, to, subject, html string)
}

type Dependencies struct {
	Pool      *pgxpool.Pool
	Campaigns CampaignStore
	Users     UserStore
	Summaries SummaryStore
	Warnings  WarningStore
	AuditLog  AuditLog
	Notifier  Notifier
	Logger    *zap.Logger
}

type Config struct {
	AppealWindow time.Duration
}

type ResolveResult struct {
	Action     enums.AdminAction
	TargetType enums.TargetType
	TargetID   string
	NewStatus  string
}

// Service is the admin action resolver: it applies one admin decision
// to a reported target and its summary atomically, then logs and
// notifies outside the transaction.
type Service struct {
	campaigns CampaignStore
	users     UserStore
	summaries SummaryStore
	warnings  WarningStore
	audit     AuditLog
	notifier  Notifier
	cfg       Config
	logger    *zap.Logger
	runTx     func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	now       func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.AppealWindow <= 0 {
		cfg.AppealWindow = DefaultAppealWindow
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
		warnings:  deps.Warnings,
		audit:     deps.AuditLog,
		notifier:  deps.Notifier,
		cfg:       cfg,
		logger:    logger,
		runTx: func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
			return pgrepo.WithTx(ctx, pool, fn)
		},
		now: time.Now,
	}
}

// outcome carries what the post-commit side effects need. No I/O with
// side effects ever happens inside the transaction itself, because the
// transaction may retry.
type outcome struct {
	ownerID   int64
	email     string
	newStatus string
}

// Resolve applies a dismiss/warn/remove decision to the target behind
// summaryID. The target's own state machine is the idempotency guard: a
// second resolve on an already-handled summary fails transition
// validation, not an ad-hoc summary status check.
func (s *Service) Resolve(ctx context.Context, summaryID string, action enums.AdminAction, reason string, adminID int64) (ResolveResult, error) {
	if summaryID == "" || adminID <= 0 {
		return ResolveResult{}, fmt.Errorf("invalid resolve payload")
	}
	if !action.Valid() {
		return ResolveResult{}, ErrInvalidAction
	}
	reason = strings.TrimSpace(reason)
	if action.RequiresReason() && reason == "" {
		return ResolveResult{}, ErrReasonRequired
	}
	if s.campaigns == nil || s.users == nil || s.summaries == nil {
		return ResolveResult{}, fmt.Errorf("moderation service dependencies are not configured")
	}

	var result ResolveResult
	var out outcome
	targetGone := false

	err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		summary, err := s.summaries.GetForUpdate(txCtx, tx, summaryID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrSummaryNotFound) {
				return ErrSummaryNotFound
			}
			return err
		}

		switch summary.TargetType {
		case enums.TargetTypeCampaign:
			res, o, gone, err := s.resolveCampaign(txCtx, tx, summary, action, reason, adminID)
			if err != nil {
				return err
			}
			result, out, targetGone = res, o, gone
		case enums.TargetTypeUser:
			res, o, gone, err := s.resolveUser(txCtx, tx, summary, action, reason, adminID)
			if err != nil {
				return err
			}
			result, out, targetGone = res, o, gone
		default:
			return fmt.Errorf("summary %q has unknown target type %q", summary.ID, summary.TargetType)
		}
		return nil
	})
	if err != nil {
		return ResolveResult{}, err
	}

	if targetGone {
		// The owner deleted the content while the report was pending.
		// The summary is dismissed; nothing is left to act on.
		return ResolveResult{}, ErrTargetNotFound
	}

	s.appendAudit(ctx, model.AdminLogEntry{
		AdminID:    strconv.FormatInt(adminID, 10),
		Action:     "resolve_report:" + string(action),
		TargetType: result.TargetType,
		TargetID:   result.TargetID,
		Reason:     reason,
		AdditionalData: map[string]any{
			"summary_id": summaryID,
			"new_status": result.NewStatus,
		},
	})
	s.notifyResolution(ctx, result, out, reason)

	return result, nil
}

func (s *Service) resolveCampaign(ctx context.Context, tx pgx.Tx, summary model.ReportSummary, action enums.AdminAction, reason string, adminID int64) (ResolveResult, outcome, bool, error) {
	campaign, err := s.campaigns.GetForUpdate(ctx, tx, summary.TargetID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCampaignNotFound) {
			return ResolveResult{}, outcome{}, true, s.dismissOrphanedSummary(ctx, tx, summary)
		}
		return ResolveResult{}, outcome{}, false, err
	}

	now := s.now().UTC()
	var upd pgrepo.CampaignModerationUpdate
	var newStatus enums.CampaignStatus

	switch action {
	case enums.AdminActionNoAction, enums.AdminActionWarned:
		newStatus = enums.CampaignStatusActive
		upd = pgrepo.CampaignModerationUpdate{Status: newStatus}
	case enums.AdminActionRemoved:
		newStatus = enums.CampaignStatusRemovedTemporary
		deadline := now.Add(s.cfg.AppealWindow)
		upd = pgrepo.CampaignModerationUpdate{
			Status:         newStatus,
			RemovalReason:  &reason,
			AppealDeadline: &deadline,
			RemovedAt:      &now,
		}
	}

	if err := rules.ValidateCampaignTransition(campaign.ModerationStatus, newStatus); err != nil {
		return ResolveResult{}, outcome{}, false, err
	}

	if err := s.campaigns.UpdateModeration(ctx, tx, campaign.ID, upd); err != nil {
		return ResolveResult{}, outcome{}, false, err
	}

	if action == enums.AdminActionWarned {
		if err := s.warnings.Create(ctx, tx, model.Warning{
			UserID:     campaign.CreatorID,
			TargetType: enums.TargetTypeCampaign,
			TargetID:   campaign.ID,
			ReportID:   summary.ID,
			Reason:     reason,
			IssuedBy:   strconv.FormatInt(adminID, 10),
			IssuedAt:   now,
		}); err != nil {
			return ResolveResult{}, outcome{}, false, err
		}
	}

	summary.Display = model.SummaryDisplay{
		Title:     campaign.Title,
		ImageURL:  campaign.ImageURL,
		CreatorID: campaign.CreatorID,
	}
	if err := s.closeSummary(ctx, tx, summary, action); err != nil {
		return ResolveResult{}, outcome{}, false, err
	}

	result := ResolveResult{
		Action:     action,
		TargetType: enums.TargetTypeCampaign,
		TargetID:   campaign.ID,
		NewStatus:  string(newStatus),
	}
	return result, outcome{ownerID: campaign.CreatorID, newStatus: string(newStatus)}, false, nil
}

func (s *Service) resolveUser(ctx context.Context, tx pgx.Tx, summary model.ReportSummary, action enums.AdminAction, reason string, adminID int64) (ResolveResult, outcome, bool, error) {
	userID, err := strconv.ParseInt(summary.TargetID, 10, 64)
	if err != nil {
		return ResolveResult{}, outcome{}, false, fmt.Errorf("summary %q has malformed user target id: %w", summary.ID, err)
	}

	user, err := s.users.GetForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return ResolveResult{}, outcome{}, true, s.dismissOrphanedSummary(ctx, tx, summary)
		}
		return ResolveResult{}, outcome{}, false, err
	}

	now := s.now().UTC()
	var upd pgrepo.UserModerationUpdate
	var newStatus enums.AccountStatus

	switch action {
	case enums.AdminActionNoAction, enums.AdminActionWarned:
		newStatus = enums.AccountStatusActive
		upd = pgrepo.UserModerationUpdate{Status: newStatus}
	case enums.AdminActionRemoved:
		newStatus = enums.AccountStatusBannedTemporary
		deadline := now.Add(s.cfg.AppealWindow)
		upd = pgrepo.UserModerationUpdate{
			Status:         newStatus,
			BanReason:      &reason,
			AppealDeadline: &deadline,
			BannedAt:       &now,
		}
	}

	if err := rules.ValidateAccountTransition(user.AccountStatus, newStatus); err != nil {
		return ResolveResult{}, outcome{}, false, err
	}

	if err := s.users.UpdateModeration(ctx, tx, user.ID, upd); err != nil {
		return ResolveResult{}, outcome{}, false, err
	}

	if action == enums.AdminActionWarned {
		if err := s.warnings.Create(ctx, tx, model.Warning{
			UserID:     user.ID,
			TargetType: enums.TargetTypeUser,
			TargetID:   summary.TargetID,
			ReportID:   summary.ID,
			Reason:     reason,
			IssuedBy:   strconv.FormatInt(adminID, 10),
			IssuedAt:   now,
		}); err != nil {
			return ResolveResult{}, outcome{}, false, err
		}
	}

	summary.Display = model.SummaryDisplay{
		Username:    user.Username,
		DisplayName: user.DisplayName,
	}
	if err := s.closeSummary(ctx, tx, summary, action); err != nil {
		return ResolveResult{}, outcome{}, false, err
	}

	result := ResolveResult{
		Action:     action,
		TargetType: enums.TargetTypeUser,
		TargetID:   summary.TargetID,
		NewStatus:  string(newStatus),
	}
	return result, outcome{ownerID: user.ID, email: user.Email, newStatus: string(newStatus)}, false, nil
}

func (s *Service) closeSummary(ctx context.Context, tx pgx.Tx, summary model.ReportSummary, action enums.AdminAction) error {
	status := enums.SummaryStatusResolved
	if action == enums.AdminActionNoAction {
		status = enums.SummaryStatusDismissed
	}

	summary.Status = status
	summary.ReportsCount = 0
	summary.ReasonCounts = map[enums.ReportReason]int{}
	return s.summaries.Upsert(ctx, tx, summary)
}

func (s *Service) dismissOrphanedSummary(ctx context.Context, tx pgx.Tx, summary model.ReportSummary) error {
	summary.Status = enums.SummaryStatusDismissed
	summary.ReportsCount = 0
	summary.ReasonCounts = map[enums.ReportReason]int{}
	return s.summaries.Upsert(ctx, tx, summary)
}

// PendingSummaries returns the admin review queue.
func (s *Service) PendingSummaries(ctx context.Context, limit int) ([]model.ReportSummary, error) {
	if s.summaries == nil {
		return nil, fmt.Errorf("moderation service dependencies are not configured")
	}
	return s.summaries.ListPending(ctx, limit)
}

// Warnings returns the caller's own warning history, newest first.
func (s *Service) Warnings(ctx context.Context, userID int64, limit int) ([]model.Warning, error) {
	if s.warnings == nil {
		return nil, fmt.Errorf("moderation service dependencies are not configured")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	return s.warnings.ListByUser(ctx, userID, limit)
}

// AcknowledgeWarning marks one of the caller's warnings as read. The
// user id scopes the update so a caller cannot acknowledge someone
// else's warning.
func (s *Service) AcknowledgeWarning(ctx context.Context, warningID, userID int64) error {
	if s.warnings == nil {
		return fmt.Errorf("moderation service dependencies are not configured")
	}
	if warningID <= 0 || userID <= 0 {
		return ErrWarningNotFound
	}
	if err := s.warnings.Acknowledge(ctx, warningID, userID); err != nil {
		if errors.Is(err, pgrepo.ErrWarningNotFound) {
			return ErrWarningNotFound
		}
		return fmt.Errorf("acknowledge warning: %w", err)
	}
	return nil
}

func (s *Service) appendAudit(ctx context.Context, entry model.AdminLogEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("append admin log failed", zap.Error(err),
			zap.String("action", entry.Action), zap.String("target_id", entry.TargetID))
	}
}

// notifyResolution sends exactly one outbound notification. A banned
// user cannot open the in-app inbox, so bans go out by email.
func (s *Service) notifyResolution(ctx context.Context, result ResolveResult, out outcome, reason string) {
	if s.notifier == nil || out.ownerID <= 0 {
		return
	}

	if result.TargetType == enums.TargetTypeUser && result.Action == enums.AdminActionRemoved {
		s.notifier.Email(ctx, out.email,
			"Your account has been suspended",
			"<p>Your account was suspended after moderator review. Reason: "+reason+
				"</p><p>You may appeal this decision before the appeal deadline.</p>")
		return
	}

	var title, body string
	switch result.Action {
	case enums.AdminActionNoAction:
		title = "Report review completed"
		body = "A report against your content was reviewed and dismissed. No action was taken."
	case enums.AdminActionWarned:
		title = "You received a moderation warning"
		body = "Your content was reviewed and a warning was issued: " + reason
	case enums.AdminActionRemoved:
		title = "Your campaign has been removed"
		body = "Your campaign was removed after moderator review: " + reason +
			" You may appeal this decision before the appeal deadline."
	}

	s.notifier.Push(ctx, model.Notification{
		UserID:    out.ownerID,
		Type:      "moderation_decision",
		Title:     title,
		Body:      body,
		ActionURL: notify.ModerationActionURL(string(result.TargetType), result.TargetID),
		Metadata: map[string]any{
			"action":     string(result.Action),
			"new_status": out.newStatus,
		},
	})
}
