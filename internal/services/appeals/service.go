package appeals

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ivankudzin/frameup/internal/domain/enums"
	"github.com/ivankudzin/frameup/internal/domain/model"
	"github.com/ivankudzin/frameup/internal/domain/rules"
	pgrepo "github.com/ivankudzin/frameup/internal/repo/postgres"
)

const MinReasonLength = 20

var (
	ErrInvalidType      = errors.New("unsupported appeal type")
	ErrReasonTooShort   = errors.New("appeal reason is too short")
	ErrNotOwner         = errors.New("appellant does not own the target")
	ErrNotEligible      = errors.New("target state does not allow an appeal")
	ErrDeadlinePassed   = errors.New("appeal deadline has passed")
	ErrDuplicatePending = errors.New("a pending appeal already exists for this target")
	ErrAppealNotFound   = errors.New("appeal not found")
	ErrAlreadyReviewed  = errors.New("appeal has already been reviewed")
	ErrTargetNotFound   = errors.New("appeal target not found")
	ErrInvalidDecision  = errors.New("unsupported appeal decision")
)

type CampaignStore interface {
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Campaign, error)
	UpdateModeration(ctx context.Context, tx pgx.Tx, id string, upd pgrepo.CampaignModerationUpdate) error
	IncrementAppealCount(ctx context.Context, tx pgx.Tx, id string) error
}

type UserStore interface {
	GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (model.User, error)
	UpdateModeration(ctx context.Context, tx pgx.Tx, id int64, upd pgrepo.UserModerationUpdate) error
}

type AppealStore interface {
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appeal, error)
	Create(ctx context.Context, tx pgx.Tx, appeal model.Appeal) error
	HasPending(ctx context.Context, tx pgx.Tx, userID int64, appealType enums.AppealType, targetID string) (bool, error)
	MarkReviewed(ctx context.Context, tx pgx.Tx, id string, status enums.AppealStatus, reviewedBy int64, notes *string) error
	ListPending(ctx context.Context, limit int) ([]model.Appeal, error)
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
	Appeals   AppealStore
	AuditLog  AuditLog
	Notifier  Notifier
	Logger    *zap.Logger
}

// Service owns the appeal lifecycle: owners of temporarily removed
// campaigns and temporarily banned accounts file appeals, admins decide
// them, and the decision either restores the target or makes the
// removal permanent.
type Service struct {
	campaigns CampaignStore
	users     UserStore
	appeals   AppealStore
	audit     AuditLog
	notifier  Notifier
	logger    *zap.Logger
	runTx     func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	now       func() time.Time
	newID     func() string
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pool := deps.Pool
	return &Service{
		campaigns: deps.Campaigns,
		users:     deps.Users,
		appeals:   deps.Appeals,
		audit:     deps.AuditLog,
		notifier:  deps.Notifier,
		logger:    logger,
		runTx: func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
			return pgrepo.WithTx(ctx, pool, fn)
		},
		now:   time.Now,
		newID: uuid.NewString,
	}
}

type SubmitInput struct {
	Type     enums.AppealType
	TargetID string
	Reason   string
	UserID   int64
}

// Submit files a new appeal. Account appeals ignore TargetID and always
// target the caller's own account.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (model.Appeal, error) {
	if !in.Type.Valid() {
		return model.Appeal{}, ErrInvalidType
	}
	if in.UserID <= 0 {
		return model.Appeal{}, fmt.Errorf("invalid appellant id %d", in.UserID)
	}
	in.Reason = strings.TrimSpace(in.Reason)
	if len(in.Reason) < MinReasonLength {
		return model.Appeal{}, ErrReasonTooShort
	}
	if s.appeals == nil || s.campaigns == nil || s.users == nil {
		return model.Appeal{}, fmt.Errorf("appeals service dependencies are not configured")
	}

	now := s.now().UTC()
	appeal := model.Appeal{
		ID:          s.newID(),
		UserID:      in.UserID,
		Type:        in.Type,
		Reason:      in.Reason,
		Status:      enums.AppealStatusPending,
		SubmittedAt: now,
	}

	var email string
	err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		switch in.Type {
		case enums.AppealTypeCampaign:
			campaign, err := s.campaigns.GetForUpdate(txCtx, tx, in.TargetID)
			if err != nil {
				if errors.Is(err, pgrepo.ErrCampaignNotFound) {
					return ErrTargetNotFound
				}
				return err
			}
			if campaign.CreatorID != in.UserID {
				return ErrNotOwner
			}
			if campaign.ModerationStatus != enums.CampaignStatusRemovedTemporary {
				return ErrNotEligible
			}
			if campaign.AppealDeadline == nil || now.After(*campaign.AppealDeadline) {
				return ErrDeadlinePassed
			}
			appeal.TargetID = campaign.ID

			if err := s.ensureNoPending(txCtx, tx, appeal); err != nil {
				return err
			}
			if err := s.appeals.Create(txCtx, tx, appeal); err != nil {
				return err
			}
			return s.campaigns.IncrementAppealCount(txCtx, tx, campaign.ID)

		case enums.AppealTypeAccount:
			user, err := s.users.GetForUpdate(txCtx, tx, in.UserID)
			if err != nil {
				if errors.Is(err, pgrepo.ErrUserNotFound) {
					return ErrTargetNotFound
				}
				return err
			}
			if user.AccountStatus != enums.AccountStatusBannedTemporary {
				return ErrNotEligible
			}
			if user.AppealDeadline == nil || now.After(*user.AppealDeadline) {
				return ErrDeadlinePassed
			}
			appeal.TargetID = strconv.FormatInt(user.ID, 10)
			email = user.Email

			if err := s.ensureNoPending(txCtx, tx, appeal); err != nil {
				return err
			}
			return s.appeals.Create(txCtx, tx, appeal)
		}
		return ErrInvalidType
	})
	if err != nil {
		return model.Appeal{}, err
	}

	s.confirmSubmission(ctx, appeal, email)
	return appeal, nil
}

func (s *Service) ensureNoPending(ctx context.Context, tx pgx.Tx, appeal model.Appeal) error {
	pending, err := s.appeals.HasPending(ctx, tx, appeal.UserID, appeal.Type, appeal.TargetID)
	if err != nil {
		return err
	}
	if pending {
		return ErrDuplicatePending
	}
	return nil
}

// confirmSubmission acknowledges receipt. Banned appellants cannot read
// in-app notifications, so account appeals are confirmed by email.
func (s *Service) confirmSubmission(ctx context.Context, appeal model.Appeal, email string) {
	if s.notifier == nil {
		return
	}
	if appeal.Type == enums.AppealTypeAccount {
		s.notifier.Email(ctx, email,
			"We received your appeal",
			"<p>Your account appeal was received and is awaiting review.</p>")
		return
	}
	s.notifier.Push(ctx, model.Notification{
		UserID: appeal.UserID,
		Type:   "appeal_received",
		Title:  "Appeal received",
		Body:   "Your campaign appeal was received and is awaiting review.",
		Metadata: map[string]any{
			"appeal_id": appeal.ID,
			"target_id": appeal.TargetID,
		},
	})
}

type DecideResult struct {
	AppealID  string
	Decision  enums.AppealDecision
	NewStatus string
}

// Decide applies an admin verdict to a pending appeal. Approval
// restores the target to active and clears the removal facet; rejection
// moves it to the matching permanent state.
func (s *Service) Decide(ctx context.Context, appealID string, decision enums.AppealDecision, notes string, adminID int64) (DecideResult, error) {
	if appealID == "" || adminID <= 0 {
		return DecideResult{}, fmt.Errorf("invalid decide payload")
	}
	if !decision.Valid() {
		return DecideResult{}, ErrInvalidDecision
	}
	if s.appeals == nil || s.campaigns == nil || s.users == nil {
		return DecideResult{}, fmt.Errorf("appeals service dependencies are not configured")
	}

	notes = strings.TrimSpace(notes)
	var notesPtr *string
	if notes != "" {
		notesPtr = &notes
	}

	var appeal model.Appeal
	var newStatus string
	var email string
	err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		var err error
		appeal, err = s.appeals.GetForUpdate(txCtx, tx, appealID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrAppealNotFound) {
				return ErrAppealNotFound
			}
			return err
		}
		if appeal.Status != enums.AppealStatusPending {
			return ErrAlreadyReviewed
		}

		switch appeal.Type {
		case enums.AppealTypeCampaign:
			newStatus, err = s.decideCampaign(txCtx, tx, appeal, decision)
		case enums.AppealTypeAccount:
			newStatus, email, err = s.decideAccount(txCtx, tx, appeal, decision)
		default:
			err = fmt.Errorf("appeal %q has unknown type %q", appeal.ID, appeal.Type)
		}
		if err != nil {
			return err
		}

		reviewed := enums.AppealStatusApproved
		if decision == enums.AppealDecisionReject {
			reviewed = enums.AppealStatusRejected
		}
		return s.appeals.MarkReviewed(txCtx, tx, appeal.ID, reviewed, adminID, notesPtr)
	})
	if err != nil {
		return DecideResult{}, err
	}

	s.appendAudit(ctx, model.AdminLogEntry{
		AdminID:    strconv.FormatInt(adminID, 10),
		Action:     "decide_appeal:" + string(decision),
		TargetType: targetTypeFor(appeal.Type),
		TargetID:   appeal.TargetID,
		Reason:     notes,
		AdditionalData: map[string]any{
			"appeal_id":  appeal.ID,
			"new_status": newStatus,
		},
	})
	s.notifyDecision(ctx, appeal, decision, email)

	return DecideResult{AppealID: appeal.ID, Decision: decision, NewStatus: newStatus}, nil
}

func (s *Service) decideCampaign(ctx context.Context, tx pgx.Tx, appeal model.Appeal, decision enums.AppealDecision) (string, error) {
	campaign, err := s.campaigns.GetForUpdate(ctx, tx, appeal.TargetID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCampaignNotFound) {
			return "", ErrTargetNotFound
		}
		return "", err
	}

	var upd pgrepo.CampaignModerationUpdate
	var target enums.CampaignStatus
	if decision == enums.AppealDecisionApprove {
		target = enums.CampaignStatusActive
		upd = pgrepo.CampaignModerationUpdate{Status: target}
	} else {
		target = enums.CampaignStatusRemovedPermanent
		upd = pgrepo.CampaignModerationUpdate{
			Status:        target,
			RemovalReason: campaign.RemovalReason,
			AppealCount:   campaign.AppealCount,
			RemovedAt:     campaign.RemovedAt,
		}
	}

	if err := rules.ValidateCampaignTransition(campaign.ModerationStatus, target); err != nil {
		return "", err
	}
	if err := s.campaigns.UpdateModeration(ctx, tx, campaign.ID, upd); err != nil {
		return "", err
	}
	return string(target), nil
}

func (s *Service) decideAccount(ctx context.Context, tx pgx.Tx, appeal model.Appeal, decision enums.AppealDecision) (string, string, error) {
	userID, err := strconv.ParseInt(appeal.TargetID, 10, 64)
	if err != nil {
		return "", "", fmt.Errorf("appeal %q has malformed account target id: %w", appeal.ID, err)
	}
	user, err := s.users.GetForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return "", "", ErrTargetNotFound
		}
		return "", "", err
	}

	var upd pgrepo.UserModerationUpdate
	var target enums.AccountStatus
	if decision == enums.AppealDecisionApprove {
		target = enums.AccountStatusActive
		upd = pgrepo.UserModerationUpdate{Status: target}
	} else {
		target = enums.AccountStatusBannedPermanent
		upd = pgrepo.UserModerationUpdate{
			Status:    target,
			BanReason: user.BanReason,
			BannedAt:  user.BannedAt,
		}
	}

	if err := rules.ValidateAccountTransition(user.AccountStatus, target); err != nil {
		return "", "", err
	}
	if err := s.users.UpdateModeration(ctx, tx, user.ID, upd); err != nil {
		return "", "", err
	}
	return string(target), user.Email, nil
}

// PendingAppeals returns the admin review queue.
func (s *Service) PendingAppeals(ctx context.Context, limit int) ([]model.Appeal, error) {
	if s.appeals == nil {
		return nil, fmt.Errorf("appeals service dependencies are not configured")
	}
	return s.appeals.ListPending(ctx, limit)
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

func (s *Service) notifyDecision(ctx context.Context, appeal model.Appeal, decision enums.AppealDecision, email string) {
	if s.notifier == nil {
		return
	}

	if appeal.Type == enums.AppealTypeAccount {
		subject := "Your account has been restored"
		body := "<p>Your appeal was approved and your account is active again.</p>"
		if decision == enums.AppealDecisionReject {
			subject = "Your appeal was declined"
			body = "<p>Your appeal was reviewed and declined. The suspension of your account is now permanent.</p>"
		}
		s.notifier.Email(ctx, email, subject, body)
		return
	}

	title := "Your campaign has been restored"
	body := "Your appeal was approved and your campaign is active again."
	if decision == enums.AppealDecisionReject {
		title = "Your appeal was declined"
		body = "Your appeal was reviewed and declined. The removal of your campaign is now permanent."
	}
	s.notifier.Push(ctx, model.Notification{
		UserID: appeal.UserID,
		Type:   "appeal_decided",
		Title:  title,
		Body:   body,
		Metadata: map[string]any{
			"appeal_id": appeal.ID,
			"decision":  string(decision),
		},
	})
}

func targetTypeFor(t enums.AppealType) enums.TargetType {
	if t == enums.AppealTypeAccount {
		return enums.TargetTypeUser
	}
	return enums.TargetTypeCampaign
}
