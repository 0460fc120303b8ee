package appealsweep

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
)

const sweepBatchSize = 200

// DefaultReminderOffsets are the days-before-deadline marks at which
// owners of removed content are reminded that the appeal window is
// closing.
var DefaultReminderOffsets = []int{7, 3, 1}

type CampaignStore interface {
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Campaign, error)
	UpdateModeration(ctx context.Context, tx pgx.Tx, id string, upd pgrepo.CampaignModerationUpdate) error
	ListExpiredRemovals(ctx context.Context, now time.Time, limit int) ([]model.Campaign, error)
	ListRemovalsWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]model.Campaign, error)
}

type UserStore interface {
	GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (model.User, error)
	UpdateModeration(ctx context.Context, tx pgx.Tx, id int64, upd pgrepo.UserModerationUpdate) error
	ListExpiredBans(ctx context.Context, now time.Time, limit int) ([]model.User, error)
	ListBansWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]model.User, error)
}

type AppealStore interface {
	HasPending(ctx context.Context, tx pgx.Tx, userID int64, appealType enums.AppealType, targetID string) (bool, error)
}

type AuditLog interface {
	Append(ctx context.Context, entry model.AdminLogEntry) error
}

type Notifier interface {
	Push(ctx context.Context, n model.Notification)
	Email(ctx context.Context, to, subject, html string)
}

// Job finalizes expired appeal windows. Targets removed temporarily
// whose deadline passed without a pending appeal become permanent, and
// owners approaching a deadline get reminders.
type Job struct {
	campaigns       CampaignStore
	users           UserStore
	appeals         AppealStore
	audit           AuditLog
	notifier        Notifier
	reminderOffsets []int
	runTx           func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	now             func() time.Time
	logger          *zap.Logger
}

func New(
	pool *pgxpool.Pool,
	campaigns CampaignStore,
	users UserStore,
	appeals AppealStore,
	audit AuditLog,
	notifier Notifier,
	reminderOffsets []int,
	logger *zap.Logger,
) *Job {
	if len(reminderOffsets) == 0 {
		reminderOffsets = DefaultReminderOffsets
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		campaigns:       campaigns,
		users:           users,
		appeals:         appeals,
		audit:           audit,
		notifier:        notifier,
		reminderOffsets: reminderOffsets,
		runTx: func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
			return pgrepo.WithTx(ctx, pool, fn)
		},
		now:    time.Now,
		logger: logger,
	}
}

// SweepReport summarizes one sweep run. One broken row must not stop
// the rest of the batch, so per-item failures are collected here
// instead of aborting.
type SweepReport struct {
	CampaignsFinalized int
	AccountsFinalized  int
	Skipped            int
	Errors             []error
}

// RunSweep makes every removal and ban with an expired appeal deadline
// permanent. Targets with a pending appeal are left for the admin
// queue.
func (j *Job) RunSweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	now := j.now().UTC()

	expired, err := j.campaigns.ListExpiredRemovals(ctx, now, sweepBatchSize)
	if err != nil {
		return report, fmt.Errorf("list expired removals: %w", err)
	}
	for _, campaign := range expired {
		if err := j.finalizeCampaign(ctx, campaign.ID, now, &report); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("campaign %s: %w", campaign.ID, err))
		}
	}

	users, err := j.users.ListExpiredBans(ctx, now, sweepBatchSize)
	if err != nil {
		return report, fmt.Errorf("list expired bans: %w", err)
	}
	for _, user := range users {
		if err := j.finalizeAccount(ctx, user.ID, now, &report); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("user %d: %w", user.ID, err))
		}
	}

	j.logger.Info("appeal sweep completed",
		zap.Int("campaigns_finalized", report.CampaignsFinalized),
		zap.Int("accounts_finalized", report.AccountsFinalized),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", len(report.Errors)))
	return report, nil
}

func (j *Job) finalizeCampaign(ctx context.Context, id string, now time.Time, report *SweepReport) error {
	var ownerID int64
	skipped := false

	err := j.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		campaign, err := j.campaigns.GetForUpdate(txCtx, tx, id)
		if err != nil {
			if errors.Is(err, pgrepo.ErrCampaignNotFound) {
				skipped = true
				return nil
			}
			return err
		}
		// Re-check under the row lock: an appeal decision may have
		// landed between the list query and now.
		if campaign.ModerationStatus != enums.CampaignStatusRemovedTemporary ||
			campaign.AppealDeadline == nil || campaign.AppealDeadline.After(now) {
			skipped = true
			return nil
		}
		pending, err := j.appeals.HasPending(txCtx, tx, campaign.CreatorID, enums.AppealTypeCampaign, campaign.ID)
		if err != nil {
			return err
		}
		if pending {
			skipped = true
			return nil
		}

		if err := rules.ValidateCampaignTransition(campaign.ModerationStatus, enums.CampaignStatusRemovedPermanent); err != nil {
			return err
		}
		ownerID = campaign.CreatorID
		// AppealCount is left at zero: with the window closed the
		// counter has no further meaning on a permanent row.
		return j.campaigns.UpdateModeration(txCtx, tx, campaign.ID, pgrepo.CampaignModerationUpdate{
			Status:        enums.CampaignStatusRemovedPermanent,
			RemovalReason: campaign.RemovalReason,
			RemovedAt:     campaign.RemovedAt,
		})
	})
	if err != nil {
		return err
	}
	if skipped {
		report.Skipped++
		return nil
	}
	report.CampaignsFinalized++

	j.appendAudit(ctx, model.AdminLogEntry{
		AdminID:    model.SystemActor,
		Action:     "appeal_window_expired",
		TargetType: enums.TargetTypeCampaign,
		TargetID:   id,
		Reason:     "appeal deadline passed without an appeal",
	})
	if j.notifier != nil && ownerID > 0 {
		j.notifier.Push(ctx, model.Notification{
			UserID: ownerID,
			Type:   "removal_finalized",
			Title:  "Campaign removal is now permanent",
			Body:   "The appeal window for your removed campaign has closed. The removal is now permanent.",
			Metadata: map[string]any{
				"target_type": string(enums.TargetTypeCampaign),
				"target_id":   id,
			},
		})
	}
	return nil
}

func (j *Job) finalizeAccount(ctx context.Context, id int64, now time.Time, report *SweepReport) error {
	var email string
	skipped := false

	err := j.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		user, err := j.users.GetForUpdate(txCtx, tx, id)
		if err != nil {
			if errors.Is(err, pgrepo.ErrUserNotFound) {
				skipped = true
				return nil
			}
			return err
		}
		if user.AccountStatus != enums.AccountStatusBannedTemporary ||
			user.AppealDeadline == nil || user.AppealDeadline.After(now) {
			skipped = true
			return nil
		}
		pending, err := j.appeals.HasPending(txCtx, tx, user.ID, enums.AppealTypeAccount, strconv.FormatInt(user.ID, 10))
		if err != nil {
			return err
		}
		if pending {
			skipped = true
			return nil
		}

		if err := rules.ValidateAccountTransition(user.AccountStatus, enums.AccountStatusBannedPermanent); err != nil {
			return err
		}
		email = user.Email
		return j.users.UpdateModeration(txCtx, tx, user.ID, pgrepo.UserModerationUpdate{
			Status:    enums.AccountStatusBannedPermanent,
			BanReason: user.BanReason,
			BannedAt:  user.BannedAt,
		})
	})
	if err != nil {
		return err
	}
	if skipped {
		report.Skipped++
		return nil
	}
	report.AccountsFinalized++

	j.appendAudit(ctx, model.AdminLogEntry{
		AdminID:    model.SystemActor,
		Action:     "appeal_window_expired",
		TargetType: enums.TargetTypeUser,
		TargetID:   strconv.FormatInt(id, 10),
		Reason:     "appeal deadline passed without an appeal",
	})
	if j.notifier != nil && email != "" {
		j.notifier.Email(ctx, email,
			"Your account suspension is now permanent",
			"<p>The appeal window for your suspended account has closed. The suspension is now permanent.</p>")
	}
	return nil
}

// ReminderReport summarizes one reminder run.
type ReminderReport struct {
	CampaignReminders int
	AccountReminders  int
	Errors            []error
}

// RunReminders notifies owners whose appeal deadline falls exactly N
// days out, for each configured offset. The job is expected to run once
// a day; each one-day bucket is therefore visited once.
func (j *Job) RunReminders(ctx context.Context) (ReminderReport, error) {
	var report ReminderReport
	now := j.now().UTC()

	for _, days := range j.reminderOffsets {
		from := now.Add(time.Duration(days) * 24 * time.Hour)
		to := from.Add(24 * time.Hour)

		campaigns, err := j.campaigns.ListRemovalsWithDeadlineBetween(ctx, from, to)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("list removals %dd out: %w", days, err))
		} else {
			for _, campaign := range campaigns {
				j.remindCampaign(ctx, campaign, days)
				report.CampaignReminders++
			}
		}

		users, err := j.users.ListBansWithDeadlineBetween(ctx, from, to)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("list bans %dd out: %w", days, err))
			continue
		}
		for _, user := range users {
			j.remindAccount(ctx, user, days)
			report.AccountReminders++
		}
	}

	j.logger.Info("appeal reminders completed",
		zap.Int("campaign_reminders", report.CampaignReminders),
		zap.Int("account_reminders", report.AccountReminders),
		zap.Int("errors", len(report.Errors)))
	return report, nil
}

func (j *Job) remindCampaign(ctx context.Context, campaign model.Campaign, days int) {
	if j.notifier == nil {
		return
	}
	j.notifier.Push(ctx, model.Notification{
		UserID: campaign.CreatorID,
		Type:   "appeal_deadline_reminder",
		Title:  "Appeal window closing soon",
		Body: fmt.Sprintf("You have %d day(s) left to appeal the removal of your campaign %q.",
			days, campaign.Title),
		Metadata: map[string]any{
			"target_type": string(enums.TargetTypeCampaign),
			"target_id":   campaign.ID,
			"days_left":   days,
		},
	})
}

func (j *Job) remindAccount(ctx context.Context, user model.User, days int) {
	if j.notifier == nil || user.Email == "" {
		return
	}
	j.notifier.Email(ctx, user.Email,
		"Appeal window closing soon",
		fmt.Sprintf("<p>You have %d day(s) left to appeal the suspension of your account.</p>", days))
}

func (j *Job) appendAudit(ctx context.Context, entry model.AdminLogEntry) {
	if j.audit == nil {
		return
	}
	if err := j.audit.Append(ctx, entry); err != nil {
		j.logger.Error("append admin log failed", zap.Error(err),
			zap.String("action", entry.Action), zap.String("target_id", entry.TargetID))
	}
}
