package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/frameup/internal/domain/enums"
	"github.com/ivankudzin/frameup/internal/domain/model"
)

var ErrCampaignNotFound = errors.New("campaign not found")

type CampaignRepo struct {
	pool *pgxpool.Pool
}

func NewCampaignRepo(pool *pgxpool.Pool) *CampaignRepo {
	return &CampaignRepo{pool: pool}
}

const campaignColumns = `
id, creator_id, title, image_url, moderation_status, reports_count,
removal_reason, appeal_deadline, appeal_count, hidden_at, removed_at,
created_at, updated_at`

func (r *CampaignRepo) Get(ctx context.Context, id string) (model.Campaign, error) {
	if r.pool == nil {
		return model.Campaign{}, fmt.Errorf("postgres pool is nil")
	}
	if id == "" {
		return model.Campaign{}, fmt.Errorf("campaign id is required")
	}

	row := r.pool.QueryRow(ctx, `
SELECT`+campaignColumns+`
FROM campaigns
WHERE id = $1
`, id)
	return scanCampaign(row)
}

// GetForUpdate locks the campaign row for the duration of the
// transaction. All target+summary co-mutations go through this lock.
func (r *CampaignRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Campaign, error) {
	if tx == nil {
		return model.Campaign{}, fmt.Errorf("transaction is required")
	}
	if id == "" {
		return model.Campaign{}, fmt.Errorf("campaign id is required")
	}

	row := tx.QueryRow(ctx, `
SELECT`+campaignColumns+`
FROM campaigns
WHERE id = $1
FOR UPDATE
`, id)
	return scanCampaign(row)
}

// CampaignModerationUpdate replaces the whole moderation facet of a
// campaign row in one write.
type CampaignModerationUpdate struct {
	Status         enums.CampaignStatus
	ReportsCount   int
	RemovalReason  *string
	AppealDeadline *time.Time
	AppealCount    int
	HiddenAt       *time.Time
	RemovedAt      *time.Time
}

func (r *CampaignRepo) UpdateModeration(ctx context.Context, tx pgx.Tx, id string, upd CampaignModerationUpdate) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if id == "" {
		return fmt.Errorf("campaign id is required")
	}

	tag, err := tx.Exec(ctx, `
UPDATE campaigns SET
	moderation_status = $2,
	reports_count = $3,
	removal_reason = $4,
	appeal_deadline = $5,
	appeal_count = $6,
	hidden_at = $7,
	removed_at = $8,
	updated_at = NOW()
WHERE id = $1
`, id, string(upd.Status), upd.ReportsCount, upd.RemovalReason, upd.AppealDeadline, upd.AppealCount, upd.HiddenAt, upd.RemovedAt)
	if err != nil {
		return fmt.Errorf("update campaign moderation state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCampaignNotFound
	}

	return nil
}

func (r *CampaignRepo) IncrementAppealCount(ctx context.Context, tx pgx.Tx, id string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	tag, err := tx.Exec(ctx, `
UPDATE campaigns SET
	appeal_count = appeal_count + 1,
	updated_at = NOW()
WHERE id = $1
`, id)
	if err != nil {
		return fmt.Errorf("increment campaign appeal count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCampaignNotFound
	}

	return nil
}

// ListExpiredRemovals returns campaigns stuck in removed-temporary whose
// appeal deadline has passed.
func (r *CampaignRepo) ListExpiredRemovals(ctx context.Context, now time.Time, limit int) ([]model.Campaign, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 500
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+campaignColumns+`
FROM campaigns
WHERE moderation_status = $1 AND appeal_deadline IS NOT NULL AND appeal_deadline < $2
ORDER BY appeal_deadline
LIMIT $3
`, string(enums.CampaignStatusRemovedTemporary), now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired campaign removals: %w", err)
	}
	defer rows.Close()

	return collectCampaigns(rows)
}

// ListRemovalsWithDeadlineBetween returns removed-temporary campaigns
// whose appeal deadline falls inside [from, to).
func (r *CampaignRepo) ListRemovalsWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]model.Campaign, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+campaignColumns+`
FROM campaigns
WHERE moderation_status = $1 AND appeal_deadline >= $2 AND appeal_deadline < $3
ORDER BY appeal_deadline
`, string(enums.CampaignStatusRemovedTemporary), from, to)
	if err != nil {
		return nil, fmt.Errorf("list campaign removals by deadline window: %w", err)
	}
	defer rows.Close()

	return collectCampaigns(rows)
}

func collectCampaigns(rows pgx.Rows) ([]model.Campaign, error) {
	var out []model.Campaign
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaign rows: %w", err)
	}
	return out, nil
}

func scanCampaign(row pgx.Row) (model.Campaign, error) {
	var c model.Campaign
	var status string
	err := row.Scan(
		&c.ID,
		&c.CreatorID,
		&c.Title,
		&c.ImageURL,
		&status,
		&c.ReportsCount,
		&c.RemovalReason,
		&c.AppealDeadline,
		&c.AppealCount,
		&c.HiddenAt,
		&c.RemovedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Campaign{}, ErrCampaignNotFound
		}
		return model.Campaign{}, fmt.Errorf("scan campaign row: %w", err)
	}

	c.ModerationStatus = enums.CampaignStatus(status)
	return c, nil
}
