package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/frameup/internal/domain/enums"
	"github.com/ivankudzin/frameup/internal/domain/model"
)

var ErrAppealNotFound = errors.New("appeal not found")

type AppealRepo struct {
	pool *pgxpool.Pool
}

func NewAppealRepo(pool *pgxpool.Pool) *AppealRepo {
	return &AppealRepo{pool: pool}
}

const appealColumns = `
id, user_id, type, target_id, reason, status, admin_notes,
submitted_at, reviewed_at, reviewed_by`

func (r *AppealRepo) Get(ctx context.Context, id string) (model.Appeal, error) {
	if r.pool == nil {
		return model.Appeal{}, fmt.Errorf("postgres pool is nil")
	}
	if id == "" {
		return model.Appeal{}, fmt.Errorf("appeal id is required")
	}

	row := r.pool.QueryRow(ctx, `
SELECT`+appealColumns+`
FROM appeals
WHERE id = $1
`, id)
	return scanAppeal(row)
}

func (r *AppealRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appeal, error) {
	if tx == nil {
		return model.Appeal{}, fmt.Errorf("transaction is required")
	}
	if id == "" {
		return model.Appeal{}, fmt.Errorf("appeal id is required")
	}

	row := tx.QueryRow(ctx, `
SELECT`+appealColumns+`
FROM appeals
WHERE id = $1
FOR UPDATE
`, id)
	return scanAppeal(row)
}

func (r *AppealRepo) Create(ctx context.Context, tx pgx.Tx, appeal model.Appeal) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if appeal.ID == "" || appeal.UserID <= 0 || !appeal.Type.Valid() || appeal.TargetID == "" {
		return fmt.Errorf("invalid appeal payload")
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO appeals (
	id,
	user_id,
	type,
	target_id,
	reason,
	status,
	submitted_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)
`, appeal.ID, appeal.UserID, string(appeal.Type), appeal.TargetID, appeal.Reason,
		string(appeal.Status), appeal.SubmittedAt); err != nil {
		return fmt.Errorf("create appeal: %w", err)
	}

	return nil
}

// HasPending reports whether a pending appeal already exists for the
// same (user, target, type) tuple.
func (r *AppealRepo) HasPending(ctx context.Context, tx pgx.Tx, userID int64, appealType enums.AppealType, targetID string) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM appeals
	WHERE user_id = $1 AND type = $2 AND target_id = $3 AND status = $4
)
`, userID, string(appealType), targetID, string(enums.AppealStatusPending)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check pending appeal: %w", err)
	}

	return exists, nil
}

func (r *AppealRepo) MarkReviewed(ctx context.Context, tx pgx.Tx, id string, status enums.AppealStatus, reviewedBy int64, notes *string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if status != enums.AppealStatusApproved && status != enums.AppealStatusRejected {
		return fmt.Errorf("invalid review status %q", status)
	}

	tag, err := tx.Exec(ctx, `
UPDATE appeals SET
	status = $2,
	admin_notes = $3,
	reviewed_at = NOW(),
	reviewed_by = $4
WHERE id = $1
`, id, string(status), notes, reviewedBy)
	if err != nil {
		return fmt.Errorf("mark appeal reviewed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppealNotFound
	}

	return nil
}

func (r *AppealRepo) ListPending(ctx context.Context, limit int) ([]model.Appeal, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+appealColumns+`
FROM appeals
WHERE status = $1
ORDER BY submitted_at
LIMIT $2
`, string(enums.AppealStatusPending), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending appeals: %w", err)
	}
	defer rows.Close()

	var out []model.Appeal
	for rows.Next() {
		appeal, err := scanAppeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, appeal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appeal rows: %w", err)
	}

	return out, nil
}

func scanAppeal(row pgx.Row) (model.Appeal, error) {
	var a model.Appeal
	var appealType, status string
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&appealType,
		&a.TargetID,
		&a.Reason,
		&status,
		&a.AdminNotes,
		&a.SubmittedAt,
		&a.ReviewedAt,
		&a.ReviewedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Appeal{}, ErrAppealNotFound
		}
		return model.Appeal{}, fmt.Errorf("scan appeal row: %w", err)
	}

	a.Type = enums.AppealType(appealType)
	a.Status = enums.AppealStatus(status)
	return a, nil
}
