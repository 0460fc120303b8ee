package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/frameup/internal/domain/enums"
	"github.com/ivankudzin/frameup/internal/domain/model"
)

var ErrWarningNotFound = errors.New("warning not found")

type WarningRepo struct {
	pool *pgxpool.Pool
}

func NewWarningRepo(pool *pgxpool.Pool) *WarningRepo {
	return &WarningRepo{pool: pool}
}

func (r *WarningRepo) Create(ctx context.Context, tx pgx.Tx, warning model.Warning) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if warning.UserID <= 0 || !warning.TargetType.Valid() || warning.TargetID == "" {
		return fmt.Errorf("invalid warning payload")
	}
	if strings.TrimSpace(warning.Reason) == "" {
		return fmt.Errorf("warning reason is required")
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO warnings (
	user_id,
	target_type,
	target_id,
	report_id,
	reason,
	issued_by,
	issued_at,
	acknowledged
) VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
`, warning.UserID, string(warning.TargetType), warning.TargetID, warning.ReportID,
		warning.Reason, warning.IssuedBy, warning.IssuedAt); err != nil {
		return fmt.Errorf("create warning: %w", err)
	}

	return nil
}

func (r *WarningRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]model.Warning, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, target_type, target_id, report_id, reason, issued_by, issued_at, acknowledged
FROM warnings
WHERE user_id = $1
ORDER BY issued_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list warnings: %w", err)
	}
	defer rows.Close()

	var out []model.Warning
	for rows.Next() {
		var w model.Warning
		var targetType string
		var issuedAt time.Time
		if err := rows.Scan(&w.ID, &w.UserID, &targetType, &w.TargetID, &w.ReportID, &w.Reason, &w.IssuedBy, &issuedAt, &w.Acknowledged); err != nil {
			return nil, fmt.Errorf("scan warning row: %w", err)
		}
		w.TargetType = enums.TargetType(targetType)
		w.IssuedAt = issuedAt
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate warning rows: %w", err)
	}

	return out, nil
}

func (r *WarningRepo) Acknowledge(ctx context.Context, warningID, userID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if warningID <= 0 || userID <= 0 {
		return fmt.Errorf("invalid warning acknowledgement")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE warnings SET acknowledged = TRUE
WHERE id = $1 AND user_id = $2
`, warningID, userID)
	if err != nil {
		return fmt.Errorf("acknowledge warning: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWarningNotFound
	}

	return nil
}
