package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/frameup/internal/domain/enums"
	"github.com/ivankudzin/frameup/internal/domain/model"
)

// AdminLogRepo appends to the audit log. Entries are never updated or
// deleted.
type AdminLogRepo struct {
	pool *pgxpool.Pool
}

func NewAdminLogRepo(pool *pgxpool.Pool) *AdminLogRepo {
	return &AdminLogRepo{pool: pool}
}

func (r *AdminLogRepo) Append(ctx context.Context, entry model.AdminLogEntry) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(entry.AdminID) == "" || strings.TrimSpace(entry.Action) == "" {
		return fmt.Errorf("invalid admin log payload")
	}

	var additional []byte
	if len(entry.AdditionalData) > 0 {
		data, err := json.Marshal(entry.AdditionalData)
		if err != nil {
			return fmt.Errorf("marshal admin log additional data: %w", err)
		}
		additional = data
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO admin_logs (
	admin_id,
	action,
	target_type,
	target_id,
	reason,
	additional_data,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, NOW())
`, entry.AdminID, entry.Action, string(entry.TargetType), entry.TargetID, entry.Reason, additional); err != nil {
		return fmt.Errorf("append admin log: %w", err)
	}

	return nil
}

func (r *AdminLogRepo) ListByTarget(ctx context.Context, targetType enums.TargetType, targetID string, limit int) ([]model.AdminLogEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if !targetType.Valid() || targetID == "" {
		return nil, fmt.Errorf("invalid admin log target")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, admin_id, action, target_type, target_id, reason, additional_data, created_at
FROM admin_logs
WHERE target_type = $1 AND target_id = $2
ORDER BY created_at DESC
LIMIT $3
`, string(targetType), targetID, limit)
	if err != nil {
		return nil, fmt.Errorf("list admin logs: %w", err)
	}
	defer rows.Close()

	var out []model.AdminLogEntry
	for rows.Next() {
		var e model.AdminLogEntry
		var tt string
		var additional []byte
		var createdAt time.Time
		if err := rows.Scan(&e.ID, &e.AdminID, &e.Action, &tt, &e.TargetID, &e.Reason, &additional, &createdAt); err != nil {
			return nil, fmt.Errorf("scan admin log row: %w", err)
		}
		e.TargetType = enums.TargetType(tt)
		e.CreatedAt = createdAt
		if len(additional) > 0 {
			if err := json.Unmarshal(additional, &e.AdditionalData); err != nil {
				return nil, fmt.Errorf("unmarshal admin log additional data: %w", err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admin log rows: %w", err)
	}

	return out, nil
}
