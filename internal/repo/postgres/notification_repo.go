package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/frameup/internal/domain/model"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

func (r *NotificationRepo) Create(ctx context.Context, n model.Notification) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if n.UserID <= 0 || strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("invalid notification payload")
	}

	var metadata []byte
	if len(n.Metadata) > 0 {
		data, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("marshal notification metadata: %w", err)
		}
		metadata = data
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO notifications (
	user_id,
	type,
	title,
	body,
	action_url,
	metadata,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, NOW())
`, n.UserID, n.Type, n.Title, n.Body, n.ActionURL, metadata); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]model.Notification, error) {
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
SELECT id, user_id, type, title, body, action_url, metadata, created_at, read_at
FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		var metadata []byte
		var createdAt time.Time
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.ActionURL, &metadata, &createdAt, &n.ReadAt); err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}
		n.CreatedAt = createdAt
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal notification metadata: %w", err)
			}
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification rows: %w", err)
	}

	return out, nil
}
