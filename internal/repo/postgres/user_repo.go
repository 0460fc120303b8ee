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

var ErrUserNotFound = errors.New("user not found")

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `
id, username, display_name, email, role, account_status, reports_count,
ban_reason, appeal_deadline, hidden_at, banned_at, created_at, updated_at`

func (r *UserRepo) Get(ctx context.Context, id int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return model.User{}, fmt.Errorf("invalid user id")
	}

	row := r.pool.QueryRow(ctx, `
SELECT`+userColumns+`
FROM users
WHERE id = $1
`, id)
	return scanUser(row)
}

func (r *UserRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (model.User, error) {
	if tx == nil {
		return model.User{}, fmt.Errorf("transaction is required")
	}
	if id <= 0 {
		return model.User{}, fmt.Errorf("invalid user id")
	}

	row := tx.QueryRow(ctx, `
SELECT`+userColumns+`
FROM users
WHERE id = $1
FOR UPDATE
`, id)
	return scanUser(row)
}

type UserModerationUpdate struct {
	Status         enums.AccountStatus
	ReportsCount   int
	BanReason      *string
	AppealDeadline *time.Time
	HiddenAt       *time.Time
	BannedAt       *time.Time
}

func (r *UserRepo) UpdateModeration(ctx context.Context, tx pgx.Tx, id int64, upd UserModerationUpdate) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if id <= 0 {
		return fmt.Errorf("invalid user id")
	}

	tag, err := tx.Exec(ctx, `
UPDATE users SET
	account_status = $2,
	reports_count = $3,
	ban_reason = $4,
	appeal_deadline = $5,
	hidden_at = $6,
	banned_at = $7,
	updated_at = NOW()
WHERE id = $1
`, id, string(upd.Status), upd.ReportsCount, upd.BanReason, upd.AppealDeadline, upd.HiddenAt, upd.BannedAt)
	if err != nil {
		return fmt.Errorf("update user moderation state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *UserRepo) ListExpiredBans(ctx context.Context, now time.Time, limit int) ([]model.User, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 500
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+userColumns+`
FROM users
WHERE account_status = $1 AND appeal_deadline IS NOT NULL AND appeal_deadline < $2
ORDER BY appeal_deadline
LIMIT $3
`, string(enums.AccountStatusBannedTemporary), now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired bans: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (r *UserRepo) ListBansWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]model.User, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+userColumns+`
FROM users
WHERE account_status = $1 AND appeal_deadline >= $2 AND appeal_deadline < $3
ORDER BY appeal_deadline
`, string(enums.AccountStatusBannedTemporary), from, to)
	if err != nil {
		return nil, fmt.Errorf("list bans by deadline window: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]model.User, error) {
	var out []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	return out, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	var role, status string
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.DisplayName,
		&u.Email,
		&role,
		&status,
		&u.ReportsCount,
		&u.BanReason,
		&u.AppealDeadline,
		&u.HiddenAt,
		&u.BannedAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("scan user row: %w", err)
	}

	u.Role = enums.Role(role)
	u.AccountStatus = enums.AccountStatus(status)
	return u, nil
}
