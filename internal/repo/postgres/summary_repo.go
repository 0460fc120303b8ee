package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/frameup/internal/domain/enums"
	"github.com/ivankudzin/frameup/internal/domain/model"
)

var ErrSummaryNotFound = errors.New("report summary not found")

type SummaryRepo struct {
	pool *pgxpool.Pool
}

func NewSummaryRepo(pool *pgxpool.Pool) *SummaryRepo {
	return &SummaryRepo{pool: pool}
}

const summaryColumns = `
id, target_id, target_type, reports_count, reason_counts, status,
first_reported_at, last_reported_at, display`

func (r *SummaryRepo) Get(ctx context.Context, id string) (model.ReportSummary, error) {
	if r.pool == nil {
		return model.ReportSummary{}, fmt.Errorf("postgres pool is nil")
	}
	if id == "" {
		return model.ReportSummary{}, fmt.Errorf("summary id is required")
	}

	row := r.pool.QueryRow(ctx, `
SELECT`+summaryColumns+`
FROM report_summaries
WHERE id = $1
`, id)
	return scanSummary(row)
}

func (r *SummaryRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.ReportSummary, error) {
	if tx == nil {
		return model.ReportSummary{}, fmt.Errorf("transaction is required")
	}
	if id == "" {
		return model.ReportSummary{}, fmt.Errorf("summary id is required")
	}

	row := tx.QueryRow(ctx, `
SELECT`+summaryColumns+`
FROM report_summaries
WHERE id = $1
FOR UPDATE
`, id)
	return scanSummary(row)
}

// Upsert writes the whole summary row, creating it when absent. The
// summary ID is derived from the target, so a reused summary keeps its
// primary key across reporting cycles.
func (r *SummaryRepo) Upsert(ctx context.Context, tx pgx.Tx, summary model.ReportSummary) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if summary.ID == "" || summary.TargetID == "" || !summary.TargetType.Valid() {
		return fmt.Errorf("invalid summary payload")
	}

	reasonCounts, err := json.Marshal(summary.ReasonCounts)
	if err != nil {
		return fmt.Errorf("marshal reason counts: %w", err)
	}
	display, err := json.Marshal(summary.Display)
	if err != nil {
		return fmt.Errorf("marshal summary display: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO report_summaries (
	id,
	target_id,
	target_type,
	reports_count,
	reason_counts,
	status,
	first_reported_at,
	last_reported_at,
	display
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
	reports_count = EXCLUDED.reports_count,
	reason_counts = EXCLUDED.reason_counts,
	status = EXCLUDED.status,
	first_reported_at = EXCLUDED.first_reported_at,
	last_reported_at = EXCLUDED.last_reported_at,
	display = EXCLUDED.display
`, summary.ID, summary.TargetID, string(summary.TargetType), summary.ReportsCount,
		reasonCounts, string(summary.Status), summary.FirstReportedAt, summary.LastReportedAt, display); err != nil {
		return fmt.Errorf("upsert report summary: %w", err)
	}

	return nil
}

// ListPending returns the admin review queue, oldest unresolved noise
// first by most recent report.
func (r *SummaryRepo) ListPending(ctx context.Context, limit int) ([]model.ReportSummary, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+summaryColumns+`
FROM report_summaries
WHERE status = $1
ORDER BY last_reported_at DESC
LIMIT $2
`, string(enums.SummaryStatusPending), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending summaries: %w", err)
	}
	defer rows.Close()

	var out []model.ReportSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary rows: %w", err)
	}

	return out, nil
}

func scanSummary(row pgx.Row) (model.ReportSummary, error) {
	var s model.ReportSummary
	var targetType, status string
	var reasonCounts, display []byte
	var firstReported, lastReported time.Time

	err := row.Scan(
		&s.ID,
		&s.TargetID,
		&targetType,
		&s.ReportsCount,
		&reasonCounts,
		&status,
		&firstReported,
		&lastReported,
		&display,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ReportSummary{}, ErrSummaryNotFound
		}
		return model.ReportSummary{}, fmt.Errorf("scan summary row: %w", err)
	}

	s.TargetType = enums.TargetType(targetType)
	s.Status = enums.SummaryStatus(status)
	s.FirstReportedAt = firstReported
	s.LastReportedAt = lastReported
	if len(reasonCounts) > 0 {
		if err := json.Unmarshal(reasonCounts, &s.ReasonCounts); err != nil {
			return model.ReportSummary{}, fmt.Errorf("unmarshal reason counts: %w", err)
		}
	}
	if len(display) > 0 {
		if err := json.Unmarshal(display, &s.Display); err != nil {
			return model.ReportSummary{}, fmt.Errorf("unmarshal summary display: %w", err)
		}
	}

	return s, nil
}
