package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// ReportGuardRepo holds the self-expiring per-source report records used
// by the report rate limiter. All mutation happens inside Lua scripts so
// the read-modify-write is atomic.
type ReportGuardRepo struct {
	client *goredis.Client
}

func NewReportGuardRepo(client *goredis.Client) *ReportGuardRepo {
	return &ReportGuardRepo{client: client}
}

func (r *ReportGuardRepo) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if script == "" {
		return nil, fmt.Errorf("script is required")
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("at least one key is required")
	}

	result, err := r.client.Eval(ctx, script, keys, args...).Result()
	if err != nil {
		return nil, fmt.Errorf("eval report guard script: %w", err)
	}
	return result, nil
}
