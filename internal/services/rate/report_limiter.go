package rate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/frameup/internal/domain/enums"
)

const (
	recordTTL  = 24 * time.Hour
	rateWindow = time.Hour
)

const DefaultMaxPerHour = 5

var (
	ErrRateLimited     = errors.New("report rate limit exceeded")
	ErrDuplicateReport = errors.New("duplicate report")
)

// reportGuardScript prunes expired entries, enforces the hourly window
// and rejects duplicate (targetType, targetID) pairs, all in one atomic
// step. KEYS[1] is the per-IP-hash zset; KEYS[2], when present, is the
// per-user zset that closes the switch-networks-and-re-report bypass.
// Entries older than 24h are pruned lazily; an emptied zset disappears
// on its own, so records self-expire without a TTL feature.
const reportGuardScript = `
local now = tonumber(ARGV[1])
local day_cutoff = tonumber(ARGV[2])
local hour_cutoff = tonumber(ARGV[3])
local target = ARGV[4]
local max_per_hour = tonumber(ARGV[5])

redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", day_cutoff)
if KEYS[2] then
	redis.call("ZREMRANGEBYSCORE", KEYS[2], "-inf", day_cutoff)
end

if redis.call("ZSCORE", KEYS[1], target) then
	return "duplicate"
end
if KEYS[2] and redis.call("ZSCORE", KEYS[2], target) then
	return "duplicate"
end

local recent = redis.call("ZCOUNT", KEYS[1], hour_cutoff, "+inf")
if recent >= max_per_hour then
	return "rate_limited"
end

redis.call("ZADD", KEYS[1], now, target)
if KEYS[2] then
	redis.call("ZADD", KEYS[2], now, target)
end

return "allowed"
`

type GuardStore interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

// ReportLimiter is the abuse guard on the report ingestion path. It is
// defense-in-depth, not the sole guard: when the source IP is missing or
// the store fails, it fails open.
type ReportLimiter struct {
	store      GuardStore
	maxPerHour int
	logger     *zap.Logger
	now        func() time.Time
}

func NewReportLimiter(store GuardStore, maxPerHour int, logger *zap.Logger) *ReportLimiter {
	if maxPerHour <= 0 {
		maxPerHour = DefaultMaxPerHour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReportLimiter{
		store:      store,
		maxPerHour: maxPerHour,
		logger:     logger,
		now:        time.Now,
	}
}

// Check gates one report submission. reporterID <= 0 means anonymous.
// Returns nil, ErrRateLimited or ErrDuplicateReport.
func (l *ReportLimiter) Check(ctx context.Context, sourceIP string, targetID string, targetType enums.TargetType, reporterID int64) error {
	if strings.TrimSpace(sourceIP) == "" {
		// No signal to limit on. Availability wins.
		return nil
	}
	if l.store == nil {
		return fmt.Errorf("report limiter store is nil")
	}
	if targetID == "" || !targetType.Valid() {
		return fmt.Errorf("invalid report guard payload")
	}

	now := l.now().UTC()
	keys := []string{ipKey(sourceIP)}
	if reporterID > 0 {
		keys = append(keys, userKey(reporterID))
	}

	result, err := l.store.Eval(ctx, reportGuardScript, keys,
		now.Unix(),
		now.Add(-recordTTL).Unix(),
		now.Add(-rateWindow).Unix(),
		string(targetType)+":"+targetID,
		l.maxPerHour,
	)
	if err != nil {
		// Fail open: a broken limiter must not take report ingestion down.
		l.logger.Error("report guard check failed, allowing report", zap.Error(err))
		return nil
	}

	switch result {
	case "duplicate":
		return ErrDuplicateReport
	case "rate_limited":
		return ErrRateLimited
	default:
		return nil
	}
}

// The raw IP never reaches storage; only its one-way hash does.
func ipKey(sourceIP string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(sourceIP)))
	return "reports:guard:ip:" + hex.EncodeToString(sum[:])
}

func userKey(userID int64) string {
	return "reports:guard:user:" + strconv.FormatInt(userID, 10)
}
