package checkpoint

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"mt5-risk-sync-go/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *RedisStore must satisfy Store.
var _ Store = (*RedisStore)(nil)

// Key layout:
//
//	mt5:last_sync:<scope>          string, unix seconds
//	group:<scope>:active_tickets   set of open tickets, short TTL
//	user:<login>:stats             hash {balance, challenge_id, status}
const (
	watermarkKeyPrefix = "mt5:last_sync:"
	statsKeySuffix     = ":stats"
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, cfg models.CacheConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}

	zap.L().Info("Redis checkpoint store connected", zap.String("addr", cfg.Addr))
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Close() {
	if err := r.client.Close(); err != nil {
		zap.L().Warn("Failed to close redis client", zap.Error(err))
	}
}

func (r *RedisStore) Watermark(ctx context.Context, scope string) (time.Time, bool, error) {
	value, err := r.client.Get(ctx, watermarkKeyPrefix+scope).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("unable to read watermark: %w", err)
	}

	unix, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid watermark %q: %w", value, err)
	}

	return time.Unix(unix, 0).UTC(), true, nil
}

func (r *RedisStore) AdvanceWatermark(ctx context.Context, scope string, to time.Time) error {
	current, ok, err := r.Watermark(ctx, scope)
	if err != nil {
		return err
	}
	if ok && !to.After(current) {
		return nil
	}

	if err := r.client.Set(ctx, watermarkKeyPrefix+scope, to.Unix(), 0).Err(); err != nil {
		return fmt.Errorf("unable to advance watermark: %w", err)
	}
	return nil
}

func (r *RedisStore) AccountSnapshot(ctx context.Context, login int64) (Snapshot, bool, error) {
	fields, err := r.client.HGetAll(ctx, statsKey(login)).Result()
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("unable to read account snapshot: %w", err)
	}
	if len(fields) == 0 {
		return Snapshot{}, false, nil
	}

	balance, err := decimal.NewFromString(fields["balance"])
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("invalid cached balance %q: %w", fields["balance"], err)
	}

	return Snapshot{
		Balance:     balance,
		ChallengeId: fields["challenge_id"],
		Status:      fields["status"],
	}, true, nil
}

func (r *RedisStore) SetAccountSnapshot(ctx context.Context, login int64, snap Snapshot) error {
	err := r.client.HSet(ctx, statsKey(login), map[string]any{
		"balance":      snap.Balance.String(),
		"challenge_id": snap.ChallengeId,
		"status":       snap.Status,
	}).Err()
	if err != nil {
		return fmt.Errorf("unable to write account snapshot: %w", err)
	}
	return nil
}

func (r *RedisStore) SetLiveTickets(ctx context.Context, scope string, tickets []int64, ttl time.Duration) error {
	key := fmt.Sprintf("group:%s:active_tickets", scope)

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(tickets) > 0 {
		members := make([]any, len(tickets))
		for i, ticket := range tickets {
			members[i] = ticket
		}
		pipe.SAdd(ctx, key, members...)
		pipe.Expire(ctx, key, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("unable to replace live ticket set: %w", err)
	}
	return nil
}

func (r *RedisStore) InvalidateStatus(ctx context.Context, login int64, status string) error {
	if err := r.client.HSet(ctx, statsKey(login), "status", status).Err(); err != nil {
		return fmt.Errorf("unable to invalidate cached status: %w", err)
	}
	return nil
}

func statsKey(login int64) string {
	return "user:" + strconv.FormatInt(login, 10) + statsKeySuffix
}
