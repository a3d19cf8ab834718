package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/ws-server/internal/model"
)

// Counter names appended to the key prefix.
const (
	keyConnectionsTotal  = "connections_total"
	keyConnectionsActive = "connections_active"
	keyMessagesTotal     = "messages_total"
	keyHTTPRequestsTotal = "http_requests_total"
)

// RedisStatsRepo stores counters as plain integer keys under prefix so that
// every instance pointed at the same Redis reports the same totals.
//
// Open connections are counted per instance in
// <prefix>:connections_active:<instance>. That key carries a TTL refreshed
// by every update and by Heartbeat, so the count of an instance that dies
// without closing its sockets expires instead of staying in the sum.
type RedisStatsRepo struct {
	rdb       *redis.Client
	prefix    string
	instance  string
	activeTTL time.Duration
}

// NewRedisStatsRepo returns a store using rdb. The client must not be nil.
// A non-positive activeTTL defaults to one minute.
func NewRedisStatsRepo(rdb *redis.Client, prefix, instance string, activeTTL time.Duration) *RedisStatsRepo {
	if rdb == nil {
		panic("nil redis client passed to NewRedisStatsRepo")
	}
	if activeTTL <= 0 {
		activeTTL = time.Minute
	}
	return &RedisStatsRepo{rdb: rdb, prefix: prefix, instance: instance, activeTTL: activeTTL}
}

func (r *RedisStatsRepo) key(name string) string { return r.prefix + ":" + name }

func (r *RedisStatsRepo) activeKey() string {
	return r.key(keyConnectionsActive) + ":" + r.instance
}

func (r *RedisStatsRepo) ConnectionOpened(ctx context.Context) error {
	pipe := r.rdb.TxPipeline()
	pipe.Incr(ctx, r.key(keyConnectionsTotal))
	pipe.Incr(ctx, r.activeKey())
	pipe.Expire(ctx, r.activeKey(), r.activeTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record connection opened: %w", err)
	}
	return nil
}

func (r *RedisStatsRepo) ConnectionClosed(ctx context.Context) error {
	pipe := r.rdb.TxPipeline()
	pipe.Decr(ctx, r.activeKey())
	pipe.Expire(ctx, r.activeKey(), r.activeTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record connection closed: %w", err)
	}
	return nil
}

func (r *RedisStatsRepo) MessageHandled(ctx context.Context) error {
	if err := r.rdb.Incr(ctx, r.key(keyMessagesTotal)).Err(); err != nil {
		return fmt.Errorf("record message: %w", err)
	}
	return nil
}

func (r *RedisStatsRepo) HTTPRequest(ctx context.Context) error {
	if err := r.rdb.Incr(ctx, r.key(keyHTTPRequestsTotal)).Err(); err != nil {
		return fmt.Errorf("record http request: %w", err)
	}
	return nil
}

// Touch extends the TTL of this instance's active-connection key. It is a
// no-op when the key does not exist.
func (r *RedisStatsRepo) Touch(ctx context.Context) error {
	if err := r.rdb.Expire(ctx, r.activeKey(), r.activeTTL).Err(); err != nil {
		return fmt.Errorf("refresh active count: %w", err)
	}
	return nil
}

// Heartbeat calls Touch every third of the TTL until ctx is cancelled.
func (r *RedisStatsRepo) Heartbeat(ctx context.Context, onErr func(error)) {
	t := time.NewTicker(r.activeTTL / 3)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := r.Touch(ctx); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}

// Snapshot reads the shared totals in one MGET and sums the live
// per-instance active counts. Missing keys count as zero.
func (r *RedisStatsRepo) Snapshot(ctx context.Context) (model.Stats, error) {
	totals, err := r.readInts(ctx,
		r.key(keyConnectionsTotal),
		r.key(keyMessagesTotal),
		r.key(keyHTTPRequestsTotal),
	)
	if err != nil {
		return model.Stats{}, err
	}

	var activeKeys []string
	iter := r.rdb.Scan(ctx, 0, r.key(keyConnectionsActive)+":*", 100).Iterator()
	for iter.Next(ctx) {
		activeKeys = append(activeKeys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return model.Stats{}, fmt.Errorf("scan active counters: %w", err)
	}
	var active int64
	if len(activeKeys) > 0 {
		counts, err := r.readInts(ctx, activeKeys...)
		if err != nil {
			return model.Stats{}, err
		}
		for _, n := range counts {
			active += n
		}
	}

	return model.Stats{
		ConnectionsTotal:  totals[0],
		ConnectionsActive: active,
		MessagesTotal:     totals[1],
		HTTPRequestsTotal: totals[2],
	}, nil
}

func (r *RedisStatsRepo) readInts(ctx context.Context, keys ...string) ([]int64, error) {
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read counters: %w", err)
	}
	nums := make([]int64, len(vals))
	for i, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("counter %s: %w", keys[i], ErrCorruptCounter)
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("counter %s %q: %w", keys[i], s, ErrCorruptCounter)
		}
		nums[i] = n
	}
	return nums, nil
}
