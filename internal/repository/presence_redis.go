package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/community-hub/internal/calendar"
	"github.com/iliyamo/community-hub/internal/model"
)

// RedisPresenceRepo stores heartbeats in a sorted set scored by the last
// active time in millis, with display names kept in a companion hash.
// Members are never removed; readers decide staleness.
type RedisPresenceRepo struct {
	rdb   *redis.Client
	zkey  string
	names string
}

func NewRedisPresenceRepo(rdb *redis.Client, prefix string) *RedisPresenceRepo {
	return &RedisPresenceRepo{rdb: rdb, zkey: prefix + ":presence", names: prefix + ":presence:names"}
}

// Upsert records the heartbeat and name atomically.
func (r *RedisPresenceRepo) Upsert(ctx context.Context, p model.Presence) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, r.zkey, redis.Z{Score: float64(p.LastActive.UnixMilli()), Member: p.UserID})
		pipe.HSet(ctx, r.names, p.UserID, p.Name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis presence upsert: %w", err)
	}
	return nil
}

// List returns all members, most recently active first.
func (r *RedisPresenceRepo) List(ctx context.Context) ([]model.Presence, error) {
	zs, err := r.rdb.ZRevRangeWithScores(ctx, r.zkey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis presence range: %w", err)
	}
	out := make([]model.Presence, 0, len(zs))
	if len(zs) == 0 {
		return out, nil
	}
	ids := make([]string, len(zs))
	for i, z := range zs {
		ids[i] = fmt.Sprint(z.Member)
	}
	names, err := r.rdb.HMGet(ctx, r.names, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis presence names: %w", err)
	}
	for i, z := range zs {
		p := model.Presence{UserID: ids[i], LastActive: calendar.FromMillis(int64(z.Score))}
		if i < len(names) {
			if s, ok := names[i].(string); ok {
				p.Name = s
			}
		}
		out = append(out, p)
	}
	return out, nil
}
