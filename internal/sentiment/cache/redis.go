package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/types"
)

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Prefix    string
	Retention time.Duration
}

// RedisStore keeps each entry as a JSON string with a TTL of Retention, a
// sorted set per ticker scored by timestamp, a global sorted set for stats
// and a hash of per-source counters.
type RedisStore struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

var _ interfaces.SentimentStore = (*RedisStore)(nil)

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		PoolTimeout:  30 * time.Second,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisStore(client, cfg), nil
}

func newRedisStore(client *redis.Client, cfg RedisConfig) *RedisStore {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "sentiment"
	}
	retention := cfg.Retention
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &RedisStore{client: client, prefix: prefix, retention: retention}
}

func (r *RedisStore) key(parts ...string) string {
	k := r.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (r *RedisStore) Get(ctx context.Context, hash string) (types.CacheEntry, bool, error) {
	data, err := r.client.Get(ctx, r.key("entry", hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.CacheEntry{}, false, nil
	}
	if err != nil {
		return types.CacheEntry{}, false, err
	}
	var e types.CacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return types.CacheEntry{}, false, nil
	}
	return e, true, nil
}

func (r *RedisStore) Put(ctx context.Context, entry types.CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	score := float64(entry.Timestamp.Unix())

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key("entry", entry.Hash), data, r.retention)
	added := pipe.ZAdd(ctx, r.key("all"), redis.Z{Score: score, Member: entry.Hash})
	if entry.Ticker != "" {
		pipe.ZAdd(ctx, r.key("ticker", entry.Ticker), redis.Z{Score: score, Member: entry.Hash})
		pipe.Expire(ctx, r.key("ticker", entry.Ticker), r.retention)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	if added.Val() > 0 {
		return r.client.HIncrBy(ctx, r.key("sources"), entry.Source, 1).Err()
	}
	return nil
}

// Link adds the hash to ticker's sorted set under the entry's timestamp.
func (r *RedisStore) Link(ctx context.Context, ticker string, entry types.CacheEntry) error {
	if ticker == "" {
		return nil
	}
	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, r.key("ticker", ticker), redis.Z{Score: float64(entry.Timestamp.Unix()), Member: entry.Hash})
	pipe.Expire(ctx, r.key("ticker", ticker), r.retention)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) Recent(ctx context.Context, ticker string, since time.Time) ([]types.CacheEntry, error) {
	hashes, err := r.client.ZRevRangeByScore(ctx, r.key("ticker", ticker), &redis.ZRangeBy{
		Min: strconv.FormatInt(since.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(hashes) == 0 {
		return nil, nil
	}

	keys := make([]string, len(hashes))
	for i, h := range hashes {
		keys[i] = r.key("entry", h)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]types.CacheEntry, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue // expired
		}
		var e types.CacheEntry
		if json.Unmarshal([]byte(s), &e) == nil && !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	newestFirst(out)
	return out, nil
}

// Stats trims index members older than the retention first, so totals
// follow the entry TTLs. Source counters are cumulative.
func (r *RedisStore) Stats(ctx context.Context, since time.Time) (types.CacheStats, error) {
	cutoff := time.Now().Add(-r.retention).Unix()
	if err := r.client.ZRemRangeByScore(ctx, r.key("all"), "-inf", "("+strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return types.CacheStats{}, err
	}

	total, err := r.client.ZCard(ctx, r.key("all")).Result()
	if err != nil {
		return types.CacheStats{}, err
	}
	recent, err := r.client.ZCount(ctx, r.key("all"), strconv.FormatInt(since.Unix(), 10), "+inf").Result()
	if err != nil {
		return types.CacheStats{}, err
	}
	sources, err := r.client.HGetAll(ctx, r.key("sources")).Result()
	if err != nil {
		return types.CacheStats{}, err
	}

	st := types.CacheStats{Total: int(total), Recent: int(recent), BySource: make(map[string]int, len(sources))}
	for src, n := range sources {
		v, _ := strconv.Atoi(n)
		st.BySource[src] = v
	}
	return st, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
