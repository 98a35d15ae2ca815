package cache

import (
	"fmt"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/store"
)

const frontSize = 5000

// Open builds the store selected by cfg.Cache.Backend, optionally fronted
// by a memory layer.
func Open(cfg *store.Config) (interfaces.SentimentStore, error) {
	var back interfaces.SentimentStore
	switch cfg.Cache.Backend {
	case "MEMORY":
		return NewMemoryStore(0), nil
	case "REDIS":
		rs, err := NewRedisStore(RedisConfig{
			Addr:      cfg.Cache.Redis.Addr,
			Password:  cfg.Secrets.RedisPassword,
			DB:        cfg.Cache.Redis.DB,
			Prefix:    cfg.Cache.Redis.Prefix,
			Retention: cfg.Cache.Retention,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis sentiment cache: %w", err)
		}
		back = rs
	default:
		fs, err := NewFileStore(cfg.Cache.Dir)
		if err != nil {
			return nil, fmt.Errorf("open file sentiment cache: %w", err)
		}
		back = fs
	}

	if cfg.Cache.Front {
		return NewLayered(back, frontSize), nil
	}
	return back, nil
}
