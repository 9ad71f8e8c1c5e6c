package storage

import (
	"context"
	"fmt"

	"bookborrow-funnel/internal/config"
)

// Open builds the hint store selected by cfg.Hints.Type. The returned close
// func releases any connection the store holds.
func Open(ctx context.Context, cfg *config.Config) (HintStore, func() error, error) {
	switch cfg.Hints.Type {
	case "", "memory":
		return NewMemoryStore(), func() error { return nil }, nil
	case "redis":
		r := cfg.Hints.Redis
		client, err := ConnectRedis(ctx, r.Addr, r.Password, r.DB)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(client), client.Close, nil
	case "postgres":
		db, err := ConnectPostgres(ctx, cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresStore(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("hint store type %q not supported", cfg.Hints.Type)
	}
}
