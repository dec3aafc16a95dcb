// Package backend opens the configured primary store and, for the remote backend, its local fallback.
package backend

import (
	"context"
	"fmt"

	"github.com/aegiswhistle/aegis/internal/config"
	"github.com/aegiswhistle/aegis/internal/store"
	"github.com/aegiswhistle/aegis/internal/store/postgres"
	"github.com/aegiswhistle/aegis/internal/store/redis"
	"github.com/aegiswhistle/aegis/internal/store/sqlite"
)

// Stores is the pair the desk works against. Fallback is nil unless Primary is remote.
type Stores struct {
	Primary  store.Store
	Fallback store.Store
}

// Close closes both stores.
func (s Stores) Close() error {
	var first error
	for _, st := range []store.Store{s.Primary, s.Fallback} {
		if st == nil {
			continue
		}
		if err := st.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens the backend named by cfg. The remote backend always gets the sqlite slot in home as
// its fallback, so intake keeps working while the database is unreachable.
func Open(ctx context.Context, home string, cfg config.Config) (Stores, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		st, err := sqlite.Open(home)
		if err != nil {
			return Stores{}, fmt.Errorf("open sqlite: %w", err)
		}
		return Stores{Primary: st}, nil
	case config.BackendRedis:
		st, err := redis.Open(ctx, cfg.RedisAddr)
		if err != nil {
			return Stores{}, fmt.Errorf("open redis: %w", err)
		}
		return Stores{Primary: st}, nil
	case config.BackendPostgres:
		fallback, err := sqlite.Open(home)
		if err != nil {
			return Stores{}, fmt.Errorf("open fallback: %w", err)
		}
		primary, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			_ = fallback.Close()
			return Stores{}, fmt.Errorf("open postgres: %w", err)
		}
		return Stores{Primary: primary, Fallback: fallback}, nil
	default:
		return Stores{}, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
