package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	appcfg "github.com/oksasatya/user-account-api/config"
)

// NewPool opens a pgx pool sized from the app config and verifies the
// connection with a short ping before handing it out.
func NewPool(ctx context.Context, cfg *appcfg.Config) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.PostgresDSN())
	if err != nil {
		return nil, err
	}
	pc.MaxConns = cfg.DBMaxConns
	pc.MinConns = cfg.DBMinConns
	pc.MaxConnLifetime = cfg.DBMaxConnLife

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
