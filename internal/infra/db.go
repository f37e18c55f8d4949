// README: Postgres connection pool initialization using pgxpool; waits for the database to accept connections.
package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func NewDB(ctx context.Context, dsn string, log zerolog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres config: %w", err)
	}
	err = retry.Do(
		func() error { return pool.Ping(ctx) },
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Msg("postgres not ready")
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}
