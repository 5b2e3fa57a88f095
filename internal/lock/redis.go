package lock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisOptions tunes the RedLock mutexes. Expiry is the lease; it is
// extended every Expiry/3 while the critical section runs.
type RedisOptions struct {
	Prefix     string
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Prefix:     "lock:",
		Expiry:     10 * time.Second,
		Tries:      60,
		RetryDelay: 50 * time.Millisecond,
	}
}

// Redis serializes aggregate mutations across processes with redsync.
type Redis struct {
	rs   *redsync.Redsync
	opts RedisOptions
}

func NewRedis(rdb *goredislib.Client, opts RedisOptions) *Redis {
	return &Redis{rs: redsync.New(goredis.NewPool(rdb)), opts: opts}
}

func (r *Redis) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	m := r.rs.NewMutex(
		r.opts.Prefix+key,
		redsync.WithExpiry(r.opts.Expiry),
		redsync.WithTries(r.opts.Tries),
		redsync.WithRetryDelay(r.opts.RetryDelay),
	)
	if err := m.LockContext(ctx); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	defer func() {
		if ok, err := m.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			log.Warn().Err(err).Str("lock_key", key).Msg("no se pudo liberar el lock")
		}
	}()

	// A lost lease cancels fn's context so it stops before writing unguarded.
	fnCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go r.renovar(fnCtx, m, key, cancel, done)
	defer func() {
		cancel()
		<-done
	}()
	return fn(fnCtx)
}

func (r *Redis) renovar(ctx context.Context, m *redsync.Mutex, key string, perdido context.CancelFunc, done chan<- struct{}) {
	defer close(done)
	intervalo := r.opts.Expiry / 3
	if intervalo <= 0 {
		intervalo = DefaultRedisOptions().Expiry / 3
	}
	t := time.NewTicker(intervalo)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if ok, err := m.ExtendContext(ctx); !ok || err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Error().Err(err).Str("lock_key", key).Msg("lock perdido, se cancela la operación")
				perdido()
				return
			}
		}
	}
}
