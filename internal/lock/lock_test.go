package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_SameKeySerializes(t *testing.T) {
	l := NewLocal()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.WithLock(context.Background(), "cuenta:1", func(context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, l.held())
}

func TestLocal_DisjointKeysRunConcurrently(t *testing.T) {
	l := NewLocal()
	entered := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = l.WithLock(context.Background(), "producto:a", func(context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	done := make(chan struct{})
	go func() {
		_ = l.WithLock(context.Background(), "producto:b", func(context.Context) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disjoint key blocked")
	}
	close(release)
}

func TestLocal_ContextCanceledWhileWaiting(t *testing.T) {
	l := NewLocal()
	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = l.WithLock(context.Background(), "venta:1", func(context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.WithLock(ctx, "venta:1", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestLocal_PropagatesError(t *testing.T) {
	l := NewLocal()
	boom := errors.New("boom")
	err := l.WithLock(context.Background(), "gasto:1", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, l.WithLock(context.Background(), " ", func(context.Context) error { return nil }), ErrEmptyKey)
}

func TestWithLocks_SortsAndDeduplicates(t *testing.T) {
	rec := &recordingLocker{inner: NewLocal()}
	err := WithLocks(context.Background(), rec, []string{"producto:b", "cuenta:z", "producto:b", "cuenta:a"},
		func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"cuenta:a", "cuenta:z", "producto:b"}, rec.keys)
}

type recordingLocker struct {
	inner Locker
	keys  []string
}

func (r *recordingLocker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	r.keys = append(r.keys, key)
	return r.inner.WithLock(ctx, key, fn)
}

func TestRedis_SerializesOnSameKey(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredislib.NewClient(&goredislib.Options{Addr: mr.Addr()})
	defer rdb.Close()

	l := NewRedis(rdb, DefaultRedisOptions())
	var inside, violations int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(context.Background(), "cuenta:1", func(context.Context) error {
				if atomic.AddInt32(&inside, 1) > 1 {
					atomic.AddInt32(&violations, 1)
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Zero(t, violations)
	assert.False(t, mr.Exists("lock:cuenta:1"))
}

func TestRedis_ExtendsLeaseWhileRunning(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredislib.NewClient(&goredislib.Options{Addr: mr.Addr()})
	defer rdb.Close()

	opts := DefaultRedisOptions()
	opts.Expiry = 300 * time.Millisecond
	l := NewRedis(rdb, opts)

	err := l.WithLock(context.Background(), "venta:1", func(ctx context.Context) error {
		// leave the lease close to expiry, then wait past a renewal tick
		mr.FastForward(250 * time.Millisecond)
		time.Sleep(200 * time.Millisecond)
		assert.True(t, mr.Exists("lock:venta:1"))
		assert.Greater(t, mr.TTL("lock:venta:1"), 100*time.Millisecond)
		return ctx.Err()
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("lock:venta:1"))
}

func TestRedis_LostLeaseCancelsContext(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredislib.NewClient(&goredislib.Options{Addr: mr.Addr()})
	defer rdb.Close()

	opts := DefaultRedisOptions()
	opts.Expiry = 300 * time.Millisecond
	l := NewRedis(rdb, opts)

	err := l.WithLock(context.Background(), "venta:1", func(ctx context.Context) error {
		mr.Del("lock:venta:1")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
			return errors.New("el contexto no se canceló")
		}
	})
	require.ErrorIs(t, err, context.Canceled)
}
