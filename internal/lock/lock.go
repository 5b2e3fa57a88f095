// Package lock provides keyed critical sections for aggregate mutations.
//
// Keys follow "<aggregate>:<id>" (see Cuenta, Producto, Venta, Gasto).
// Callers hold a key only for the read-check-write of one mutation; when a
// workflow needs several keys at once it uses WithLocks, which acquires them
// in sorted order.
package lock

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
)

var ErrEmptyKey = errors.New("lock key cannot be empty")

// Locker runs fn while holding the critical section identified by key.
// Locks are not reentrant: fn must not request the same key again.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

func Cuenta(id uuid.UUID) string   { return "cuenta:" + id.String() }
func Producto(id uuid.UUID) string { return "producto:" + id.String() }
func Venta(id uuid.UUID) string    { return "venta:" + id.String() }
func Gasto(id uuid.UUID) string    { return "gasto:" + id.String() }

// WithLocks acquires every key (deduplicated, sorted) and runs fn.
func WithLocks(ctx context.Context, l Locker, keys []string, fn func(ctx context.Context) error) error {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	sort.Strings(uniq)
	return withSorted(ctx, l, uniq, fn)
}

func withSorted(ctx context.Context, l Locker, keys []string, fn func(ctx context.Context) error) error {
	if len(keys) == 0 {
		return fn(ctx)
	}
	return l.WithLock(ctx, keys[0], func(ctx context.Context) error {
		return withSorted(ctx, l, keys[1:], fn)
	})
}
