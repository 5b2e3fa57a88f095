package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_TripsAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, OpenTimeout: time.Minute})
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }
	boom := errors.New("smtp down")

	assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	assert.Equal(t, CBClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	assert.Equal(t, CBOpen, cb.State())

	called := false
	assert.ErrorIs(t, cb.Execute(func() error { called = true; return nil }), ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(time.Minute)
	assert.Equal(t, CBHalfOpen, cb.State())
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second})
	now := time.Now()
	cb.now = func() time.Time { return now }

	_ = cb.Execute(func() error { return errors.New("x") })
	assert.Equal(t, CBOpen, cb.State())

	now = now.Add(2 * time.Second)
	_ = cb.Execute(func() error { return errors.New("still down") })
	assert.Equal(t, CBOpen, cb.State())
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2})
	_ = cb.Execute(func() error { return errors.New("x") })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errors.New("x") })
	assert.Equal(t, CBClosed, cb.State())
}
