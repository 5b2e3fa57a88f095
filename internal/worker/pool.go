package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fullfullelectronic/pos-system-macos/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const QueueNotificacion = "jobs:notificacion"

// Job types carried on QueueNotificacion.
const (
	JobConciliacion = "conciliacion"
	JobStockBajo    = "stock_bajo"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler processes the payload of one job type. A returned error makes the
// pool retry the job and, once attempts are exhausted, park it in the DLQ.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// NotificarConciliacion enqueues an operator alert for a new conciliación.
func (d *Dispatcher) NotificarConciliacion(ctx context.Context, c *model.Conciliacion) error {
	return d.enqueue(ctx, QueueNotificacion, JobConciliacion, nuevoConciliacionPayload(c, false))
}

// NotificarStockBajo enqueues a low-stock alert for a product.
func (d *Dispatcher) NotificarStockBajo(ctx context.Context, p *model.Producto, umbral int) error {
	return d.enqueue(ctx, QueueNotificacion, JobStockBajo, StockBajoPayload{
		ProductoID: p.ID.String(),
		Nombre:     p.Nombre,
		Stock:      p.Stock,
		Umbral:     umbral,
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// ── Pool ─────────────────────────────────────────────────────────────────────

// Pool consumes QueueNotificacion with a fixed number of goroutines.
type Pool struct {
	rdb         *redis.Client
	handlers    map[string]Handler
	maxAttempts int
	backoff     time.Duration
}

// NewPool creates a pool that tries each job up to maxAttempts times.
func NewPool(rdb *redis.Client, maxAttempts int) *Pool {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Pool{
		rdb:         rdb,
		handlers:    make(map[string]Handler),
		maxAttempts: maxAttempts,
		backoff:     time.Second,
	}
}

// Handle registers the handler for a job type. Not safe after Start.
func (p *Pool) Handle(jobType string, h Handler) {
	p.handlers[jobType] = h
}

// Start launches numWorkers goroutines consuming the queue.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, QueueNotificacion).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			p.processJob(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		quoted, _ := json.Marshal(raw)
		SendToDLQ(ctx, p.rdb, queue, "", quoted, "invalid envelope: "+err.Error(), 0)
		return
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, "no handler for job type", 0)
		return
	}

	attempts := 0
	err := withRetry(ctx, p.maxAttempts, p.backoff, func(attempt int) error {
		attempts = attempt + 1
		if err := h(ctx, job.Payload); err != nil {
			log.Warn().Err(err).Str("type", job.Type).Int("attempt", attempts).Msg("job attempt failed")
			return err
		}
		return nil
	})
	if err != nil {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload,
			fmt.Sprintf("max attempts (%d) exceeded: %v", p.maxAttempts, err), attempts)
		return
	}
	log.Info().Str("type", job.Type).Str("queue", queue).Msg("job processed")
}

// withRetry calls fn up to maxAttempts times with exponential backoff:
// attempt 1 immediate, then base, 2*base, 4*base...
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, base time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := base * time.Duration(1<<uint(i-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
