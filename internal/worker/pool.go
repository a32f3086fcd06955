package worker

import (
	"context"
	"encoding/json"
	"time"

	"cajaledger/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAlertas = "jobs:alertas"

	JobAlertaDesvio = "alerta_desvio"
)

// Job is the generic envelope for all async tasks. Attempts counts prior
// deliveries; the DLQ re-drive preserves it across requeues.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts,omitempty"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// NotificarDesvio implements service.Notificador: it queues a discrepancy
// alert instead of blocking the arqueo response on SMTP. A failed enqueue is
// logged, never surfaced — the arqueo itself already committed.
func (d *Dispatcher) NotificarDesvio(ctx context.Context, alerta service.AlertaDesvio) {
	if err := d.enqueue(ctx, QueueAlertas, JobAlertaDesvio, alerta); err != nil {
		log.Error().Err(err).
			Str("sesion_id", alerta.SesionCajaID).
			Msg("dispatcher: failed to enqueue alerta de desvío")
	}
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

// Handlers holds the per-job-type processors wired at the composition root.
type Handlers struct {
	Alertas *AlertaWorker
}

// StartWorkerPool launches numWorkers goroutines consuming the alert queue.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *Handlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *Handlers, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueAlertas).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers *Handlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	switch job.Type {
	case JobAlertaDesvio:
		handlers.Alertas.Process(ctx, rdb, job.Payload, job.Attempts)
	default:
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("unknown job type")
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, "unknown job type", 0)
	}
}
