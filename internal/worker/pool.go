package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueuePedidos = "jobs:pedidos"

	JobResumenPedido = "resumen_pedido"

	// MaxJobAttempts is how many times a job runs before it lands in the DLQ.
	MaxJobAttempts = 3
)

// errJobDesconocido marks jobs no handler understands; they skip retries.
var errJobDesconocido = errors.New("unknown job type")

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// ResumenJobPayload asks for an order summary to be rendered and mailed.
type ResumenJobPayload struct {
	PedidoID uuid.UUID `json:"pedido_id"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EncolarResumen pushes a summary job for the given order.
func (d *Dispatcher) EncolarResumen(ctx context.Context, pedidoID uuid.UUID) error {
	return d.enqueue(ctx, QueuePedidos, JobResumenPedido, ResumenJobPayload{PedidoID: pedidoID})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return pushJob(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func pushJob(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// JobHandler processes one decoded payload.
type JobHandler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// WorkerHandlers maps job types to their processors. Nil entries are skipped.
type WorkerHandlers struct {
	Resumen JobHandler
}

func (h WorkerHandlers) para(jobType string) JobHandler {
	switch jobType {
	case JobResumenPedido:
		return h.Resumen
	}
	return nil
}

// StartWorkerPool launches numWorkers goroutines consuming the job queues.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers WorkerHandlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers WorkerHandlers, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueuePedidos).Result()
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

func processJob(ctx context.Context, rdb *redis.Client, handlers WorkerHandlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, rdb, queue, "", json.RawMessage(raw), "invalid envelope: "+err.Error(), 0)
		return
	}
	job.Attempts++

	err := runHandler(ctx, handlers, job)
	if err == nil {
		log.Info().Str("type", job.Type).Str("queue", queue).Int("attempt", job.Attempts).Msg("job processed")
		return
	}

	if errors.Is(err, errJobDesconocido) || job.Attempts >= MaxJobAttempts {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
		return
	}

	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, requeueing")
	if perr := pushJob(ctx, rdb, queue, job); perr != nil {
		log.Error().Err(perr).Str("queue", queue).Msg("requeue failed")
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
	}
}

func runHandler(ctx context.Context, handlers WorkerHandlers, job Job) (err error) {
	h := handlers.para(job.Type)
	if h == nil {
		return fmt.Errorf("%w: %q", errJobDesconocido, job.Type)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Process(ctx, job.Payload)
}
