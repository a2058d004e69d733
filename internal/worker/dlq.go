package worker

// Failed summary jobs end up in one capped Redis list per source queue
// (dlq:{queue}). An operator can list them and push them back once the
// cause (SMTP credentials, supplier address) is fixed.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DLQPrefix = "dlq:"

	// dlqMaxEntries bounds each list; the oldest entries are dropped.
	dlqMaxEntries = 1000
)

// DLQEntry is a dead job plus why and when it died.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      time.Time       `json:"failed_at"`
	Attempts      int             `json:"attempts"`
}

func dlqKey(queue string) string { return DLQPrefix + queue }

// SendToDLQ records a job that will not be retried. Payloads that are not
// valid JSON are kept as a JSON string so the entry stays decodable.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue, jobType string, payload json.RawMessage, reason string, attempts int) {
	if !json.Valid(payload) {
		payload, _ = json.Marshal(string(payload))
	}
	data, err := json.Marshal(DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC(),
		Attempts:      attempts,
	})
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	key := dlqKey(queue)
	pipe := rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, dlqMaxEntries-1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error().Err(err).Str("dlq_key", key).Msg("dlq: push failed, job lost")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job dead-lettered")
}

// DLQLength returns the number of dead jobs of a queue.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, dlqKey(queue)).Result()
}

// DLQEntries returns up to limit dead jobs, newest first. Undecodable
// entries are skipped.
func DLQEntries(ctx context.Context, rdb *redis.Client, queue string, limit int64) ([]DLQEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	raws, err := rdb.LRange(ctx, dlqKey(queue), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]DLQEntry, 0, len(raws))
	for _, raw := range raws {
		var e DLQEntry
		if json.Unmarshal([]byte(raw), &e) == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

// ReencolarDLQ moves every dead job of queue back onto it with a fresh
// attempt budget, oldest first. Returns how many were moved.
func ReencolarDLQ(ctx context.Context, rdb *redis.Client, queue string) (int, error) {
	key := dlqKey(queue)
	n := 0
	for {
		raw, err := rdb.RPop(ctx, key).Result()
		if err == redis.Nil {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		var e DLQEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil || e.JobType == "" {
			log.Warn().Str("dlq_key", key).Msg("dlq: dropping entry without a job type")
			continue
		}
		if err := pushJob(ctx, rdb, queue, Job{Type: e.JobType, Payload: e.Payload}); err != nil {
			// Put it back where it was so nothing is lost.
			rdb.RPush(ctx, key, raw)
			return n, err
		}
		n++
	}
}
