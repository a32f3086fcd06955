package worker

// retry_cron.go
// Background goroutine that re-drives alert jobs parked in the DLQ (usually
// after a transient SMTP outage). Entries that already burned through
// MaxAlertaEnvios stay parked for manual inspection instead of cycling
// forever.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10

	// MaxAlertaEnvios caps total delivery attempts per alert.
	MaxAlertaEnvios = 5

	// agotadasSuffix marks the list of alerts that exhausted their retries.
	agotadasSuffix = ":agotadas"
)

// StartRetryCron launches a background goroutine that ticks every 30s and
// requeues DLQ'd alert jobs back onto their original queue. It respects the
// context for graceful shutdown.
func StartRetryCron(ctx context.Context, rdb *redis.Client) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, rdb)
			}
		}
	}()
}

func processRetries(ctx context.Context, rdb *redis.Client) {
	dlqKey := DLQPrefix + QueueAlertas

	for i := 0; i < retryBatchSize; i++ {
		raw, err := rdb.RPop(ctx, dlqKey).Result()
		if errors.Is(err, redis.Nil) {
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("retry_cron: failed to pop from DLQ")
			return
		}

		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Msg("retry_cron: malformed DLQ entry, discarding")
			continue
		}

		if entry.Attempts >= MaxAlertaEnvios {
			if err := rdb.LPush(ctx, dlqKey+agotadasSuffix, raw).Err(); err != nil {
				log.Error().Err(err).Msg("retry_cron: failed to park exhausted entry")
			} else {
				log.Warn().
					Str("job_type", entry.JobType).
					Int("attempts", entry.Attempts).
					Msg("retry_cron: alert exhausted its retries, parked for manual inspection")
			}
			continue
		}

		job := Job{Type: entry.JobType, Payload: entry.Payload, Attempts: entry.Attempts}
		encoded, err := json.Marshal(job)
		if err != nil {
			log.Error().Err(err).Msg("retry_cron: failed to marshal job")
			continue
		}
		if err := rdb.LPush(ctx, entry.OriginalQueue, encoded).Err(); err != nil {
			log.Error().Err(err).Str("queue", entry.OriginalQueue).Msg("retry_cron: failed to requeue job")
			continue
		}

		log.Info().
			Str("job_type", entry.JobType).
			Int("attempts", entry.Attempts).
			Msg("retry_cron: alert requeued from DLQ")
	}
}
