package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/kidquest-backend/internal/config"
	"github.com/stemsi/kidquest-backend/internal/metrics"
	"github.com/stemsi/kidquest-backend/internal/model"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultWriter persists play results.
type ResultWriter interface {
	InsertBatch(ctx context.Context, batch []model.PlayResult) error
	Insert(ctx context.Context, result *model.PlayResult) error
}

type ResultWorker struct {
	store   ResultWriter
	rdb     *redis.Client
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewResultWorker(store ResultWriter, rdb *redis.Client, m *metrics.Metrics, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		store:   store,
		rdb:     rdb,
		metrics: m,
		log:     log.With().Str("component", "result_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start consumes the result queue until ctx is cancelled, then drains the
// pending batch. It returns an error only when the drain lost results.
func (w *ResultWorker) Start(ctx context.Context) error {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]model.PlayResult, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			if dropped := w.flushSafe(context.Background(), batch); dropped > 0 {
				return fmt.Errorf("result worker: %d results dropped while draining", dropped)
			}
			return nil

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			p, err := decodeResult(item[1])
			if err != nil {
				w.log.Error().Err(err).Msg("Invalid result payload")
				continue
			}
			batch = append(batch, p)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert with single-row fallback
// ----------------------------------------------------------------

// flushSafe persists batch and returns how many results were neither stored
// nor requeued.
func (w *ResultWorker) flushSafe(ctx context.Context, batch []model.PlayResult) int {
	if len(batch) == 0 {
		return 0
	}

	err := w.store.InsertBatch(ctx, batch)
	if err == nil {
		w.metrics.ResultsPersisted.Add(float64(len(batch)))
		return 0
	}
	w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk result insert failed, using fallback")

	dropped := 0
	for i := range batch {
		p := &batch[i]
		if err := w.store.Insert(ctx, p); err != nil {
			w.log.Error().Err(err).Str("session_id", p.SessionID.String()).Msg("single insert failed, requeueing")
			if !w.requeue(ctx, p) {
				dropped++
			}
			continue
		}
		w.metrics.ResultsPersisted.Inc()
	}
	return dropped
}

func (w *ResultWorker) requeue(ctx context.Context, p *model.PlayResult) bool {
	raw, err := json.Marshal(p)
	if err != nil {
		return false
	}
	if err := w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		w.log.Error().Err(err).Str("session_id", p.SessionID.String()).Msg("requeue failed, result dropped")
		return false
	}
	w.metrics.ResultsRequeued.Inc()
	return true
}

func decodeResult(raw string) (model.PlayResult, error) {
	var p model.PlayResult
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return p, err
	}
	if p.SessionID == uuid.Nil || p.GameID == "" {
		return p, errors.New("result missing session or game id")
	}
	return p, nil
}
