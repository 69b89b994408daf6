package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/kidquest-backend/internal/config"
	"github.com/stemsi/kidquest-backend/internal/model"
)

// ResultQueue pushes completed play results onto the persistence queue.
type ResultQueue struct {
	rdb *redis.Client
}

// NewResultQueue creates a new ResultQueue.
func NewResultQueue(rdb *redis.Client) *ResultQueue {
	return &ResultQueue{rdb: rdb}
}

// Publish enqueues a result for the ResultWorker.
func (q *ResultQueue) Publish(ctx context.Context, result *model.PlayResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		return fmt.Errorf("push result: %w", err)
	}
	return nil
}
