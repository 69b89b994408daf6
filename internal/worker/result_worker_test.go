package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/kidquest-backend/internal/metrics"
	"github.com/stemsi/kidquest-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) InsertBatch(ctx context.Context, batch []model.PlayResult) error {
	return m.Called(ctx, batch).Error(0)
}

func (m *mockWriter) Insert(ctx context.Context, result *model.PlayResult) error {
	return m.Called(ctx, result).Error(0)
}

func results(n int) []model.PlayResult {
	out := make([]model.PlayResult, n)
	for i := range out {
		out[i] = model.PlayResult{ID: uuid.New(), SessionID: uuid.New(), PlayerID: uuid.New(), GameID: "quiz", Score: i}
	}
	return out
}

func TestResultWorker_FlushBatch(t *testing.T) {
	store := new(mockWriter)
	m := metrics.New()
	w := NewResultWorker(store, nil, m, zerolog.Nop())

	batch := results(3)
	store.On("InsertBatch", mock.Anything, batch).Return(nil).Once()

	assert.Zero(t, w.flushSafe(context.Background(), batch))

	store.AssertExpectations(t)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ResultsPersisted))
}

func TestResultWorker_FallsBackToSingleInserts(t *testing.T) {
	store := new(mockWriter)
	m := metrics.New()
	w := NewResultWorker(store, nil, m, zerolog.Nop())

	batch := results(2)
	store.On("InsertBatch", mock.Anything, batch).Return(errors.New("deadlock detected")).Once()
	store.On("Insert", mock.Anything, mock.AnythingOfType("*model.PlayResult")).Return(nil).Twice()

	assert.Zero(t, w.flushSafe(context.Background(), batch))

	store.AssertExpectations(t)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ResultsPersisted))
	assert.Zero(t, testutil.ToFloat64(m.ResultsRequeued))
}

func TestResultWorker_EmptyBatchIsNoop(t *testing.T) {
	store := new(mockWriter)
	w := NewResultWorker(store, nil, metrics.New(), zerolog.Nop())
	assert.Zero(t, w.flushSafe(context.Background(), nil))
	store.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything)
}

func TestResultWorker_CountsDroppedResults(t *testing.T) {
	store := new(mockWriter)
	m := metrics.New()
	// Nothing listens on port 1, so every requeue fails.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	w := NewResultWorker(store, rdb, m, zerolog.Nop())

	batch := results(2)
	store.On("InsertBatch", mock.Anything, batch).Return(errors.New("connection reset")).Once()
	store.On("Insert", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Twice()

	assert.Equal(t, 2, w.flushSafe(context.Background(), batch))
	assert.Zero(t, testutil.ToFloat64(m.ResultsPersisted))
	assert.Zero(t, testutil.ToFloat64(m.ResultsRequeued))
}

func TestResultWorker_StartStopsCleanly(t *testing.T) {
	store := new(mockWriter)
	w := NewResultWorker(store, nil, metrics.New(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, w.Start(ctx))
	store.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything)
}

func TestDecodeResult(t *testing.T) {
	p, err := decodeResult(`{"session_id":"6f1c2d9e-0000-4000-8000-000000000001","game_id":"quiz","score":4}`)
	require.NoError(t, err)
	assert.Equal(t, "quiz", p.GameID)
	assert.Equal(t, 4, p.Score)

	_, err = decodeResult(`{"game_id":"quiz"}`)
	assert.Error(t, err)
	_, err = decodeResult(`not json`)
	assert.Error(t, err)
}
