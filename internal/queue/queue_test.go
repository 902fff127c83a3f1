package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricecart/pricecart/internal/models"
)

func job(storeID int64, priority int) *models.ScrapeJob {
	return &models.ScrapeJob{
		ID:        "job",
		StoreID:   storeID,
		Priority:  priority,
		CreatedAt: time.Now(),
	}
}

func TestQueuePriorityOrdering(t *testing.T) {
	q := NewInMemoryQueue()
	defer q.Close()

	require.NoError(t, q.Push(job(1, 0)))
	require.NoError(t, q.Push(job(2, 5)))
	require.NoError(t, q.Push(job(3, 1)))

	first, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.StoreID)

	second, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), second.StoreID)
}

func TestQueueDeduplicatesByStore(t *testing.T) {
	q := NewInMemoryQueue()
	defer q.Close()

	require.NoError(t, q.Push(job(1, 0)))
	require.NoError(t, q.Push(job(1, 0)))

	assert.Equal(t, 1, q.Size())
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := NewInMemoryQueue()
	defer q.Close()

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.Push(job(7, 0))
	}()

	popped, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), popped.StoreID)
}

func TestQueuePopRespectsContext(t *testing.T) {
	q := NewInMemoryQueue()
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueuePopUsableAfterCancel(t *testing.T) {
	q := NewInMemoryQueue()
	defer q.Close()

	for i := 0; i < 20; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			_, err := q.Pop(ctx)
			done <- err
		}()
		cancel()
		require.ErrorIs(t, <-done, context.Canceled)
	}

	require.NoError(t, q.Push(job(9, 0)))
	popped, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), popped.StoreID)
}

func TestQueueClose(t *testing.T) {
	q := NewInMemoryQueue()
	require.NoError(t, q.Close())

	assert.ErrorIs(t, q.Push(job(1, 0)), ErrQueueClosed)

	_, err := q.Pop(context.Background())
	assert.ErrorIs(t, err, ErrQueueClosed)
}
