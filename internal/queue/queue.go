// Package queue holds the in-process job queue feeding the scrape workers.
package queue

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/pricecart/pricecart/internal/models"
)

var (
	ErrQueueEmpty  = errors.New("queue is empty")
	ErrQueueClosed = errors.New("queue is closed")
)

type Queue interface {
	Push(job *models.ScrapeJob) error
	Pop(ctx context.Context) (*models.ScrapeJob, error)
	Size() int
	Close() error
}

// InMemoryQueue is a priority-ordered blocking queue. Pop blocks until a job
// arrives, the queue closes or ctx is cancelled.
type InMemoryQueue struct {
	jobs    []*models.ScrapeJob
	pending map[int64]struct{}
	mu      sync.Mutex
	cond    *sync.Cond
	closed  bool
}

func NewInMemoryQueue() *InMemoryQueue {
	q := &InMemoryQueue{
		jobs:    make([]*models.ScrapeJob, 0),
		pending: make(map[int64]struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues a job. A store already waiting in the queue is not enqueued
// twice; the duplicate push is a silent no-op.
func (q *InMemoryQueue) Push(job *models.ScrapeJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if _, queued := q.pending[job.StoreID]; queued {
		return nil
	}

	q.jobs = append(q.jobs, job)
	q.pending[job.StoreID] = struct{}{}
	sort.SliceStable(q.jobs, func(i, j int) bool {
		return q.jobs[i].Priority > q.jobs[j].Priority
	})
	q.cond.Signal()

	return nil
}

func (q *InMemoryQueue) Pop(ctx context.Context) (*models.ScrapeJob, error) {
	// Wake the waiter on cancellation; Wait must only be interrupted by a
	// Broadcast taken under the same lock.
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.cond.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.jobs) == 0 && !q.closed && ctx.Err() == nil {
		q.cond.Wait()
	}

	if len(q.jobs) == 0 {
		if q.closed {
			return nil, ErrQueueClosed
		}
		return nil, ctx.Err()
	}

	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	delete(q.pending, job.StoreID)

	return job, nil
}

func (q *InMemoryQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()

	return nil
}
