package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/fitgroup-api/pkg/errors"
)

// Job represents a queued background task.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	// Workers is the number of core workers kept alive for the queue lifetime.
	Workers int
	// MaxWorkers caps the pool. Workers above the core size are started only
	// when the buffer is full and stop after IdleTimeout without work.
	MaxWorkers  int
	BufferSize  int
	IdleTimeout time.Duration
	// MaxRetries of zero falls back to 3; a negative value disables retries.
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Workers int
	Pending int
}

// Queue is a lightweight in-memory job dispatcher backed by goroutines.
type Queue struct {
	name    string
	handler Handler

	coreWorkers int
	maxWorkers  int
	bufferSize  int
	idleTimeout time.Duration
	maxRetries  int
	retryDelay  time.Duration
	logger      *zap.Logger

	jobs     chan Job
	drain    chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	started  bool
	draining bool
	active   int
	nextID   int
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxWorkers < cfg.Workers {
		cfg.MaxWorkers = cfg.Workers
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = time.Minute
	}
	switch {
	case cfg.MaxRetries == 0:
		cfg.MaxRetries = 3
	case cfg.MaxRetries < 0:
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:        name,
		handler:     handler,
		coreWorkers: cfg.Workers,
		maxWorkers:  cfg.MaxWorkers,
		bufferSize:  cfg.BufferSize,
		idleTimeout: cfg.IdleTimeout,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		logger:      cfg.Logger,
		jobs:        make(chan Job, cfg.BufferSize),
		drain:       make(chan struct{}),
	}
}

// Start begins worker consumption. Safe to call once. Handlers see ctx's
// values, but only Shutdown cancels the workers.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for i := 0; i < q.coreWorkers; i++ {
		q.spawnLocked(nil, false)
	}
	q.started = true
	q.logger.Sugar().Infow("queue started", "queue", q.name, "workers", q.coreWorkers, "max_workers", q.maxWorkers, "buffer", q.bufferSize)
}

// Shutdown stops accepting jobs and lets workers finish the backlog. When ctx
// expires first the remaining work is cancelled and ctx.Err() is returned.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return nil
	}
	if !q.draining {
		q.draining = true
		close(q.drain)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		if left := len(q.jobs); left > 0 {
			q.logger.Sugar().Warnw("queue stopped with pending jobs", "queue", q.name, "dropped", left)
			return fmt.Errorf("queue %s stopped with %d pending jobs", q.name, left)
		}
		q.logger.Sugar().Infow("queue drained", "queue", q.name)
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		q.logger.Sugar().Warnw("queue drain timed out", "queue", q.name, "dropped", len(q.jobs))
		return ctx.Err()
	}
}

// Enqueue pushes a job onto the queue. When the buffer is full an extra
// worker takes the job directly; at the worker cap the job is rejected.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if q.draining {
		return fmt.Errorf("queue %s draining", q.name)
	}
	if err := q.ctx.Err(); err != nil {
		return fmt.Errorf("queue %s stopped: %w", q.name, err)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case q.jobs <- job:
		return nil
	default:
	}

	if q.active >= q.maxWorkers {
		return appErrors.Wrap(fmt.Errorf("queue %s at capacity", q.name), appErrors.ErrQueueFull.Code, appErrors.ErrQueueFull.Status, appErrors.ErrQueueFull.Message)
	}
	q.spawnLocked(&job, true)
	return nil
}

// Stats reports active workers and buffered jobs.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{Workers: q.active, Pending: len(q.jobs)}
}

func (q *Queue) spawnLocked(first *Job, extra bool) {
	q.nextID++
	q.active++
	q.wg.Add(1)
	go q.worker(q.nextID, first, extra)
}

func (q *Queue) worker(workerID int, first *Job, extra bool) {
	defer func() {
		q.mu.Lock()
		q.active--
		q.mu.Unlock()
		q.wg.Done()
	}()

	if extra {
		q.logger.Sugar().Debugw("overflow worker started", "queue", q.name, "worker", workerID)
	}
	if first != nil {
		q.run(*first)
	}

	var idle <-chan time.Time
	for {
		if extra {
			idle = time.After(q.idleTimeout)
		}
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(job)
		case <-q.drain:
			q.drainBacklog()
			return
		case <-idle:
			return
		}
	}
}

func (q *Queue) drainBacklog() {
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(job)
		default:
			return
		}
	}
}

func (q *Queue) run(job Job) {
	if err := q.invoke(job); err != nil {
		q.handleFailure(job, err)
	}
}

func (q *Queue) invoke(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panic: %v", r)
		}
	}()
	return q.handler(q.ctx, job)
}

func (q *Queue) handleFailure(job Job, err error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		q.logger.Sugar().Errorw("job failed", "queue", q.name, "job_id", job.ID, "type", job.Type, "attempts", job.Attempt, "error", err)
		return
	}
	q.logger.Sugar().Warnw("job failed, retrying", "queue", q.name, "job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "error", err)

	go func(j Job) {
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.logger.Sugar().Errorw("failed to requeue job", "queue", q.name, "job_id", j.ID, "error", err)
			}
		}
	}(job)
}
