package worker

import (
	"context"
	"sync"
)

// Job is a unit of work producing R
type Job[R any] interface {
	Execute(ctx context.Context) R
}

// JobFunc adapts a function to Job
type JobFunc[R any] func(ctx context.Context) R

// Execute calls f
func (f JobFunc[R]) Execute(ctx context.Context) R {
	return f(ctx)
}

type indexedJob[R any] struct {
	index int
	job   Job[R]
}

// Pool runs jobs on a fixed number of workers. Results are returned in
// submission order regardless of completion order.
type Pool[R any] struct {
	workers    int
	jobQueue   chan indexedJob[R]
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once

	mu      sync.Mutex
	results []R
	done    []bool
}

// NewPool creates a pool bound to ctx; canceling ctx stops the workers
func NewPool[R any](ctx context.Context, workers int) *Pool[R] {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool[R]{
		workers:    workers,
		jobQueue:   make(chan indexedJob[R], workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the workers
func (p *Pool[R]) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool[R]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case ij, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := ij.job.Execute(p.ctx)

			p.mu.Lock()
			p.results[ij.index] = result
			p.done[ij.index] = true
			p.mu.Unlock()
		}
	}
}

// Submit queues a job. It reports false once the pool has been shut down
// or waited on.
func (p *Pool[R]) Submit(job Job[R]) bool {
	if p.ctx.Err() != nil {
		return false
	}

	p.mu.Lock()
	index := len(p.results)
	var zero R
	p.results = append(p.results, zero)
	p.done = append(p.done, false)
	p.mu.Unlock()

	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- indexedJob[R]{index: index, job: job}:
		return true
	}
}

// Wait closes the queue, waits for every queued job and returns the
// results in submission order. Jobs that never ran leave a zero value;
// Completed tells them apart.
func (p *Pool[R]) Wait() []R {
	p.closeQueue()
	p.wg.Wait()
	p.cancelFunc()

	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]R(nil), p.results...)
}

// Completed reports which submitted jobs ran to completion
func (p *Pool[R]) Completed() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.done...)
}

// Shutdown stops the workers without waiting for queued jobs
func (p *Pool[R]) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
}

func (p *Pool[R]) closeQueue() {
	p.closeOnce.Do(func() {
		close(p.jobQueue)
	})
}

// Map applies fn to every input on up to workers goroutines and returns
// the outputs in input order
func Map[T, R any](ctx context.Context, workers int, inputs []T, fn func(ctx context.Context, in T) R) []R {
	if len(inputs) == 0 {
		return []R{}
	}

	pool := NewPool[R](ctx, min(workers, len(inputs)))
	pool.Start()
	for _, in := range inputs {
		pool.Submit(JobFunc[R](func(ctx context.Context) R {
			return fn(ctx, in)
		}))
	}
	return pool.Wait()
}
