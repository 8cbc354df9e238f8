// Package worker provides the concurrency primitives shared by the
// answering pipeline: a bounded job pool for evidence scoring and batch
// answering, and a per-endpoint rate limiter for external services.
package worker

import (
	"context"
	"sync"
)

// Job is one unit of pipeline work, such as scoring a single evidence
// item or answering one batch query.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of one job.
type Result interface {
	GetError() error
}

// Pool runs jobs over a fixed number of goroutines. Completion order is
// unspecified; callers that need ordering carry an index in their
// results. A pool is used for exactly one batch: Start, Submit the jobs,
// then Wait.
type Pool struct {
	size    int
	queue   chan Job
	results chan Result
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
}

// NewPool creates a pool with the given number of workers. Sizes below
// one fall back to a single worker.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		size:    size,
		queue:   make(chan Job, size*2),
		results: make(chan Result, size*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.queue:
			if !ok {
				return
			}
			select {
			case p.results <- job.Execute(p.ctx):
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. Submissions after Wait are dropped.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
	case p.queue <- job:
	}
}

// Wait closes the queue, drains every result, and releases the workers.
// It must be called exactly once, after all submissions.
func (p *Pool) Wait() []Result {
	close(p.queue)

	go func() {
		p.wg.Wait()
		p.once.Do(func() { close(p.results) })
	}()

	var results []Result
	for result := range p.results {
		results = append(results, result)
	}

	p.cancel()
	return results
}
