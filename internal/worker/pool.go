// Package worker provides the bounded pool that fans content items out to
// independent moderation workers. Concurrency exists only across items;
// one item is always processed by a single worker end to end.
package worker

import (
	"runtime"
	"sync"
)

// Pool manages concurrent content processing tasks
type Pool struct {
	workers   int
	jobQueue  chan func()
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Pool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Start initializes and starts all workers in the pool
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			go p.worker()
		}
	})
}

// worker processes jobs from the job queue
func (p *Pool) worker() {
	for job := range p.jobQueue {
		job()
		p.wg.Done()
	}
}

// Submit adds a job to the worker pool queue, blocking when the queue is
// full to apply backpressure to the producer.
func (p *Pool) Submit(job func()) {
	p.wg.Add(1)
	p.jobQueue <- job
}

// Wait waits for all submitted jobs to complete
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Close shuts down the worker pool. Pending jobs are still drained by the
// workers before their goroutines exit.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.jobQueue)
	})
}
