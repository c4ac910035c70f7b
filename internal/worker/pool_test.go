package worker

import (
	"sync/atomic"
	"testing"
)

func TestPool_RunsAllSubmittedJobs(t *testing.T) {
	pool := NewPool(4)
	pool.Start()
	defer pool.Close()

	var counter int64
	for i := 0; i < 100; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&counter, 1)
		})
	}
	pool.Wait()

	if got := atomic.LoadInt64(&counter); got != 100 {
		t.Errorf("Expected 100 completed jobs, got %d", got)
	}
}

func TestPool_WaitWithNoJobs(t *testing.T) {
	pool := NewPool(2)
	pool.Start()
	defer pool.Close()

	pool.Wait()
}

func TestPool_DefaultsWorkerCount(t *testing.T) {
	pool := NewPool(0)
	if pool.workers <= 0 {
		t.Errorf("Expected a positive default worker count, got %d", pool.workers)
	}
}

func TestPool_StartAndCloseAreIdempotent(t *testing.T) {
	pool := NewPool(2)
	pool.Start()
	pool.Start()

	var counter int64
	pool.Submit(func() { atomic.AddInt64(&counter, 1) })
	pool.Wait()

	pool.Close()
	pool.Close()

	if atomic.LoadInt64(&counter) != 1 {
		t.Error("Expected the job to run exactly once")
	}
}
