package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type testJob struct {
	id      int
	fail    bool
	delay   time.Duration
	counter *atomic.Int64
}

type testResult struct {
	id  int
	err error
}

func (r *testResult) GetError() error { return r.err }

func (j *testJob) Execute(ctx context.Context) Result {
	if j.delay > 0 {
		select {
		case <-time.After(j.delay):
		case <-ctx.Done():
			return &testResult{id: j.id, err: ctx.Err()}
		}
	}
	if j.counter != nil {
		j.counter.Add(1)
	}
	if j.fail {
		return &testResult{id: j.id, err: errors.New("job failed")}
	}
	return &testResult{id: j.id}
}

func TestPool_ExecutesAllJobs(t *testing.T) {
	pool := NewPool(context.Background(), 4)
	pool.Start()

	var counter atomic.Int64
	go func() {
		for i := 0; i < 20; i++ {
			pool.Submit(&testJob{id: i, counter: &counter})
		}
		pool.Close()
	}()

	results := pool.Wait()

	if len(results) != 20 {
		t.Errorf("Expected 20 results, got %d", len(results))
	}
	if counter.Load() != 20 {
		t.Errorf("Expected 20 executions, got %d", counter.Load())
	}
}

func TestPool_ManyJobsFewWorkersCompletes(t *testing.T) {
	// One worker, 30 jobs: far more than the queue and result buffers
	// hold. Submission and draining must overlap or the pool stalls.
	pool := NewPool(context.Background(), 1)
	pool.Start()

	var counter atomic.Int64
	go func() {
		for i := 0; i < 30; i++ {
			pool.Submit(&testJob{id: i, counter: &counter})
		}
		pool.Close()
	}()

	done := make(chan []Result, 1)
	go func() { done <- pool.Wait() }()

	select {
	case results := <-done:
		if len(results) != 30 {
			t.Errorf("Expected 30 results, got %d", len(results))
		}
		if counter.Load() != 30 {
			t.Errorf("Expected 30 executions, got %d", counter.Load())
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Pool stalled with 30 jobs on a 1-worker pool")
	}
}

func TestPool_FailuresIsolated(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	go func() {
		for i := 0; i < 10; i++ {
			pool.Submit(&testJob{id: i, fail: i%2 == 0})
		}
		pool.Close()
	}()

	results := pool.Wait()

	failures := 0
	for _, r := range results {
		if r.GetError() != nil {
			failures++
		}
	}
	if failures != 5 {
		t.Errorf("Expected 5 failures, got %d", failures)
	}
	if len(results) != 10 {
		t.Errorf("Expected all 10 results, got %d", len(results))
	}
}

func TestPool_ZeroWorkersDefaultsToOne(t *testing.T) {
	pool := NewPool(context.Background(), 0)
	pool.Start()

	pool.Submit(&testJob{id: 1})
	pool.Close()
	results := pool.Wait()

	if len(results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(results))
	}
}

func TestPool_ContextCancellationUnblocks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	pool.Start()

	go func() {
		for i := 0; i < 30; i++ {
			pool.Submit(&testJob{id: i, delay: time.Hour})
		}
		pool.Close()
	}()

	time.AfterFunc(50*time.Millisecond, cancel)

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Wait did not return after context cancellation")
	}
}

func TestPool_ShutdownStopsWorkers(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	pool.Submit(&testJob{id: 1, delay: 50 * time.Millisecond})
	pool.Shutdown()

	// Submitting after shutdown must not block or panic.
	done := make(chan struct{})
	go func() {
		pool.Submit(&testJob{id: 2})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Submit blocked after shutdown")
	}
}
