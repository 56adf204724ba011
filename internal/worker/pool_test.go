package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

// testJob sleeps briefly and records its index
type testJob struct {
	index int
	delay time.Duration
	fail  bool
}

type testResult struct {
	index int
	err   error
}

func (r *testResult) GetError() error { return r.err }
func (r *testResult) GetIndex() int   { return r.index }

func (j *testJob) Execute(ctx context.Context) Result {
	if j.delay > 0 {
		select {
		case <-time.After(j.delay):
		case <-ctx.Done():
			return &testResult{index: j.index, err: ctx.Err()}
		}
	}
	if j.fail {
		return &testResult{index: j.index, err: fmt.Errorf("job %d failed", j.index)}
	}
	return &testResult{index: j.index}
}

func TestPool_ExecutesAllJobs(t *testing.T) {
	pool := NewPool(3)
	pool.Start()

	for i := 0; i < 10; i++ {
		pool.Submit(&testJob{index: i})
	}
	results := pool.Wait()

	if len(results) != 10 {
		t.Fatalf("Expected 10 results, got %d", len(results))
	}
}

func TestPool_ResultsOrderedByIndex(t *testing.T) {
	pool := NewPool(4)
	pool.Start()

	// Earlier jobs sleep longer, so arrival order inverts submission order
	for i := 0; i < 5; i++ {
		pool.Submit(&testJob{index: i, delay: time.Duration(5-i) * 10 * time.Millisecond})
	}
	results := pool.Wait()

	if len(results) != 5 {
		t.Fatalf("Expected 5 results, got %d", len(results))
	}
	for i, r := range results {
		if r.GetIndex() != i {
			t.Errorf("Result %d carries index %d; expected submission order restored", i, r.GetIndex())
		}
	}
}

func TestPool_LargeBatchDoesNotDeadlock(t *testing.T) {
	// Far more jobs than the channel buffers hold: submission must not wedge
	// against an undrained results buffer.
	done := make(chan []Result, 1)
	go func() {
		pool := NewPool(2)
		pool.Start()
		for i := 0; i < 50; i++ {
			pool.Submit(&testJob{index: i, delay: time.Millisecond})
		}
		done <- pool.Wait()
	}()

	select {
	case results := <-done:
		if len(results) != 50 {
			t.Fatalf("Expected 50 results, got %d", len(results))
		}
		for i, r := range results {
			if r.GetIndex() != i {
				t.Errorf("Result %d carries index %d", i, r.GetIndex())
			}
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Pool deadlocked on a batch larger than its buffers")
	}
}

func TestPool_FailedJobsReported(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	pool.Submit(&testJob{index: 0})
	pool.Submit(&testJob{index: 1, fail: true})
	results := pool.Wait()

	if results[0].GetError() != nil {
		t.Errorf("Job 0 should succeed, got %v", results[0].GetError())
	}
	if results[1].GetError() == nil {
		t.Error("Job 1 should report its error")
	}
}

func TestPool_Shutdown(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	var started atomic.Int64
	for i := 0; i < 4; i++ {
		idx := i
		pool.Submit(&slowJob{index: idx, started: &started})
	}
	pool.Shutdown()
	// Shutdown must return without waiting for the full sleep of every job
}

type slowJob struct {
	index   int
	started *atomic.Int64
}

func (j *slowJob) Execute(ctx context.Context) Result {
	j.started.Add(1)
	select {
	case <-time.After(5 * time.Second):
	case <-ctx.Done():
	}
	return &testResult{index: j.index, err: ctx.Err()}
}
