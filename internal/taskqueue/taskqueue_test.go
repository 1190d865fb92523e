package taskqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestAddRunsTask(t *testing.T) {
	q := New(Options{Workers: 2})
	defer q.Close()

	var ran atomic.Int32
	task := q.Add(TaskCacheWrite, "gn:1:nvi", func(ctx context.Context) (any, error) {
		ran.Add(1)
		return "ok", nil
	})
	if task.Status != StatusQueued {
		t.Errorf("initial status = %q, want queued", task.Status)
	}

	q.Wait()

	if ran.Load() != 1 {
		t.Fatalf("task ran %d times, want 1", ran.Load())
	}
	got, ok := q.Get(task.ID)
	if !ok {
		t.Fatal("finished task should stay in history")
	}
	if got.Status != StatusCompleted || got.Result != "ok" {
		t.Errorf("task = %+v", got)
	}
	if got.FinishedAt.Before(got.StartedAt) {
		t.Error("FinishedAt before StartedAt")
	}
}

func TestFailuresGoToSink(t *testing.T) {
	var (
		mu     sync.Mutex
		failed []string
	)
	q := New(Options{Workers: 1, OnError: func(task Task, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, task.Name+": "+err.Error())
	}})
	defer q.Close()

	q.Add(TaskCacheWrite, "a", func(ctx context.Context) (any, error) { return nil, errors.New("disk full") })
	q.Add(TaskCacheWrite, "b", func(ctx context.Context) (any, error) { panic("boom") })
	q.Add(TaskCacheWrite, "c", func(ctx context.Context) (any, error) { return nil, nil })
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(failed) != 2 {
		t.Fatalf("sink saw %d failures, want 2: %v", len(failed), failed)
	}
	if failed[0] != "a: disk full" {
		t.Errorf("first failure = %q", failed[0])
	}
	if failed[1] != "b: task panicked: boom" {
		t.Errorf("second failure = %q", failed[1])
	}

	st := q.Status()
	if len(st.History) != 3 || len(st.Running) != 0 || len(st.Queued) != 0 {
		t.Errorf("status = %d running, %d queued, %d history", len(st.Running), len(st.Queued), len(st.History))
	}
	if st.History[0].Name != "c" {
		t.Errorf("history should be newest first, got %q", st.History[0].Name)
	}
}

func TestAddDoesNotBlock(t *testing.T) {
	q := New(Options{Workers: 1})
	defer q.Close()

	release := make(chan struct{})
	start := time.Now()
	for i := 0; i < 10; i++ {
		q.Add(TaskCacheWrite, "slow", func(ctx context.Context) (any, error) {
			<-release
			return nil, nil
		})
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Add blocked for %v", elapsed)
	}
	close(release)
	q.Wait()
}

func TestHistoryIsBounded(t *testing.T) {
	q := New(Options{Workers: 1, MaxHistory: 3})
	defer q.Close()

	var first Task
	for i := 0; i < 5; i++ {
		task := q.Add(TaskCacheWrite, "x", func(ctx context.Context) (any, error) { return nil, nil })
		if i == 0 {
			first = task
		}
	}
	q.Wait()

	if got := len(q.Status().History); got != 3 {
		t.Errorf("history len = %d, want 3", got)
	}
	if _, ok := q.Get(first.ID); ok {
		t.Error("oldest task should have been trimmed")
	}

	q.ClearHistory()
	if got := len(q.Status().History); got != 0 {
		t.Errorf("history len after clear = %d", got)
	}
}

func TestCloseDrainsAndRejects(t *testing.T) {
	var rejected atomic.Int32
	q := New(Options{Workers: 2, OnError: func(Task, error) { rejected.Add(1) }})

	var ran atomic.Int32
	for i := 0; i < 20; i++ {
		q.Add(TaskCacheWrite, "w", func(ctx context.Context) (any, error) {
			time.Sleep(time.Millisecond)
			ran.Add(1)
			return nil, nil
		})
	}
	q.Close()
	q.Close()

	if ran.Load() != 20 {
		t.Errorf("ran = %d, want 20 (Close should drain)", ran.Load())
	}

	task := q.Add(TaskCacheWrite, "late", func(ctx context.Context) (any, error) { return nil, nil })
	if task.Status != StatusFailed {
		t.Errorf("task after Close status = %q, want failed", task.Status)
	}
	if rejected.Load() != 1 {
		t.Errorf("sink saw %d rejections, want 1", rejected.Load())
	}
	q.Wait()
}

func TestConcurrentAddAndWait(t *testing.T) {
	q := New(Options{Workers: 4})
	defer q.Close()

	var wg sync.WaitGroup
	var ran atomic.Int32
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				q.Add(TaskCacheWrite, "c", func(ctx context.Context) (any, error) {
					ran.Add(1)
					return nil, nil
				})
				if i%10 == 0 {
					q.Wait()
				}
			}
		}()
	}
	wg.Wait()
	q.Wait()

	if ran.Load() != 200 {
		t.Errorf("ran = %d, want 200", ran.Load())
	}
}
