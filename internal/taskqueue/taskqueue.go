// Package taskqueue runs background work on a fixed set of worker goroutines.
//
// Callers enqueue a function and return immediately. Failures never reach the
// caller that enqueued the task; they are recorded on the task and handed to
// the queue's error sink.
package taskqueue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// TaskType identifies the kind of task.
type TaskType string

const (
	TaskCacheWrite TaskType = "cache_write"
	TaskWarm       TaskType = "warm"
)

// Status values for Task.Status.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Func is the work a task performs.
type Func func(ctx context.Context) (any, error)

// Task represents an async task in the queue.
type Task struct {
	ID         string    `json:"id"`
	Type       TaskType  `json:"type"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Result     any       `json:"result,omitempty"`
	QueuedAt   time.Time `json:"queued_at"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`

	fn Func
}

// ErrorSink receives every failed task.
type ErrorSink func(task Task, err error)

// Options configures a Queue.
type Options struct {
	// Workers is the number of concurrent tasks. Defaults to 2.
	Workers int

	// MaxHistory bounds the finished tasks kept for inspection. Defaults to 50.
	MaxHistory int

	// OnError is called for every failed task, from the worker goroutine.
	OnError ErrorSink
}

// Queue manages async tasks.
type Queue struct {
	mu        sync.RWMutex
	tasks     map[string]*Task
	queue     []string
	history   []*Task
	maxHist   int
	idCounter uint64
	onError   ErrorSink

	notify   chan struct{}
	shutdown chan struct{}
	closed   bool
	wg       sync.WaitGroup
	pending  int
	idle     *sync.Cond
	workers  int
}

// New starts a queue and its workers.
func New(opts Options) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = 50
	}

	q := &Queue{
		tasks:    make(map[string]*Task),
		maxHist:  opts.MaxHistory,
		onError:  opts.OnError,
		notify:   make(chan struct{}, opts.Workers),
		shutdown: make(chan struct{}),
		workers:  opts.Workers,
	}
	q.idle = sync.NewCond(&q.mu)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

func (q *Queue) generateID() string {
	id := atomic.AddUint64(&q.idCounter, 1)
	return fmt.Sprintf("task-%d-%d", time.Now().UnixNano(), id)
}

// Add enqueues fn and returns a snapshot of the queued task. After Close the
// task is recorded as failed without running.
func (q *Queue) Add(taskType TaskType, name string, fn Func) Task {
	q.mu.Lock()
	task := &Task{
		ID:       q.generateID(),
		Type:     taskType,
		Name:     name,
		Status:   StatusQueued,
		QueuedAt: time.Now(),
		fn:       fn,
	}
	q.tasks[task.ID] = task

	if q.closed {
		task.Status = StatusFailed
		task.Error = "queue closed"
		task.FinishedAt = task.QueuedAt
		q.pushHistory(task)
		snapshot := *task
		q.mu.Unlock()
		q.reportError(snapshot, fmt.Errorf("queue closed"))
		return snapshot
	}

	q.queue = append(q.queue, task.ID)
	q.pending++
	snapshot := *task
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return snapshot
}

// Get returns a snapshot of a task by ID.
func (q *Queue) Get(id string) (Task, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if task, ok := q.tasks[id]; ok {
		return *task, true
	}
	return Task{}, false
}

// Status is a point-in-time view of the queue.
type Status struct {
	Running []Task `json:"running"`
	Queued  []Task `json:"queued"`
	History []Task `json:"history"`
}

// Status returns the current queue status.
func (q *Queue) Status() Status {
	q.mu.RLock()
	defer q.mu.RUnlock()

	st := Status{Running: []Task{}, Queued: []Task{}, History: make([]Task, 0, len(q.history))}
	for _, id := range q.queue {
		task, ok := q.tasks[id]
		if !ok {
			continue
		}
		switch task.Status {
		case StatusRunning:
			st.Running = append(st.Running, *task)
		case StatusQueued:
			st.Queued = append(st.Queued, *task)
		}
	}
	for _, task := range q.history {
		st.History = append(st.History, *task)
	}
	return st
}

// ClearHistory drops finished tasks.
func (q *Queue) ClearHistory() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, task := range q.history {
		delete(q.tasks, task.ID)
	}
	q.history = nil
}

// Wait blocks until every task enqueued so far has finished.
func (q *Queue) Wait() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.pending > 0 {
		q.idle.Wait()
	}
}

// Close waits for queued work to finish, then stops the workers.
// Tasks added after Close fail immediately.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.Wait()
	close(q.shutdown)
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for {
		if task := q.getNextTask(); task != nil {
			q.runTask(task)
			continue
		}
		select {
		case <-q.shutdown:
			return
		case <-q.notify:
		}
	}
}

// getNextTask returns and marks the next queued task as running.
func (q *Queue) getNextTask() *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, id := range q.queue {
		if task, ok := q.tasks[id]; ok && task.Status == StatusQueued {
			task.Status = StatusRunning
			task.StartedAt = time.Now()
			return task
		}
	}
	return nil
}

func (q *Queue) runTask(task *Task) {
	result, err := q.call(task)

	q.mu.Lock()
	task.FinishedAt = time.Now()
	if err != nil {
		task.Status = StatusFailed
		task.Error = err.Error()
	} else {
		task.Status = StatusCompleted
		task.Result = result
	}
	q.moveToHistory(task.ID)
	snapshot := *task
	q.mu.Unlock()

	if err != nil {
		q.reportError(snapshot, err)
	}

	q.mu.Lock()
	q.pending--
	if q.pending == 0 {
		q.idle.Broadcast()
	}
	q.mu.Unlock()
}

// call runs the task function, converting a panic into a task failure.
func (q *Queue) call(task *Task) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	if task.fn == nil {
		return nil, fmt.Errorf("task %s has no function", task.ID)
	}
	return task.fn(context.Background())
}

func (q *Queue) reportError(task Task, err error) {
	if q.onError != nil {
		q.onError(task, err)
	}
}

// moveToHistory moves a finished task to history (must hold lock).
func (q *Queue) moveToHistory(id string) {
	for i, qid := range q.queue {
		if qid == id {
			q.queue = append(q.queue[:i], q.queue[i+1:]...)
			break
		}
	}
	if task, ok := q.tasks[id]; ok {
		q.pushHistory(task)
	}
}

// pushHistory prepends task and trims the ring (must hold lock).
func (q *Queue) pushHistory(task *Task) {
	task.fn = nil
	q.history = append([]*Task{task}, q.history...)
	if len(q.history) > q.maxHist {
		for _, old := range q.history[q.maxHist:] {
			delete(q.tasks, old.ID)
		}
		q.history = q.history[:q.maxHist]
	}
}
