// Package workerpool provides a bounded pool of goroutines for fan-out work.
package workerpool

import "sync"

// DefaultWorkers is used when a pool is created with a non-positive size.
const DefaultWorkers = 4

// WorkerPool distributes jobs across a fixed number of workers and collects results.
type WorkerPool[Job any, Result any] struct {
	numWorkers int
	jobs       chan Job
	results    chan Result
	wg         sync.WaitGroup
}

// NewWorkerPool creates a pool with numWorkers workers, never more than numJobs.
// Both channels are buffered to numJobs so Submit does not block when the
// caller knows the job count up front.
func NewWorkerPool[Job any, Result any](numWorkers, numJobs int) *WorkerPool[Job, Result] {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	if numJobs > 0 {
		numWorkers = min(numWorkers, numJobs)
	}

	return &WorkerPool[Job, Result]{
		numWorkers: numWorkers,
		jobs:       make(chan Job, numJobs),
		results:    make(chan Result, numJobs),
	}
}

// Start launches the workers. workerFn is called once per job.
func (p *WorkerPool[Job, Result]) Start(workerFn func(Job) Result) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.results <- workerFn(job)
			}
		}()
	}
}

// Submit adds a job to the queue.
func (p *WorkerPool[Job, Result]) Submit(job Job) {
	p.jobs <- job
}

// Close stops accepting jobs. Results is closed once every worker has finished.
func (p *WorkerPool[Job, Result]) Close() {
	close(p.jobs)
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// Results returns the channel of worker outputs, in completion order.
func (p *WorkerPool[Job, Result]) Results() <-chan Result {
	return p.results
}

// Workers reports how many goroutines the pool runs.
func (p *WorkerPool[Job, Result]) Workers() int {
	return p.numWorkers
}

type indexed[T any] struct {
	i int
	v T
}

// Map runs fn over jobs on a pool of at most workers goroutines and returns
// the results in job order, whatever order they complete in.
func Map[Job any, Result any](workers int, jobs []Job, fn func(Job) Result) []Result {
	out := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return out
	}

	pool := NewWorkerPool[indexed[Job], indexed[Result]](workers, len(jobs))
	pool.Start(func(j indexed[Job]) indexed[Result] {
		return indexed[Result]{i: j.i, v: fn(j.v)}
	})
	for i, job := range jobs {
		pool.Submit(indexed[Job]{i: i, v: job})
	}
	pool.Close()

	for r := range pool.Results() {
		out[r.i] = r.v
	}
	return out
}
