// Package worker runs pipeline jobs on a fixed set of goroutines.
package worker

import (
	"context"
	"log"
	"runtime"
	"runtime/debug"
	"sync"
)

// Job is one unit of work. It runs even if ctx is already done and should honour it.
type Job func(ctx context.Context)

// Pool is a fixed-size worker pool with a bounded input queue. Submit never blocks.
type Pool struct {
	jobs chan queued
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

type queued struct {
	ctx context.Context
	job Job
}

// New creates a pool. size defaults to NumCPU and queue to size when <= 0.
func New(size, queue int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if queue <= 0 {
		queue = size
	}
	p := &Pool{jobs: make(chan queued, queue)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for q := range p.jobs {
				run(id, q)
			}
		}(i)
	}
}

func run(id int, q queued) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Worker %d: job panicked: %v\n%s", id, r, debug.Stack())
		}
	}()
	q.job(q.ctx)
}

// Submit enqueues job if there is room. Returns false if the queue is full or the pool is closed.
func (p *Pool) Submit(ctx context.Context, job Job) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- queued{ctx: ctx, job: job}:
		return true
	default:
		return false
	}
}

// Close stops accepting jobs and waits for queued and running jobs to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
