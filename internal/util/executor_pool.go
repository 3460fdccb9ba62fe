package util

import (
	"sync"
)

// ExecutorPool runs submitted tasks on a fixed number of worker goroutines
type ExecutorPool struct {
	tasks   chan any
	handler func(task any)
	wg      sync.WaitGroup
	once    sync.Once
}

// NewExecutorPool starts numWorkers workers reading from a queue of queueSize
func NewExecutorPool(numWorkers, queueSize int, handler func(task any)) *ExecutorPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	pool := &ExecutorPool{
		tasks:   make(chan any, queueSize),
		handler: handler,
	}
	for i := 0; i < numWorkers; i++ {
		pool.wg.Add(1)
		go func() {
			defer pool.wg.Done()
			for task := range pool.tasks {
				pool.handler(task)
			}
		}()
	}
	return pool
}

// Submit queues a task, blocking while the queue is full. Submitting after
// Close panics.
func (p *ExecutorPool) Submit(task any) {
	p.tasks <- task
}

// Close stops accepting tasks and waits for queued ones to finish
func (p *ExecutorPool) Close() {
	p.once.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
}
