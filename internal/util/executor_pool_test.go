package util

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestExecutorPool_RunsAllTasks(t *testing.T) {
	var sum int64
	pool := NewExecutorPool(4, 2, func(task any) {
		atomic.AddInt64(&sum, int64(task.(int)))
	})
	for i := 1; i <= 100; i++ {
		pool.Submit(i)
	}
	pool.Close()

	if sum != 5050 {
		t.Fatalf("Expected sum 5050, got %d", sum)
	}
}

func TestExecutorPool_BoundedConcurrency(t *testing.T) {
	var mu sync.Mutex
	running, peak := 0, 0
	release := make(chan struct{})

	pool := NewExecutorPool(2, 0, func(task any) {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		mu.Unlock()
		<-release
		mu.Lock()
		running--
		mu.Unlock()
	})

	go func() {
		for i := 0; i < 6; i++ {
			release <- struct{}{}
		}
	}()
	for i := 0; i < 6; i++ {
		pool.Submit(i)
	}
	pool.Close()

	if peak > 2 {
		t.Fatalf("Expected at most 2 concurrent tasks, got %d", peak)
	}
}

func TestExecutorPool_CloseIsIdempotent(t *testing.T) {
	pool := NewExecutorPool(0, -1, func(task any) {})
	pool.Submit("x")
	pool.Close()
	pool.Close()
}
