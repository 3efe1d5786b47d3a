package bridge

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLoopRunsTasksInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLoop(nil)
	go l.Run(ctx)

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		l.Dispatch(func(context.Context) {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}

	waitGroup(t, &wg)
	for i, v := range order {
		if v != i {
			t.Fatalf("Tasks ran out of order: %v", order)
		}
	}
}

func TestLoopSurvivesPanics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLoop(nil)
	go l.Run(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	l.Dispatch(func(context.Context) { panic("boom") })
	l.Dispatch(func(context.Context) { wg.Done() })
	waitGroup(t, &wg)
}

func TestLoopDispatchBeforeRun(t *testing.T) {
	l := NewLoop(nil)

	var wg sync.WaitGroup
	wg.Add(1)
	// Dispatch must not block even though nothing is draining yet.
	l.Dispatch(func(context.Context) { wg.Done() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	waitGroup(t, &wg)
}

func waitGroup(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for dispatched tasks")
	}
}
