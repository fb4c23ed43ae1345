package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/xraph/courier/engine"
	"github.com/xraph/courier/id"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestHost_RunsTasksInOrder(t *testing.T) {
	h := engine.NewHost(nil)
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.Stop(context.Background())

	var mu sync.Mutex
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		h.Schedule(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 10
	})

	mu.Lock()
	defer mu.Unlock()
	for i, got := range order {
		if got != i {
			t.Errorf("order[%d] = %d, want %d", i, got, i)
		}
	}
}

func TestHost_TasksQueuedBeforeStartRunAfterStart(t *testing.T) {
	h := engine.NewHost(nil)

	done := make(chan struct{})
	h.Schedule(func() { close(done) })

	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.Stop(context.Background())

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("pre-start task never ran")
	}
}

func TestHost_InstallCurrentUninstall(t *testing.T) {
	h := engine.NewHost(nil)

	if got := h.Current(); got != nil {
		t.Errorf("Current() = %v, want nil before Install", got)
	}

	e := nopEngine{}
	h.Install(e)
	if got := h.Current(); got != e {
		t.Errorf("Current() = %v, want installed engine", got)
	}

	h.Uninstall()
	if got := h.Current(); got != nil {
		t.Errorf("Current() = %v, want nil after Uninstall", got)
	}
}

func TestHost_StopIsIdempotentAndFinal(t *testing.T) {
	h := engine.NewHost(nil)
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := h.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := h.Stop(context.Background()); err != nil {
		t.Errorf("second Stop() error = %v, want nil", err)
	}

	// Start after Stop is a no-op; a task scheduled now must not run.
	if err := h.Start(context.Background()); err != nil {
		t.Errorf("Start() after Stop error = %v, want nil", err)
	}
	ran := make(chan struct{})
	h.Schedule(func() { close(ran) })
	select {
	case <-ran:
		t.Error("task ran on a stopped host")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHost_PanicInTaskDoesNotKillLoop(t *testing.T) {
	h := engine.NewHost(nil)
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.Stop(context.Background())

	h.Schedule(func() { panic("boom") })

	survived := make(chan struct{})
	h.Schedule(func() { close(survived) })

	select {
	case <-survived:
	case <-time.After(3 * time.Second):
		t.Fatal("loop did not survive a panicking task")
	}
}

func TestHost_FullQueueDropsTask(t *testing.T) {
	// Not started, so nothing drains the queue.
	h := engine.NewHost(nil, engine.WithQueueSize(1))

	first := make(chan struct{})
	h.Schedule(func() { close(first) })

	dropped := make(chan struct{})
	h.Schedule(func() { close(dropped) }) // queue full, silently dropped

	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.Stop(context.Background())

	select {
	case <-first:
	case <-time.After(3 * time.Second):
		t.Fatal("queued task never ran")
	}
	select {
	case <-dropped:
		t.Error("overflow task ran, want dropped")
	case <-time.After(50 * time.Millisecond):
	}
}

// nopEngine satisfies engine.Engine for identity checks.
type nopEngine struct{}

func (nopEngine) SendSerialized(id.RequestID, []byte, engine.ResponseHandlers, engine.SendOptions) {
}

func (nopEngine) Cancel(id.RequestID) {}
