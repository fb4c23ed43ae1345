package engine

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
)

// DefaultQueueSize is the default capacity of the host task queue.
const DefaultQueueSize = 1024

// Host is the owner execution context for an Engine: a single goroutine
// that runs scheduled closures in FIFO order. It also tracks the
// currently installed Engine instance, which may be absent at any time.
//
// Schedule never blocks the caller; the engine side of courier is built
// entirely out of closures handed to the Host.
type Host struct {
	logger    *slog.Logger
	tasks     chan func()
	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
	stopped   bool
	current   Engine
	currentMu sync.Mutex
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithQueueSize sets the capacity of the task queue.
func WithQueueSize(n int) HostOption {
	return func(h *Host) {
		if n > 0 {
			h.tasks = make(chan func(), n)
		}
	}
}

// NewHost creates an owner context. Tasks scheduled before Start are
// queued and run once the loop starts.
func NewHost(logger *slog.Logger, opts ...HostOption) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Host{
		logger: logger,
		tasks:  make(chan func(), DefaultQueueSize),
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start launches the owner goroutine. It returns immediately.
func (h *Host) Start(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running || h.stopped {
		return nil
	}
	h.running = true

	h.wg.Add(1)
	go h.loop()
	return nil
}

// Stop shuts the owner goroutine down. Queued tasks that have not run by
// the time the loop observes the stop signal are never run. Waits for the
// loop to exit or the context deadline, whichever comes first.
func (h *Host) Stop(ctx context.Context) error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = false
	h.stopped = true
	h.mu.Unlock()

	close(h.stopCh)

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		h.logger.Warn("owner loop shutdown timed out")
		return ctx.Err()
	}
	return nil
}

// Schedule queues fn for execution on the owner goroutine. It never
// blocks: when the queue is full the task is dropped with a warning,
// consistent with the fire-and-forget engine contract.
func (h *Host) Schedule(fn func()) {
	select {
	case h.tasks <- fn:
	default:
		h.logger.Warn("owner queue full, dropping task")
	}
}

// Install makes e the current engine instance. Safe from any goroutine.
func (h *Host) Install(e Engine) {
	h.currentMu.Lock()
	h.current = e
	h.currentMu.Unlock()
}

// Uninstall clears the current engine instance. Closures scheduled after
// this observe no engine and become no-ops.
func (h *Host) Uninstall() {
	h.Install(nil)
}

// Current returns the installed engine instance, or nil if none.
func (h *Host) Current() Engine {
	h.currentMu.Lock()
	defer h.currentMu.Unlock()
	return h.current
}

func (h *Host) loop() {
	defer h.wg.Done()

	for {
		select {
		case <-h.stopCh:
			return
		case fn := <-h.tasks:
			h.run(fn)
		}
	}
}

// run executes one task, containing panics so a misbehaving closure
// cannot take the owner loop down with it.
func (h *Host) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("owner task panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	fn()
}
