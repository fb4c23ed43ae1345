package courier

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/courier/engine"
	"github.com/xraph/courier/ext"
	"github.com/xraph/courier/id"
)

// Runner delivers a continuation onto the caller's intended execution
// context. It must execute the continuation eventually and exactly once,
// and must not run it inline on the owner goroutine if caller isolation
// is wanted (an inline runner is still valid and useful in tests).
type Runner func(fn func())

// EngineHost is the owner execution context the sender schedules
// engine-side work onto. *engine.Host satisfies it.
type EngineHost interface {
	// Schedule queues fn for execution on the owner goroutine without
	// blocking the caller.
	Schedule(fn func())

	// Current returns the installed engine instance, or nil if none.
	Current() engine.Engine
}

// DoneHandler consumes a successful response body. Returning an error
// marks the body malformed; the sender redirects it into the fail path
// as a RESPONSE_PARSE_FAILED error.
type DoneHandler func(rid id.RequestID, body []byte) error

// FailHandler consumes a request failure. The return value reports
// whether the error was handled here or should propagate further.
type FailHandler func(rid id.RequestID, rpcErr *engine.Error) bool

// Handlers is the caller's callback pair for one request. Either field
// may be nil when the caller has no interest in that outcome.
type Handlers struct {
	Done DoneHandler
	Fail FailHandler
}

// pendingRequest is one entry in the sender's in-flight map.
type pendingRequest struct {
	handlers     Handlers
	route        engine.Route
	registeredAt time.Time
}

// Sender issues asynchronous requests against the engine installed on an
// EngineHost. It is safe for concurrent use from any number of caller
// goroutines. The Sender owns the pending-request map exclusively: an
// entry is inserted by request registration and removed by exactly one of
// completion, failure, Cancel, Detach or Close.
type Sender struct {
	host   EngineHost
	runner Runner
	logger *slog.Logger
	route  engine.Route

	extList []ext.Extension
	exts    *ext.Registry

	alive     atomic.Bool
	closeOnce sync.Once

	mu      sync.Mutex
	pending map[id.RequestID]pendingRequest
}

// New creates a Sender bound to the given engine host. runner delivers
// completion and failure continuations onto the caller's execution
// context.
func New(host EngineHost, runner Runner, opts ...Option) (*Sender, error) {
	if host == nil {
		return nil, ErrNoHost
	}
	if runner == nil {
		return nil, ErrNoRunner
	}

	s := &Sender{
		host:    host,
		runner:  runner,
		logger:  slog.Default(),
		pending: make(map[id.RequestID]pendingRequest),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.exts = ext.NewRegistry(s.logger)
	for _, e := range s.extList {
		s.exts.Register(e)
	}

	s.alive.Store(true)
	return s, nil
}

// Pending returns the number of in-flight requests.
func (s *Sender) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Cancel forgets the request locally and asks the engine to cancel it
// remotely. Safe to call for requests that already resolved or were never
// registered.
func (s *Sender) Cancel(rid id.RequestID) {
	if req, ok := s.take(rid); ok {
		s.exts.EmitRequestCancelled(ext.Request{ID: rid, Route: req.route})
	}
	s.withEngine(func(e engine.Engine) {
		e.Cancel(rid)
	})
}

// CancelAll forgets every pending request and asks the engine to cancel
// each of them remotely. The id list is snapshotted before the map is
// cleared, so registrations racing with CancelAll either make the
// snapshot or stay pending — none are half-cancelled.
func (s *Sender) CancelAll() {
	s.mu.Lock()
	snapshot := make([]ext.Request, 0, len(s.pending))
	for rid, req := range s.pending {
		snapshot = append(snapshot, ext.Request{ID: rid, Route: req.route})
	}
	clear(s.pending)
	s.mu.Unlock()

	for _, req := range snapshot {
		s.exts.EmitRequestCancelled(req)
	}
	if len(snapshot) == 0 {
		return
	}

	s.withEngine(func(e engine.Engine) {
		for _, req := range snapshot {
			e.Cancel(req.ID)
		}
	})
}

// Detach forgets the request locally without notifying the engine. Use it
// when the caller abandons interest in the outcome but wants the request
// itself to keep running.
func (s *Sender) Detach(rid id.RequestID) {
	if req, ok := s.take(rid); ok {
		s.exts.EmitRequestDetached(ext.Request{ID: rid, Route: req.route})
	}
}

// Close cancels all pending requests and marks the sender dead: response
// continuations that run after Close observe the dead sender and drop
// their result. Close is idempotent.
func (s *Sender) Close() {
	s.closeOnce.Do(func() {
		s.alive.Store(false)
		s.CancelAll()
		s.exts.EmitSenderClosed()
		s.logger.Debug("sender closed")
	})
}

// isAlive reports whether the sender may still deliver into handlers.
// Response adapter continuations check it before touching the sender,
// which keeps a torn-down sender safe even if teardown ordering raced.
func (s *Sender) isAlive() bool { return s.alive.Load() }

// register inserts the handler pair for a new request. It runs
// synchronously on the goroutine that builds the request, before the
// request is handed to the engine, so an arbitrarily fast response can
// never find the map empty.
func (s *Sender) register(rid id.RequestID, handlers Handlers, route engine.Route) {
	s.mu.Lock()
	s.pending[rid] = pendingRequest{
		handlers:     handlers,
		route:        route,
		registeredAt: time.Now(),
	}
	s.mu.Unlock()

	s.exts.EmitRequestRegistered(ext.Request{ID: rid, Route: route})
}

// take removes and returns the pending entry for rid, if present.
func (s *Sender) take(rid id.RequestID) (pendingRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.pending[rid]
	if ok {
		delete(s.pending, rid)
	}
	return req, ok
}

// complete resolves a request with a successful response body. A missing
// entry (already cancelled or detached) is absorbed silently. When the
// done handler rejects the body, the failure is redirected into the fail
// handler as a RESPONSE_PARSE_FAILED error rather than swallowed.
func (s *Sender) complete(rid id.RequestID, body []byte) {
	req, ok := s.take(rid)
	if !ok {
		return
	}
	elapsed := time.Since(req.registeredAt)
	info := ext.Request{ID: rid, Route: req.route}

	if err := invokeDone(rid, req.handlers.Done, body); err != nil {
		rpcErr := engine.ClientError("RESPONSE_PARSE_FAILED", err.Error())
		s.logger.Debug("response rejected by done handler",
			slog.String("request_id", rid.String()),
			slog.String("error", err.Error()),
		)
		if req.handlers.Fail != nil {
			req.handlers.Fail(rid, rpcErr)
		}
		s.exts.EmitRequestFailed(info, rpcErr, elapsed)
		return
	}

	s.exts.EmitRequestCompleted(info, len(body), elapsed)
}

// fail resolves a request with an engine error. A missing entry is
// absorbed silently.
func (s *Sender) fail(rid id.RequestID, rpcErr *engine.Error) {
	req, ok := s.take(rid)
	if !ok {
		return
	}
	elapsed := time.Since(req.registeredAt)

	if req.handlers.Fail != nil {
		req.handlers.Fail(rid, rpcErr)
	}
	s.exts.EmitRequestFailed(ext.Request{ID: rid, Route: req.route}, rpcErr, elapsed)
}

// withEngine schedules fn onto the owner goroutine; it runs only if an
// engine instance is installed by the time the closure executes.
func (s *Sender) withEngine(fn func(engine.Engine)) {
	s.host.Schedule(func() {
		if e := s.host.Current(); e != nil {
			fn(e)
		}
	})
}

// invokeDone runs the done handler, converting a panic into an error so a
// malformed payload can neither crash the runner goroutine nor vanish.
func invokeDone(rid id.RequestID, done DoneHandler, body []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in done handler for request %s: %v", rid, r)
		}
	}()
	if done == nil {
		return nil
	}
	return done(rid, body)
}
