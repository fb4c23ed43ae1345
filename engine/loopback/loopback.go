// Package loopback provides an in-process Engine implementation. It
// decodes wire envelopes, routes them to registered method handlers, and
// resolves requests synchronously on the owner goroutine. It exists for
// tests, examples, and embedding courier without a network transport.
package loopback

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/xraph/courier/engine"
	"github.com/xraph/courier/id"
	"github.com/xraph/courier/wire"
)

// Handler processes the data of one decoded envelope and returns the raw
// response body, or an engine error.
type Handler func(data []byte) ([]byte, *engine.Error)

// Engine is a single-threaded in-process engine. Like every
// engine.Engine, it is not safe for concurrent use: all methods must run
// on the owner goroutine.
type Engine struct {
	codec     wire.Codec
	logger    *slog.Logger
	handlers  map[string]Handler
	limiter   *rate.Limiter
	floodHint time.Duration

	suspended  bool
	waiting    []*inflight
	unresolved map[id.RequestID]bool
	dependents map[id.RequestID][]*inflight
}

// inflight is one request the engine has accepted but not yet resolved.
type inflight struct {
	rid      id.RequestID
	payload  []byte
	handlers engine.ResponseHandlers
	opts     engine.SendOptions
	accepted time.Time
}

// Option configures a loopback Engine.
type Option func(*Engine)

// WithFloodLimit installs a token-bucket limiter; requests dequeued past
// the sustained rate fail with a FLOOD_WAIT error.
func WithFloodLimit(limit rate.Limit, burst int) Option {
	return func(e *Engine) {
		e.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithFloodWaitHint sets the wait hint carried by FLOOD_WAIT errors.
// Defaults to one second.
func WithFloodWaitHint(d time.Duration) Option {
	return func(e *Engine) { e.floodHint = d }
}

// New creates a loopback engine speaking the given codec.
func New(codec wire.Codec, logger *slog.Logger, opts ...Option) *Engine {
	if codec == nil {
		codec = wire.GetCodec("")
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		codec:      codec,
		logger:     logger,
		handlers:   make(map[string]Handler),
		floodHint:  time.Second,
		unresolved: make(map[id.RequestID]bool),
		dependents: make(map[id.RequestID][]*inflight),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle registers the handler for a method. Register all handlers before
// the engine is installed on a host.
func (e *Engine) Handle(method string, h Handler) {
	e.handlers[method] = h
}

// Suspend holds incoming requests instead of resolving them, emulating an
// engine that cannot currently service traffic. Requests whose CanWait
// budget runs out while suspended fail with RPC_CALL_TIMEOUT on Resume.
func (e *Engine) Suspend() { e.suspended = true }

// Resume delivers every request held while suspended, in arrival order.
func (e *Engine) Resume() {
	e.suspended = false
	waiting := e.waiting
	e.waiting = nil
	for _, req := range waiting {
		e.deliver(req)
	}
}

// SendSerialized implements engine.Engine.
func (e *Engine) SendSerialized(rid id.RequestID, payload []byte, handlers engine.ResponseHandlers, opts engine.SendOptions) {
	e.unresolved[rid] = true
	req := &inflight{
		rid:      rid,
		payload:  payload,
		handlers: handlers,
		opts:     opts,
		accepted: time.Now(),
	}

	// Hold behind an unresolved dependency; an unknown or already
	// resolved dependency imposes no ordering.
	if !opts.After.IsNone() && e.unresolved[opts.After] {
		e.dependents[opts.After] = append(e.dependents[opts.After], req)
		return
	}

	e.dispatch(req)
}

// Cancel implements engine.Engine. Cancelled requests are dropped without
// resolving; requests ordered after them are released.
func (e *Engine) Cancel(rid id.RequestID) {
	if !e.unresolved[rid] {
		return
	}
	delete(e.unresolved, rid)
	e.release(rid)
}

func (e *Engine) dispatch(req *inflight) {
	if e.suspended {
		e.waiting = append(e.waiting, req)
		return
	}
	e.deliver(req)
}

func (e *Engine) deliver(req *inflight) {
	if !e.unresolved[req.rid] {
		// Cancelled while held.
		return
	}

	if req.opts.CanWait > 0 && time.Since(req.accepted) > req.opts.CanWait {
		e.resolve(req, nil, engine.NewError(408, "RPC_CALL_TIMEOUT", "wait budget exhausted"))
		return
	}

	if e.limiter != nil && !e.limiter.Allow() {
		seconds := int(e.floodHint / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		e.resolve(req, nil, engine.NewError(
			engine.CodeFlood,
			fmt.Sprintf("FLOOD_WAIT_%d", seconds),
			"loopback rate limit exceeded",
		))
		return
	}

	env, err := e.codec.Decode(req.payload)
	if err != nil {
		e.resolve(req, nil, engine.NewError(400, "PAYLOAD_DECODE_FAILED", err.Error()))
		return
	}

	h := e.handlers[env.Method]
	if h == nil {
		e.resolve(req, nil, engine.NewError(405, "METHOD_NOT_FOUND", env.Method))
		return
	}

	body, rpcErr := h(env.Data)
	e.resolve(req, body, rpcErr)
}

func (e *Engine) resolve(req *inflight, body []byte, rpcErr *engine.Error) {
	delete(e.unresolved, req.rid)

	switch {
	case rpcErr != nil:
		if req.handlers.Fail == nil || !req.handlers.Fail(req.rid, rpcErr) {
			// Not consumed by the caller; default handling is to log.
			e.logger.Debug("request error left to engine",
				slog.String("request_id", req.rid.String()),
				slog.String("type", rpcErr.Type),
			)
		}
	case req.handlers.Done != nil:
		req.handlers.Done(req.rid, body)
	}

	e.release(req.rid)
}

// release dispatches requests that were ordered after rid.
func (e *Engine) release(rid id.RequestID) {
	deps := e.dependents[rid]
	if len(deps) == 0 {
		return
	}
	delete(e.dependents, rid)
	for _, d := range deps {
		e.dispatch(d)
	}
}
