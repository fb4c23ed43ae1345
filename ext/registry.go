package ext

import (
	"log/slog"
	"time"

	"github.com/xraph/courier/engine"
	"github.com/xraph/courier/id"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type registeredEntry struct {
	name string
	hook RequestRegistered
}

type completedEntry struct {
	name string
	hook RequestCompleted
}

type failedEntry struct {
	name string
	hook RequestFailed
}

type cancelledEntry struct {
	name string
	hook RequestCancelled
}

type detachedEntry struct {
	name string
	hook RequestDetached
}

type closedEntry struct {
	name string
	hook SenderClosed
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
// Hook errors are logged, never propagated into the request path.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	registered []registeredEntry
	completed  []completedEntry
	failed     []failedEntry
	cancelled  []cancelledEntry
	detached   []detachedEntry
	closed     []closedEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order. Register
// is not safe to call concurrently with emits; register everything
// before the sender starts issuing requests.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(RequestRegistered); ok {
		r.registered = append(r.registered, registeredEntry{name, h})
	}
	if h, ok := e.(RequestCompleted); ok {
		r.completed = append(r.completed, completedEntry{name, h})
	}
	if h, ok := e.(RequestFailed); ok {
		r.failed = append(r.failed, failedEntry{name, h})
	}
	if h, ok := e.(RequestCancelled); ok {
		r.cancelled = append(r.cancelled, cancelledEntry{name, h})
	}
	if h, ok := e.(RequestDetached); ok {
		r.detached = append(r.detached, detachedEntry{name, h})
	}
	if h, ok := e.(SenderClosed); ok {
		r.closed = append(r.closed, closedEntry{name, h})
	}
}

// Extensions returns the registered extensions in registration order.
func (r *Registry) Extensions() []Extension { return r.extensions }

func (r *Registry) hookErr(name, hook string, rid id.RequestID, err error) {
	r.logger.Error("extension hook failed",
		slog.String("extension", name),
		slog.String("hook", hook),
		slog.String("request_id", rid.String()),
		slog.String("error", err.Error()),
	)
}

// EmitRequestRegistered notifies RequestRegistered hooks.
func (r *Registry) EmitRequestRegistered(req Request) {
	for _, e := range r.registered {
		if err := e.hook.OnRequestRegistered(req); err != nil {
			r.hookErr(e.name, "OnRequestRegistered", req.ID, err)
		}
	}
}

// EmitRequestCompleted notifies RequestCompleted hooks.
func (r *Registry) EmitRequestCompleted(req Request, size int, elapsed time.Duration) {
	for _, e := range r.completed {
		if err := e.hook.OnRequestCompleted(req, size, elapsed); err != nil {
			r.hookErr(e.name, "OnRequestCompleted", req.ID, err)
		}
	}
}

// EmitRequestFailed notifies RequestFailed hooks.
func (r *Registry) EmitRequestFailed(req Request, rpcErr *engine.Error, elapsed time.Duration) {
	for _, e := range r.failed {
		if err := e.hook.OnRequestFailed(req, rpcErr, elapsed); err != nil {
			r.hookErr(e.name, "OnRequestFailed", req.ID, err)
		}
	}
}

// EmitRequestCancelled notifies RequestCancelled hooks.
func (r *Registry) EmitRequestCancelled(req Request) {
	for _, e := range r.cancelled {
		if err := e.hook.OnRequestCancelled(req); err != nil {
			r.hookErr(e.name, "OnRequestCancelled", req.ID, err)
		}
	}
}

// EmitRequestDetached notifies RequestDetached hooks.
func (r *Registry) EmitRequestDetached(req Request) {
	for _, e := range r.detached {
		if err := e.hook.OnRequestDetached(req); err != nil {
			r.hookErr(e.name, "OnRequestDetached", req.ID, err)
		}
	}
}

// EmitSenderClosed notifies SenderClosed hooks.
func (r *Registry) EmitSenderClosed() {
	for _, e := range r.closed {
		if err := e.hook.OnSenderClosed(); err != nil {
			r.hookErr(e.name, "OnSenderClosed", id.None, err)
		}
	}
}
