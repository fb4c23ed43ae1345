// Package ext defines the extension system for courier.
//
// Extensions are notified of request lifecycle events and can react to
// them — recording metrics, tracing in-flight requests, writing audit
// logs. Each lifecycle hook is a separate interface so extensions opt in
// only to the events they care about. Hooks run synchronously on whatever
// goroutine drives the transition, so implementations must be fast and
// safe for concurrent use.
package ext

import (
	"time"

	"github.com/xraph/courier/engine"
	"github.com/xraph/courier/id"
)

// Request carries the identity of the request a hook fires for.
type Request struct {
	ID    id.RequestID
	Route engine.Route
}

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// RequestRegistered is called after a request is registered, before it is
// handed to the engine.
type RequestRegistered interface {
	OnRequestRegistered(req Request) error
}

// RequestCompleted is called after a request's done handler ran.
type RequestCompleted interface {
	OnRequestCompleted(req Request, size int, elapsed time.Duration) error
}

// RequestFailed is called after a request's fail handler ran.
type RequestFailed interface {
	OnRequestFailed(req Request, rpcErr *engine.Error, elapsed time.Duration) error
}

// RequestCancelled is called when a pending request is cancelled locally.
type RequestCancelled interface {
	OnRequestCancelled(req Request) error
}

// RequestDetached is called when a pending request is detached without
// engine notification.
type RequestDetached interface {
	OnRequestDetached(req Request) error
}

// SenderClosed is called once when a sender shuts down, after its pending
// requests were cancelled.
type SenderClosed interface {
	OnSenderClosed() error
}
