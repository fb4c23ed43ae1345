package courier

import (
	"time"

	"github.com/xraph/courier/engine"
	"github.com/xraph/courier/id"
)

// RequestBuilder accumulates the parameters of one request and submits it
// with Send. A builder is single-use: Send consumes it, and reusing it
// afterwards is a programming error (it panics).
type RequestBuilder struct {
	sender   *Sender
	payload  []byte
	route    engine.Route
	canWait  time.Duration
	policy   FailSkipPolicy
	after    id.RequestID
	handlers Handlers
	sent     bool
}

// Request starts building a request around an already serialized payload.
// The payload bytes are opaque to the sender.
func (s *Sender) Request(payload []byte) *RequestBuilder {
	return &RequestBuilder{
		sender:  s,
		payload: payload,
		route:   s.route,
	}
}

// To sets the target route/shard for the request.
func (b *RequestBuilder) To(route engine.Route) *RequestBuilder {
	b.route = route
	return b
}

// CanWait sets how long the engine may hold the request before timing it
// out or reassigning it.
func (b *RequestBuilder) CanWait(d time.Duration) *RequestBuilder {
	b.canWait = d
	return b
}

// SkipPolicy sets which error classes are suppressed before the fail
// handler is reached.
func (b *RequestBuilder) SkipPolicy(p FailSkipPolicy) *RequestBuilder {
	b.policy = p
	return b
}

// After orders this request behind a previously issued one: the engine
// delivers the dependency first.
func (b *RequestBuilder) After(rid id.RequestID) *RequestBuilder {
	b.after = rid
	return b
}

// Done sets the success handler for the request.
func (b *RequestBuilder) Done(fn DoneHandler) *RequestBuilder {
	b.handlers.Done = fn
	return b
}

// Fail sets the failure handler for the request.
func (b *RequestBuilder) Fail(fn FailHandler) *RequestBuilder {
	b.handlers.Fail = fn
	return b
}

// Send allocates a request id, registers the handlers synchronously on
// the calling goroutine, schedules delivery to the engine on the owner
// goroutine, and returns the id immediately — whether or not the
// scheduled delivery has run yet. Send panics if the builder was already
// consumed.
func (b *RequestBuilder) Send() id.RequestID {
	if b.sent {
		panic("courier: request builder reused after Send")
	}
	b.sent = true

	s := b.sender
	rid := id.Next()

	// Registration happens before anything crosses a goroutine boundary:
	// a response that arrives unexpectedly fast still finds the handlers.
	s.register(rid, b.handlers, b.route)

	done := &doneAdapter{sender: s, runner: s.runner}
	fail := &failAdapter{sender: s, runner: s.runner, policy: b.policy}

	payload := b.payload
	opts := engine.SendOptions{
		Route:   b.route,
		CanWait: b.canWait,
		After:   b.after,
	}
	b.payload = nil
	b.handlers = Handlers{}

	s.withEngine(func(e engine.Engine) {
		e.SendSerialized(rid, payload, engine.ResponseHandlers{
			Done: done.handle,
			Fail: fail.handle,
		}, opts)
	})

	return rid
}
