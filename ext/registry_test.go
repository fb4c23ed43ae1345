package ext_test

import (
	"errors"
	"testing"
	"time"

	"github.com/xraph/courier/engine"
	"github.com/xraph/courier/ext"
	"github.com/xraph/courier/id"
)

// fullExtension implements every lifecycle hook and counts invocations.
type fullExtension struct {
	name       string
	registered int
	completed  int
	failed     int
	cancelled  int
	detached   int
	closed     int
	err        error
}

func (f *fullExtension) Name() string { return f.name }

func (f *fullExtension) OnRequestRegistered(ext.Request) error {
	f.registered++
	return f.err
}

func (f *fullExtension) OnRequestCompleted(ext.Request, int, time.Duration) error {
	f.completed++
	return f.err
}

func (f *fullExtension) OnRequestFailed(ext.Request, *engine.Error, time.Duration) error {
	f.failed++
	return f.err
}

func (f *fullExtension) OnRequestCancelled(ext.Request) error {
	f.cancelled++
	return f.err
}

func (f *fullExtension) OnRequestDetached(ext.Request) error {
	f.detached++
	return f.err
}

func (f *fullExtension) OnSenderClosed() error {
	f.closed++
	return f.err
}

// registeredOnly opts into a single hook.
type registeredOnly struct {
	calls int
}

func (r *registeredOnly) Name() string { return "registered-only" }

func (r *registeredOnly) OnRequestRegistered(ext.Request) error {
	r.calls++
	return nil
}

func TestRegistry_FanOut(t *testing.T) {
	reg := ext.NewRegistry(nil)
	a := &fullExtension{name: "a"}
	b := &fullExtension{name: "b"}
	reg.Register(a)
	reg.Register(b)

	req := ext.Request{ID: id.Next(), Route: 2}
	reg.EmitRequestRegistered(req)
	reg.EmitRequestCompleted(req, 128, time.Millisecond)
	reg.EmitRequestFailed(req, engine.NewError(400, "BAD", ""), time.Millisecond)
	reg.EmitRequestCancelled(req)
	reg.EmitRequestDetached(req)
	reg.EmitSenderClosed()

	for _, e := range []*fullExtension{a, b} {
		if e.registered != 1 || e.completed != 1 || e.failed != 1 ||
			e.cancelled != 1 || e.detached != 1 || e.closed != 1 {
			t.Errorf("extension %q: counts = %+v, want one call per hook", e.name, *e)
		}
	}
}

func TestRegistry_OptInHooksOnly(t *testing.T) {
	reg := ext.NewRegistry(nil)
	r := &registeredOnly{}
	reg.Register(r)

	req := ext.Request{ID: id.Next()}
	reg.EmitRequestRegistered(req)
	reg.EmitRequestCompleted(req, 0, 0)
	reg.EmitSenderClosed()

	if r.calls != 1 {
		t.Errorf("OnRequestRegistered calls = %d, want 1", r.calls)
	}
}

func TestRegistry_HookErrorDoesNotStopFanOut(t *testing.T) {
	reg := ext.NewRegistry(nil)
	failing := &fullExtension{name: "failing", err: errors.New("hook broke")}
	healthy := &fullExtension{name: "healthy"}
	reg.Register(failing)
	reg.Register(healthy)

	reg.EmitRequestRegistered(ext.Request{ID: id.Next()})

	if healthy.registered != 1 {
		t.Errorf("healthy extension calls = %d, want 1 despite earlier hook error", healthy.registered)
	}
}

func TestRegistry_Extensions(t *testing.T) {
	reg := ext.NewRegistry(nil)
	a := &fullExtension{name: "a"}
	b := &registeredOnly{}
	reg.Register(a)
	reg.Register(b)

	exts := reg.Extensions()
	if len(exts) != 2 {
		t.Fatalf("len(Extensions()) = %d, want 2", len(exts))
	}
	if exts[0].Name() != "a" || exts[1].Name() != "registered-only" {
		t.Errorf("Extensions() order = [%q, %q], want registration order", exts[0].Name(), exts[1].Name())
	}
}
