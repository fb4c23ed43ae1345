package courier_test

import (
	"sync"

	"github.com/xraph/courier/engine"
	"github.com/xraph/courier/id"
)

// sentRequest records one SendSerialized call observed by the fake engine.
type sentRequest struct {
	rid      id.RequestID
	payload  []byte
	handlers engine.ResponseHandlers
	opts     engine.SendOptions
}

// fakeEngine records sends and cancels so tests can drive responses by
// invoking the captured handlers directly.
type fakeEngine struct {
	mu      sync.Mutex
	sends   []sentRequest
	cancels []id.RequestID
}

func (f *fakeEngine) SendSerialized(rid id.RequestID, payload []byte, handlers engine.ResponseHandlers, opts engine.SendOptions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sentRequest{rid: rid, payload: payload, handlers: handlers, opts: opts})
}

func (f *fakeEngine) Cancel(rid id.RequestID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels = append(f.cancels, rid)
}

func (f *fakeEngine) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func (f *fakeEngine) lastSent() sentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends[len(f.sends)-1]
}

func (f *fakeEngine) cancelled() []id.RequestID {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]id.RequestID, len(f.cancels))
	copy(out, f.cancels)
	return out
}

// syncHost runs scheduled closures inline, making engine-side effects
// visible to the test immediately. nil engine emulates an absent instance.
type syncHost struct {
	mu  sync.Mutex
	eng engine.Engine
}

func (h *syncHost) Schedule(fn func()) { fn() }

func (h *syncHost) Current() engine.Engine {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.eng
}

func (h *syncHost) install(e engine.Engine) {
	h.mu.Lock()
	h.eng = e
	h.mu.Unlock()
}

func newSyncHost() (*syncHost, *fakeEngine) {
	eng := &fakeEngine{}
	return &syncHost{eng: eng}, eng
}

// inlineRunner executes continuations on the calling goroutine.
func inlineRunner(fn func()) { fn() }

// queueRunner collects continuations so the test controls when the
// caller-side delivery happens.
type queueRunner struct {
	mu    sync.Mutex
	queue []func()
}

func (r *queueRunner) run(fn func()) {
	r.mu.Lock()
	r.queue = append(r.queue, fn)
	r.mu.Unlock()
}

// drain runs every queued continuation in delivery order.
func (r *queueRunner) drain() {
	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			r.mu.Unlock()
			return
		}
		fn := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		fn()
	}
}
