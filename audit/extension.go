package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/courier/engine"
	"github.com/xraph/courier/ext"
)

// Compile-time interface checks.
var (
	_ ext.Extension         = (*Extension)(nil)
	_ ext.RequestRegistered = (*Extension)(nil)
	_ ext.RequestCompleted  = (*Extension)(nil)
	_ ext.RequestFailed     = (*Extension)(nil)
	_ ext.RequestCancelled  = (*Extension)(nil)
	_ ext.RequestDetached   = (*Extension)(nil)
	_ ext.SenderClosed      = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement. It is
// defined locally so the audit package does not import any particular
// backend — callers inject the concrete writer at wiring time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *Event) error
}

// Event is a structured audit record for one lifecycle transition.
type Event struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *Event) error

func (f RecorderFunc) Record(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges courier lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided
// Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit" }

// ── Request lifecycle hooks ─────────────────────────

// OnRequestRegistered implements ext.RequestRegistered.
func (e *Extension) OnRequestRegistered(req ext.Request) error {
	return e.record(ActionRequestRegistered, SeverityInfo, OutcomeSuccess,
		ResourceRequest, req.ID.String(), CategoryRequest, "",
		"route", int(req.Route),
	)
}

// OnRequestCompleted implements ext.RequestCompleted.
func (e *Extension) OnRequestCompleted(req ext.Request, size int, elapsed time.Duration) error {
	return e.record(ActionRequestCompleted, SeverityInfo, OutcomeSuccess,
		ResourceRequest, req.ID.String(), CategoryRequest, "",
		"route", int(req.Route),
		"response_bytes", size,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnRequestFailed implements ext.RequestFailed.
func (e *Extension) OnRequestFailed(req ext.Request, rpcErr *engine.Error, elapsed time.Duration) error {
	severity := SeverityWarning
	if rpcErr.Code == engine.CodeClientSide {
		// Never crossed the wire; a local parse or handler failure.
		severity = SeverityCritical
	}
	return e.record(ActionRequestFailed, severity, OutcomeFailure,
		ResourceRequest, req.ID.String(), CategoryRequest, rpcErr.Type,
		"route", int(req.Route),
		"error_code", rpcErr.Code,
		"error_type", rpcErr.Type,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnRequestCancelled implements ext.RequestCancelled.
func (e *Extension) OnRequestCancelled(req ext.Request) error {
	return e.record(ActionRequestCancelled, SeverityInfo, OutcomeSuccess,
		ResourceRequest, req.ID.String(), CategoryRequest, "",
		"route", int(req.Route),
	)
}

// OnRequestDetached implements ext.RequestDetached.
func (e *Extension) OnRequestDetached(req ext.Request) error {
	return e.record(ActionRequestDetached, SeverityInfo, OutcomeSuccess,
		ResourceRequest, req.ID.String(), CategoryRequest, "",
		"route", int(req.Route),
	)
}

// OnSenderClosed implements ext.SenderClosed.
func (e *Extension) OnSenderClosed() error {
	return e.record(ActionSenderClosed, SeverityInfo, OutcomeSuccess,
		ResourceSender, "", CategorySender, "")
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	action, severity, outcome string,
	resource, resourceID, category, reason string,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	evt := &Event{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if err := e.recorder.Record(context.Background(), evt); err != nil {
		e.logger.Warn("audit record failed",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}
