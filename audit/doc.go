// Package audit is a courier extension that bridges request lifecycle
// events to an immutable audit trail backend.
//
// Every lifecycle hook emits a structured audit event through the
// [Recorder] interface. The extension assigns severity levels (info for
// normal operations, warning for RPC failures, critical for local parse
// failures) and metadata (route, elapsed time, error types).
//
// # Usage
//
//	audit.New(audit.RecorderFunc(func(ctx context.Context, evt *audit.Event) error {
//	    return trail.Write(ctx, evt.Action, evt.ResourceID, evt.Metadata)
//	}))
//
// # Selective filtering
//
//	audit.New(recorder,
//	    audit.WithActions(
//	        audit.ActionRequestFailed,
//	        audit.ActionSenderClosed,
//	    ),
//	)
package audit
