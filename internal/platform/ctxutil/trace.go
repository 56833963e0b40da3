package ctxutil

import "context"

type traceDataKey struct{}

// TraceData identifies one inbound request across logs and spans.
type TraceData struct {
	TraceID   string
	RequestID string
	// SessionID is set by handlers that act on a storefront session.
	SessionID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	val := ctx.Value(traceDataKey{})
	if td, ok := val.(*TraceData); ok {
		return td
	}
	return nil
}

// SetSessionID records the session on the request's trace data, if any.
func SetSessionID(ctx context.Context, sessionID string) {
	if td := GetTraceData(ctx); td != nil {
		td.SessionID = sessionID
	}
}
