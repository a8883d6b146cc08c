package action

import "context"

type callIDKey struct{}

// WithCallID returns a context carrying the id of the call being run. The
// engine sets it before every Run and Compensate.
func WithCallID(ctx context.Context, callID string) context.Context {
	return context.WithValue(ctx, callIDKey{}, callID)
}

// CallIDFromContext returns the id of the running call, if any.
func CallIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(callIDKey{}).(string)
	return id, ok
}
