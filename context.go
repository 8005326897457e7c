package authgate

import "context"

type screenIDContextKey struct{}

// WithScreenID attaches a host-chosen screen identifier to ctx. Audit
// events emitted during a call made with ctx carry it instead of the
// controller's generated id, so a host can correlate authgate events with
// its own navigation logs.
func WithScreenID(ctx context.Context, screenID string) context.Context {
	return context.WithValue(ctx, screenIDContextKey{}, screenID)
}

func screenIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(screenIDContextKey{}).(string)
	return id
}
