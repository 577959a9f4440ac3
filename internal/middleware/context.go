package middleware

import (
	"context"
)

type ctxKey int

const htmxKey ctxKey = iota

// HTMXRequest is what htmx told us about the request in its HX-* headers.
type HTMXRequest struct {
	Boosted bool
	Target  string
	Trigger string
}

func withHTMX(ctx context.Context, req HTMXRequest) context.Context {
	return context.WithValue(ctx, htmxKey, req)
}

// HTMXFrom returns the htmx descriptor, if the request came from htmx.
func HTMXFrom(ctx context.Context) (HTMXRequest, bool) {
	req, ok := ctx.Value(htmxKey).(HTMXRequest)
	return req, ok
}

// IsHTMX reports whether the client wants a fragment. Boosted navigations
// swap the whole body and get full pages.
func IsHTMX(ctx context.Context) bool {
	req, ok := HTMXFrom(ctx)
	return ok && !req.Boosted
}
