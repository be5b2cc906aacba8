package core

import "context"

// contextKey keeps run options out of other packages' context keys.
type contextKey string

const suppressHeaderKey contextKey = "suppressHeader"

// WithSuppressHeader marks the context so entry points do not print their header.
func WithSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey, true)
}

// shouldSuppressHeader reports whether the context was marked by WithSuppressHeader.
func shouldSuppressHeader(ctx context.Context) bool {
	suppress, _ := ctx.Value(suppressHeaderKey).(bool)
	return suppress
}
