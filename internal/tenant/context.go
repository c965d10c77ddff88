package tenant

import "context"

type contextKey struct{}

// ContextWith returns a context carrying the resolved tenant.
func ContextWith(ctx context.Context, t Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the tenant resolved for this request.
func FromContext(ctx context.Context) (Tenant, bool) {
	t, ok := ctx.Value(contextKey{}).(Tenant)
	return t, ok
}
