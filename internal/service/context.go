package service

import "context"

type requestMetaKey struct{}

// RequestMeta is request-scoped data that services stamp onto audit entries.
type RequestMeta struct {
	IPAddress string
	RequestID string
}

func WithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, m)
}

func RequestMetaFrom(ctx context.Context) RequestMeta {
	m, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return m
}
