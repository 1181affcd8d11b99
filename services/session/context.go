package session

import "context"

// RequestInfo is request metadata copied onto audit events
type RequestInfo struct {
	RequestID string
	IPAddress string
}

type requestInfoKey struct{}

// WithRequestInfo attaches request metadata to ctx
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

func requestInfoFrom(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}
