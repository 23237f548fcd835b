package service

import "context"

type contextKey string

const requestMetaKey contextKey = "request_meta"

// RequestMeta 审计日志需要的请求信息
type RequestMeta struct {
	RequestID string
	IP        string
	UserAgent string
}

// WithRequestMeta 将请求信息放入 context
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey, meta)
}

// RequestMetaFrom 从 context 读取请求信息
func RequestMetaFrom(ctx context.Context) RequestMeta {
	if meta, ok := ctx.Value(requestMetaKey).(RequestMeta); ok {
		return meta
	}
	return RequestMeta{}
}

// GetClientIP 从 context 获取客户端 IP
func GetClientIP(ctx context.Context) string {
	return RequestMetaFrom(ctx).IP
}

// GetUserAgent 从 context 获取 User Agent
func GetUserAgent(ctx context.Context) string {
	return RequestMetaFrom(ctx).UserAgent
}
