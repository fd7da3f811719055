package modelbind

import (
	"context"
	"fmt"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/rs/xid"
)

// Middleware 标准中间件定义
type Middleware func(http.Handler) http.Handler

// Chain 组合多个中间件，Chain(h, m1, m2) == m1(m2(h))
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Recovery 捕获 Panic 防止服务崩溃，panic 以 500 错误响应
func Recovery(opts ...ErrorOption) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					Error(w, r, &HttpError{
						HttpCode: http.StatusInternalServerError,
						BizCode:  CodePanic,
						Msg:      fmt.Sprintf("panic: %v", rec),
					}, opts...)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// LogFunc 定义日志回调签名
type LogFunc func(r *http.Request, metrics httpsnoop.Metrics)

// Logger 使用 httpsnoop 包装 ResponseWriter
func Logger(logFunc LogFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// httpsnoop 会自动检测 w 是否支持 Flusher/Hijacker 并自动包装
			m := httpsnoop.CaptureMetrics(next, w, r)

			if logFunc != nil {
				logFunc(r, m)
			}
		})
	}
}

type requestIDKey struct{}

// RequestIDHeader 是请求 ID 的传输头
const RequestIDHeader = "X-Request-ID"

// RequestID 为每个请求分配一个 xid。
// 上游已经携带 X-Request-ID 时沿用上游的值。
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = xid.New().String()
			}
			w.Header().Set(RequestIDHeader, id)
			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext 返回 RequestID 中间件写入的 ID，没有时为空字符串
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
