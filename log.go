package modelbind

import (
	"context"
	"net/http"

	"github.com/felixge/httpsnoop"
	"go.uber.org/zap"
)

// ZapErrorHook 把错误写入 zap，可以直接赋给 ErrorHook 或通过 WithErrorHook 使用
func ZapErrorHook(logger *zap.Logger) func(ctx context.Context, err error) {
	return func(ctx context.Context, err error) {
		logger.Warn("request failed",
			zap.String("request_id", RequestIDFromContext(ctx)),
			zap.Error(err))
	}
}

// ZapLogFunc 是 Logger 中间件的 zap 实现
func ZapLogFunc(logger *zap.Logger) LogFunc {
	return func(r *http.Request, m httpsnoop.Metrics) {
		logger.Info("request",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", m.Code),
			zap.Int64("bytes", m.Written),
			zap.Duration("duration", m.Duration))
	}
}
