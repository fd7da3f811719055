package modelbind

import (
	"context"
	"errors"
	"net/http"

	"github.com/bytedance/sonic"
)

// GetTraceID 是一个依赖注入点。
// 外部库（如 o11y）可以设置这个函数；未设置时使用 RequestID 中间件生成的 ID。
var GetTraceID func(ctx context.Context) string = nil

func traceIDFrom(ctx context.Context) string {
	if GetTraceID != nil {
		return GetTraceID(ctx)
	}
	return RequestIDFromContext(ctx)
}

// HandlerFunc 定义业务处理函数签名。
// Req 在调用前已经完成绑定和校验。
type HandlerFunc[Req any, Res any] func(ctx context.Context, req *Req) (Res, error)

// NewHandler 把 HandlerFunc 包装为 http.HandlerFunc：绑定 -> 校验 -> 业务逻辑 -> JSON 响应
func NewHandler[Req any, Res any](fn HandlerFunc[Req, Res], opts ...Option) http.HandlerFunc {
	cfg := newConfig(opts...)

	return func(w http.ResponseWriter, r *http.Request) {
		res, traceID, ok := prepare(w, r, cfg, fn)
		if !ok {
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)

		var body any = res
		if !cfg.noEnvelope {
			body = &Response[Res]{
				Code:    CodeOK,
				Message: "success",
				Data:    res,
				TraceID: traceID,
			}
		}

		if err := sonic.ConfigDefault.NewEncoder(w).Encode(body); err != nil && cfg.errorHook != nil {
			cfg.errorHook(r.Context(), err)
		}
	}
}

// 内部辅助函数，处理通用的请求准备工作
func prepare[Req any, Res any](w http.ResponseWriter, r *http.Request, cfg *config, fn HandlerFunc[Req, Res]) (res Res, traceID string, ok bool) {
	ctx := r.Context()
	errFunc := cfg.errorFunc
	errOpts := []ErrorOption{WithHook(cfg.errorHook)}
	if cfg.noEnvelope {
		errOpts = append(errOpts, WithNoEnvelope())
	}

	// 1. 应用 Body 大小限制
	if cfg.maxBodySize > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.maxBodySize)
	}

	// 2. 绑定与校验
	var req Req
	ms, err := bindModel(ctx, r, &req, cfg)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			errFunc(w, r, ErrRequestEntityTooLarge, errOpts...)
			return
		}
		if errors.Is(err, ErrInvalidBindingContext) || errors.Is(err, ErrNotPointer) {
			errFunc(w, r, err, errOpts...)
			return
		}
		errFunc(w, r, &HttpError{HttpCode: http.StatusBadRequest, BizCode: CodeBadRequest, Msg: err.Error()}, errOpts...)
		return
	}
	if !ms.IsValid() {
		errFunc(w, r, &ModelStateError{State: ms}, errOpts...)
		return
	}

	// 3. 业务逻辑
	res, err = fn(ctx, &req)
	if err != nil {
		errFunc(w, r, err, errOpts...)
		return
	}

	// 4. 成功路径在 Header 中注入 TraceID，失败路径由 errFunc 处理
	traceID = traceIDFrom(ctx)
	if traceID != "" {
		w.Header().Set("X-Trace-ID", traceID)
	}

	return res, traceID, true
}
