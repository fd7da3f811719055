package modelbind

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"syscall"

	"github.com/bytedance/sonic"
)

// SafeMode 开启后，没有公开消息的 5xx 错误统一显示为 "Internal Server Error"。
var SafeMode = false

// 响应信封中的业务码
const (
	CodeOK                    = "OK"
	CodeBadRequest            = "BAD_REQUEST"       // 请求体无法解析
	CodeValidation            = "VALIDATION_FAILED" // ModelState 中有错误
	CodeRequestEntityTooLarge = "REQUEST_ENTITY_TOO_LARGE"
	CodeInternalError         = "INTERNAL_ERROR"
	CodePanic                 = "PANIC"
)

// ErrRequestEntityTooLarge 在请求体超过 WithMaxBodySize 时返回
var ErrRequestEntityTooLarge = NewError(http.StatusRequestEntityTooLarge, CodeRequestEntityTooLarge, "Request Entity Too Large")

// ErrorCoder 提供 HTTP 状态码
type ErrorCoder interface {
	HTTPStatus() int
}

// BizCoder 提供信封中的业务码
type BizCoder interface {
	BizStatus() string
}

// PublicError 提供 SafeMode 下可以返回给客户端的消息
type PublicError interface {
	PublicMessage() string
}

// ErrorDetailer 提供信封 data 字段的内容
type ErrorDetailer interface {
	ErrorDetails() any
}

// HttpError 带状态码和业务码的错误，消息总是公开的。
type HttpError struct {
	HttpCode int
	BizCode  string
	Msg      string
}

func NewError(httpCode int, bizCode string, msg string) *HttpError {
	return &HttpError{HttpCode: httpCode, BizCode: bizCode, Msg: msg}
}

func (e *HttpError) Error() string         { return e.Msg }
func (e *HttpError) HTTPStatus() int       { return e.HttpCode }
func (e *HttpError) BizStatus() string     { return e.BizCode }
func (e *HttpError) PublicMessage() string { return e.Msg }

// ModelStateError 把绑定和校验失败转换为 400 响应，data 为 key -> 错误信息列表。
type ModelStateError struct {
	State *ModelState
}

func (e *ModelStateError) Error() string         { return "model binding failed: " + e.State.String() }
func (e *ModelStateError) HTTPStatus() int       { return http.StatusBadRequest }
func (e *ModelStateError) BizStatus() string     { return CodeValidation }
func (e *ModelStateError) PublicMessage() string { return "model binding failed" }
func (e *ModelStateError) ErrorDetails() any     { return e.State.Errors() }

// ErrorFunc 把 error 写入响应，可以通过 WithErrorFunc 替换
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error, opts ...ErrorOption)

type ErrorOption func(*errorConfig)

type errorConfig struct {
	hook       func(context.Context, error)
	noEnvelope bool
}

// WithHook 替换全局 ErrorHook
func WithHook(fn func(context.Context, error)) ErrorOption {
	return func(cfg *errorConfig) {
		cfg.hook = fn
	}
}

// WithNoEnvelope 不使用 {code, message, data} 信封：
// 有 ErrorDetails 时直接输出 details，否则输出 {"error": message}
func WithNoEnvelope() ErrorOption {
	return func(cfg *errorConfig) {
		cfg.noEnvelope = true
	}
}

// ErrorHook 在写响应之前收到原始错误 (不受 SafeMode 影响)，通常用于日志。
var ErrorHook func(ctx context.Context, err error)

// Error 是默认的 ErrorFunc
func Error(w http.ResponseWriter, r *http.Request, err error, opts ...ErrorOption) {
	cfg := errorConfig{hook: ErrorHook}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.hook != nil {
		cfg.hook(r.Context(), err)
	}

	status, code := errorStatus(err)
	msg := errorMessage(err, status)

	var details any
	var detailer ErrorDetailer
	if errors.As(err, &detailer) {
		details = detailer.ErrorDetails()
	}

	traceID := traceIDFrom(r.Context())
	if traceID != "" && w.Header().Get("X-Trace-ID") == "" {
		w.Header().Set("X-Trace-ID", traceID)
	}

	var body any
	switch {
	case !cfg.noEnvelope:
		body = &Response[any]{Code: code, Message: msg, Data: details, TraceID: traceID}
	case details != nil:
		body = details
	default:
		body = map[string]string{"error": msg}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if werr := sonic.ConfigDefault.NewEncoder(w).Encode(body); werr != nil && cfg.hook != nil {
		// 客户端断开不算错误
		if errors.Is(werr, syscall.EPIPE) || errors.Is(werr, syscall.ECONNRESET) {
			return
		}
		cfg.hook(r.Context(), fmt.Errorf("modelbind: write error response: %w", werr))
	}
}

// errorStatus 从错误链中取状态码和业务码，未知错误按 500 处理
func errorStatus(err error) (int, string) {
	status, code := http.StatusInternalServerError, CodeInternalError

	var coder ErrorCoder
	if errors.As(err, &coder) {
		status = coder.HTTPStatus()
		code = inferBizCode(status)
	}
	var biz BizCoder
	if errors.As(err, &biz) && biz.BizStatus() != "" {
		code = biz.BizStatus()
	}
	return status, code
}

func errorMessage(err error, status int) string {
	if !SafeMode {
		return err.Error()
	}
	var pub PublicError
	if errors.As(err, &pub) {
		if msg := pub.PublicMessage(); msg != "" {
			return msg
		}
	}
	if status >= http.StatusInternalServerError {
		return "Internal Server Error"
	}
	return err.Error()
}

func inferBizCode(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return CodeBadRequest
	case status == http.StatusRequestEntityTooLarge:
		return CodeRequestEntityTooLarge
	case status >= 400 && status < 500:
		return "ERROR"
	default:
		return CodeInternalError
	}
}
