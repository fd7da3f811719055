package modelbind

// Response 是默认的统一响应信封。
type Response[T any] struct {
	// Code 是业务错误码 (字符串)，例如 "OK", "VALIDATION_FAILED"。
	// 它与 HTTP Status Code 分离，由前端用于展示具体的错误文案。
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}
