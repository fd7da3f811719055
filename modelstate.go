package modelbind

import (
	"errors"
	"strings"
)

// DefaultMaxModelErrors 是 ModelState 默认允许记录的最大错误数
const DefaultMaxModelErrors = 200

// ErrTooManyModelErrors 在错误数达到上限时被记录在空 key 下
var ErrTooManyModelErrors = errors.New("the maximum number of allowed model errors has been reached")

// ModelError 是单个字段上的一条错误。Err 在来源是 error 时非空。
type ModelError struct {
	Message string
	Err     error
}

// Entry 保存一个 key 的原始值、尝试值和错误
type Entry struct {
	RawValue       []string
	AttemptedValue string
	Errors         []ModelError
}

// ModelState 记录绑定和校验过程中产生的字段级错误。
// 单次请求内使用，不是并发安全的。
type ModelState struct {
	MaxAllowedErrors int

	entries        map[string]*Entry
	keys           []string
	errorCount     int
	maxErrorRecord bool
}

func NewModelState(maxAllowedErrors int) *ModelState {
	if maxAllowedErrors <= 0 {
		maxAllowedErrors = DefaultMaxModelErrors
	}
	return &ModelState{
		MaxAllowedErrors: maxAllowedErrors,
		entries:          make(map[string]*Entry),
	}
}

func (ms *ModelState) entry(key string) *Entry {
	if e, ok := ms.entries[key]; ok {
		return e
	}
	e := &Entry{}
	ms.entries[key] = e
	ms.keys = append(ms.keys, key)
	return e
}

// SetModelValue 记录 key 的原始值和尝试转换的字符串
func (ms *ModelState) SetModelValue(key string, raw []string, attempted string) {
	e := ms.entry(key)
	e.RawValue = raw
	e.AttemptedValue = attempted
}

// TryAddModelError 在 key 上添加错误信息。
// 达到 MaxAllowedErrors 时返回 false，并在空 key 上记录一次 ErrTooManyModelErrors。
func (ms *ModelState) TryAddModelError(key, message string) bool {
	return ms.tryAdd(key, ModelError{Message: message})
}

// TryAddModelException 与 TryAddModelError 相同，但保留原始 error
func (ms *ModelState) TryAddModelException(key string, err error) bool {
	return ms.tryAdd(key, ModelError{Message: err.Error(), Err: err})
}

func (ms *ModelState) tryAdd(key string, me ModelError) bool {
	if ms.errorCount >= ms.MaxAllowedErrors-1 {
		ms.recordMaxErrors()
		return false
	}
	e := ms.entry(key)
	e.Errors = append(e.Errors, me)
	ms.errorCount++
	return true
}

func (ms *ModelState) recordMaxErrors() {
	if ms.maxErrorRecord {
		return
	}
	ms.maxErrorRecord = true
	e := ms.entry("")
	e.Errors = append(e.Errors, ModelError{Message: ErrTooManyModelErrors.Error(), Err: ErrTooManyModelErrors})
	ms.errorCount++
}

// HasReachedMaxErrors 表示是否已经丢弃过错误
func (ms *ModelState) HasReachedMaxErrors() bool { return ms.maxErrorRecord }

// ErrorCount 返回全部错误数 (包括上限标记)
func (ms *ModelState) ErrorCount() int { return ms.errorCount }

// IsValid 没有任何错误时为 true
func (ms *ModelState) IsValid() bool { return ms.errorCount == 0 }

// Get 返回 key 对应的条目
func (ms *ModelState) Get(key string) (*Entry, bool) {
	e, ok := ms.entries[key]
	return e, ok
}

// HasErrors 报告 key 上是否有错误
func (ms *ModelState) HasErrors(key string) bool {
	e, ok := ms.entries[key]
	return ok && len(e.Errors) > 0
}

// Keys 按首次出现顺序返回所有 key
func (ms *ModelState) Keys() []string {
	out := make([]string, len(ms.keys))
	copy(out, ms.keys)
	return out
}

// Errors 返回有错误的 key 及其错误信息，用于响应体
func (ms *ModelState) Errors() map[string][]string {
	out := make(map[string][]string)
	for _, k := range ms.keys {
		e := ms.entries[k]
		for _, me := range e.Errors {
			out[k] = append(out[k], me.Message)
		}
	}
	return out
}

// String 按 key 顺序拼接错误，便于日志
func (ms *ModelState) String() string {
	var sb strings.Builder
	for _, k := range ms.keys {
		for _, me := range ms.entries[k].Errors {
			if sb.Len() > 0 {
				sb.WriteString("; ")
			}
			if k != "" {
				sb.WriteString(k)
				sb.WriteString(": ")
			}
			sb.WriteString(me.Message)
		}
	}
	return sb.String()
}
