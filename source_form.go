package modelbind

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FormSource 处理 multipart/form-data 和 x-www-form-urlencoded
type FormSource struct {
	MaxMemory int64
}

func (s *FormSource) Name() string     { return "form" }
func (s *FormSource) Type() SourceType { return SourceBody }
func (s *FormSource) Match(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data")
}

func (s *FormSource) ValueProvider(r *http.Request) (ValueProvider, error) {
	limit := s.MaxMemory
	if limit <= 0 {
		limit = DefaultMultipartMemory
	}

	// 解析表单，注意忽略非 Multipart 错误
	if err := r.ParseMultipartForm(limit); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("parse form error: %w", err)
	}

	// 只取 Body 中的字段，Query 由 QuerySource 负责
	return NewValuesProvider(r.PostForm), nil
}
