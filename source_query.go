package modelbind

import (
	"net/http"
	"net/url"
)

// QuerySource 处理 URL 查询参数
type QuerySource struct{}

func (s *QuerySource) Name() string     { return "query" }
func (s *QuerySource) Type() SourceType { return SourceMeta }
func (s *QuerySource) Match(r *http.Request) bool {
	return r.URL.RawQuery != ""
}

func (s *QuerySource) ValueProvider(r *http.Request) (ValueProvider, error) {
	return NewValuesProvider(r.URL.Query()), nil
}

// HeaderSource 处理请求头，默认链中不包含，需要通过 AddSources 显式启用
type HeaderSource struct{}

func (s *HeaderSource) Name() string     { return "header" }
func (s *HeaderSource) Type() SourceType { return SourceMeta }
func (s *HeaderSource) Match(r *http.Request) bool {
	return len(r.Header) > 0
}

func (s *HeaderSource) ValueProvider(r *http.Request) (ValueProvider, error) {
	return NewValuesProvider(url.Values(r.Header)), nil
}
