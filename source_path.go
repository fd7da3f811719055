package modelbind

import (
	"net/http"
	"net/url"
	"strings"
)

// PathSource 处理 URL 路径参数 (Go 1.22+)
// 参数名从匹配到的路由模式 r.Pattern 中解析。
type PathSource struct{}

func (s *PathSource) Name() string     { return "path" }
func (s *PathSource) Type() SourceType { return SourceMeta }
func (s *PathSource) Match(r *http.Request) bool {
	return strings.Contains(r.Pattern, "{")
}

func (s *PathSource) ValueProvider(r *http.Request) (ValueProvider, error) {
	names := patternWildcards(r.Pattern)
	values := make(url.Values, len(names))
	for _, name := range names {
		if v := r.PathValue(name); v != "" {
			values[name] = []string{v}
		}
	}
	return NewValuesProvider(values), nil
}

// patternWildcards 提取 "GET /users/{id}/files/{path...}" 中的 id 和 path
func patternWildcards(pattern string) []string {
	var names []string
	for {
		start := strings.IndexByte(pattern, '{')
		if start == -1 {
			return names
		}
		end := strings.IndexByte(pattern[start:], '}')
		if end == -1 {
			return names
		}
		name := strings.TrimSuffix(pattern[start+1:start+end], "...")
		if name != "" && name != "$" {
			names = append(names, name)
		}
		pattern = pattern[start+end+1:]
	}
}
