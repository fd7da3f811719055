package modelbind

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultMultipartMemory 8MB
// 超过此限制的部分将暂存到磁盘临时文件中，防止容器环境 OOM。
const DefaultMultipartMemory = 8 << 20

type SourceType int

const (
	SourceMeta SourceType = iota // Query, Header, Path
	SourceBody                   // JSON, YAML, Form (互斥，流只能读一次)
)

// Source 从请求的某一部分构造 ValueProvider
type Source interface {
	Name() string
	Type() SourceType
	Match(r *http.Request) bool
	ValueProvider(r *http.Request) (ValueProvider, error)
}

// Sources 默认数据源链。
// 顺序即优先级: Body -> Path -> Query
var Sources = []Source{
	&FormSource{MaxMemory: DefaultMultipartMemory},
	&JsonSource{},
	&YamlSource{},
	&PathSource{},
	&QuerySource{},
}

// ValueProviders 按顺序匹配数据源并组合成一个 ValueProvider
func ValueProviders(r *http.Request, sources ...Source) (ValueProvider, error) {
	if len(sources) == 0 {
		sources = Sources
	}

	bodyBound := false // 标记 Body 类数据源是否已执行
	providers := make(CompositeValueProvider, 0, len(sources))

	for _, src := range sources {
		if !src.Match(r) {
			continue
		}

		// Body 类数据源互斥，只能执行一次
		if src.Type() == SourceBody {
			if bodyBound {
				continue
			}
			bodyBound = true
		}

		vp, err := src.ValueProvider(r)
		if err != nil {
			return nil, fmt.Errorf("%s source: %w", src.Name(), err)
		}
		providers = append(providers, vp)
	}
	return providers, nil
}

// flatten 把解码后的 JSON/YAML 文档展开成 "a.b[0].c" 形式的 key
func flatten(values url.Values, prefix string, doc any) {
	switch v := doc.(type) {
	case nil:
		return
	case map[string]any:
		for k, child := range v {
			flatten(values, CreatePropertyModelName(prefix, k), child)
		}
	case map[any]any:
		for k, child := range v {
			flatten(values, CreatePropertyModelName(prefix, fmt.Sprint(k)), child)
		}
	case []any:
		for i, child := range v {
			flatten(values, CreateIndexModelName(prefix, i), child)
		}
	case string:
		values.Add(prefix, v)
	case bool:
		values.Add(prefix, strconv.FormatBool(v))
	default:
		// json.Number、int、float64 等
		values.Add(prefix, fmt.Sprint(v))
	}
}
