package modelbind

import (
	"net/url"
	"strings"
)

// ValueResult 是某个 key 下的原始值
type ValueResult struct {
	Values []string
}

// First 返回第一个值，没有值时为空字符串
func (v ValueResult) First() string {
	if len(v.Values) == 0 {
		return ""
	}
	return v.Values[0]
}

// String 返回用于错误信息和 ModelState 的尝试值
func (v ValueResult) String() string {
	return strings.Join(v.Values, ",")
}

// ValueProvider 按名称查找请求数据。名称不区分大小写。
type ValueProvider interface {
	// ContainsPrefix 报告是否存在以 prefix 开头的 key ("a" 匹配 "a", "a.b", "a[0]")。
	// 空前缀在存在任意数据时返回 true。
	ContainsPrefix(prefix string) bool
	GetValue(key string) (ValueResult, bool)
}

// valuesProvider 是基于 url.Values 的 ValueProvider，前缀集合在构造时一次性计算
type valuesProvider struct {
	values   map[string][]string
	prefixes map[string]struct{}
}

// NewValuesProvider 从 url.Values 创建 ValueProvider
func NewValuesProvider(values url.Values) ValueProvider {
	p := &valuesProvider{
		values:   make(map[string][]string, len(values)),
		prefixes: make(map[string]struct{}, len(values)*2),
	}
	for k, vs := range values {
		if len(vs) == 0 {
			continue
		}
		lk := strings.ToLower(k)
		p.values[lk] = append(p.values[lk], vs...)
		addPrefixes(p.prefixes, lk)
	}
	return p
}

// addPrefixes 把 "a.b[0].c" 拆成 "a", "a.b", "a.b[0]", "a.b[0].c"
func addPrefixes(set map[string]struct{}, key string) {
	for i := 1; i < len(key); i++ {
		switch key[i] {
		case '.', '[':
			set[key[:i]] = struct{}{}
		}
	}
	set[key] = struct{}{}
}

func (p *valuesProvider) ContainsPrefix(prefix string) bool {
	if prefix == "" {
		return len(p.values) > 0
	}
	_, ok := p.prefixes[strings.ToLower(prefix)]
	return ok
}

func (p *valuesProvider) GetValue(key string) (ValueResult, bool) {
	vs, ok := p.values[strings.ToLower(key)]
	if !ok {
		return ValueResult{}, false
	}
	return ValueResult{Values: vs}, true
}

// CompositeValueProvider 依次查询多个 ValueProvider，第一个拥有该 key 的胜出
type CompositeValueProvider []ValueProvider

func (c CompositeValueProvider) ContainsPrefix(prefix string) bool {
	for _, p := range c {
		if p.ContainsPrefix(prefix) {
			return true
		}
	}
	return false
}

func (c CompositeValueProvider) GetValue(key string) (ValueResult, bool) {
	for _, p := range c {
		if v, ok := p.GetValue(key); ok {
			return v, true
		}
	}
	return ValueResult{}, false
}
