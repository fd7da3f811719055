package modelbind

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"
)

// JsonSource 使用 sonic 解码 JSON Body，并展开成 "a.b[0]" 形式的 key。
// 数字保持原始文本，避免大整数精度丢失。
type JsonSource struct{}

func (s *JsonSource) Name() string     { return "json" }
func (s *JsonSource) Type() SourceType { return SourceBody }
func (s *JsonSource) Match(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func (s *JsonSource) ValueProvider(r *http.Request) (ValueProvider, error) {
	values := url.Values{}
	if r.Body == nil || r.Body == http.NoBody {
		return NewValuesProvider(values), nil
	}

	decoder := sonic.ConfigStd.NewDecoder(r.Body)
	decoder.UseNumber()

	var doc any
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return NewValuesProvider(values), nil
		}
		return nil, fmt.Errorf("decode json error: %w", err)
	}
	// 检查是否有多余的数据
	if decoder.More() {
		return nil, fmt.Errorf("decode json error: unexpected extra data in body")
	}

	flatten(values, "", doc)
	return NewValuesProvider(values), nil
}

// YamlSource 处理 application/yaml 与 application/x-yaml
type YamlSource struct{}

func (s *YamlSource) Name() string     { return "yaml" }
func (s *YamlSource) Type() SourceType { return SourceBody }
func (s *YamlSource) Match(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/yaml") ||
		strings.HasPrefix(ct, "application/x-yaml") ||
		strings.HasPrefix(ct, "text/yaml")
}

func (s *YamlSource) ValueProvider(r *http.Request) (ValueProvider, error) {
	values := url.Values{}
	if r.Body == nil || r.Body == http.NoBody {
		return NewValuesProvider(values), nil
	}

	var doc any
	if err := yaml.NewDecoder(r.Body).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return NewValuesProvider(values), nil
		}
		return nil, fmt.Errorf("decode yaml error: %w", err)
	}

	flatten(values, "", doc)
	return NewValuesProvider(values), nil
}
