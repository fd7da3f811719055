package modelbind

import (
	"reflect"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
)

// Metadata 描述一个可绑定的类型或结构体字段。
type Metadata struct {
	Type reflect.Type
	// Name 是字段在请求中的名称片段，类型级元数据为空
	Name string
	// BinderModelName 替代默认的取值名称
	BinderModelName string
	// ValidateTag 是传给 validator 的规则，例如 "required,min=1"
	ValidateTag string
	// SuppressValidation 对应 validate:"-"，跳过字段自身的校验，嵌套字段仍然校验
	SuppressValidation bool
	// Properties 只对结构体类型有效
	Properties []*Metadata
	// Index 是字段在结构体中的索引
	Index int
}

// MetadataProvider 解析并缓存类型元数据 (线程安全，每个类型只解析一次)
type MetadataProvider struct {
	cache     *xsync.Map[reflect.Type, *Metadata]
	configure *xsync.Map[reflect.Type, func(*Metadata)]
}

func NewMetadataProvider() *MetadataProvider {
	return &MetadataProvider{
		cache:     xsync.NewMap[reflect.Type, *Metadata](),
		configure: xsync.NewMap[reflect.Type, func(*Metadata)](),
	}
}

// DefaultMetadataProvider 是默认的全局元数据提供者
var DefaultMetadataProvider = NewMetadataProvider()

// Configure 为类型 t 注册类型级的元数据修改函数 (BinderModelName、ValidateTag 等)。
// 已缓存的元数据会被丢弃并在下次访问时重新解析。
func (p *MetadataProvider) Configure(t reflect.Type, fn func(md *Metadata)) {
	p.configure.Store(t, fn)
	p.cache.Delete(t)
}

// ForType 获取类型元数据
func (p *MetadataProvider) ForType(t reflect.Type) *Metadata {
	// 1. 快速路径：缓存命中
	if md, ok := p.cache.Load(t); ok {
		return md
	}

	// 2. 慢速路径：解析
	md := &Metadata{Type: t, Index: -1}
	if t.Kind() == reflect.Struct {
		md.Properties = structProperties(t)
	}
	if fn, ok := p.configure.Load(t); ok {
		fn(md)
	}

	// 3. 写入缓存
	actual, _ := p.cache.LoadOrStore(t, md)
	return actual
}

// structProperties 解析导出字段。
// 名称优先级: bind > form > json > 字段名
func structProperties(t reflect.Type) []*Metadata {
	props := make([]*Metadata, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		formKey := tagName(field.Tag.Get("form"))
		if formKey == "-" {
			continue
		}
		name := formKey
		if name == "" {
			name = tagName(field.Tag.Get("json"))
			if name == "-" {
				continue
			}
		}
		if name == "" {
			name = field.Name
		}

		md := &Metadata{
			Type:            field.Type,
			Name:            name,
			BinderModelName: tagName(field.Tag.Get("bind")),
			ValidateTag:     field.Tag.Get("validate"),
			Index:           i,
		}
		if md.ValidateTag == "-" {
			md.ValidateTag = ""
			md.SuppressValidation = true
		}
		props = append(props, md)
	}
	return props
}

// tagName 去掉 tag 的选项部分, e.g. "name,omitempty" -> "name"
func tagName(tag string) string {
	if idx := strings.Index(tag, ","); idx != -1 {
		return tag[:idx]
	}
	return tag
}
