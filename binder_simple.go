package modelbind

import (
	"context"
	"encoding"
	"fmt"
	"reflect"

	"github.com/gorilla/schema"
	"github.com/puzpuzpuz/xsync/v4"
)

// MsgInvalidValue 是类型转换失败时的错误信息模板
const MsgInvalidValue = "The value '%s' is not valid for %s."

// SchemaDecoder 负责字符串到基础类型的转换
// gorilla/schema 内部已有缓存机制，性能良好
var SchemaDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag("form")
	d.IgnoreUnknownKeys(true)
	return d
}()

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// holderTypes 缓存 T -> struct{ V T } 的包装类型，schema 只能解码结构体
var holderTypes = xsync.NewMap[reflect.Type, reflect.Type]()

func holderType(t reflect.Type) reflect.Type {
	if ht, ok := holderTypes.Load(t); ok {
		return ht
	}
	ht := reflect.StructOf([]reflect.StructField{{
		Name: "V",
		Type: t,
		Tag:  `form:"v"`,
	}})
	actual, _ := holderTypes.LoadOrStore(t, ht)
	return actual
}

// isSimpleType 报告 t 是否可以从单个字符串转换得到
func isSimpleType(t reflect.Type) bool {
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Ptr:
		return isSimpleType(t.Elem())
	}
	return false
}

// baseKind 解开指针后的 Kind
func baseKind(t reflect.Type) reflect.Kind {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind()
}

// convertScalar 把 raw 转换为 t 类型的值
func convertScalar(t reflect.Type, raw string) (any, error) {
	if t.Kind() == reflect.Ptr {
		v, err := convertScalar(t.Elem(), raw)
		if err != nil {
			return nil, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(reflect.ValueOf(v))
		return p.Interface(), nil
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		p := reflect.New(t)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
			return nil, err
		}
		return p.Elem().Interface(), nil
	}

	holder := reflect.New(holderType(t))
	if err := SchemaDecoder.Decode(holder.Interface(), map[string][]string{"v": {raw}}); err != nil {
		return nil, err
	}
	return holder.Elem().Field(0).Interface(), nil
}

// emptyString 返回 t 的空字符串值，指针类型逐层分配
func emptyString(t reflect.Type) any {
	if t.Kind() != reflect.Ptr {
		return reflect.Zero(t).Interface()
	}
	p := reflect.New(t.Elem())
	p.Elem().Set(reflect.ValueOf(emptyString(t.Elem())))
	return p.Interface()
}

// assignableValue 把绑定结果转换为可以赋给 t 的 reflect.Value
func assignableValue(v any, t reflect.Type) (reflect.Value, bool) {
	if v == nil {
		return reflect.Zero(t), true
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, true
	}
	return convertSameKind(rv, t)
}

func displayName(bc *BindingContext) string {
	if bc.Metadata != nil && bc.Metadata.Name != "" {
		return bc.Metadata.Name
	}
	return bc.ModelName
}

// SimpleBinder 绑定可以从单个字符串转换得到的类型：
// 基础类型、指向它们的指针、实现了 encoding.TextUnmarshaler 的类型 (time.Time, uuid.UUID 等)。
type SimpleBinder struct{}

func (b *SimpleBinder) BindModel(ctx context.Context, bc *BindingContext) (*Result, error) {
	t := bc.Metadata.Type
	if !isSimpleType(t) {
		return nil, nil
	}

	vr, ok := bc.ValueProvider.GetValue(bc.ModelName)
	if !ok {
		return nil, nil
	}
	bc.ModelState.SetModelValue(bc.ModelName, vr.Values, vr.String())

	raw := vr.First()
	if raw == "" {
		// 空字符串只对字符串类型 (包括 *string) 有意义
		if baseKind(t) != reflect.String {
			return &Result{Key: bc.ModelName}, nil
		}
		model := emptyString(t)
		return &Result{
			Model:          model,
			Key:            bc.ModelName,
			IsModelSet:     true,
			ValidationNode: NewValidationNode(bc.ModelName, bc.Metadata, model),
		}, nil
	}

	model, err := convertScalar(t, raw)
	if err != nil {
		bc.ModelState.TryAddModelError(bc.ModelName, fmt.Sprintf(MsgInvalidValue, raw, displayName(bc)))
		return &Result{Key: bc.ModelName}, nil
	}

	return &Result{
		Model:          model,
		Key:            bc.ModelName,
		IsModelSet:     true,
		ValidationNode: NewValidationNode(bc.ModelName, bc.Metadata, model),
	}, nil
}
