package modelbind

import (
	"context"
	"fmt"
	"reflect"
)

// SliceBinder 绑定切片。
//
// 元素为简单类型时优先读取重复值 (tags=a&tags=b)，
// 否则按索引逐个绑定 (items[0], items[1] ...)，遇到第一个缺失的索引时停止。
type SliceBinder struct{}

func (b *SliceBinder) BindModel(ctx context.Context, bc *BindingContext) (*Result, error) {
	t := bc.Metadata.Type
	if t.Kind() != reflect.Slice {
		return nil, nil
	}
	elem := t.Elem()

	if isSimpleType(elem) {
		if vr, ok := bc.ValueProvider.GetValue(bc.ModelName); ok {
			return bindRepeated(bc, elem, vr), nil
		}
	}

	if !bc.ValueProvider.ContainsPrefix(CreateIndexModelName(bc.ModelName, 0)) {
		return nil, nil
	}

	op := bc.Operation
	md := op.MetadataProvider.ForType(elem)
	node := NewValidationNode(bc.ModelName, bc.Metadata, nil)
	out := reflect.MakeSlice(t, 0, 4)

	for i := 0; ; i++ {
		name := CreateIndexModelName(bc.ModelName, i)
		if !bc.ValueProvider.ContainsPrefix(name) {
			break
		}

		res, err := op.Binder.BindModel(ctx, bc.Child(name, md))
		if err != nil {
			return nil, err
		}

		ev := reflect.Zero(elem)
		if res != nil && res.IsModelSet {
			if v, ok := assignableValue(res.Model, elem); ok {
				ev = v
			}
			if res.ValidationNode != nil {
				node.Children = append(node.Children, res.ValidationNode)
			}
		}
		out = reflect.Append(out, ev)
	}

	model := out.Interface()
	node.Model = model
	return &Result{Model: model, Key: bc.ModelName, IsModelSet: true, ValidationNode: node}, nil
}

func bindRepeated(bc *BindingContext, elem reflect.Type, vr ValueResult) *Result {
	bc.ModelState.SetModelValue(bc.ModelName, vr.Values, vr.String())

	out := reflect.MakeSlice(bc.Metadata.Type, 0, len(vr.Values))
	failed := false
	for _, raw := range vr.Values {
		if raw == "" && baseKind(elem) != reflect.String {
			continue
		}
		v, err := convertScalar(elem, raw)
		if err != nil {
			bc.ModelState.TryAddModelError(bc.ModelName, fmt.Sprintf(MsgInvalidValue, raw, displayName(bc)))
			failed = true
			continue
		}
		out = reflect.Append(out, reflect.ValueOf(v))
	}
	if failed {
		return &Result{Key: bc.ModelName}
	}

	model := out.Interface()
	return &Result{
		Model:          model,
		Key:            bc.ModelName,
		IsModelSet:     true,
		ValidationNode: NewValidationNode(bc.ModelName, bc.Metadata, model),
	}
}
