package modelbind

import (
	"context"
	"reflect"
)

// StructBinder 逐个字段绑定结构体 (以及指向结构体的指针)。
// 字段名称片段: bind > form > json > 字段名。没有被绑定的字段保留原有值。
type StructBinder struct{}

func (b *StructBinder) BindModel(ctx context.Context, bc *BindingContext) (*Result, error) {
	t := bc.Metadata.Type
	isPtr := false
	if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct {
		t = t.Elem()
		isPtr = true
	}
	if t.Kind() != reflect.Struct {
		return nil, nil
	}

	// 非根模型只有在前缀下存在数据时才绑定
	if bc.ModelName != "" && !bc.ValueProvider.ContainsPrefix(bc.ModelName) {
		return nil, nil
	}

	op := bc.Operation
	target := reflect.New(t).Elem()
	if bc.Model != nil {
		rv := reflect.ValueOf(bc.Model)
		if isPtr && rv.Kind() == reflect.Ptr && !rv.IsNil() {
			rv = rv.Elem()
		}
		if rv.Type() == t {
			target.Set(rv)
		}
	}

	node := NewValidationNode(bc.ModelName, bc.Metadata, nil)

	for _, prop := range op.MetadataProvider.ForType(t).Properties {
		segment := prop.Name
		if prop.BinderModelName != "" {
			segment = prop.BinderModelName
		}
		name := CreatePropertyModelName(bc.ModelName, segment)

		field := target.Field(prop.Index)
		// 字段当前值作为子模型的已有值，嵌套结构体和 map 在其基础上绑定
		child := bc.Child(name, prop)
		child.Model = field.Interface()

		res, err := op.Binder.BindModel(ctx, child)
		if err != nil {
			return nil, err
		}

		if res != nil && res.IsModelSet {
			if v, ok := assignableValue(res.Model, field.Type()); ok {
				field.Set(v)
			}
		}

		// 每个字段都要进入校验树，未绑定的字段以当前值参与校验 (例如 required)
		fieldNode := NewValidationNode(name, prop, field.Interface())
		if res != nil && res.ValidationNode != nil {
			fieldNode = res.ValidationNode
		}
		if prop.SuppressValidation {
			fieldNode.SuppressValidation = true
		}
		node.Children = append(node.Children, fieldNode)
	}

	var model any
	if isPtr {
		model = target.Addr().Interface()
	} else {
		model = target.Interface()
	}
	node.Model = model
	return &Result{Model: model, Key: bc.ModelName, IsModelSet: true, ValidationNode: node}, nil
}
