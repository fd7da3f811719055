package modelbind

import (
	"context"
	"reflect"
)

// MapBinder 绑定 map[K]V。
// 每个条目是一个索引化的 Pair: m[0].Key=a&m[0].Value=1&m[1].Key=b&m[1].Value=2
// 不完整的条目只会产生错误，不会出现在结果中。
type MapBinder[K comparable, V any] struct{}

func (b *MapBinder[K, V]) BindModel(ctx context.Context, bc *BindingContext) (*Result, error) {
	if err := validateContext(bc, reflect.TypeFor[map[K]V](), true); err != nil {
		return nil, err
	}
	if !bc.ValueProvider.ContainsPrefix(CreateIndexModelName(bc.ModelName, 0)) {
		return nil, nil
	}

	op := bc.Operation
	md := op.MetadataProvider.ForType(reflect.TypeFor[Pair[K, V]]())
	node := NewValidationNode(bc.ModelName, bc.Metadata, nil)

	model := make(map[K]V)
	// 在已有的 map 上追加
	if existing, ok := bc.Model.(map[K]V); ok {
		for k, v := range existing {
			model[k] = v
		}
	}

	for i := 0; ; i++ {
		name := CreateIndexModelName(bc.ModelName, i)
		if !bc.ValueProvider.ContainsPrefix(name) {
			break
		}

		res, err := op.Binder.BindModel(ctx, bc.Child(name, md))
		if err != nil {
			return nil, err
		}
		if res == nil || !res.IsModelSet {
			continue
		}

		pair := CastOrZero[Pair[K, V]](res.Model)
		model[pair.Key] = pair.Value
		if res.ValidationNode != nil {
			node.Children = append(node.Children, res.ValidationNode)
		}
	}

	node.Model = model
	return &Result{Model: model, Key: bc.ModelName, IsModelSet: true, ValidationNode: node}, nil
}
