package modelbind

import (
	"context"
	"reflect"

	"go.uber.org/zap"
)

// MsgPairIncomplete 是键值对只绑定了一半时写入 ModelState 的错误信息
const MsgPairIncomplete = "A value is required."

// Pair 是强类型的键值对。
// 请求中以 <prefix>.Key 和 <prefix>.Value 两个子字段出现。
type Pair[K, V any] struct {
	Key   K
	Value V
}

// modelBinder 让 TypeBinder 能够从运行时类型直接得到泛型 Binder，无需注册
func (Pair[K, V]) modelBinder() ModelBinder { return &PairBinder[K, V]{} }

// PairBinder 绑定 Pair[K, V]。Key 和 Value 分别委托给根绑定器递归完成。
type PairBinder[K, V any] struct{}

func (b *PairBinder[K, V]) BindModel(ctx context.Context, bc *BindingContext) (*Result, error) {
	if err := validateContext(bc, reflect.TypeFor[Pair[K, V]](), true); err != nil {
		return nil, err
	}

	node := NewValidationNode(bc.ModelName, bc.Metadata, nil)

	keyResult, err := bindStrongModel[K](ctx, bc, "Key", node)
	if err != nil {
		return nil, err
	}
	valueResult, err := bindStrongModel[V](ctx, bc, "Value", node)
	if err != nil {
		return nil, err
	}

	switch {
	case keyResult.IsModelSet && valueResult.IsModelSet:
		model := Pair[K, V]{
			Key:   CastOrZero[K](keyResult.Model),
			Value: CastOrZero[V](valueResult.Model),
		}
		return &Result{
			Model:      model,
			Key:        bc.ModelName,
			IsModelSet: true,
			ValidationNode: &ValidationNode{
				Key:      node.Key,
				Metadata: node.Metadata,
				Model:    model,
				Children: node.Children,
			},
		}, nil

	case !keyResult.IsModelSet && valueResult.IsModelSet:
		bc.ModelState.TryAddModelError(keyResult.Key, MsgPairIncomplete)
		bc.Operation.logger().Debug("pair is missing its key", zap.String("model", bc.ModelName))
		// 已经找到部分数据，返回非 nil 以阻止其他 Binder 继续尝试
		return &Result{Key: bc.ModelName}, nil

	case keyResult.IsModelSet && !valueResult.IsModelSet:
		bc.ModelState.TryAddModelError(valueResult.Key, MsgPairIncomplete)
		bc.Operation.logger().Debug("pair is missing its value", zap.String("model", bc.ModelName))
		return &Result{Key: bc.ModelName}, nil

	default:
		return nil, nil
	}
}

// bindStrongModel 通过根绑定器绑定 T 类型的子属性，总是返回非 nil 的 Result。
func bindStrongModel[T any](ctx context.Context, parent *BindingContext, propertyName string, node *ValidationNode) (*Result, error) {
	op := parent.Operation
	md := op.MetadataProvider.ForType(reflect.TypeFor[T]())
	name := CreatePropertyModelName(parent.ModelName, propertyName)

	child := parent.Child(name, md)
	child.BinderModelName = md.BinderModelName

	res, err := op.Binder.BindModel(ctx, child)
	if err != nil {
		return nil, err
	}
	if res != nil {
		if res.ValidationNode != nil {
			node.Children = append(node.Children, res.ValidationNode)
		}
		return res, nil
	}
	return &Result{Key: name}, nil
}
