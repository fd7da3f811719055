package modelbind

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"go.uber.org/zap"
)

// ErrInvalidBindingContext 表示传入 Binder 的上下文不完整或类型不匹配。
// 这类错误属于编程错误，而不是请求数据错误。
var ErrInvalidBindingContext = errors.New("modelbind: invalid binding context")

// ModelBinder 把请求数据转换为 bc.Metadata.Type 描述的类型。
//
// 返回 nil Result 表示该 Binder 不适用或没有找到任何数据，链上的下一个 Binder 会继续尝试。
// 返回非 nil Result（即使 IsModelSet 为 false）表示该 Binder 已经"认领"了本次绑定。
type ModelBinder interface {
	BindModel(ctx context.Context, bc *BindingContext) (*Result, error)
}

// BinderFunc 让普通函数满足 ModelBinder 接口
type BinderFunc func(ctx context.Context, bc *BindingContext) (*Result, error)

func (f BinderFunc) BindModel(ctx context.Context, bc *BindingContext) (*Result, error) {
	return f(ctx, bc)
}

// Result 是一次绑定尝试的结果。
type Result struct {
	Model          any
	Key            string
	IsModelSet     bool
	ValidationNode *ValidationNode
}

// OperationContext 是同一次请求绑定中所有 BindingContext 共享的状态。
type OperationContext struct {
	Request          *http.Request
	MetadataProvider *MetadataProvider
	// Binder 是根绑定器，子模型的绑定总是通过它递归完成
	Binder ModelBinder
	Logger *zap.Logger
}

func (op *OperationContext) logger() *zap.Logger {
	if op == nil || op.Logger == nil {
		return zap.NewNop()
	}
	return op.Logger
}

// BindingContext 描述一次绑定尝试：目标类型、名称前缀、模型状态和数据来源。
type BindingContext struct {
	ModelName string
	// BinderModelName 非空时替代 ModelName 作为取值名称
	BinderModelName string
	Metadata        *Metadata
	// Model 是已有的模型值 (可为 nil)
	Model         any
	ModelState    *ModelState
	ValueProvider ValueProvider
	// FallbackToEmptyPrefix 只在根上下文上设置
	FallbackToEmptyPrefix bool
	Operation             *OperationContext
}

// Child 为子模型创建绑定上下文，共享 ValueProvider、ModelState 和 OperationContext。
func (bc *BindingContext) Child(modelName string, md *Metadata) *BindingContext {
	return &BindingContext{
		ModelName:     modelName,
		Metadata:      md,
		ModelState:    bc.ModelState,
		ValueProvider: bc.ValueProvider,
		Operation:     bc.Operation,
	}
}

// validateContext 检查上下文完整性，并确认目标类型为 want。
// allowNilModel 为 false 时要求 bc.Model 非空。
func validateContext(bc *BindingContext, want reflect.Type, allowNilModel bool) error {
	if bc == nil {
		return fmt.Errorf("%w: context is nil", ErrInvalidBindingContext)
	}
	if bc.Metadata == nil || bc.Metadata.Type == nil {
		return fmt.Errorf("%w: metadata is missing for %q", ErrInvalidBindingContext, bc.ModelName)
	}
	if bc.ModelState == nil || bc.ValueProvider == nil {
		return fmt.Errorf("%w: model state or value provider is missing for %q", ErrInvalidBindingContext, bc.ModelName)
	}
	if bc.Operation == nil || bc.Operation.Binder == nil || bc.Operation.MetadataProvider == nil {
		return fmt.Errorf("%w: operation context is incomplete for %q", ErrInvalidBindingContext, bc.ModelName)
	}
	if bc.Metadata.Type != want {
		return fmt.Errorf("%w: binder for %s cannot bind %s", ErrInvalidBindingContext, want, bc.Metadata.Type)
	}
	if bc.Model == nil {
		if !allowNilModel {
			return fmt.Errorf("%w: model is nil for %q", ErrInvalidBindingContext, bc.ModelName)
		}
		return nil
	}
	if reflect.TypeOf(bc.Model) != want {
		return fmt.Errorf("%w: model of type %T is not %s", ErrInvalidBindingContext, bc.Model, want)
	}
	return nil
}

// CastOrZero 返回类型为 T 的绑定结果，其他类型返回零值。
// 只接受底层 Kind 相同的命名类型 (type ID string <- string)，不做数值或字符转换。
func CastOrZero[T any](v any) T {
	var zero T
	if v == nil {
		return zero
	}
	if t, ok := v.(T); ok {
		return t
	}
	if cv, ok := convertSameKind(reflect.ValueOf(v), reflect.TypeFor[T]()); ok {
		return cv.Interface().(T)
	}
	return zero
}

func convertSameKind(rv reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if rv.Kind() != t.Kind() || !rv.Type().ConvertibleTo(t) {
		return reflect.Value{}, false
	}
	return rv.Convert(t), true
}

// CompositeBinder 按顺序尝试多个 Binder，第一个返回非 nil 结果的 Binder 胜出。
type CompositeBinder struct {
	Binders []ModelBinder
}

func (c *CompositeBinder) BindModel(ctx context.Context, bc *BindingContext) (*Result, error) {
	attempt := bc
	if bc.BinderModelName != "" && bc.BinderModelName != bc.ModelName {
		cp := *bc
		cp.ModelName = bc.BinderModelName
		attempt = &cp
	}

	// 根上下文：前缀下没有任何数据时，直接使用空前缀
	if attempt.FallbackToEmptyPrefix && attempt.ModelName != "" &&
		!attempt.ValueProvider.ContainsPrefix(attempt.ModelName) {
		bc.Operation.logger().Debug("no values under prefix, falling back to empty prefix",
			zap.String("prefix", attempt.ModelName))
		cp := *attempt
		cp.ModelName = ""
		attempt = &cp
	}

	res, err := c.tryBinders(ctx, attempt)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	if res.IsModelSet && res.ValidationNode == nil {
		res.ValidationNode = NewValidationNode(res.Key, bc.Metadata, res.Model)
	}
	return res, nil
}

func (c *CompositeBinder) tryBinders(ctx context.Context, bc *BindingContext) (*Result, error) {
	for _, b := range c.Binders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := b.BindModel(ctx, bc)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	bc.Operation.logger().Debug("no binder produced a result",
		zap.String("model", bc.ModelName),
		zap.Stringer("type", bc.Metadata.Type))
	return nil, nil
}

// NewBinder 返回默认的根绑定器链。
// 顺序: 注册类型/泛型类型 -> 简单类型 -> 切片 -> 结构体
func NewBinder(reg *Registry) *CompositeBinder {
	if reg == nil {
		reg = DefaultRegistry
	}
	return &CompositeBinder{
		Binders: []ModelBinder{
			&TypeBinder{Registry: reg},
			&SimpleBinder{},
			&SliceBinder{},
			&StructBinder{},
		},
	}
}
