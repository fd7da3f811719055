package modelbind

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Validator 是默认的验证器实例
var Validator = validator.New()

// SelfValidatable 是高性能验证接口。
// 如果模型实现了此接口，Validate 会在规则校验之后被调用。
type SelfValidatable interface {
	Validate(ctx context.Context) error
}

// ValidationNode 记录一个已绑定的 (子) 模型，供绑定结束后统一校验。
type ValidationNode struct {
	Key      string
	Metadata *Metadata
	Model    any
	Children []*ValidationNode
	// SuppressValidation 跳过本节点自身的校验，子节点不受影响
	SuppressValidation bool
}

func NewValidationNode(key string, md *Metadata, model any) *ValidationNode {
	return &ValidationNode{Key: key, Metadata: md, Model: model}
}

// Validate 后序遍历校验树，把失败写入 ms。
// 已经存在绑定错误的 key 不再重复校验。
func (n *ValidationNode) Validate(ctx context.Context, v *validator.Validate, ms *ModelState) {
	if v == nil {
		v = Validator
	}
	for _, child := range n.Children {
		child.Validate(ctx, v, ms)
	}

	if n.SuppressValidation || ms.HasErrors(n.Key) {
		return
	}

	if n.Metadata != nil && n.Metadata.ValidateTag != "" {
		if err := v.VarCtx(ctx, n.Model, n.Metadata.ValidateTag); err != nil {
			addValidationErrors(ms, n.Key, err)
		}
	}

	if sv, ok := selfValidatable(n.Model); ok {
		if err := sv.Validate(ctx); err != nil {
			ms.TryAddModelException(n.Key, err)
		}
	}
}

func addValidationErrors(ms *ModelState, key string, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		ms.TryAddModelException(key, err)
		return
	}
	for _, fe := range verrs {
		msg := fmt.Sprintf("validation failed on the '%s' tag", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("validation failed on the '%s=%s' tag", fe.Tag(), fe.Param())
		}
		ms.TryAddModelError(key, msg)
	}
}

// selfValidatable 同时检查值和指针接收者
func selfValidatable(model any) (SelfValidatable, bool) {
	if model == nil {
		return nil, false
	}
	if sv, ok := model.(SelfValidatable); ok {
		return sv, true
	}
	rv := reflect.ValueOf(model)
	if rv.Kind() == reflect.Ptr {
		return nil, false
	}
	ptr := reflect.New(rv.Type())
	ptr.Elem().Set(rv)
	sv, ok := ptr.Interface().(SelfValidatable)
	return sv, ok
}
