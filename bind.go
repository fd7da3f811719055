package modelbind

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
)

// ErrNotPointer 表示 BindModel 的目标不是非空指针
var ErrNotPointer = errors.New("modelbind: target must be a non-nil pointer")

// Bind 把请求绑定为 T。
// 返回的 error 只表示无法读取请求或编程错误；字段级错误记录在 ModelState 中。
func Bind[T any](r *http.Request, opts ...Option) (T, *ModelState, error) {
	var v T
	ms, err := BindModel(r, &v, opts...)
	return v, ms, err
}

// BindModel 把请求绑定到 v 指向的值上，v 原有的值作为默认值保留。
func BindModel(r *http.Request, v any, opts ...Option) (*ModelState, error) {
	cfg := newConfig(opts...)
	return bindModel(r.Context(), r, v, cfg)
}

func bindModel(ctx context.Context, r *http.Request, v any, cfg *config) (*ModelState, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, ErrNotPointer
	}
	target := rv.Elem()

	vp, err := ValueProviders(r, cfg.sources...)
	if err != nil {
		return nil, err
	}

	op := &OperationContext{
		Request:          r,
		MetadataProvider: cfg.metadata,
		Binder:           cfg.binder,
		Logger:           cfg.logger,
	}
	ms := NewModelState(cfg.maxModelErrors)
	bc := &BindingContext{
		ModelName:             cfg.prefix,
		Metadata:              cfg.metadata.ForType(target.Type()),
		Model:                 target.Interface(),
		ModelState:            ms,
		ValueProvider:         vp,
		FallbackToEmptyPrefix: true,
		Operation:             op,
	}

	res, err := op.Binder.BindModel(ctx, bc)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return ms, nil
	}

	if res.IsModelSet {
		val, ok := assignableValue(res.Model, target.Type())
		if !ok {
			return nil, fmt.Errorf("%w: bound %T cannot be assigned to %s", ErrInvalidBindingContext, res.Model, target.Type())
		}
		target.Set(val)
	}

	if !cfg.skipValidation && res.ValidationNode != nil {
		res.ValidationNode.Validate(ctx, cfg.validator, ms)
	}
	return ms, nil
}
