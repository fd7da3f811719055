package modelbind

import (
	"context"
	"fmt"
	"reflect"

	"github.com/puzpuzpuz/xsync/v4"
)

// binderProvider 由能够描述自身 Binder 的泛型类型实现 (例如 Pair)
type binderProvider interface {
	modelBinder() ModelBinder
}

var binderProviderType = reflect.TypeFor[binderProvider]()

// Registry 保存类型到 Binder 的映射 (线程安全)
type Registry struct {
	binders *xsync.Map[reflect.Type, ModelBinder]
}

func NewRegistry() *Registry {
	return &Registry{binders: xsync.NewMap[reflect.Type, ModelBinder]()}
}

// DefaultRegistry 默认注册了常用的 map 类型
var DefaultRegistry = func() *Registry {
	r := NewRegistry()
	RegisterMap[string, string](r)
	RegisterMap[string, int](r)
	return r
}()

// Register 为类型 t 指定 Binder，覆盖已有的注册
func (r *Registry) Register(t reflect.Type, b ModelBinder) {
	r.binders.Store(t, b)
}

// Lookup 查找类型 t 的 Binder。
// 未注册的类型如果自身能提供 Binder，结果会被缓存。
func (r *Registry) Lookup(t reflect.Type) (ModelBinder, bool) {
	if b, ok := r.binders.Load(t); ok {
		return b, true
	}
	// 指针类型通过方法集也满足 binderProvider，但零值是 nil 指针，交给 TypeBinder 解引用处理
	if t.Kind() != reflect.Ptr && t.Implements(binderProviderType) {
		b := reflect.Zero(t).Interface().(binderProvider).modelBinder()
		actual, _ := r.binders.LoadOrStore(t, b)
		return actual, true
	}
	return nil, false
}

// RegisterPair 显式注册 Pair[K, V]。Pair 本身可以被自动解析，这里主要用于预热。
func RegisterPair[K, V any](r *Registry) {
	r.Register(reflect.TypeFor[Pair[K, V]](), &PairBinder[K, V]{})
}

// RegisterMap 注册 map[K]V 的 Binder，同时注册其元素 Pair[K, V]
func RegisterMap[K comparable, V any](r *Registry) {
	r.Register(reflect.TypeFor[map[K]V](), &MapBinder[K, V]{})
	RegisterPair[K, V](r)
}

// TypeBinder 把绑定分派给 Registry 中为目标类型找到的 Binder
type TypeBinder struct {
	Registry *Registry
}

func (b *TypeBinder) BindModel(ctx context.Context, bc *BindingContext) (*Result, error) {
	reg := b.Registry
	if reg == nil {
		reg = DefaultRegistry
	}
	t := bc.Metadata.Type
	if binder, ok := reg.Lookup(t); ok {
		return bindResolved(ctx, binder, bc)
	}
	// *Pair[K, V]、*map[K]V：按元素类型绑定后取地址
	if t.Kind() == reflect.Ptr {
		if binder, ok := reg.Lookup(t.Elem()); ok {
			return bindPointer(ctx, binder, bc)
		}
	}
	return nil, nil
}

func bindResolved(ctx context.Context, binder ModelBinder, bc *BindingContext) (*Result, error) {
	res, err := binder.BindModel(ctx, bc)
	if err != nil {
		return nil, err
	}
	if res == nil {
		// 已经找到了该类型的 Binder，返回非 nil 以阻止链上的其他 Binder (例如 StructBinder) 继续尝试
		return &Result{Key: bc.ModelName}, nil
	}
	return res, nil
}

func bindPointer(ctx context.Context, binder ModelBinder, bc *BindingContext) (*Result, error) {
	elem := bc.Metadata.Type.Elem()

	ec := *bc
	ec.Metadata = bc.Operation.MetadataProvider.ForType(elem)
	ec.Model = nil
	if rv := reflect.ValueOf(bc.Model); rv.IsValid() && rv.Kind() == reflect.Ptr && !rv.IsNil() {
		ec.Model = rv.Elem().Interface()
	}

	res, err := bindResolved(ctx, binder, &ec)
	if err != nil || !res.IsModelSet {
		return res, err
	}

	v, ok := assignableValue(res.Model, elem)
	if !ok {
		return nil, fmt.Errorf("%w: bound %T cannot be assigned to %s", ErrInvalidBindingContext, res.Model, elem)
	}
	p := reflect.New(elem)
	p.Elem().Set(v)
	model := p.Interface()

	// 外层节点使用字段元数据 (validate tag 作用于指针本身)，元素节点作为子节点保留
	node := &ValidationNode{Key: res.Key, Metadata: bc.Metadata, Model: model}
	if res.ValidationNode != nil {
		node.Children = []*ValidationNode{res.ValidationNode}
	}
	return &Result{Model: model, Key: res.Key, IsModelSet: true, ValidationNode: node}, nil
}
