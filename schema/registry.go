package schema

import (
	"reflect"
	"sync"
)

// Registry 模型注册表，按实体类型缓存 Model
// 启动后以读为主，支持并发访问
type Registry struct {
	builder *ModelBuilder
	models  sync.Map // reflect.Type -> *Model
}

// NewRegistry 创建模型注册表
func NewRegistry() *Registry {
	return &Registry{builder: NewModelBuilder()}
}

// NewRegistryWithPrefix 创建带表名前缀的模型注册表
func NewRegistryWithPrefix(prefix string) *Registry {
	return &Registry{builder: NewModelBuilder().WithTablePrefix(prefix)}
}

// Get 获取实体对应的 Model，首次访问时构建并缓存
func (r *Registry) Get(v any) (*Model, error) {
	rt := reflect.TypeOf(v)
	for rt != nil && rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if val, ok := r.models.Load(rt); ok {
		return val.(*Model), nil
	}
	return r.Register(v)
}

// Register 构建并注册实体的 Model，重复注册覆盖旧值
func (r *Registry) Register(v any) (*Model, error) {
	model, err := r.builder.FromStruct(v)
	if err != nil {
		return nil, err
	}
	rt := reflect.TypeOf(v)
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	r.models.Store(rt, model)
	return model, nil
}

// MustRegister 注册失败直接 panic，用于进程启动期的静态声明
func (r *Registry) MustRegister(v any) *Model {
	model, err := r.Register(v)
	if err != nil {
		panic(err)
	}
	return model
}
