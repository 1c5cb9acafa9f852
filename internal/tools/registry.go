package tools

import (
	"context"
	"encoding/json"

	"toolbridge/internal/agent"
)

// Handler 定义具体工具的执行入口。input 为模型给出的原始 JSON 参数，
// 返回的字符串作为工具结果文本回传给模型。
type Handler interface {
	Spec() agent.ToolSpec
	Handle(ctx context.Context, input json.RawMessage) (string, error)
}

// Registry 按名称保存 handler，并记住注册顺序以生成稳定的工具列表。
type Registry struct {
	handlers map[string]Handler
	order    []string
}

func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{handlers: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

// Register 添加 handler，同名时覆盖旧的实现但保留原位置。
func (r *Registry) Register(h Handler) {
	if h == nil {
		return
	}
	name := h.Spec().Name
	if name == "" {
		return
	}
	if _, exists := r.handlers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.handlers[name] = h
}

func (r *Registry) Handler(name string) (Handler, bool) {
	if r == nil {
		return nil, false
	}
	h, ok := r.handlers[name]
	return h, ok
}

// Names 返回按注册顺序排列的工具名。
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// Specs 返回提供给模型的工具定义，顺序与注册顺序一致。
func (r *Registry) Specs() []agent.ToolSpec {
	if r == nil {
		return nil
	}
	specs := make([]agent.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.handlers[name].Spec())
	}
	return specs
}
