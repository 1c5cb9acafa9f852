package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"toolbridge/internal/agent"

	"github.com/invopop/jsonschema"
)

var reflector = jsonschema.Reflector{
	Anonymous:      true,
	DoNotReference: true,
}

// SchemaFor 从 T 的 json/jsonschema 标签反射出工具参数的 JSON Schema。
// 没有 omitempty 的字段视为必填。
func SchemaFor[T any]() (map[string]any, error) {
	var v T
	raw, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		return nil, fmt.Errorf("reflect schema for %T: %w", v, err)
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("decode schema for %T: %w", v, err)
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	return schema, nil
}

func mustSchema[T any]() map[string]any {
	schema, err := SchemaFor[T]()
	if err != nil {
		panic(err)
	}
	return schema
}

// funcHandler 把带类型的函数包装成 Handler：解码参数、调用、把结果编码为缩进 JSON。
type funcHandler[T any] struct {
	spec agent.ToolSpec
	run  func(ctx context.Context, in T) (any, error)
}

func newHandler[T any](name, description string, run func(ctx context.Context, in T) (any, error)) Handler {
	return funcHandler[T]{
		spec: agent.ToolSpec{Name: name, Description: description, Parameters: mustSchema[T]()},
		run:  run,
	}
}

func (h funcHandler[T]) Spec() agent.ToolSpec {
	return h.spec
}

func (h funcHandler[T]) Handle(ctx context.Context, input json.RawMessage) (string, error) {
	var in T
	if len(input) > 0 {
		if err := json.Unmarshal(input, &in); err != nil {
			return "", fmt.Errorf("invalid input for %s: %w", h.spec.Name, err)
		}
	}
	out, err := h.run(ctx, in)
	if err != nil {
		return "", err
	}
	if text, ok := out.(string); ok {
		return text, nil
	}
	return agent.MarshalIndentNoEscape(out, "  ")
}
