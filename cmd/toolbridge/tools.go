package main

import (
	"flag"
	"fmt"
	"io"

	"toolbridge/internal/agent"
	"toolbridge/internal/tools"
)

type toolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// runTools 打印发送给模型的工具定义，不需要任何凭据。
func runTools(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("tools", flag.ContinueOnError)
	var namesOnly bool
	fs.BoolVar(&namesOnly, "names", false, "Only print tool names")
	if err := fs.Parse(args); err != nil {
		return err
	}

	registry := tools.NewRegistry(tools.AtlassianHandlers(nil)...)
	if namesOnly {
		for _, name := range registry.Names() {
			_, _ = fmt.Fprintln(out, name)
		}
		return nil
	}
	specs := registry.Specs()
	schemas := make([]toolSchema, 0, len(specs))
	for _, spec := range specs {
		schemas = append(schemas, toolSchema{Name: spec.Name, Description: spec.Description, Parameters: spec.Parameters})
	}
	text, err := agent.MarshalIndentNoEscape(schemas, "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, text)
	return err
}
