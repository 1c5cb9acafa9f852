package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"toolbridge/internal/agent/catalog"
	"toolbridge/internal/render"

	"github.com/samber/lo"
)

const modelsColumnWidth = 40

// runModels 输出模型目录；位置参数作为模糊查询词。
func runModels(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	var provider string
	fs.StringVar(&provider, "provider", "", "Only list models of this provider")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if provider != "" && !lo.Contains(catalog.Providers(), strings.ToLower(provider)) {
		return fmt.Errorf("unknown provider %q (known: %s)", provider, strings.Join(catalog.Providers(), ", "))
	}

	models := catalog.Search(provider, strings.Join(fs.Args(), " "))
	if len(models) == 0 {
		_, _ = fmt.Fprintln(out, "no models match")
		return nil
	}
	rows := lo.Map(models, func(m catalog.Model, _ int) []string {
		return []string{m.Provider, m.Name, m.Title, strconv.Itoa(m.ContextWindow)}
	})
	_, _ = fmt.Fprintln(out, render.Table([]string{"PROVIDER", "MODEL", "TITLE", "CONTEXT"}, rows, modelsColumnWidth))
	return nil
}
