package atlassian

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// MarkdownToStorage 将 Markdown 转为 Confluence storage 格式可接受的 XHTML。
// 原始 HTML 片段会被丢弃，避免生成无法通过校验的页面。
func MarkdownToStorage(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	extensions := parser.CommonExtensions &^ parser.MathJax
	p := parser.NewWithExtensions(extensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.UseXHTML | html.SkipHTML,
	})
	out := markdown.ToHTML(markdown.NormalizeNewlines([]byte(md)), p, renderer)
	return strings.TrimSpace(string(out))
}

