package atlassian

import "strings"

// adfNode 是 Atlassian Document Format 的节点，只覆盖本包读写所需的字段。
type adfNode struct {
	Type    string    `json:"type"`
	Version int       `json:"version,omitempty"`
	Text    string    `json:"text,omitempty"`
	Content []adfNode `json:"content,omitempty"`
}

// adfDocument 把纯文本包装成 ADF 文档，每个以空行分隔的段落对应一个 paragraph 节点。
func adfDocument(text string) adfNode {
	doc := adfNode{Type: "doc", Version: 1}
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		doc.Content = append(doc.Content, adfNode{
			Type:    "paragraph",
			Content: []adfNode{{Type: "text", Text: para}},
		})
	}
	if len(doc.Content) == 0 {
		doc.Content = []adfNode{{Type: "paragraph"}}
	}
	return doc
}

// adfText 提取文档中的全部文本，段落之间用换行分隔。
func adfText(doc *adfNode) string {
	if doc == nil {
		return ""
	}
	var blocks []string
	for _, block := range doc.Content {
		if text := strings.TrimSpace(collectText(block)); text != "" {
			blocks = append(blocks, text)
		}
	}
	return strings.Join(blocks, "\n")
}

func collectText(node adfNode) string {
	if node.Type == "text" {
		return node.Text
	}
	if node.Type == "hardBreak" {
		return "\n"
	}
	var sb strings.Builder
	for _, child := range node.Content {
		sb.WriteString(collectText(child))
	}
	return sb.String()
}
