package render

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table 以空格对齐的列输出表格，列宽按显示宽度计算（兼容中日韩字符）。
// maxCol > 0 时超长单元格会被截断。
func Table(headers []string, rows [][]string, maxCol int) string {
	widths := make([]int, len(headers))
	cell := func(row []string, i int) string {
		if i >= len(row) {
			return ""
		}
		if maxCol > 0 {
			return runewidth.Truncate(row[i], maxCol, "…")
		}
		return row[i]
	}
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := range headers {
			if w := runewidth.StringWidth(cell(row, i)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(row []string) {
		parts := make([]string, len(headers))
		for i := range headers {
			if i == len(headers)-1 {
				parts[i] = cell(row, i)
				continue
			}
			parts[i] = runewidth.FillRight(cell(row, i), widths[i])
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, "  "), " "))
		b.WriteByte('\n')
	}
	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}
