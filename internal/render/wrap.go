package render

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// wrapText 按显示宽度做词级别换行，超宽的单词按字符拆开。
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		lines = append(lines, wrapLine(raw, width)...)
	}
	return lines
}

// wrapAndTruncate 在 wrapText 的基础上最多保留 maxLines 行，截断时追加省略提示。
func wrapAndTruncate(text string, width int, maxLines int) []string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	lines := wrapText(text, width)
	if maxLines > 0 && len(lines) > maxLines {
		hidden := len(lines) - maxLines
		lines = append(lines[:maxLines:maxLines], "… +"+strconv.Itoa(hidden)+" lines")
	}
	return lines
}

// wrapLine 折行单个逻辑行。超宽单词被拆开，最后一段可以和后续单词共用一行。
func wrapLine(line string, width int) []string {
	if width <= 0 || runewidth.StringWidth(line) <= width {
		return []string{line}
	}
	var (
		out  []string
		cur  strings.Builder
		curW int
	)
	flush := func() {
		if curW > 0 {
			out = append(out, cur.String())
			cur.Reset()
			curW = 0
		}
	}
	for _, word := range strings.Fields(line) {
		ww := runewidth.StringWidth(word)
		if ww > width {
			flush()
			chunks := breakWord(word, width)
			out = append(out, chunks[:len(chunks)-1]...)
			word = chunks[len(chunks)-1]
			ww = runewidth.StringWidth(word)
		} else if curW > 0 && curW+1+ww > width {
			flush()
		}
		if curW > 0 {
			cur.WriteByte(' ')
			curW++
		}
		cur.WriteString(word)
		curW += ww
	}
	flush()
	if len(out) == 0 {
		return []string{line}
	}
	return out
}

// breakWord 按显示宽度切分，宽字符不会被截成两半。
func breakWord(word string, width int) []string {
	var out []string
	for word != "" {
		head := runewidth.Truncate(word, width, "")
		if head == "" {
			// 单个字符已超过 width
			_, size := utf8.DecodeRuneInString(word)
			head = word[:size]
		}
		out = append(out, head)
		word = word[len(head):]
	}
	return out
}
