package instructions

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// ProjectDocFilename 记录团队约定，例如默认的 Jira 项目与 Confluence 空间。
	ProjectDocFilename = "TOOLBRIDGE.md"
	// ProjectOverrideFilename 存在时替代同目录的 TOOLBRIDGE.md。
	ProjectOverrideFilename = "TOOLBRIDGE.override.md"
)

// Discover 依次读取 ~/.toolbridge/TOOLBRIDGE.md 与从根目录到 workdir 路径上的说明文件。
func Discover(workdir string) string {
	home, _ := os.UserHomeDir()
	return discover(home, workdir)
}

func discover(home, workdir string) string {
	var parts []string
	if home != "" {
		if text := readDoc(filepath.Join(home, ".toolbridge", ProjectDocFilename)); text != "" {
			parts = append(parts, text)
		}
	}

	dir := workdir
	if dir == "" {
		dir, _ = os.Getwd()
	}
	if dir == "" {
		return strings.Join(parts, "\n\n")
	}
	dir = filepath.Clean(dir)

	var chain []string
	prev := ""
	for dir != prev {
		chain = append(chain, dir)
		prev = dir
		dir = filepath.Dir(dir)
	}
	// 父目录在前
	for i := len(chain) - 1; i >= 0; i-- {
		curr := chain[i]
		if text := readDoc(filepath.Join(curr, ProjectOverrideFilename)); text != "" {
			parts = append(parts, text)
			continue
		}
		if text := readDoc(filepath.Join(curr, ProjectDocFilename)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func readDoc(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Compose 把说明附加到系统提示之后。
func Compose(system, docs string) string {
	docs = strings.TrimSpace(docs)
	if docs == "" {
		return system
	}
	return strings.TrimSpace(system) + "\n\n# Team instructions\n\n" + docs
}
