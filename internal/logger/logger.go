package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger/LogEntry/Fields 暴露底层类型，避免调用方直接依赖 logrus 包。
type Logger = logrus.Logger
type LogEntry = logrus.Entry
type Fields = logrus.Fields

// DefaultLogPath 默认日志文件路径。
const DefaultLogPath = "logs/toolbridge.log"

// DefaultLLMLogPath 模型请求/响应日志的默认路径。
const DefaultLLMLogPath = "logs/llm.log"

var (
	rootLogger = logrus.StandardLogger()
	// formatter 同时用于全局 logger 与 SetupComponentFile 创建的组件 logger。
	formatter logrus.Formatter = PlainFormatter{}
)

// Configure 设置全局日志格式与 caller 输出。
func Configure() {
	root().SetReportCaller(true)
	root().SetFormatter(formatter)
}

// SetLevel 按名称设置全局日志级别，无法识别的名称返回错误且不修改级别。
func SetLevel(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	root().SetLevel(lvl)
	return nil
}

// SetFormat 切换输出格式：plain（默认）或 json。只影响之后创建的组件 logger 与全局 logger。
func SetFormat(name string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "plain", "text":
		formatter = PlainFormatter{}
	case "json":
		formatter = &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				return "", fmt.Sprintf("%s:%d", shortenFilePath(f.File), f.Line)
			},
		}
	default:
		return fmt.Errorf("unknown log format %q (want plain or json)", name)
	}
	root().SetFormatter(formatter)
	return nil
}

// SetupFile 将全局日志输出重定向到 logPath（为空时使用 DefaultLogPath），返回文件 closer 与实际路径。
func SetupFile(logPath string) (io.Closer, string, error) {
	f, resolved, err := openLogFile(logPath)
	if err != nil {
		return nil, "", err
	}
	root().SetOutput(f)
	return f, resolved, nil
}

// SetupComponentFile 创建写入独立文件的 logger，级别跟随全局 logger，并附加 component 字段。
func SetupComponentFile(component, logPath string) (*LogEntry, io.Closer, string, error) {
	f, resolved, err := openLogFile(logPath)
	if err != nil {
		return nil, nil, "", err
	}
	l := logrus.New()
	l.SetReportCaller(true)
	l.SetFormatter(formatter)
	l.SetOutput(f)
	l.SetLevel(root().GetLevel())
	return withComponent(logrus.NewEntry(l), component), f, resolved, nil
}

// Root 返回全局共享的 logger。
func Root() *Logger {
	return root()
}

// SetRoot 覆盖全局 logger，传入 nil 时重置为标准 logger。
func SetRoot(l *Logger) {
	if l == nil {
		l = logrus.StandardLogger()
	}
	rootLogger = l
}

// Named 为指定组件创建入口，统一 component 字段。
func Named(component string) *LogEntry {
	return withComponent(logrus.NewEntry(root()), component)
}

func withComponent(entry *LogEntry, component string) *LogEntry {
	if component == "" {
		return entry
	}
	return entry.WithField("component", component)
}

func root() *logrus.Logger {
	if rootLogger == nil {
		rootLogger = logrus.StandardLogger()
	}
	return rootLogger
}

// PlainFormatter 统一输出格式：caller [timestamp] [LEVEL] [component] [provider=x] message fields。
type PlainFormatter struct{}

// prefixFields 已在行首输出，不再出现在末尾的 k=v 中。
var prefixFields = map[string]bool{"component": true, "caller": true, "provider": true}

// Format 实现 logrus Formatter。
func (PlainFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry == nil {
		return []byte{}, nil
	}
	var b strings.Builder
	if caller := formatCaller(entry); caller != "" {
		b.WriteString(caller)
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "[%s] [%s]", entry.Time.UTC().Format(time.RFC3339Nano), strings.ToUpper(entry.Level.String()))
	if component, _ := entry.Data["component"].(string); component != "" {
		fmt.Fprintf(&b, " [%s]", component)
	}
	if provider, _ := entry.Data["provider"].(string); provider != "" {
		fmt.Fprintf(&b, " [provider=%s]", provider)
	}
	b.WriteByte(' ')
	b.WriteString(entry.Message)
	if fields := formatFields(entry.Data); fields != "" {
		b.WriteByte(' ')
		b.WriteString(fields)
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func formatCaller(entry *logrus.Entry) string {
	if entry.HasCaller() && entry.Caller != nil {
		return fmt.Sprintf("%s:%d", shortenFilePath(entry.Caller.File), entry.Caller.Line)
	}
	caller, _ := entry.Data["caller"].(string)
	return caller
}

func formatFields(fields logrus.Fields) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if !prefixFields[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}

func shortenFilePath(file string) string {
	file = filepath.ToSlash(file)
	if idx := strings.Index(file, "/internal/"); idx != -1 {
		return file[idx+1:]
	}
	if idx := strings.Index(file, "/cmd/"); idx != -1 {
		return file[idx+1:]
	}
	if idx := strings.Index(file, "/toolbridge/"); idx != -1 {
		return file[idx+len("/toolbridge/"):]
	}
	return filepath.Base(file)
}

func openLogFile(logPath string) (*os.File, string, error) {
	if logPath == "" {
		logPath = DefaultLogPath
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, "", err
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, "", err
	}
	return f, logPath, nil
}
