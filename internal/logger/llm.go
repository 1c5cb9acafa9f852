package logger

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// LLMMessage 表示一次请求中的对话消息摘要。
type LLMMessage struct {
	Role    string
	Content string
}

// LLMUsage 是一次响应的 token 统计。
type LLMUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// LLMLogger 负责输出与 LLM 交互的请求、响应、告警与错误信息。
type LLMLogger interface {
	Request(provider, model string, messages []LLMMessage, tools int)
	Response(provider, model string, content string, usage LLMUsage)
	Warn(provider, model string, msg string)
	Interrupted(provider, model string)
	Error(provider, model string, err error)
}

var (
	llmMu  sync.RWMutex
	llmLog LLMLogger = NewLLMLogger(nil)
)

// GlobalLLMLogger 返回全局唯一的 LLM 日志实例。
func GlobalLLMLogger() LLMLogger {
	llmMu.RLock()
	defer llmMu.RUnlock()
	return llmLog
}

// SetGlobalLLMLogger 覆盖全局 LLM 日志实例，传入 nil 将重置为默认实现。
func SetGlobalLLMLogger(l LLMLogger) {
	if l == nil {
		l = NewLLMLogger(nil)
	}
	llmMu.Lock()
	llmLog = l
	llmMu.Unlock()
}

// StdLLMLogger 使用 logrus 输出日志。
type StdLLMLogger struct {
	logger *logrus.Entry
}

// NewLLMLogger 构造默认的 LLM 日志记录器。
func NewLLMLogger(l *Logger) *StdLLMLogger {
	if l == nil {
		l = root()
	}
	return &StdLLMLogger{logger: logrus.NewEntry(l).WithField("component", "llm")}
}

// NewLLMLoggerFromEntry 基于已有 entry（例如 SetupComponentFile 的返回值）构造记录器。
func NewLLMLoggerFromEntry(entry *LogEntry) *StdLLMLogger {
	if entry == nil {
		return NewLLMLogger(nil)
	}
	return &StdLLMLogger{logger: entry}
}

// Request 记录一次请求的上下文。
func (l *StdLLMLogger) Request(provider, model string, messages []LLMMessage, tools int) {
	l.printf(logrus.InfoLevel, provider, "-> request model=%s messages=%d tools=%d", model, len(messages), tools)
	for i, msg := range messages {
		l.printf(logrus.DebugLevel, provider, "-> message[%d] role=%s content=%s", i, msg.Role, sanitize(msg.Content))
	}
}

// Response 记录一次响应。
func (l *StdLLMLogger) Response(provider, model string, content string, usage LLMUsage) {
	l.printf(logrus.InfoLevel, provider, "<- response model=%s input_tokens=%d output_tokens=%d total_tokens=%d content=%s",
		model, usage.InputTokens, usage.OutputTokens, usage.TotalTokens, sanitize(content))
}

// Warn 记录不影响调用结果的异常，例如无法解析的工具参数。
func (l *StdLLMLogger) Warn(provider, model string, msg string) {
	l.printf(logrus.WarnLevel, provider, "!! model=%s %s", model, sanitize(msg))
}

// Interrupted 记录被调用方取消的请求。
func (l *StdLLMLogger) Interrupted(provider, model string) {
	l.printf(logrus.InfoLevel, provider, "-- aborted model=%s", model)
}

// Error 记录请求错误。
func (l *StdLLMLogger) Error(provider, model string, err error) {
	l.printf(logrus.ErrorLevel, provider, "!! error model=%s err=%v", model, err)
}

// NoopLLMLogger 忽略所有日志输出。
type NoopLLMLogger struct{}

// NewNoopLLMLogger 创建一个不输出的记录器。
func NewNoopLLMLogger() NoopLLMLogger {
	return NoopLLMLogger{}
}

func (NoopLLMLogger) Request(provider, model string, messages []LLMMessage, tools int) {}
func (NoopLLMLogger) Response(provider, model string, content string, usage LLMUsage) {}
func (NoopLLMLogger) Warn(provider, model string, msg string)                         {}
func (NoopLLMLogger) Interrupted(provider, model string)                              {}
func (NoopLLMLogger) Error(provider, model string, err error)                         {}

func (l *StdLLMLogger) printf(level logrus.Level, provider string, format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	if !l.logger.Logger.IsLevelEnabled(level) {
		return
	}

	msg := fmt.Sprintf(format, args...)
	entry := l.logger
	if provider != "" {
		entry = entry.WithField("provider", provider)
	}
	if caller := findCaller(); caller != "" {
		entry = entry.WithField("caller", caller)
	}
	entry.Log(level, msg)
}

func sanitize(text string) string {
	text = strings.ReplaceAll(text, "\n", `\n`)
	text = strings.ReplaceAll(text, "\r", `\r`)
	return text
}

func findCaller() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.File != "" && !strings.Contains(frame.File, "logger/llm.go") {
			return fmt.Sprintf("%s:%d", shortenFilePath(frame.File), frame.Line)
		}
		if !more {
			break
		}
	}
	return ""
}
