package tools

import (
	"io"
	"sync"

	"toolbridge/internal/logger"
)

// DefaultToolsLogPath 工具调用日志的默认路径。
const DefaultToolsLogPath = "logs/tools.log"

// toolLogSink 持有工具日志的输出位置。首次写日志时若尚未配置，会落到默认路径。
type toolLogSink struct {
	mu     sync.Mutex
	entry  *logger.LogEntry
	closer io.Closer
	path   string
	ready  bool
}

var sink = &toolLogSink{entry: logger.Named("tools")}

// SetupToolsLog 把工具日志写到 logPath（为空时使用 DefaultToolsLogPath），返回文件 closer 及实际路径。
// 只有第一次调用生效，之后返回已有的配置。
func SetupToolsLog(logPath string) (io.Closer, string, error) {
	return sink.setup(logPath)
}

// CloseToolsLog 关闭工具日志文件，之后的日志回落到全局 logger。
func CloseToolsLog() {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.closer != nil {
		_ = sink.closer.Close()
		sink.closer = nil
		sink.entry = logger.Named("tools")
	}
}

// UseToolsLogger 临时替换工具日志输出，返回恢复函数。
func UseToolsLogger(entry *logger.LogEntry) (restore func()) {
	sink.mu.Lock()
	prevEntry, prevCloser, prevPath, prevReady := sink.entry, sink.closer, sink.path, sink.ready
	sink.entry, sink.closer, sink.path, sink.ready = entry, nil, "(custom)", true
	sink.mu.Unlock()
	return func() {
		sink.mu.Lock()
		sink.entry, sink.closer, sink.path, sink.ready = prevEntry, prevCloser, prevPath, prevReady
		sink.mu.Unlock()
	}
}

func (s *toolLogSink) setup(logPath string) (io.Closer, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return s.closer, s.path, nil
	}
	if logPath == "" {
		logPath = DefaultToolsLogPath
	}
	entry, closer, resolved, err := logger.SetupComponentFile("tools", logPath)
	s.ready = true
	s.path = resolved
	if err != nil {
		return nil, resolved, err
	}
	s.entry, s.closer = entry, closer
	return closer, resolved, nil
}

func (s *toolLogSink) log() *logger.LogEntry {
	s.mu.Lock()
	ready := s.ready
	s.mu.Unlock()
	if !ready {
		if _, _, err := s.setup(DefaultToolsLogPath); err != nil {
			logger.Named("tools").Warnf("failed to initialize tools log (%s): %v", DefaultToolsLogPath, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry
}
