package agent

import (
	"errors"
	"fmt"
)

// ErrInterrupted 表示调用方主动取消了进行中的模型请求（例如用户按下 Ctrl-C）。
// 调用方应使用 errors.Is 判断，并静默结束当前轮次，而不是当作失败上报。
var ErrInterrupted = errors.New("model call interrupted")

// ConfigError 表示缺少或无效的凭据/配置，在任何网络请求之前返回。
type ConfigError struct {
	Provider string
	Field    string
	Reason   string
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("%s: missing %s", e.Provider, e.Field)
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s %s", e.Provider, e.Field, e.Reason)
	}
	return msg
}

// ProviderError 表示传输失败或非 2xx 响应。本层不做重试。
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: http_%d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsConfigError 判断 err 链中是否包含 ConfigError。
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
