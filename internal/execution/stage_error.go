package execution

import "fmt"

const (
	stageSetup = "setup"
	stageModel = "model"
)

// stageError 标记错误发生在 Run 的哪个阶段，供 CLI 在 --json 输出中报告。
type stageError struct {
	Stage string
	Err   error
}

func (e stageError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%v", e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e stageError) Unwrap() error { return e.Err }
